package services

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/neuroresolv/backend/internal/apierr"
	"github.com/neuroresolv/backend/internal/clients/gcp"
	"github.com/neuroresolv/backend/internal/logger"
)

// TranscriptionService converts voice progress notes into text so they can be
// logged like any typed entry.
type TranscriptionService interface {
	TranscribeBase64(ctx context.Context, audioBase64, mimeType string) (string, error)
}

type transcriptionService struct {
	log    *logger.Logger
	speech gcp.Speech
}

func NewTranscriptionService(baseLog *logger.Logger, speech gcp.Speech) TranscriptionService {
	return &transcriptionService{
		log:    baseLog.With("service", "TranscriptionService"),
		speech: speech,
	}
}

func (s *transcriptionService) TranscribeBase64(ctx context.Context, audioBase64, mimeType string) (string, error) {
	audioBase64 = strings.TrimSpace(audioBase64)
	if audioBase64 == "" {
		return "", apierr.BadRequest("audio payload required")
	}
	// Data URLs arrive as "data:audio/webm;base64,....".
	if idx := strings.Index(audioBase64, ","); idx != -1 && strings.HasPrefix(audioBase64, "data:") {
		audioBase64 = audioBase64[idx+1:]
	}
	audio, err := base64.StdEncoding.DecodeString(audioBase64)
	if err != nil {
		return "", apierr.BadRequest("audio payload is not valid base64")
	}
	text, err := s.speech.TranscribeAudioBytes(ctx, audio, mimeType)
	if err != nil {
		return "", apierr.Upstream(err)
	}
	if strings.TrimSpace(text) == "" {
		return "", apierr.BadRequest("no speech detected in audio")
	}
	return text, nil
}
