package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/neuroresolv/backend/internal/apierr"
	"github.com/neuroresolv/backend/internal/clients/gcp"
	"github.com/neuroresolv/backend/internal/clients/oracle"
	"github.com/neuroresolv/backend/internal/clients/pinecone"
	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/repos"
	"github.com/neuroresolv/backend/internal/types"
)

const (
	// materialChunkChars keeps chunks small enough to embed while holding a
	// usable amount of context per chunk.
	materialChunkChars = 1200
	// embedBatchSize bounds one embeddings request.
	embedBatchSize = 32
	// indexWorkers bounds concurrent embed+upsert batches per upload.
	indexWorkers = 4
)

// MaterialService ingests uploaded study materials: the raw file goes to the
// bucket, the extracted text is chunked, embedded and indexed into the
// per-resolution content store that grounds verification quizzes.
type MaterialService interface {
	Upload(ctx context.Context, userID, resolutionID uuid.UUID, filename, contentType string, data []byte) (*types.MaterialFile, error)
	List(ctx context.Context, userID, resolutionID uuid.UUID) ([]*types.MaterialFile, error)
}

type materialService struct {
	db  *gorm.DB
	log *logger.Logger

	resolutionRepo repos.ResolutionRepo
	materialRepo   repos.MaterialFileRepo

	bucket   BucketService
	document gcp.Document
	store    pinecone.ContentStore
	ai       oracle.Client
}

func NewMaterialService(
	db *gorm.DB,
	baseLog *logger.Logger,
	resolutionRepo repos.ResolutionRepo,
	materialRepo repos.MaterialFileRepo,
	bucket BucketService,
	document gcp.Document,
	store pinecone.ContentStore,
	ai oracle.Client,
) MaterialService {
	return &materialService{
		db:             db,
		log:            baseLog.With("service", "MaterialService"),
		resolutionRepo: resolutionRepo,
		materialRepo:   materialRepo,
		bucket:         bucket,
		document:       document,
		store:          store,
		ai:             ai,
	}
}

func (s *materialService) Upload(ctx context.Context, userID, resolutionID uuid.UUID, filename, contentType string, data []byte) (*types.MaterialFile, error) {
	if _, err := s.resolutionRepo.GetOwned(ctx, nil, userID, resolutionID); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, apierr.BadRequest("empty file")
	}
	if !supportedMaterialType(contentType) {
		return nil, apierr.BadRequest("unsupported content type, expected pdf, txt or markdown")
	}

	storageKey := fmt.Sprintf("materials/%s/%s_%s", resolutionID, uuid.New(), filename)
	if err := s.bucket.UploadFile(ctx, storageKey, bytes.NewReader(data)); err != nil {
		return nil, apierr.Upstream(err)
	}

	file, err := s.materialRepo.Create(ctx, nil, &types.MaterialFile{
		ResolutionID: resolutionID,
		OriginalName: filename,
		StorageKey:   storageKey,
		ContentType:  contentType,
		Status:       types.MaterialStatusPending,
	})
	if err != nil {
		return nil, err
	}

	text, err := s.extractText(ctx, data, contentType)
	if err == nil {
		err = s.index(ctx, resolutionID, file.ID, text)
	}
	if err != nil {
		s.log.Error("material indexing failed", "file_id", file.ID, "error", err)
		if updateErr := s.materialRepo.UpdateFields(ctx, nil, file.ID, map[string]interface{}{
			"status": types.MaterialStatusFailed,
		}); updateErr != nil {
			s.log.Error("failed to mark material failed", "file_id", file.ID, "error", updateErr)
		}
		file.Status = types.MaterialStatusFailed
		return file, nil
	}

	chunks := chunkText(text, materialChunkChars)
	if err := s.materialRepo.UpdateFields(ctx, nil, file.ID, map[string]interface{}{
		"status":      types.MaterialStatusIndexed,
		"chunk_count": len(chunks),
		"char_count":  len(text),
	}); err != nil {
		return nil, err
	}
	file.Status = types.MaterialStatusIndexed
	file.ChunkCount = len(chunks)
	file.CharCount = len(text)
	return file, nil
}

func supportedMaterialType(contentType string) bool {
	switch contentType {
	case "application/pdf", "text/plain", "text/markdown":
		return true
	}
	return false
}

func (s *materialService) extractText(ctx context.Context, data []byte, contentType string) (string, error) {
	if contentType == "application/pdf" {
		return s.document.ExtractText(ctx, data, contentType)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("file is not valid utf-8 text")
	}
	return string(data), nil
}

func (s *materialService) index(ctx context.Context, resolutionID, fileID uuid.UUID, text string) error {
	chunks := chunkText(text, materialChunkChars)
	if len(chunks) == 0 {
		return fmt.Errorf("no extractable text")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(indexWorkers)
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		offset := start
		g.Go(func() error {
			embeddings, err := s.ai.Embed(ctx, batch)
			if err != nil {
				return err
			}
			if len(embeddings) != len(batch) {
				return fmt.Errorf("embedding count mismatch: %d texts, %d vectors", len(batch), len(embeddings))
			}
			vectors := make([]pinecone.Vector, 0, len(batch))
			for i, chunk := range batch {
				vectors = append(vectors, pinecone.Vector{
					ID:     fmt.Sprintf("%s_%d", fileID, offset+i),
					Values: embeddings[i],
					Metadata: map[string]any{
						"text":    chunk,
						"file_id": fileID.String(),
					},
				})
			}
			return s.store.Upsert(ctx, resolutionID, vectors)
		})
	}
	return g.Wait()
}

// chunkText splits on paragraph boundaries where possible, hard-splitting
// paragraphs that exceed the limit on their own.
func chunkText(text string, limit int) []string {
	var chunks []string
	var current strings.Builder
	flush := func() {
		if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
		current.Reset()
	}
	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		for len(paragraph) > limit {
			flush()
			cut := limit
			if idx := strings.LastIndexByte(paragraph[:limit], ' '); idx > limit/2 {
				cut = idx
			}
			chunks = append(chunks, strings.TrimSpace(paragraph[:cut]))
			paragraph = strings.TrimSpace(paragraph[cut:])
		}
		if current.Len() > 0 && current.Len()+len(paragraph)+2 > limit {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(paragraph)
	}
	flush()
	return chunks
}

func (s *materialService) List(ctx context.Context, userID, resolutionID uuid.UUID) ([]*types.MaterialFile, error) {
	if _, err := s.resolutionRepo.GetOwned(ctx, nil, userID, resolutionID); err != nil {
		return nil, err
	}
	return s.materialRepo.ListByResolution(ctx, nil, resolutionID)
}
