package pinecone

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/neuroresolv/backend/internal/logger"
)

// ContentStore is the per-resolution semantic index of uploaded study
// material. Each resolution gets its own namespace so queries never cross
// learners' content.
type ContentStore interface {
	Upsert(ctx context.Context, resolutionID uuid.UUID, vectors []Vector) error
	// QueryTexts returns the chunk texts of the closest matches, best first.
	// Empty results are not an error.
	QueryTexts(ctx context.Context, resolutionID uuid.UUID, q []float32, topK int) ([]string, error)
}

type contentStore struct {
	log       *logger.Logger
	pc        Client
	indexName string
	indexHost string
}

func NewContentStore(log *logger.Logger, pc Client) (ContentStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if pc == nil {
		return nil, fmt.Errorf("pinecone client required")
	}

	indexName := strings.TrimSpace(os.Getenv("PINECONE_INDEX_NAME"))
	if indexName == "" {
		return nil, fmt.Errorf("missing PINECONE_INDEX_NAME")
	}

	host := strings.TrimSpace(os.Getenv("PINECONE_INDEX_HOST"))
	if host == "" {
		desc, err := pc.DescribeIndex(context.Background(), indexName)
		if err != nil {
			return nil, fmt.Errorf("pinecone describe_index failed: %w", err)
		}
		host = strings.TrimSpace(desc.Host)
		log.Warn("PINECONE_INDEX_HOST not set; resolved via describe_index (avoid this in production)",
			"index_name", indexName,
			"index_host", host,
		)
	}

	return &contentStore{
		log:       log.With("service", "PineconeContentStore"),
		pc:        pc,
		indexName: indexName,
		indexHost: host,
	}, nil
}

func (s *contentStore) Upsert(ctx context.Context, resolutionID uuid.UUID, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	_, err := s.pc.UpsertVectors(ctx, s.indexHost, UpsertRequest{
		Namespace: namespaceFor(resolutionID),
		Vectors:   vectors,
	})
	return err
}

func (s *contentStore) QueryTexts(ctx context.Context, resolutionID uuid.UUID, q []float32, topK int) ([]string, error) {
	resp, err := s.pc.Query(ctx, s.indexHost, QueryRequest{
		Namespace:       namespaceFor(resolutionID),
		Vector:          q,
		TopK:            topK,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m.Metadata == nil {
			continue
		}
		if text, ok := m.Metadata["text"].(string); ok && strings.TrimSpace(text) != "" {
			out = append(out, text)
		}
	}
	return out, nil
}

func namespaceFor(resolutionID uuid.UUID) string {
	return "resolution_" + resolutionID.String()
}
