package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/repos"
	"github.com/neuroresolv/backend/internal/types"
)

const reinforcementThreshold = 0.7

// ConceptResult is one graded answer attributed to a concept.
type ConceptResult struct {
	Concept string
	Correct bool
}

type MetricsService interface {
	ApplyResults(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID, results []ConceptResult) error
	WeakConcepts(ctx context.Context, resolutionID uuid.UUID) ([]*types.LearningMetric, error)
}

type metricsService struct {
	log        *logger.Logger
	metricRepo repos.LearningMetricRepo
}

func NewMetricsService(baseLog *logger.Logger, metricRepo repos.LearningMetricRepo) MetricsService {
	return &metricsService{
		log:        baseLog.With("service", "MetricsService"),
		metricRepo: metricRepo,
	}
}

// ApplyResults folds graded answers into the per-concept mastery rows.
// Mastery is lifetime correct/attempts, not a moving average.
func (s *metricsService) ApplyResults(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID, results []ConceptResult) error {
	now := time.Now().UTC()
	for _, result := range results {
		concept := strings.TrimSpace(result.Concept)
		if concept == "" {
			continue
		}
		metric, err := s.metricRepo.GetByConceptForUpdate(ctx, tx, resolutionID, concept)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metric = &types.LearningMetric{
				ResolutionID: resolutionID,
				Concept:      concept,
			}
			if _, err := s.metricRepo.Create(ctx, tx, metric); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		metric.Attempts++
		if result.Correct {
			metric.CorrectCount++
		}
		metric.MasteryScore = float64(metric.CorrectCount) / float64(metric.Attempts)
		metric.NeedsReinforcement = metric.MasteryScore < reinforcementThreshold
		metric.LastTestedAt = &now

		if err := s.metricRepo.Save(ctx, tx, metric); err != nil {
			return err
		}
	}
	return nil
}

func (s *metricsService) WeakConcepts(ctx context.Context, resolutionID uuid.UUID) ([]*types.LearningMetric, error) {
	return s.metricRepo.ListNeedingReinforcement(ctx, nil, resolutionID)
}
