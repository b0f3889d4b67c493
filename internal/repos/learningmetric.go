package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/types"
)

type LearningMetricRepo interface {
	GetByConceptForUpdate(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID, concept string) (*types.LearningMetric, error)
	Create(ctx context.Context, tx *gorm.DB, metric *types.LearningMetric) (*types.LearningMetric, error)
	Save(ctx context.Context, tx *gorm.DB, metric *types.LearningMetric) error
	ListByResolution(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID) ([]*types.LearningMetric, error)
	ListNeedingReinforcement(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID) ([]*types.LearningMetric, error)
}

type learningMetricRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearningMetricRepo(db *gorm.DB, baseLog *logger.Logger) LearningMetricRepo {
	return &learningMetricRepo{db: db, log: baseLog.With("repo", "LearningMetricRepo")}
}

func (r *learningMetricRepo) GetByConceptForUpdate(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID, concept string) (*types.LearningMetric, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var metric types.LearningMetric
	err := transaction.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&metric, "resolution_id = ? AND concept = ?", resolutionID, concept).Error
	if err != nil {
		// callers treat gorm.ErrRecordNotFound as "create a fresh metric"
		return nil, err
	}
	return &metric, nil
}

func (r *learningMetricRepo) Create(ctx context.Context, tx *gorm.DB, metric *types.LearningMetric) (*types.LearningMetric, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(metric).Error; err != nil {
		return nil, err
	}
	return metric, nil
}

func (r *learningMetricRepo) Save(ctx context.Context, tx *gorm.DB, metric *types.LearningMetric) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(metric).Error
}

func (r *learningMetricRepo) ListByResolution(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID) ([]*types.LearningMetric, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.LearningMetric
	if err := transaction.WithContext(ctx).
		Where("resolution_id = ?", resolutionID).
		Order("concept ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *learningMetricRepo) ListNeedingReinforcement(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID) ([]*types.LearningMetric, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.LearningMetric
	if err := transaction.WithContext(ctx).
		Where("resolution_id = ? AND needs_reinforcement = true", resolutionID).
		Order("mastery_score ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
