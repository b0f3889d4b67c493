package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/types"
)

type LearningEventRepo interface {
	Create(ctx context.Context, tx *gorm.DB, event *types.LearningEvent) error
	ListByResolution(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID, limit int) ([]*types.LearningEvent, error)
	AvgScoreByType(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID, eventType string) (*float64, error)
}

type learningEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearningEventRepo(db *gorm.DB, baseLog *logger.Logger) LearningEventRepo {
	return &learningEventRepo{db: db, log: baseLog.With("repo", "LearningEventRepo")}
}

func (r *learningEventRepo) Create(ctx context.Context, tx *gorm.DB, event *types.LearningEvent) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(event).Error
}

func (r *learningEventRepo) ListByResolution(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID, limit int) ([]*types.LearningEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.LearningEvent
	query := transaction.WithContext(ctx).
		Where("resolution_id = ?", resolutionID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *learningEventRepo) AvgScoreByType(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID, eventType string) (*float64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var avg *float64
	if err := transaction.WithContext(ctx).
		Model(&types.LearningEvent{}).
		Select("AVG(score)").
		Where("resolution_id = ? AND event_type = ? AND score IS NOT NULL", resolutionID, eventType).
		Scan(&avg).Error; err != nil {
		return nil, err
	}
	return avg, nil
}
