package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neuroresolv/backend/internal/apierr"
	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/types"
)

type WeeklyGoalRepo interface {
	Create(ctx context.Context, tx *gorm.DB, goal *types.WeeklyGoal) (*types.WeeklyGoal, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.WeeklyGoal, error)
	GetCurrent(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID, asOf time.Time) (*types.WeeklyGoal, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
}

type weeklyGoalRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWeeklyGoalRepo(db *gorm.DB, baseLog *logger.Logger) WeeklyGoalRepo {
	return &weeklyGoalRepo{db: db, log: baseLog.With("repo", "WeeklyGoalRepo")}
}

func (r *weeklyGoalRepo) Create(ctx context.Context, tx *gorm.DB, goal *types.WeeklyGoal) (*types.WeeklyGoal, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(goal).Error; err != nil {
		return nil, err
	}
	return goal, nil
}

func (r *weeklyGoalRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.WeeklyGoal, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var goal types.WeeklyGoal
	if err := transaction.WithContext(ctx).First(&goal, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("weekly goal")
		}
		return nil, err
	}
	return &goal, nil
}

func (r *weeklyGoalRepo) GetCurrent(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID, asOf time.Time) (*types.WeeklyGoal, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	day := asOf.Format("2006-01-02")
	var goal types.WeeklyGoal
	if err := transaction.WithContext(ctx).
		Where("resolution_id = ? AND week_start <= ? AND week_end >= ? AND is_dismissed = false", resolutionID, day, day).
		Order("created_at DESC").
		First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("weekly goal")
		}
		return nil, err
	}
	return &goal, nil
}

func (r *weeklyGoalRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.WeeklyGoal{}).
		Where("id = ?", id).
		Updates(fields).Error
}
