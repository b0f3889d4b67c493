package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neuroresolv/backend/internal/apierr"
	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/types"
)

type NorthStarRepo interface {
	Create(ctx context.Context, tx *gorm.DB, goal *types.NorthStarGoal) (*types.NorthStarGoal, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.NorthStarGoal, error)
	GetByResolution(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID) (*types.NorthStarGoal, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
}

type northStarRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNorthStarRepo(db *gorm.DB, baseLog *logger.Logger) NorthStarRepo {
	return &northStarRepo{db: db, log: baseLog.With("repo", "NorthStarRepo")}
}

func (r *northStarRepo) Create(ctx context.Context, tx *gorm.DB, goal *types.NorthStarGoal) (*types.NorthStarGoal, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(goal).Error; err != nil {
		return nil, err
	}
	return goal, nil
}

func (r *northStarRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.NorthStarGoal, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var goal types.NorthStarGoal
	if err := transaction.WithContext(ctx).First(&goal, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("north star goal")
		}
		return nil, err
	}
	return &goal, nil
}

func (r *northStarRepo) GetByResolution(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID) (*types.NorthStarGoal, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var goal types.NorthStarGoal
	if err := transaction.WithContext(ctx).
		First(&goal, "resolution_id = ?", resolutionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("north star goal")
		}
		return nil, err
	}
	return &goal, nil
}

func (r *northStarRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.NorthStarGoal{}).
		Where("id = ?", id).
		Updates(fields).Error
}
