package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/neuroresolv/backend/internal/apierr"
	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/types"
)

type MilestoneRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, milestones []*types.Milestone) ([]*types.Milestone, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Milestone, error)
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Milestone, error)
	ListByResolution(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID) ([]*types.Milestone, error)
	ListByResolutionForUpdate(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID) ([]*types.Milestone, error)
	CountByResolution(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID) (total int64, completed int64, err error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	DeleteByResolution(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID) error
}

type milestoneRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMilestoneRepo(db *gorm.DB, baseLog *logger.Logger) MilestoneRepo {
	return &milestoneRepo{db: db, log: baseLog.With("repo", "MilestoneRepo")}
}

func (r *milestoneRepo) CreateBatch(ctx context.Context, tx *gorm.DB, milestones []*types.Milestone) ([]*types.Milestone, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(milestones) == 0 {
		return []*types.Milestone{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&milestones).Error; err != nil {
		return nil, err
	}
	return milestones, nil
}

func (r *milestoneRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Milestone, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var milestone types.Milestone
	if err := transaction.WithContext(ctx).First(&milestone, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("milestone")
		}
		return nil, err
	}
	return &milestone, nil
}

func (r *milestoneRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Milestone, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var milestone types.Milestone
	if err := transaction.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&milestone, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("milestone")
		}
		return nil, err
	}
	return &milestone, nil
}

func (r *milestoneRepo) ListByResolution(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID) ([]*types.Milestone, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Milestone
	if err := transaction.WithContext(ctx).
		Where("resolution_id = ?", resolutionID).
		Order("order_index ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ListByResolutionForUpdate locks every milestone of the resolution so the
// promotion step of the Complete transition cannot race with itself.
func (r *milestoneRepo) ListByResolutionForUpdate(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID) ([]*types.Milestone, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Milestone
	if err := transaction.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("resolution_id = ?", resolutionID).
		Order("order_index ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *milestoneRepo) CountByResolution(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID) (int64, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var total, completed int64
	if err := transaction.WithContext(ctx).
		Model(&types.Milestone{}).
		Where("resolution_id = ?", resolutionID).
		Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := transaction.WithContext(ctx).
		Model(&types.Milestone{}).
		Where("resolution_id = ? AND status = ?", resolutionID, types.MilestoneStatusCompleted).
		Count(&completed).Error; err != nil {
		return 0, 0, err
	}
	return total, completed, nil
}

func (r *milestoneRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Milestone{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *milestoneRepo) DeleteByResolution(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("resolution_id = ?", resolutionID).
		Delete(&types.Milestone{}).Error
}
