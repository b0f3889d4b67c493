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

type ResolutionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, resolution *types.Resolution) (*types.Resolution, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Resolution, error)
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Resolution, error)
	GetOwned(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*types.Resolution, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Resolution, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
}

type resolutionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResolutionRepo(db *gorm.DB, baseLog *logger.Logger) ResolutionRepo {
	return &resolutionRepo{db: db, log: baseLog.With("repo", "ResolutionRepo")}
}

func (r *resolutionRepo) Create(ctx context.Context, tx *gorm.DB, resolution *types.Resolution) (*types.Resolution, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(resolution).Error; err != nil {
		return nil, err
	}
	return resolution, nil
}

func (r *resolutionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Resolution, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var resolution types.Resolution
	if err := transaction.WithContext(ctx).First(&resolution, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("resolution")
		}
		return nil, err
	}
	return &resolution, nil
}

// GetByIDForUpdate locks the row for the rest of the transaction. Mutation
// paths that read-then-write the plan fields go through here.
func (r *resolutionRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Resolution, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var resolution types.Resolution
	if err := transaction.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&resolution, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("resolution")
		}
		return nil, err
	}
	return &resolution, nil
}

func (r *resolutionRepo) GetOwned(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*types.Resolution, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var resolution types.Resolution
	if err := transaction.WithContext(ctx).
		First(&resolution, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("resolution")
		}
		return nil, err
	}
	return &resolution, nil
}

func (r *resolutionRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Resolution, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Resolution
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *resolutionRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Resolution{}).
		Where("id = ?", id).
		Updates(fields).Error
}
