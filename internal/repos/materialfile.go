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

type MaterialFileRepo interface {
	Create(ctx context.Context, tx *gorm.DB, file *types.MaterialFile) (*types.MaterialFile, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.MaterialFile, error)
	ListByResolution(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID) ([]*types.MaterialFile, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
}

type materialFileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaterialFileRepo(db *gorm.DB, baseLog *logger.Logger) MaterialFileRepo {
	return &materialFileRepo{db: db, log: baseLog.With("repo", "MaterialFileRepo")}
}

func (r *materialFileRepo) Create(ctx context.Context, tx *gorm.DB, file *types.MaterialFile) (*types.MaterialFile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(file).Error; err != nil {
		return nil, err
	}
	return file, nil
}

func (r *materialFileRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.MaterialFile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var file types.MaterialFile
	if err := transaction.WithContext(ctx).First(&file, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("material file")
		}
		return nil, err
	}
	return &file, nil
}

func (r *materialFileRepo) ListByResolution(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID) ([]*types.MaterialFile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.MaterialFile
	if err := transaction.WithContext(ctx).
		Where("resolution_id = ?", resolutionID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *materialFileRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.MaterialFile{}).
		Where("id = ?", id).
		Updates(fields).Error
}
