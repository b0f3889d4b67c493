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

type SyllabusRepo interface {
	Create(ctx context.Context, tx *gorm.DB, syllabus *types.Syllabus) (*types.Syllabus, error)
	GetByResolution(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID) (*types.Syllabus, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
}

type syllabusRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSyllabusRepo(db *gorm.DB, baseLog *logger.Logger) SyllabusRepo {
	return &syllabusRepo{db: db, log: baseLog.With("repo", "SyllabusRepo")}
}

func (r *syllabusRepo) Create(ctx context.Context, tx *gorm.DB, syllabus *types.Syllabus) (*types.Syllabus, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(syllabus).Error; err != nil {
		return nil, err
	}
	return syllabus, nil
}

func (r *syllabusRepo) GetByResolution(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID) (*types.Syllabus, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var syllabus types.Syllabus
	if err := transaction.WithContext(ctx).
		First(&syllabus, "resolution_id = ?", resolutionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("syllabus")
		}
		return nil, err
	}
	return &syllabus, nil
}

func (r *syllabusRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Syllabus{}).
		Where("id = ?", id).
		Updates(fields).Error
}
