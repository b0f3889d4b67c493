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

type AIFeedbackRepo interface {
	Create(ctx context.Context, tx *gorm.DB, feedback *types.AIFeedback) (*types.AIFeedback, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AIFeedback, error)
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AIFeedback, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
}

type aiFeedbackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAIFeedbackRepo(db *gorm.DB, baseLog *logger.Logger) AIFeedbackRepo {
	return &aiFeedbackRepo{db: db, log: baseLog.With("repo", "AIFeedbackRepo")}
}

func (r *aiFeedbackRepo) Create(ctx context.Context, tx *gorm.DB, feedback *types.AIFeedback) (*types.AIFeedback, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(feedback).Error; err != nil {
		return nil, err
	}
	return feedback, nil
}

func (r *aiFeedbackRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AIFeedback, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var feedback types.AIFeedback
	if err := transaction.WithContext(ctx).First(&feedback, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("feedback")
		}
		return nil, err
	}
	return &feedback, nil
}

// GetByIDForUpdate serializes regeneration so the was_regenerated flag flips
// exactly once even under concurrent requests.
func (r *aiFeedbackRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AIFeedback, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var feedback types.AIFeedback
	if err := transaction.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&feedback, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("feedback")
		}
		return nil, err
	}
	return &feedback, nil
}

func (r *aiFeedbackRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.AIFeedback{}).
		Where("id = ?", id).
		Updates(fields).Error
}
