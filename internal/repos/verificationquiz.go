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

type VerificationQuizRepo interface {
	Create(ctx context.Context, tx *gorm.DB, quiz *types.VerificationQuiz) (*types.VerificationQuiz, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.VerificationQuiz, error)
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.VerificationQuiz, error)
	GetByProgressLog(ctx context.Context, tx *gorm.DB, progressLogID uuid.UUID) (*types.VerificationQuiz, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
}

type verificationQuizRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVerificationQuizRepo(db *gorm.DB, baseLog *logger.Logger) VerificationQuizRepo {
	return &verificationQuizRepo{db: db, log: baseLog.With("repo", "VerificationQuizRepo")}
}

func (r *verificationQuizRepo) Create(ctx context.Context, tx *gorm.DB, quiz *types.VerificationQuiz) (*types.VerificationQuiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(quiz).Error; err != nil {
		return nil, err
	}
	return quiz, nil
}

func (r *verificationQuizRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.VerificationQuiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var quiz types.VerificationQuiz
	if err := transaction.WithContext(ctx).First(&quiz, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("verification quiz")
		}
		return nil, err
	}
	return &quiz, nil
}

// GetByIDForUpdate serializes grading. Two concurrent submissions both lock
// here; the second sees is_completed and gets a conflict.
func (r *verificationQuizRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.VerificationQuiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var quiz types.VerificationQuiz
	if err := transaction.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&quiz, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("verification quiz")
		}
		return nil, err
	}
	return &quiz, nil
}

func (r *verificationQuizRepo) GetByProgressLog(ctx context.Context, tx *gorm.DB, progressLogID uuid.UUID) (*types.VerificationQuiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var quiz types.VerificationQuiz
	if err := transaction.WithContext(ctx).
		First(&quiz, "progress_log_id = ?", progressLogID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("verification quiz")
		}
		return nil, err
	}
	return &quiz, nil
}

func (r *verificationQuizRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.VerificationQuiz{}).
		Where("id = ?", id).
		Updates(fields).Error
}
