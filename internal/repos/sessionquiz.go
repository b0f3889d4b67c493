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

type SessionQuizRepo interface {
	CreateWithQuestions(ctx context.Context, tx *gorm.DB, quiz *types.SessionQuiz, questions []*types.SessionQuizQuestion) (*types.SessionQuiz, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SessionQuiz, error)
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SessionQuiz, error)
	GetBySession(ctx context.Context, tx *gorm.DB, dailySessionID uuid.UUID) (*types.SessionQuiz, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	CreateResponses(ctx context.Context, tx *gorm.DB, responses []*types.SessionQuizResponse) error
}

type sessionQuizRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionQuizRepo(db *gorm.DB, baseLog *logger.Logger) SessionQuizRepo {
	return &sessionQuizRepo{db: db, log: baseLog.With("repo", "SessionQuizRepo")}
}

func (r *sessionQuizRepo) CreateWithQuestions(ctx context.Context, tx *gorm.DB, quiz *types.SessionQuiz, questions []*types.SessionQuizQuestion) (*types.SessionQuiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(quiz).Error; err != nil {
		return nil, err
	}
	for i := range questions {
		questions[i].SessionQuizID = quiz.ID
		questions[i].OrderIndex = i + 1
	}
	if len(questions) > 0 {
		if err := transaction.WithContext(ctx).Create(&questions).Error; err != nil {
			return nil, err
		}
	}
	quiz.Questions = questions
	return quiz, nil
}

func (r *sessionQuizRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SessionQuiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var quiz types.SessionQuiz
	if err := transaction.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("order_index ASC") }).
		First(&quiz, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("session quiz")
		}
		return nil, err
	}
	return &quiz, nil
}

// GetByIDForUpdate locks the quiz row only; questions are immutable after
// creation so they are loaded without a lock.
func (r *sessionQuizRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SessionQuiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var quiz types.SessionQuiz
	if err := transaction.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "session_quiz"}}).
		First(&quiz, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("session quiz")
		}
		return nil, err
	}
	var questions []*types.SessionQuizQuestion
	if err := transaction.WithContext(ctx).
		Where("session_quiz_id = ?", quiz.ID).
		Order("order_index ASC").
		Find(&questions).Error; err != nil {
		return nil, err
	}
	quiz.Questions = questions
	return &quiz, nil
}

func (r *sessionQuizRepo) GetBySession(ctx context.Context, tx *gorm.DB, dailySessionID uuid.UUID) (*types.SessionQuiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var quiz types.SessionQuiz
	if err := transaction.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("order_index ASC") }).
		First(&quiz, "daily_session_id = ?", dailySessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("session quiz")
		}
		return nil, err
	}
	return &quiz, nil
}

func (r *sessionQuizRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.SessionQuiz{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *sessionQuizRepo) CreateResponses(ctx context.Context, tx *gorm.DB, responses []*types.SessionQuizResponse) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(responses) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&responses).Error
}
