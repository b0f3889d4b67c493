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

type DailySessionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, session *types.DailySession) (*types.DailySession, error)
	CreateBatch(ctx context.Context, tx *gorm.DB, sessions []*types.DailySession) ([]*types.DailySession, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.DailySession, error)
	GetCurrentForDay(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID, dayNumber int) (*types.DailySession, error)
	ListByResolution(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID) ([]*types.DailySession, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
}

type dailySessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDailySessionRepo(db *gorm.DB, baseLog *logger.Logger) DailySessionRepo {
	return &dailySessionRepo{db: db, log: baseLog.With("repo", "DailySessionRepo")}
}

func (r *dailySessionRepo) Create(ctx context.Context, tx *gorm.DB, session *types.DailySession) (*types.DailySession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (r *dailySessionRepo) CreateBatch(ctx context.Context, tx *gorm.DB, sessions []*types.DailySession) ([]*types.DailySession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(sessions) == 0 {
		return []*types.DailySession{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *dailySessionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.DailySession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var session types.DailySession
	if err := transaction.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("daily session")
		}
		return nil, err
	}
	return &session, nil
}

// GetCurrentForDay prefers an open reinforcement session spliced in at the
// day, falling back to the scheduled one. Newest first covers both cases.
func (r *dailySessionRepo) GetCurrentForDay(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID, dayNumber int) (*types.DailySession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var session types.DailySession
	if err := transaction.WithContext(ctx).
		Where("resolution_id = ? AND day_number = ? AND is_completed = false", resolutionID, dayNumber).
		Order("created_at DESC").
		First(&session).Error; err == nil {
		return &session, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err := transaction.WithContext(ctx).
		Where("resolution_id = ? AND day_number = ?", resolutionID, dayNumber).
		Order("created_at DESC").
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("daily session")
		}
		return nil, err
	}
	return &session, nil
}

func (r *dailySessionRepo) ListByResolution(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID) ([]*types.DailySession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.DailySession
	if err := transaction.WithContext(ctx).
		Where("resolution_id = ?", resolutionID).
		Order("day_number ASC, created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *dailySessionRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.DailySession{}).
		Where("id = ?", id).
		Updates(fields).Error
}
