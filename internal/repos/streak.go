package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/types"
)

type StreakRepo interface {
	GetByResolution(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID) (*types.Streak, error)
	GetByResolutionForUpdate(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID) (*types.Streak, error)
	Save(ctx context.Context, tx *gorm.DB, streak *types.Streak) error
}

type streakRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStreakRepo(db *gorm.DB, baseLog *logger.Logger) StreakRepo {
	return &streakRepo{db: db, log: baseLog.With("repo", "StreakRepo")}
}

// GetByResolution creates the zero-valued row on first access so callers
// never deal with a missing streak.
func (r *streakRepo) GetByResolution(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID) (*types.Streak, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var streak types.Streak
	err := transaction.WithContext(ctx).First(&streak, "resolution_id = ?", resolutionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		streak = types.Streak{ResolutionID: resolutionID}
		if err := transaction.WithContext(ctx).Create(&streak).Error; err != nil {
			return nil, err
		}
		return &streak, nil
	}
	if err != nil {
		return nil, err
	}
	return &streak, nil
}

// GetByResolutionForUpdate locks the streak row so concurrent log and grade
// operations apply their counter updates one at a time.
func (r *streakRepo) GetByResolutionForUpdate(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID) (*types.Streak, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var streak types.Streak
	err := transaction.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&streak, "resolution_id = ?", resolutionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		streak = types.Streak{ResolutionID: resolutionID}
		if err := transaction.WithContext(ctx).Create(&streak).Error; err != nil {
			return nil, err
		}
		return &streak, nil
	}
	if err != nil {
		return nil, err
	}
	return &streak, nil
}

func (r *streakRepo) Save(ctx context.Context, tx *gorm.DB, streak *types.Streak) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(streak).Error
}
