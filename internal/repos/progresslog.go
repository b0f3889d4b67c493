package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/neuroresolv/backend/internal/apierr"
	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/types"
)

const uniqueViolation = "23505"

type ProgressLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, progressLog *types.ProgressLog) (*types.ProgressLog, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ProgressLog, error)
	GetByResolutionAndDate(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID, date time.Time) (*types.ProgressLog, error)
	ListByResolution(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID, limit int) ([]*types.ProgressLog, error)
	ListSince(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID, since time.Time) ([]*types.ProgressLog, error)
	CountSince(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID, since time.Time) (int64, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
}

type progressLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressLogRepo(db *gorm.DB, baseLog *logger.Logger) ProgressLogRepo {
	return &progressLogRepo{db: db, log: baseLog.With("repo", "ProgressLogRepo")}
}

// Create relies on the (resolution_id, date) unique index for same-day
// duplicates. The database is the arbiter under concurrency, not a
// read-before-write check.
func (r *progressLogRepo) Create(ctx context.Context, tx *gorm.DB, progressLog *types.ProgressLog) (*types.ProgressLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(progressLog).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, apierr.Conflict("progress already logged for this date")
		}
		return nil, err
	}
	return progressLog, nil
}

func (r *progressLogRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ProgressLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var progressLog types.ProgressLog
	if err := transaction.WithContext(ctx).First(&progressLog, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("progress log")
		}
		return nil, err
	}
	return &progressLog, nil
}

func (r *progressLogRepo) GetByResolutionAndDate(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID, date time.Time) (*types.ProgressLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var progressLog types.ProgressLog
	if err := transaction.WithContext(ctx).
		First(&progressLog, "resolution_id = ? AND date = ?", resolutionID, date.Format("2006-01-02")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("progress log")
		}
		return nil, err
	}
	return &progressLog, nil
}

func (r *progressLogRepo) ListByResolution(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID, limit int) ([]*types.ProgressLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ProgressLog
	query := transaction.WithContext(ctx).
		Where("resolution_id = ?", resolutionID).
		Order("date DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *progressLogRepo) ListSince(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID, since time.Time) ([]*types.ProgressLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ProgressLog
	if err := transaction.WithContext(ctx).
		Where("resolution_id = ? AND date >= ?", resolutionID, since.Format("2006-01-02")).
		Order("date DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *progressLogRepo) CountSince(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID, since time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ProgressLog{}).
		Where("resolution_id = ? AND date >= ?", resolutionID, since.Format("2006-01-02")).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *progressLogRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.ProgressLog{}).
		Where("id = ?", id).
		Updates(fields).Error
}
