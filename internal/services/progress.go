package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/neuroresolv/backend/internal/apierr"
	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/repos"
	"github.com/neuroresolv/backend/internal/types"
)

type LogProgressInput struct {
	Content         string   `json:"content"`
	InputType       string   `json:"input_type"`
	SourceReference string   `json:"source_reference"`
	DurationMinutes int      `json:"duration_minutes"`
	ConceptsClaimed []string `json:"concepts_claimed"`
	// Date defaults to today (UTC). Backfilling past days is allowed; the
	// streak only moves for today's log.
	Date *time.Time `json:"date,omitempty"`
}

// ProgressService owns the daily log surface: one log per day per resolution,
// streak advancement, and the plan-health recompute that follows every log.
type ProgressService interface {
	Log(ctx context.Context, userID, resolutionID uuid.UUID, in LogProgressInput) (*types.ProgressLog, error)
	Today(ctx context.Context, userID, resolutionID uuid.UUID) (*types.ProgressLog, error)
	History(ctx context.Context, userID, resolutionID uuid.UUID, limit int) ([]*types.ProgressLog, error)
	Streak(ctx context.Context, userID, resolutionID uuid.UUID) (*types.Streak, error)
}

type progressService struct {
	db  *gorm.DB
	log *logger.Logger

	resolutionRepo  repos.ResolutionRepo
	progressLogRepo repos.ProgressLogRepo

	streaks StreakService
	plan    PlanService
}

func NewProgressService(
	db *gorm.DB,
	baseLog *logger.Logger,
	resolutionRepo repos.ResolutionRepo,
	progressLogRepo repos.ProgressLogRepo,
	streaks StreakService,
	plan PlanService,
) ProgressService {
	return &progressService{
		db:              db,
		log:             baseLog.With("service", "ProgressService"),
		resolutionRepo:  resolutionRepo,
		progressLogRepo: progressLogRepo,
		streaks:         streaks,
		plan:            plan,
	}
}

func (s *progressService) Log(ctx context.Context, userID, resolutionID uuid.UUID, in LogProgressInput) (*types.ProgressLog, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, apierr.BadRequest("content required")
	}
	if in.InputType == "" {
		in.InputType = "text"
	}
	today := dateOnly(time.Now().UTC())
	logDate := today
	if in.Date != nil {
		logDate = dateOnly(in.Date.UTC())
		if logDate.After(today) {
			return nil, apierr.BadRequest("cannot log progress for a future date")
		}
	}
	concepts, err := json.Marshal(in.ConceptsClaimed)
	if err != nil {
		return nil, err
	}

	var created *types.ProgressLog
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		resolution, err := s.resolutionRepo.GetOwned(ctx, tx, userID, resolutionID)
		if err != nil {
			return err
		}
		created, err = s.progressLogRepo.Create(ctx, tx, &types.ProgressLog{
			ResolutionID:    resolution.ID,
			Date:            logDate,
			Content:         in.Content,
			InputType:       in.InputType,
			SourceReference: in.SourceReference,
			DurationMinutes: in.DurationMinutes,
			ConceptsClaimed: datatypes.JSON(concepts),
		})
		if err != nil {
			return err
		}
		if sameDay(logDate, today) {
			if _, err := s.streaks.RecordDailyLog(ctx, tx, resolution.ID, logDate); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.plan.Recompute(ctx, resolutionID); err != nil {
		s.log.Warn("plan recompute after log failed", "resolution_id", resolutionID, "error", err)
	}
	return created, nil
}

func (s *progressService) Today(ctx context.Context, userID, resolutionID uuid.UUID) (*types.ProgressLog, error) {
	if _, err := s.resolutionRepo.GetOwned(ctx, nil, userID, resolutionID); err != nil {
		return nil, err
	}
	return s.progressLogRepo.GetByResolutionAndDate(ctx, nil, resolutionID, dateOnly(time.Now().UTC()))
}

func (s *progressService) History(ctx context.Context, userID, resolutionID uuid.UUID, limit int) ([]*types.ProgressLog, error) {
	if _, err := s.resolutionRepo.GetOwned(ctx, nil, userID, resolutionID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	return s.progressLogRepo.ListByResolution(ctx, nil, resolutionID, limit)
}

func (s *progressService) Streak(ctx context.Context, userID, resolutionID uuid.UUID) (*types.Streak, error) {
	if _, err := s.resolutionRepo.GetOwned(ctx, nil, userID, resolutionID); err != nil {
		return nil, err
	}
	return s.streaks.Get(ctx, resolutionID)
}
