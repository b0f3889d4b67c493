package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/repos"
	"github.com/neuroresolv/backend/internal/types"
)

// ApplyDailyLog advances the activity streak for a log on `today`.
// A gap of exactly one day extends the run; the same day is a no-op; any
// larger gap resets to 1. Longest never decreases.
func ApplyDailyLog(s *types.Streak, today time.Time) {
	today = dateOnly(today)
	switch {
	case s.LastLogDate == nil:
		s.CurrentStreak = 1
	case sameDay(*s.LastLogDate, today):
		return
	case sameDay(*s.LastLogDate, today.AddDate(0, 0, -1)):
		s.CurrentStreak++
	default:
		s.CurrentStreak = 1
	}
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	s.LastLogDate = &today
}

// ApplyVerifiedDay records a passed verification. Failing a verification
// does not touch the activity streak, so there is no inverse operation.
func ApplyVerifiedDay(s *types.Streak, today time.Time) {
	today = dateOnly(today)
	s.TotalVerifiedDays++
	s.LastVerifiedDate = &today
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

type StreakService interface {
	RecordDailyLog(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID, today time.Time) (*types.Streak, error)
	RecordVerifiedDay(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID, today time.Time) (*types.Streak, error)
	Get(ctx context.Context, resolutionID uuid.UUID) (*types.Streak, error)
}

type streakService struct {
	log        *logger.Logger
	streakRepo repos.StreakRepo
}

func NewStreakService(baseLog *logger.Logger, streakRepo repos.StreakRepo) StreakService {
	return &streakService{
		log:        baseLog.With("service", "StreakService"),
		streakRepo: streakRepo,
	}
}

func (s *streakService) RecordDailyLog(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID, today time.Time) (*types.Streak, error) {
	streak, err := s.streakRepo.GetByResolutionForUpdate(ctx, tx, resolutionID)
	if err != nil {
		return nil, err
	}
	ApplyDailyLog(streak, today)
	if err := s.streakRepo.Save(ctx, tx, streak); err != nil {
		return nil, err
	}
	return streak, nil
}

func (s *streakService) RecordVerifiedDay(ctx context.Context, tx *gorm.DB, resolutionID uuid.UUID, today time.Time) (*types.Streak, error) {
	streak, err := s.streakRepo.GetByResolutionForUpdate(ctx, tx, resolutionID)
	if err != nil {
		return nil, err
	}
	ApplyVerifiedDay(streak, today)
	if err := s.streakRepo.Save(ctx, tx, streak); err != nil {
		return nil, err
	}
	return streak, nil
}

func (s *streakService) Get(ctx context.Context, resolutionID uuid.UUID) (*types.Streak, error) {
	return s.streakRepo.GetByResolution(ctx, nil, resolutionID)
}
