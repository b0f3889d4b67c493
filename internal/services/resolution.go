package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neuroresolv/backend/internal/apierr"
	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/repos"
	"github.com/neuroresolv/backend/internal/types"
)

const (
	RoadmapModeMilestone = "milestone"
	RoadmapModeSession   = "session"
)

type CreateResolutionInput struct {
	GoalStatement    string `json:"goal_statement"`
	Category         string `json:"category"`
	SkillLevel       string `json:"skill_level"`
	Cadence          string `json:"cadence"`
	RoadmapMode      string `json:"roadmap_mode"`
	DurationDays     int    `json:"duration_days"`
	DailyTimeMinutes int    `json:"daily_time_minutes"`
}

type ResolutionService interface {
	Create(ctx context.Context, userID uuid.UUID, in CreateResolutionInput) (*types.Resolution, error)
	List(ctx context.Context, userID uuid.UUID) ([]*types.Resolution, error)
	Get(ctx context.Context, userID, resolutionID uuid.UUID) (*types.Resolution, error)
}

type resolutionService struct {
	db  *gorm.DB
	log *logger.Logger

	userRepo       repos.UserRepo
	resolutionRepo repos.ResolutionRepo
	streakRepo     repos.StreakRepo

	sessions SessionService
}

func NewResolutionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	userRepo repos.UserRepo,
	resolutionRepo repos.ResolutionRepo,
	streakRepo repos.StreakRepo,
	sessions SessionService,
) ResolutionService {
	return &resolutionService{
		db:             db,
		log:            baseLog.With("service", "ResolutionService"),
		userRepo:       userRepo,
		resolutionRepo: resolutionRepo,
		streakRepo:     streakRepo,
		sessions:       sessions,
	}
}

func validCadence(cadence string) bool {
	switch cadence {
	case CadenceDaily, CadenceThreeTimes, CadenceWeekdays, CadenceWeekly:
		return true
	}
	return false
}

func (s *resolutionService) Create(ctx context.Context, userID uuid.UUID, in CreateResolutionInput) (*types.Resolution, error) {
	if strings.TrimSpace(in.GoalStatement) == "" {
		return nil, apierr.BadRequest("goal_statement required")
	}
	if in.Cadence == "" {
		in.Cadence = CadenceDaily
	}
	if !validCadence(in.Cadence) {
		return nil, apierr.BadRequest("cadence must be daily, 3x_week, weekdays or weekly")
	}
	if in.SkillLevel == "" {
		in.SkillLevel = "beginner"
	}
	if in.RoadmapMode == "" {
		in.RoadmapMode = RoadmapModeMilestone
	}
	if in.RoadmapMode != RoadmapModeMilestone && in.RoadmapMode != RoadmapModeSession {
		return nil, apierr.BadRequest("roadmap_mode must be milestone or session")
	}
	if in.DailyTimeMinutes <= 0 {
		in.DailyTimeMinutes = 30
	}

	// The identity token is minted upstream; reject subjects that were never
	// provisioned here instead of surfacing a foreign key error.
	if _, err := s.userRepo.GetByID(ctx, nil, userID); err != nil {
		return nil, err
	}

	var resolution *types.Resolution
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		resolution, err = s.resolutionRepo.Create(ctx, tx, &types.Resolution{
			UserID:           userID,
			GoalStatement:    in.GoalStatement,
			Category:         in.Category,
			SkillLevel:       in.SkillLevel,
			Cadence:          in.Cadence,
			Status:           types.ResolutionStatusActive,
			RoadmapMode:      in.RoadmapMode,
			DurationDays:     in.DurationDays,
			DailyTimeMinutes: in.DailyTimeMinutes,
			CurrentDay:       1,
		})
		if err != nil {
			return err
		}
		// Seed the streak row so the first log never races a creation.
		_, err = s.streakRepo.GetByResolution(ctx, tx, resolution.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if in.RoadmapMode == RoadmapModeSession {
		if err := s.sessions.BuildPlan(ctx, resolution); err != nil {
			s.log.Error("session plan generation failed", "resolution_id", resolution.ID, "error", err)
		}
	}
	return resolution, nil
}

func (s *resolutionService) List(ctx context.Context, userID uuid.UUID) ([]*types.Resolution, error) {
	return s.resolutionRepo.ListByUser(ctx, nil, userID)
}

func (s *resolutionService) Get(ctx context.Context, userID, resolutionID uuid.UUID) (*types.Resolution, error) {
	return s.resolutionRepo.GetOwned(ctx, nil, userID, resolutionID)
}
