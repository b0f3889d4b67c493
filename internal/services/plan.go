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

// likelihoodLookbackDays bounds the activity and score signals feeding the
// goal likelihood.
const likelihoodLookbackDays = 7

// PlanOverview is the plan-health snapshot returned by the overview endpoint.
type PlanOverview struct {
	Resolution          *types.Resolution `json:"resolution"`
	Streak              *types.Streak     `json:"streak"`
	CompletedMilestones int64             `json:"completed_milestones"`
	TotalMilestones     int64             `json:"total_milestones"`
	GoalLikelihood      float64           `json:"goal_likelihood"`
	NextRoadmapRefresh  *time.Time        `json:"next_roadmap_refresh,omitempty"`
}

// PlanService recomputes the goal likelihood and keeps the roadmap refresh
// schedule moving. Recompute runs after every progress log and verification.
type PlanService interface {
	Recompute(ctx context.Context, resolutionID uuid.UUID) (*PlanOverview, error)
	Overview(ctx context.Context, userID, resolutionID uuid.UUID) (*PlanOverview, error)
}

type planService struct {
	db  *gorm.DB
	log *logger.Logger

	resolutionRepo  repos.ResolutionRepo
	milestoneRepo   repos.MilestoneRepo
	progressLogRepo repos.ProgressLogRepo
	streakRepo      repos.StreakRepo

	roadmap RoadmapService
}

func NewPlanService(
	db *gorm.DB,
	baseLog *logger.Logger,
	resolutionRepo repos.ResolutionRepo,
	milestoneRepo repos.MilestoneRepo,
	progressLogRepo repos.ProgressLogRepo,
	streakRepo repos.StreakRepo,
	roadmap RoadmapService,
) PlanService {
	return &planService{
		db:              db,
		log:             baseLog.With("service", "PlanService"),
		resolutionRepo:  resolutionRepo,
		milestoneRepo:   milestoneRepo,
		progressLogRepo: progressLogRepo,
		streakRepo:      streakRepo,
		roadmap:         roadmap,
	}
}

func (s *planService) Recompute(ctx context.Context, resolutionID uuid.UUID) (*PlanOverview, error) {
	resolution, err := s.resolutionRepo.GetByID(ctx, nil, resolutionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	overview, err := s.snapshot(ctx, resolution, now)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"goal_likelihood_score": overview.GoalLikelihood,
	}
	refreshDue := resolution.NextRoadmapRefresh != nil && !resolution.NextRoadmapRefresh.After(now)
	if resolution.NextRoadmapRefresh == nil {
		next := NextRefresh(resolution.Cadence, nil, now)
		fields["next_roadmap_refresh"] = next
		overview.NextRoadmapRefresh = &next
	}
	if err := s.resolutionRepo.UpdateFields(ctx, nil, resolution.ID, fields); err != nil {
		return nil, err
	}

	if refreshDue || resolution.RoadmapNeedsRefresh {
		if err := s.roadmap.LivingUpdate(ctx, resolution.ID); err != nil {
			s.log.Warn("living roadmap update failed", "resolution_id", resolution.ID, "error", err)
		} else if updated, err := s.resolutionRepo.GetByID(ctx, nil, resolution.ID); err == nil {
			overview.Resolution = updated
			overview.NextRoadmapRefresh = updated.NextRoadmapRefresh
		}
	}
	return overview, nil
}

func (s *planService) Overview(ctx context.Context, userID, resolutionID uuid.UUID) (*PlanOverview, error) {
	resolution, err := s.resolutionRepo.GetOwned(ctx, nil, userID, resolutionID)
	if err != nil {
		return nil, err
	}
	return s.snapshot(ctx, resolution, time.Now().UTC())
}

func (s *planService) snapshot(ctx context.Context, resolution *types.Resolution, now time.Time) (*PlanOverview, error) {
	streak, err := s.streakRepo.GetByResolution(ctx, nil, resolution.ID)
	if err != nil {
		return nil, err
	}
	total, completed, err := s.milestoneRepo.CountByResolution(ctx, nil, resolution.ID)
	if err != nil {
		return nil, err
	}
	since := dateOnly(now).AddDate(0, 0, -likelihoodLookbackDays)
	recentCount, err := s.progressLogRepo.CountSince(ctx, nil, resolution.ID, since)
	if err != nil {
		return nil, err
	}
	recentLogs, err := s.progressLogRepo.ListSince(ctx, nil, resolution.ID, since)
	if err != nil {
		return nil, err
	}
	var scores []float64
	for _, entry := range recentLogs {
		if entry.VerificationScore != nil {
			scores = append(scores, *entry.VerificationScore)
		}
	}

	likelihood := GoalLikelihood(LikelihoodInputs{
		CurrentStreak:       streak.CurrentStreak,
		LongestStreak:       streak.LongestStreak,
		CompletedMilestones: int(completed),
		TotalMilestones:     int(total),
		RecentLogCount:      int(recentCount),
		RecentScores:        scores,
	})

	return &PlanOverview{
		Resolution:          resolution,
		Streak:              streak,
		CompletedMilestones: completed,
		TotalMilestones:     total,
		GoalLikelihood:      likelihood,
		NextRoadmapRefresh:  resolution.NextRoadmapRefresh,
	}, nil
}
