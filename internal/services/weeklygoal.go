package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/neuroresolv/backend/internal/apierr"
	"github.com/neuroresolv/backend/internal/clients/oracle"
	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/repos"
	"github.com/neuroresolv/backend/internal/types"
)

type WeeklyGoalService interface {
	// Current returns the active goal for this week, generating one if the
	// week has none yet.
	Current(ctx context.Context, userID, resolutionID uuid.UUID) (*types.WeeklyGoal, error)
	Dismiss(ctx context.Context, userID, goalID uuid.UUID) error
	Complete(ctx context.Context, userID, goalID uuid.UUID) error
	// Regenerate replaces the goal after a thumbs-down, on the pro tier. The
	// replacement is written through tx when one is given.
	Regenerate(ctx context.Context, tx *gorm.DB, resolution *types.Resolution, goalID uuid.UUID, feedbackText string) (*types.WeeklyGoal, error)
}

type weeklyGoalService struct {
	db  *gorm.DB
	log *logger.Logger

	resolutionRepo repos.ResolutionRepo
	weeklyRepo     repos.WeeklyGoalRepo
	streakRepo     repos.StreakRepo
	metricRepo     repos.LearningMetricRepo

	ai oracle.Client
}

func NewWeeklyGoalService(
	db *gorm.DB,
	baseLog *logger.Logger,
	resolutionRepo repos.ResolutionRepo,
	weeklyRepo repos.WeeklyGoalRepo,
	streakRepo repos.StreakRepo,
	metricRepo repos.LearningMetricRepo,
	ai oracle.Client,
) WeeklyGoalService {
	return &weeklyGoalService{
		db:             db,
		log:            baseLog.With("service", "WeeklyGoalService"),
		resolutionRepo: resolutionRepo,
		weeklyRepo:     weeklyRepo,
		streakRepo:     streakRepo,
		metricRepo:     metricRepo,
		ai:             ai,
	}
}

// weekBounds returns the Monday and Sunday containing day.
func weekBounds(day time.Time) (time.Time, time.Time) {
	day = dateOnly(day)
	offset := int(day.Weekday()+6) % 7
	start := day.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 6)
}

func (s *weeklyGoalService) Current(ctx context.Context, userID, resolutionID uuid.UUID) (*types.WeeklyGoal, error) {
	resolution, err := s.resolutionRepo.GetOwned(ctx, nil, userID, resolutionID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	goal, err := s.weeklyRepo.GetCurrent(ctx, nil, resolutionID, now)
	if err == nil {
		return goal, nil
	}
	if apiErr := apierr.From(err); apiErr == nil || apiErr.Status != 404 {
		return nil, err
	}
	return s.generate(ctx, nil, s.ai, resolution, now, "")
}

type weeklyGoalDraft struct {
	GoalText       string   `json:"goal_text"`
	MicroActions   []string `json:"micro_actions"`
	MotivationNote string   `json:"motivation_note"`
}

func (s *weeklyGoalService) generate(ctx context.Context, tx *gorm.DB, ai oracle.Client, resolution *types.Resolution, asOf time.Time, feedbackText string) (*types.WeeklyGoal, error) {
	draft := s.draft(ctx, ai, resolution, feedbackText)
	actions, err := json.Marshal(draft.MicroActions)
	if err != nil {
		return nil, err
	}
	weekStart, weekEnd := weekBounds(asOf)
	return s.weeklyRepo.Create(ctx, tx, &types.WeeklyGoal{
		ResolutionID:   resolution.ID,
		GoalText:       draft.GoalText,
		MicroActions:   datatypes.JSON(actions),
		MotivationNote: draft.MotivationNote,
		WeekStart:      weekStart,
		WeekEnd:        weekEnd,
	})
}

func (s *weeklyGoalService) draft(ctx context.Context, ai oracle.Client, resolution *types.Resolution, feedbackText string) weeklyGoalDraft {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"goal_text": map[string]any{"type": "string"},
			"micro_actions": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"motivation_note": map[string]any{"type": "string"},
		},
		"required":             []string{"goal_text", "micro_actions", "motivation_note"},
		"additionalProperties": false,
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\nSkill level: %s\nCadence: %s\n",
		resolution.GoalStatement, resolution.SkillLevel, resolution.Cadence)
	if streak, err := s.streakRepo.GetByResolution(ctx, nil, resolution.ID); err == nil {
		fmt.Fprintf(&b, "Current streak: %d days\n", streak.CurrentStreak)
	}
	if weak, err := s.metricRepo.ListNeedingReinforcement(ctx, nil, resolution.ID); err == nil && len(weak) > 0 {
		concepts := make([]string, 0, len(weak))
		for _, m := range weak {
			concepts = append(concepts, m.Concept)
		}
		fmt.Fprintf(&b, "Concepts needing reinforcement: %s\n", strings.Join(concepts, ", "))
	}
	if feedbackText != "" {
		b.WriteString("\nThe learner rejected the previous weekly goal with this feedback:\n" + feedbackText)
	}

	raw, err := ai.GenerateJSON(ctx,
		"Set one focused weekly goal with 3 to 5 micro actions and a short motivation note.",
		b.String(), "weekly_goal", schema)
	if err != nil {
		s.log.Warn("weekly goal generation fell back to template", "error", err)
		return fallbackWeeklyGoal(resolution)
	}
	var draft weeklyGoalDraft
	payload, err := json.Marshal(raw)
	if err == nil {
		err = json.Unmarshal(payload, &draft)
	}
	if err != nil || strings.TrimSpace(draft.GoalText) == "" {
		return fallbackWeeklyGoal(resolution)
	}
	if len(draft.MicroActions) > 5 {
		draft.MicroActions = draft.MicroActions[:5]
	}
	return draft
}

func fallbackWeeklyGoal(resolution *types.Resolution) weeklyGoalDraft {
	return weeklyGoalDraft{
		GoalText: fmt.Sprintf("Make steady progress on: %s", resolution.GoalStatement),
		MicroActions: []string{
			"Complete every scheduled study session this week",
			"Write one short summary of what you learned each session",
			"Revisit the concept you found hardest last week",
		},
		MotivationNote: "Consistency this week compounds into mastery later.",
	}
}

func (s *weeklyGoalService) Dismiss(ctx context.Context, userID, goalID uuid.UUID) error {
	return s.setFlag(ctx, userID, goalID, "is_dismissed")
}

func (s *weeklyGoalService) Complete(ctx context.Context, userID, goalID uuid.UUID) error {
	return s.setFlag(ctx, userID, goalID, "is_completed")
}

func (s *weeklyGoalService) setFlag(ctx context.Context, userID, goalID uuid.UUID, field string) error {
	goal, err := s.weeklyRepo.GetByID(ctx, nil, goalID)
	if err != nil {
		return err
	}
	if _, err := s.resolutionRepo.GetOwned(ctx, nil, userID, goal.ResolutionID); err != nil {
		return apierr.NotFound("weekly goal")
	}
	return s.weeklyRepo.UpdateFields(ctx, nil, goalID, map[string]interface{}{field: true})
}

func (s *weeklyGoalService) Regenerate(ctx context.Context, tx *gorm.DB, resolution *types.Resolution, goalID uuid.UUID, feedbackText string) (*types.WeeklyGoal, error) {
	if err := s.weeklyRepo.UpdateFields(ctx, tx, goalID, map[string]interface{}{"is_dismissed": true}); err != nil {
		return nil, err
	}
	pro := oracle.WithModel(s.ai, oracle.ProModel())
	return s.generate(ctx, tx, pro, resolution, time.Now().UTC(), feedbackText)
}
