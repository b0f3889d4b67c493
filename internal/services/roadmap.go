package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neuroresolv/backend/internal/apierr"
	"github.com/neuroresolv/backend/internal/clients/oracle"
	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/repos"
	"github.com/neuroresolv/backend/internal/types"
)

type RoadmapService interface {
	Generate(ctx context.Context, userID, resolutionID uuid.UUID) ([]*types.Milestone, error)
	// LivingUpdate revises pending milestones against actual progress. The
	// current and completed milestones are never rewritten.
	LivingUpdate(ctx context.Context, resolutionID uuid.UUID) error
	// RegenerateWithFeedback rebuilds the roadmap on the pro tier, steering
	// by the learner's feedback text. Used by the feedback loop.
	RegenerateWithFeedback(ctx context.Context, tx *gorm.DB, resolution *types.Resolution, feedbackText string) error
}

type roadmapService struct {
	db  *gorm.DB
	log *logger.Logger

	resolutionRepo  repos.ResolutionRepo
	milestoneRepo   repos.MilestoneRepo
	streakRepo      repos.StreakRepo
	progressLogRepo repos.ProgressLogRepo

	analytics AnalyticsService
	ai        oracle.Client
}

func NewRoadmapService(
	db *gorm.DB,
	baseLog *logger.Logger,
	resolutionRepo repos.ResolutionRepo,
	milestoneRepo repos.MilestoneRepo,
	streakRepo repos.StreakRepo,
	progressLogRepo repos.ProgressLogRepo,
	analytics AnalyticsService,
	ai oracle.Client,
) RoadmapService {
	return &roadmapService{
		db:              db,
		log:             baseLog.With("service", "RoadmapService"),
		resolutionRepo:  resolutionRepo,
		milestoneRepo:   milestoneRepo,
		streakRepo:      streakRepo,
		progressLogRepo: progressLogRepo,
		analytics:       analytics,
		ai:              ai,
	}
}

type roadmapMilestone struct {
	Title                string `json:"title"`
	Description          string `json:"description"`
	VerificationCriteria string `json:"verification_criteria"`
	WeeksFromStart       int    `json:"weeks_from_start"`
}

func (s *roadmapService) Generate(ctx context.Context, userID, resolutionID uuid.UUID) ([]*types.Milestone, error) {
	resolution, err := s.resolutionRepo.GetOwned(ctx, nil, userID, resolutionID)
	if err != nil {
		return nil, err
	}
	if resolution.RoadmapGenerated {
		return nil, apierr.Conflict("roadmap already generated")
	}

	drafts := s.draftMilestones(ctx, resolution, "")

	var created []*types.Milestone
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err = s.persistRoadmap(ctx, tx, resolution, drafts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *roadmapService) persistRoadmap(ctx context.Context, tx *gorm.DB, resolution *types.Resolution, drafts []roadmapMilestone) ([]*types.Milestone, error) {
	now := time.Now().UTC()
	milestones := make([]*types.Milestone, 0, len(drafts))
	for i, draft := range drafts {
		status := types.MilestoneStatusPending
		if i == 0 {
			status = types.MilestoneStatusInProgress
		}
		target := now.AddDate(0, 0, 7*draft.WeeksFromStart)
		milestones = append(milestones, &types.Milestone{
			ResolutionID:         resolution.ID,
			OrderIndex:           i,
			Title:                draft.Title,
			Description:          draft.Description,
			VerificationCriteria: draft.VerificationCriteria,
			TargetDate:           &target,
			Status:               status,
		})
	}
	if _, err := s.milestoneRepo.CreateBatch(ctx, tx, milestones); err != nil {
		return nil, err
	}
	if err := s.resolutionRepo.UpdateFields(ctx, tx, resolution.ID, map[string]interface{}{
		"roadmap_generated":     true,
		"roadmap_needs_refresh": false,
		"current_milestone":     0,
		"next_roadmap_refresh":  NextRefresh(resolution.Cadence, nil, time.Now().UTC()),
	}); err != nil {
		return nil, err
	}
	return milestones, nil
}

func (s *roadmapService) draftMilestones(ctx context.Context, resolution *types.Resolution, feedbackText string) []roadmapMilestone {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"milestones": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":                 map[string]any{"type": "string"},
						"description":           map[string]any{"type": "string"},
						"verification_criteria": map[string]any{"type": "string"},
						"weeks_from_start":      map[string]any{"type": "integer"},
					},
					"required":             []string{"title", "description", "verification_criteria", "weeks_from_start"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"milestones"},
		"additionalProperties": false,
	}

	user := fmt.Sprintf("Goal: %s\nCategory: %s\nSkill level: %s\nStudy cadence: %s",
		resolution.GoalStatement, resolution.Category, resolution.SkillLevel, resolution.Cadence)
	if feedbackText != "" {
		user += "\n\nThe learner rejected the previous roadmap with this feedback:\n" + feedbackText
	}

	raw, err := s.ai.GenerateJSON(ctx,
		"Design a year-long learning roadmap as 4 to 12 ordered milestones, each with a concrete verification criterion.",
		user, "roadmap", schema)
	if err != nil {
		s.log.Warn("roadmap generation fell back to four-phase plan", "error", err)
		return fallbackRoadmap(resolution)
	}
	drafts := parseRoadmap(raw)
	if len(drafts) < 4 {
		s.log.Warn("roadmap payload too small, using four-phase plan", "count", len(drafts))
		return fallbackRoadmap(resolution)
	}
	return drafts
}

func parseRoadmap(raw map[string]any) []roadmapMilestone {
	items, ok := raw["milestones"].([]any)
	if !ok {
		return nil
	}
	out := make([]roadmapMilestone, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		title, _ := m["title"].(string)
		if strings.TrimSpace(title) == "" {
			continue
		}
		description, _ := m["description"].(string)
		criteria, _ := m["verification_criteria"].(string)
		weeks, _ := m["weeks_from_start"].(float64)
		out = append(out, roadmapMilestone{
			Title:                title,
			Description:          description,
			VerificationCriteria: criteria,
			WeeksFromStart:       int(weeks),
		})
	}
	if len(out) > 12 {
		out = out[:12]
	}
	return out
}

// fallbackRoadmap is the deterministic four-phase plan. Milestone spacing
// widens with lighter cadences.
func fallbackRoadmap(resolution *types.Resolution) []roadmapMilestone {
	weeksPer := 3
	switch resolution.Cadence {
	case CadenceDaily:
		weeksPer = 2
	case CadenceWeekly:
		weeksPer = 4
	}
	goal := resolution.GoalStatement
	phases := []struct {
		title       string
		description string
		criteria    string
	}{
		{
			"Foundations",
			fmt.Sprintf("Build the base vocabulary and mental models for: %s.", goal),
			"Explain the core concepts of the subject without notes.",
		},
		{
			"Core skills",
			"Practice the fundamental techniques until they feel routine.",
			"Complete a small end-to-end exercise using only the fundamentals.",
		},
		{
			"Applied practice",
			"Take on a realistic project that forces the skills together.",
			"Finish a self-directed project and walk someone through it.",
		},
		{
			"Consolidation",
			"Close remaining gaps and make the skill durable.",
			"Teach the subject's hardest idea to someone else convincingly.",
		},
	}
	out := make([]roadmapMilestone, 0, len(phases))
	for i, phase := range phases {
		out = append(out, roadmapMilestone{
			Title:                phase.title,
			Description:          phase.description,
			VerificationCriteria: phase.criteria,
			WeeksFromStart:       weeksPer * (i + 1),
		})
	}
	return out
}

func (s *roadmapService) LivingUpdate(ctx context.Context, resolutionID uuid.UUID) error {
	resolution, err := s.resolutionRepo.GetByID(ctx, nil, resolutionID)
	if err != nil {
		return err
	}
	milestones, err := s.milestoneRepo.ListByResolution(ctx, nil, resolutionID)
	if err != nil {
		return err
	}
	streak, err := s.streakRepo.GetByResolution(ctx, nil, resolutionID)
	if err != nil {
		return err
	}
	recentLogs, err := s.progressLogRepo.ListByResolution(ctx, nil, resolutionID, 10)
	if err != nil {
		return err
	}
	analytics, err := s.analytics.Analytics(ctx, resolutionID)
	if err != nil {
		return err
	}

	var pending []*types.Milestone
	for _, m := range milestones {
		if m.Status == types.MilestoneStatusPending && !m.IsEdited {
			pending = append(pending, m)
		}
	}
	if len(pending) == 0 {
		return s.clearRefreshFlag(ctx, resolution)
	}

	revised := s.reviseMilestones(ctx, resolution, pending, streak, recentLogs, analytics)
	for _, update := range revised {
		if err := s.milestoneRepo.UpdateFields(ctx, nil, update.id, map[string]interface{}{
			"description": update.description,
		}); err != nil {
			return err
		}
	}
	return s.clearRefreshFlag(ctx, resolution)
}

func (s *roadmapService) clearRefreshFlag(ctx context.Context, resolution *types.Resolution) error {
	return s.resolutionRepo.UpdateFields(ctx, nil, resolution.ID, map[string]interface{}{
		"roadmap_needs_refresh": false,
		"next_roadmap_refresh":  NextRefresh(resolution.Cadence, resolution.NextRoadmapRefresh, time.Now().UTC()),
	})
}

type milestoneRevision struct {
	id          uuid.UUID
	description string
}

func (s *roadmapService) reviseMilestones(ctx context.Context, resolution *types.Resolution, pending []*types.Milestone, streak *types.Streak, recentLogs []*types.ProgressLog, analytics *LearningAnalytics) []milestoneRevision {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"revisions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"index":       map[string]any{"type": "integer"},
						"description": map[string]any{"type": "string"},
					},
					"required":             []string{"index", "description"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"revisions"},
		"additionalProperties": false,
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\nCurrent streak: %d (longest %d)\nVerified days: %d\n",
		resolution.GoalStatement, streak.CurrentStreak, streak.LongestStreak, streak.TotalVerifiedDays)
	fmt.Fprintf(&b, "Weak concepts: %s\nMastered concepts: %s\n",
		strings.Join(analytics.WeakConcepts, ", "), strings.Join(analytics.MasteredConcepts, ", "))
	b.WriteString("Recent study log entries:\n")
	for _, entry := range recentLogs {
		fmt.Fprintf(&b, "- %s: %s\n", entry.Date.Format("2006-01-02"), entry.Content)
	}
	b.WriteString("\nUpcoming milestones (revise descriptions where actual progress warrants; keep titles):\n")
	for _, m := range pending {
		fmt.Fprintf(&b, "[%d] %s: %s\n", m.OrderIndex, m.Title, m.Description)
	}

	raw, err := s.ai.GenerateJSON(ctx,
		"Adjust this learning roadmap's upcoming steps to match the learner's actual pace and gaps.",
		b.String(), "roadmap_revision", schema)
	if err != nil {
		s.log.Warn("living roadmap update skipped, oracle unavailable", "error", err)
		return nil
	}

	byIndex := map[int]*types.Milestone{}
	for _, m := range pending {
		byIndex[m.OrderIndex] = m
	}
	var out []milestoneRevision
	if items, ok := raw["revisions"].([]any); ok {
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			idx, _ := m["index"].(float64)
			description, _ := m["description"].(string)
			target, found := byIndex[int(idx)]
			if !found || strings.TrimSpace(description) == "" {
				continue
			}
			out = append(out, milestoneRevision{id: target.ID, description: description})
		}
	}
	return out
}

func (s *roadmapService) RegenerateWithFeedback(ctx context.Context, tx *gorm.DB, resolution *types.Resolution, feedbackText string) error {
	pro := oracle.WithModel(s.ai, oracle.ProModel())
	proService := *s
	proService.ai = pro

	drafts := proService.draftMilestones(ctx, resolution, feedbackText)

	// Ride the caller's transaction when one is open so the new roadmap
	// commits or rolls back together with the caller's own writes.
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	return transaction.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.milestoneRepo.DeleteByResolution(ctx, tx, resolution.ID); err != nil {
			return err
		}
		resolution.RoadmapGenerated = false
		_, err := s.persistRoadmap(ctx, tx, resolution, drafts)
		return err
	})
}
