package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/neuroresolv/backend/internal/clients/oracle"
	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/repos"
	"github.com/neuroresolv/backend/internal/types"
)

// ReviewStrategy pairs a weak concept with how to attack it.
type ReviewStrategy struct {
	Concept   string   `json:"concept"`
	Strategy  string   `json:"strategy"`
	Resources []string `json:"resources"`
}

// RecoveryPlan is the advisory bundle after a failed verification. It never
// mutates milestones; ShouldRevisitMilestone is a suggestion to the learner.
type RecoveryPlan struct {
	Analysis               string           `json:"analysis"`
	WeakConcepts           []string         `json:"weak_concepts"`
	ReviewStrategies       []ReviewStrategy `json:"review_strategies"`
	NextSessionFocus       string           `json:"next_session_focus"`
	Encouragement          string           `json:"encouragement"`
	ShouldRevisitMilestone bool             `json:"should_revisit_milestone"`
}

type RecoveryService interface {
	AnalyzeFailure(ctx context.Context, resolution *types.Resolution, milestone *types.Milestone, progressLog *types.ProgressLog, grade *GradeResult) (*RecoveryPlan, error)
	// AdaptSessionPath splices a reinforcement session in at the current day
	// when a session quiz is failed. The day counter does not advance.
	AdaptSessionPath(ctx context.Context, tx *gorm.DB, resolution *types.Resolution, session *types.DailySession, weakConcepts, strongConcepts []string) (*types.DailySession, error)
}

type recoveryService struct {
	log         *logger.Logger
	sessionRepo repos.DailySessionRepo
	analytics   AnalyticsService
	ai          oracle.Client
}

func NewRecoveryService(baseLog *logger.Logger, sessionRepo repos.DailySessionRepo, analytics AnalyticsService, ai oracle.Client) RecoveryService {
	return &recoveryService{
		log:         baseLog.With("service", "RecoveryService"),
		sessionRepo: sessionRepo,
		analytics:   analytics,
		ai:          ai,
	}
}

func (s *recoveryService) AnalyzeFailure(ctx context.Context, resolution *types.Resolution, milestone *types.Milestone, progressLog *types.ProgressLog, grade *GradeResult) (*RecoveryPlan, error) {
	plan := s.requestRecoveryPlan(ctx, resolution, milestone, progressLog, grade)

	s.analytics.Record(ctx, resolution.ID, types.EventRecoveryAnalysis, map[string]any{
		"milestone_id": milestone.ID.String(),
		"quiz_score":   grade.Score,
	}, map[string]any{
		"weak_concepts":            plan.WeakConcepts,
		"should_revisit_milestone": plan.ShouldRevisitMilestone,
	}, nil)

	s.log.Info("recovery analysis produced",
		"resolution_id", resolution.ID,
		"milestone_id", milestone.ID,
		"should_revisit", plan.ShouldRevisitMilestone,
	)
	return plan, nil
}

func (s *recoveryService) requestRecoveryPlan(ctx context.Context, resolution *types.Resolution, milestone *types.Milestone, progressLog *types.ProgressLog, grade *GradeResult) *RecoveryPlan {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"analysis":      map[string]any{"type": "string"},
			"weak_concepts": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"review_strategies": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"concept":   map[string]any{"type": "string"},
						"strategy":  map[string]any{"type": "string"},
						"resources": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					},
					"required":             []string{"concept", "strategy", "resources"},
					"additionalProperties": false,
				},
			},
			"next_session_focus":       map[string]any{"type": "string"},
			"encouragement":            map[string]any{"type": "string"},
			"should_revisit_milestone": map[string]any{"type": "boolean"},
		},
		"required":             []string{"analysis", "weak_concepts", "review_strategies", "next_session_focus", "encouragement", "should_revisit_milestone"},
		"additionalProperties": false,
	}

	user := fmt.Sprintf(
		"Goal: %s\nActive milestone: %s\nVerification criteria: %s\nClaimed study: %s\nQuiz score: %.2f\nConcepts flagged by grading: %s",
		resolution.GoalStatement, milestone.Title, milestone.VerificationCriteria,
		progressLog.Content, grade.Score, strings.Join(grade.ConceptsToReinforce, ", "),
	)

	raw, err := s.ai.GenerateJSON(ctx,
		"A learner failed a verification quiz. Diagnose the gaps and produce a supportive recovery plan.",
		user, "recovery_plan", schema)
	if err != nil {
		s.log.Warn("recovery plan fell back to deterministic bundle", "error", err)
		return fallbackRecoveryPlan(grade)
	}

	var plan RecoveryPlan
	payload, err := json.Marshal(raw)
	if err != nil {
		return fallbackRecoveryPlan(grade)
	}
	if err := json.Unmarshal(payload, &plan); err != nil || strings.TrimSpace(plan.Analysis) == "" {
		return fallbackRecoveryPlan(grade)
	}
	return &plan
}

func fallbackRecoveryPlan(grade *GradeResult) *RecoveryPlan {
	weak := grade.ConceptsToReinforce
	strategies := make([]ReviewStrategy, 0, len(weak))
	for _, concept := range weak {
		strategies = append(strategies, ReviewStrategy{
			Concept:   concept,
			Strategy:  "Revisit your notes on this concept and write a short summary in your own words.",
			Resources: []string{"Your original study material"},
		})
	}
	return &RecoveryPlan{
		Analysis:               "The quiz suggests some of today's material has not settled yet. That is a normal part of learning.",
		WeakConcepts:           weak,
		ReviewStrategies:       strategies,
		NextSessionFocus:       "Review today's material before moving forward.",
		Encouragement:          "One rough quiz does not undo your progress. Keep showing up.",
		ShouldRevisitMilestone: false,
	}
}

func (s *recoveryService) AdaptSessionPath(ctx context.Context, tx *gorm.DB, resolution *types.Resolution, session *types.DailySession, weakConcepts, strongConcepts []string) (*types.DailySession, error) {
	content, title := s.reinforcementContent(ctx, resolution, session, weakConcepts, strongConcepts)

	reinforced, err := json.Marshal(weakConcepts)
	if err != nil {
		return nil, err
	}
	concepts, err := json.Marshal(weakConcepts)
	if err != nil {
		return nil, err
	}

	reinforcement := &types.DailySession{
		ResolutionID:       resolution.ID,
		DayNumber:          session.DayNumber,
		Title:              title,
		Content:            content,
		Summary:            "Reinforcement of " + strings.Join(weakConcepts, ", "),
		Concepts:           datatypes.JSON(concepts),
		IsReinforcement:    true,
		ReinforcedConcepts: datatypes.JSON(reinforced),
	}
	if _, err := s.sessionRepo.Create(ctx, tx, reinforcement); err != nil {
		return nil, err
	}

	s.analytics.Record(ctx, resolution.ID, types.EventSessionAdapted, map[string]any{
		"day":           session.DayNumber,
		"weak_concepts": weakConcepts,
	}, map[string]any{
		"reinforcement_session_id": reinforcement.ID.String(),
	}, nil)

	return reinforcement, nil
}

func (s *recoveryService) reinforcementContent(ctx context.Context, resolution *types.Resolution, session *types.DailySession, weakConcepts, strongConcepts []string) (string, string) {
	title := "Reinforcement: " + session.Title
	user := fmt.Sprintf(
		"Goal: %s\nOriginal session: %s\nConcepts the learner struggled with: %s\nConcepts already solid: %s\n\nWrite a focused reinforcement lesson for the weak concepts only.",
		resolution.GoalStatement, session.Title,
		strings.Join(weakConcepts, ", "), strings.Join(strongConcepts, ", "),
	)
	content, err := s.ai.GenerateText(ctx,
		"You write short remedial study sessions. Plain prose, concrete examples, no fluff.",
		user)
	if err != nil || strings.TrimSpace(content) == "" {
		s.log.Warn("reinforcement content fell back to review checklist", "error", err)
		var b strings.Builder
		b.WriteString("Today is a review day. Go back over these concepts before moving on:\n\n")
		for _, concept := range weakConcepts {
			b.WriteString(fmt.Sprintf("- %s: reread the relevant section, then explain it out loud in your own words.\n", concept))
		}
		b.WriteString("\nRetake the session quiz when you feel ready.")
		return b.String(), title
	}
	return content, title
}
