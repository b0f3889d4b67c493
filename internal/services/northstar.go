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

type NorthStarService interface {
	// Get returns the resolution's year-end vision, generating it on first
	// request.
	Get(ctx context.Context, userID, resolutionID uuid.UUID) (*types.NorthStarGoal, error)
	// Regenerate rewrites the vision in place after a thumbs-down, on the
	// pro tier. The rewrite goes through tx when one is given.
	Regenerate(ctx context.Context, tx *gorm.DB, resolution *types.Resolution, goalID uuid.UUID, feedbackText string) (*types.NorthStarGoal, error)
}

type northStarService struct {
	db  *gorm.DB
	log *logger.Logger

	resolutionRepo repos.ResolutionRepo
	northStarRepo  repos.NorthStarRepo

	ai oracle.Client
}

func NewNorthStarService(
	db *gorm.DB,
	baseLog *logger.Logger,
	resolutionRepo repos.ResolutionRepo,
	northStarRepo repos.NorthStarRepo,
	ai oracle.Client,
) NorthStarService {
	return &northStarService{
		db:             db,
		log:            baseLog.With("service", "NorthStarService"),
		resolutionRepo: resolutionRepo,
		northStarRepo:  northStarRepo,
		ai:             ai,
	}
}

type northStarDraft struct {
	GoalStatement      string   `json:"goal_statement"`
	KeyTransformations []string `json:"key_transformations"`
	IdentityShift      string   `json:"identity_shift"`
	WhyItMatters       string   `json:"why_it_matters"`
}

func (s *northStarService) Get(ctx context.Context, userID, resolutionID uuid.UUID) (*types.NorthStarGoal, error) {
	resolution, err := s.resolutionRepo.GetOwned(ctx, nil, userID, resolutionID)
	if err != nil {
		return nil, err
	}
	goal, err := s.northStarRepo.GetByResolution(ctx, nil, resolutionID)
	if err == nil {
		return goal, nil
	}
	if apiErr := apierr.From(err); apiErr == nil || apiErr.Status != 404 {
		return nil, err
	}

	draft := s.draft(ctx, s.ai, resolution, "")
	transformations, err := json.Marshal(draft.KeyTransformations)
	if err != nil {
		return nil, err
	}
	target := dateOnly(time.Now().UTC()).AddDate(1, 0, 0)
	return s.northStarRepo.Create(ctx, nil, &types.NorthStarGoal{
		ResolutionID:       resolutionID,
		GoalStatement:      draft.GoalStatement,
		KeyTransformations: datatypes.JSON(transformations),
		IdentityShift:      draft.IdentityShift,
		WhyItMatters:       draft.WhyItMatters,
		TargetDate:         &target,
	})
}

func (s *northStarService) draft(ctx context.Context, ai oracle.Client, resolution *types.Resolution, feedbackText string) northStarDraft {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"goal_statement": map[string]any{"type": "string"},
			"key_transformations": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"identity_shift": map[string]any{"type": "string"},
			"why_it_matters": map[string]any{"type": "string"},
		},
		"required":             []string{"goal_statement", "key_transformations", "identity_shift", "why_it_matters"},
		"additionalProperties": false,
	}

	user := fmt.Sprintf("Goal: %s\nCategory: %s\nSkill level: %s",
		resolution.GoalStatement, resolution.Category, resolution.SkillLevel)
	if feedbackText != "" {
		user += "\n\nThe learner rejected the previous vision with this feedback:\n" + feedbackText
	}

	raw, err := ai.GenerateJSON(ctx,
		"Write the learner's one-year vision: where they will be, what will have changed, who they become, and why it matters.",
		user, "north_star_goal", schema)
	if err != nil {
		s.log.Warn("north star generation fell back to template", "error", err)
		return fallbackNorthStar(resolution)
	}
	var draft northStarDraft
	payload, err := json.Marshal(raw)
	if err == nil {
		err = json.Unmarshal(payload, &draft)
	}
	if err != nil || strings.TrimSpace(draft.GoalStatement) == "" {
		return fallbackNorthStar(resolution)
	}
	return draft
}

func fallbackNorthStar(resolution *types.Resolution) northStarDraft {
	return northStarDraft{
		GoalStatement: fmt.Sprintf("One year from now you have made real, demonstrable progress on: %s", resolution.GoalStatement),
		KeyTransformations: []string{
			"A durable study habit you no longer have to force",
			"A body of finished practice work you can point to",
			"The confidence to explain the subject to someone else",
		},
		IdentityShift: "You stop thinking of this as something you are trying and start thinking of it as something you do.",
		WhyItMatters:  "You set this goal for a reason. A year of steady work is how it becomes real.",
	}
}

func (s *northStarService) Regenerate(ctx context.Context, tx *gorm.DB, resolution *types.Resolution, goalID uuid.UUID, feedbackText string) (*types.NorthStarGoal, error) {
	pro := oracle.WithModel(s.ai, oracle.ProModel())
	draft := s.draft(ctx, pro, resolution, feedbackText)
	transformations, err := json.Marshal(draft.KeyTransformations)
	if err != nil {
		return nil, err
	}
	if err := s.northStarRepo.UpdateFields(ctx, tx, goalID, map[string]interface{}{
		"goal_statement":      draft.GoalStatement,
		"key_transformations": datatypes.JSON(transformations),
		"identity_shift":      draft.IdentityShift,
		"why_it_matters":      draft.WhyItMatters,
		"is_edited":           false,
	}); err != nil {
		return nil, err
	}
	return s.northStarRepo.GetByID(ctx, tx, goalID)
}
