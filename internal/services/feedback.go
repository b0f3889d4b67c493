package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neuroresolv/backend/internal/apierr"
	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/repos"
	"github.com/neuroresolv/backend/internal/types"
)

type FeedbackService interface {
	Create(ctx context.Context, userID uuid.UUID, contentType string, contentID uuid.UUID, rating, feedbackText string) (*types.AIFeedback, error)
	// Regenerate replaces the rejected artifact on the pro model. It runs at
	// most once per feedback row.
	Regenerate(ctx context.Context, userID, feedbackID uuid.UUID) (*types.AIFeedback, error)
}

type feedbackService struct {
	db  *gorm.DB
	log *logger.Logger

	feedbackRepo   repos.AIFeedbackRepo
	resolutionRepo repos.ResolutionRepo
	weeklyRepo     repos.WeeklyGoalRepo
	northStarRepo  repos.NorthStarRepo

	roadmap    RoadmapService
	weeklyGoal WeeklyGoalService
	northStar  NorthStarService
}

func NewFeedbackService(
	db *gorm.DB,
	baseLog *logger.Logger,
	feedbackRepo repos.AIFeedbackRepo,
	resolutionRepo repos.ResolutionRepo,
	weeklyRepo repos.WeeklyGoalRepo,
	northStarRepo repos.NorthStarRepo,
	roadmap RoadmapService,
	weeklyGoal WeeklyGoalService,
	northStar NorthStarService,
) FeedbackService {
	return &feedbackService{
		db:             db,
		log:            baseLog.With("service", "FeedbackService"),
		feedbackRepo:   feedbackRepo,
		resolutionRepo: resolutionRepo,
		weeklyRepo:     weeklyRepo,
		northStarRepo:  northStarRepo,
		roadmap:        roadmap,
		weeklyGoal:     weeklyGoal,
		northStar:      northStar,
	}
}

func (s *feedbackService) Create(ctx context.Context, userID uuid.UUID, contentType string, contentID uuid.UUID, rating, feedbackText string) (*types.AIFeedback, error) {
	if rating != types.RatingThumbsUp && rating != types.RatingThumbsDown {
		return nil, apierr.BadRequest("rating must be thumbs_up or thumbs_down")
	}
	if _, err := s.resolveContent(ctx, userID, contentType, contentID); err != nil {
		return nil, err
	}
	return s.feedbackRepo.Create(ctx, nil, &types.AIFeedback{
		UserID:       userID,
		ContentType:  contentType,
		ContentID:    contentID,
		Rating:       rating,
		FeedbackText: feedbackText,
	})
}

// resolveContent checks the rated artifact exists and belongs to the user,
// and returns its owning resolution.
func (s *feedbackService) resolveContent(ctx context.Context, userID uuid.UUID, contentType string, contentID uuid.UUID) (*types.Resolution, error) {
	switch contentType {
	case types.FeedbackContentRoadmap:
		return s.resolutionRepo.GetOwned(ctx, nil, userID, contentID)
	case types.FeedbackContentWeeklyGoal:
		goal, err := s.weeklyRepo.GetByID(ctx, nil, contentID)
		if err != nil {
			return nil, err
		}
		return s.resolutionRepo.GetOwned(ctx, nil, userID, goal.ResolutionID)
	case types.FeedbackContentNorthStar:
		goal, err := s.northStarRepo.GetByID(ctx, nil, contentID)
		if err != nil {
			return nil, err
		}
		return s.resolutionRepo.GetOwned(ctx, nil, userID, goal.ResolutionID)
	default:
		return nil, apierr.BadRequest("unknown content type")
	}
}

func (s *feedbackService) Regenerate(ctx context.Context, userID, feedbackID uuid.UUID) (*types.AIFeedback, error) {
	var updated *types.AIFeedback
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		feedback, err := s.feedbackRepo.GetByIDForUpdate(ctx, tx, feedbackID)
		if err != nil {
			return err
		}
		if feedback.UserID != userID {
			return apierr.NotFound("feedback")
		}
		if feedback.Rating != types.RatingThumbsDown {
			return apierr.InvalidState("only thumbs_down feedback can trigger regeneration")
		}
		if feedback.WasRegenerated {
			return apierr.Conflict("content already regenerated for this feedback")
		}

		resolution, err := s.resolveContent(ctx, userID, feedback.ContentType, feedback.ContentID)
		if err != nil {
			return err
		}

		// The replacement artifact is written through this transaction, so a
		// failed feedback update rolls the artifact back with it.
		var regeneratedID uuid.UUID
		switch feedback.ContentType {
		case types.FeedbackContentRoadmap:
			if err := s.roadmap.RegenerateWithFeedback(ctx, tx, resolution, feedback.FeedbackText); err != nil {
				return err
			}
			regeneratedID = resolution.ID
		case types.FeedbackContentWeeklyGoal:
			goal, err := s.weeklyGoal.Regenerate(ctx, tx, resolution, feedback.ContentID, feedback.FeedbackText)
			if err != nil {
				return err
			}
			regeneratedID = goal.ID
		case types.FeedbackContentNorthStar:
			goal, err := s.northStar.Regenerate(ctx, tx, resolution, feedback.ContentID, feedback.FeedbackText)
			if err != nil {
				return err
			}
			regeneratedID = goal.ID
		}

		if err := s.feedbackRepo.UpdateFields(ctx, tx, feedback.ID, map[string]interface{}{
			"was_regenerated":        true,
			"regenerated_content_id": regeneratedID,
		}); err != nil {
			return err
		}
		feedback.WasRegenerated = true
		feedback.RegeneratedContentID = &regeneratedID
		updated = feedback
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
