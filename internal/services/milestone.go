package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neuroresolv/backend/internal/apierr"
	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/repos"
	"github.com/neuroresolv/backend/internal/types"
)

// MilestoneEdit carries the user-editable fields. Nil means unchanged.
type MilestoneEdit struct {
	Title                *string
	Description          *string
	VerificationCriteria *string
	TargetDate           *time.Time
}

type MilestoneService interface {
	Complete(ctx context.Context, userID, milestoneID uuid.UUID) (*types.Milestone, error)
	Edit(ctx context.Context, userID, milestoneID uuid.UUID, edit MilestoneEdit) (*types.Milestone, error)
	List(ctx context.Context, userID, resolutionID uuid.UUID) ([]*types.Milestone, error)
}

type milestoneService struct {
	db  *gorm.DB
	log *logger.Logger

	milestoneRepo  repos.MilestoneRepo
	resolutionRepo repos.ResolutionRepo
}

func NewMilestoneService(db *gorm.DB, baseLog *logger.Logger, milestoneRepo repos.MilestoneRepo, resolutionRepo repos.ResolutionRepo) MilestoneService {
	return &milestoneService{
		db:             db,
		log:            baseLog.With("service", "MilestoneService"),
		milestoneRepo:  milestoneRepo,
		resolutionRepo: resolutionRepo,
	}
}

// Complete is the only status transition. It marks the milestone completed,
// promotes the lowest-order pending milestone to in_progress and keeps
// resolution.current_milestone in step. With nothing left to promote the
// resolution itself completes.
func (s *milestoneService) Complete(ctx context.Context, userID, milestoneID uuid.UUID) (*types.Milestone, error) {
	var completed *types.Milestone
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		milestone, err := s.milestoneRepo.GetByIDForUpdate(ctx, tx, milestoneID)
		if err != nil {
			return err
		}
		resolution, err := s.resolutionRepo.GetByIDForUpdate(ctx, tx, milestone.ResolutionID)
		if err != nil {
			return err
		}
		if resolution.UserID != userID {
			return apierr.NotFound("milestone")
		}
		if milestone.Status == types.MilestoneStatusCompleted {
			return apierr.Conflict("milestone already completed")
		}

		now := time.Now().UTC()
		if err := s.milestoneRepo.UpdateFields(ctx, tx, milestone.ID, map[string]interface{}{
			"status":       types.MilestoneStatusCompleted,
			"completed_at": now,
		}); err != nil {
			return err
		}
		milestone.Status = types.MilestoneStatusCompleted
		milestone.CompletedAt = &now

		siblings, err := s.milestoneRepo.ListByResolutionForUpdate(ctx, tx, milestone.ResolutionID)
		if err != nil {
			return err
		}
		var next *types.Milestone
		for _, m := range siblings {
			if m.ID == milestone.ID {
				continue
			}
			if m.Status == types.MilestoneStatusPending {
				next = m
				break
			}
		}

		if next != nil {
			if err := s.milestoneRepo.UpdateFields(ctx, tx, next.ID, map[string]interface{}{
				"status": types.MilestoneStatusInProgress,
			}); err != nil {
				return err
			}
			if err := s.resolutionRepo.UpdateFields(ctx, tx, resolution.ID, map[string]interface{}{
				"current_milestone": next.OrderIndex,
			}); err != nil {
				return err
			}
		} else {
			anyOpen := false
			for _, m := range siblings {
				if m.ID != milestone.ID && m.Status != types.MilestoneStatusCompleted {
					anyOpen = true
					break
				}
			}
			if !anyOpen {
				if err := s.resolutionRepo.UpdateFields(ctx, tx, resolution.ID, map[string]interface{}{
					"status": types.ResolutionStatusCompleted,
				}); err != nil {
					return err
				}
				s.log.Info("resolution completed", "resolution_id", resolution.ID)
			}
		}

		completed = milestone
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

// Edit updates milestone fields without ever touching status. An edit marks
// the roadmap stale so the next plan-health pass regenerates around it.
func (s *milestoneService) Edit(ctx context.Context, userID, milestoneID uuid.UUID, edit MilestoneEdit) (*types.Milestone, error) {
	var edited *types.Milestone
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		milestone, err := s.milestoneRepo.GetByIDForUpdate(ctx, tx, milestoneID)
		if err != nil {
			return err
		}
		resolution, err := s.resolutionRepo.GetByID(ctx, tx, milestone.ResolutionID)
		if err != nil {
			return err
		}
		if resolution.UserID != userID {
			return apierr.NotFound("milestone")
		}

		fields := map[string]interface{}{"is_edited": true}
		if edit.Title != nil {
			fields["title"] = *edit.Title
			milestone.Title = *edit.Title
		}
		if edit.Description != nil {
			fields["description"] = *edit.Description
			milestone.Description = *edit.Description
		}
		if edit.VerificationCriteria != nil {
			fields["verification_criteria"] = *edit.VerificationCriteria
			milestone.VerificationCriteria = *edit.VerificationCriteria
		}
		if edit.TargetDate != nil {
			fields["target_date"] = *edit.TargetDate
			milestone.TargetDate = edit.TargetDate
		}
		if err := s.milestoneRepo.UpdateFields(ctx, tx, milestone.ID, fields); err != nil {
			return err
		}
		milestone.IsEdited = true

		if err := s.resolutionRepo.UpdateFields(ctx, tx, resolution.ID, map[string]interface{}{
			"roadmap_needs_refresh": true,
		}); err != nil {
			return err
		}

		edited = milestone
		return nil
	})
	if err != nil {
		return nil, err
	}
	return edited, nil
}

func (s *milestoneService) List(ctx context.Context, userID, resolutionID uuid.UUID) ([]*types.Milestone, error) {
	if _, err := s.resolutionRepo.GetOwned(ctx, nil, userID, resolutionID); err != nil {
		return nil, err
	}
	return s.milestoneRepo.ListByResolution(ctx, nil, resolutionID)
}
