package services

import (
	"context"
	"os"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/neuroresolv/backend/internal/apierr"
	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/repos"
	"github.com/neuroresolv/backend/internal/types"
)

func openMilestoneTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := db.AutoMigrate(&types.User{}, &types.Resolution{}, &types.Milestone{}); err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	tx := db.Begin()
	if tx.Error != nil {
		t.Fatalf("failed to begin tx: %v", tx.Error)
	}
	t.Cleanup(func() { tx.Rollback() })
	return tx
}

func seedRoadmap(t *testing.T, tx *gorm.DB, count int) (*types.Resolution, []*types.Milestone) {
	t.Helper()
	user := &types.User{Email: "milestones@example.com", FullName: "Test User"}
	if err := tx.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	resolution := &types.Resolution{
		UserID:           user.ID,
		GoalStatement:    "learn the piano",
		Category:         "music",
		SkillLevel:       "beginner",
		Cadence:          "daily",
		Status:           types.ResolutionStatusActive,
		RoadmapGenerated: true,
	}
	if err := tx.Create(resolution).Error; err != nil {
		t.Fatalf("failed to seed resolution: %v", err)
	}
	milestones := make([]*types.Milestone, 0, count)
	for i := 0; i < count; i++ {
		status := types.MilestoneStatusPending
		if i == 0 {
			status = types.MilestoneStatusInProgress
		}
		m := &types.Milestone{
			ResolutionID: resolution.ID,
			OrderIndex:   i,
			Title:        "phase",
			Status:       status,
		}
		if err := tx.Create(m).Error; err != nil {
			t.Fatalf("failed to seed milestone %d: %v", i, err)
		}
		milestones = append(milestones, m)
	}
	return resolution, milestones
}

func TestMilestoneCompletePromotesNextPending(t *testing.T) {
	tx := openMilestoneTestDB(t)
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	milestoneRepo := repos.NewMilestoneRepo(tx, log)
	resolutionRepo := repos.NewResolutionRepo(tx, log)
	svc := NewMilestoneService(tx, log, milestoneRepo, resolutionRepo)
	ctx := context.Background()

	resolution, milestones := seedRoadmap(t, tx, 4)

	completed, err := svc.Complete(ctx, resolution.UserID, milestones[0].ID)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if completed.Status != types.MilestoneStatusCompleted {
		t.Fatalf("expected completed status, got %q", completed.Status)
	}
	if completed.CompletedAt == nil {
		t.Fatal("expected completion timestamp")
	}

	next, err := milestoneRepo.GetByID(ctx, tx, milestones[1].ID)
	if err != nil {
		t.Fatalf("failed to reload next milestone: %v", err)
	}
	if next.Status != types.MilestoneStatusInProgress {
		t.Fatalf("expected next milestone promoted, got %q", next.Status)
	}

	reloaded, err := resolutionRepo.GetByID(ctx, tx, resolution.ID)
	if err != nil {
		t.Fatalf("failed to reload resolution: %v", err)
	}
	if reloaded.CurrentMilestone != 1 {
		t.Fatalf("expected current milestone 1, got %d", reloaded.CurrentMilestone)
	}
	if reloaded.Status != types.ResolutionStatusActive {
		t.Fatalf("resolution should stay active, got %q", reloaded.Status)
	}
}

func TestMilestoneCompleteLastMarksResolutionDone(t *testing.T) {
	tx := openMilestoneTestDB(t)
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	milestoneRepo := repos.NewMilestoneRepo(tx, log)
	resolutionRepo := repos.NewResolutionRepo(tx, log)
	svc := NewMilestoneService(tx, log, milestoneRepo, resolutionRepo)
	ctx := context.Background()

	resolution, milestones := seedRoadmap(t, tx, 2)

	for _, m := range milestones {
		if _, err := svc.Complete(ctx, resolution.UserID, m.ID); err != nil {
			t.Fatalf("Complete %d failed: %v", m.OrderIndex, err)
		}
	}

	reloaded, err := resolutionRepo.GetByID(ctx, tx, resolution.ID)
	if err != nil {
		t.Fatalf("failed to reload resolution: %v", err)
	}
	if reloaded.Status != types.ResolutionStatusCompleted {
		t.Fatalf("expected resolution completed, got %q", reloaded.Status)
	}
}

func TestMilestoneCompleteTwiceConflicts(t *testing.T) {
	tx := openMilestoneTestDB(t)
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	milestoneRepo := repos.NewMilestoneRepo(tx, log)
	resolutionRepo := repos.NewResolutionRepo(tx, log)
	svc := NewMilestoneService(tx, log, milestoneRepo, resolutionRepo)
	ctx := context.Background()

	resolution, milestones := seedRoadmap(t, tx, 3)

	if _, err := svc.Complete(ctx, resolution.UserID, milestones[0].ID); err != nil {
		t.Fatalf("first Complete failed: %v", err)
	}
	_, err = svc.Complete(ctx, resolution.UserID, milestones[0].ID)
	if err == nil {
		t.Fatal("expected conflict on repeat completion, got nil")
	}
	apiErr := apierr.From(err)
	if apiErr == nil || apiErr.Status != 409 {
		t.Fatalf("expected 409 conflict, got %v", err)
	}
}
