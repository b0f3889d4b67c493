package services

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/repos"
	"github.com/neuroresolv/backend/internal/types"
)

func openFeedbackTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := db.AutoMigrate(
		&types.User{},
		&types.Resolution{},
		&types.WeeklyGoal{},
		&types.NorthStarGoal{},
		&types.AIFeedback{},
	); err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	tx := db.Begin()
	if tx.Error != nil {
		t.Fatalf("failed to begin tx: %v", tx.Error)
	}
	t.Cleanup(func() { tx.Rollback() })
	return tx
}

// stubWeeklyGoalService records the transaction handle the feedback loop
// hands it and writes the replacement goal through it.
type stubWeeklyGoalService struct {
	WeeklyGoalService
	gotTx *gorm.DB
	fail  bool
}

func (s *stubWeeklyGoalService) Regenerate(ctx context.Context, tx *gorm.DB, resolution *types.Resolution, goalID uuid.UUID, feedbackText string) (*types.WeeklyGoal, error) {
	s.gotTx = tx
	if s.fail {
		return nil, errors.New("generation unavailable")
	}
	goal := &types.WeeklyGoal{
		ResolutionID: resolution.ID,
		GoalText:     "regenerated goal",
		WeekStart:    time.Now().UTC(),
		WeekEnd:      time.Now().UTC().AddDate(0, 0, 6),
	}
	if err := tx.WithContext(ctx).Create(goal).Error; err != nil {
		return nil, err
	}
	return goal, nil
}

func seedWeeklyGoalFeedback(t *testing.T, tx *gorm.DB) (*types.Resolution, *types.AIFeedback) {
	t.Helper()
	user := &types.User{Email: "feedback@example.com", FullName: "Test User"}
	if err := tx.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	resolution := &types.Resolution{
		UserID:        user.ID,
		GoalStatement: "learn sketching",
		Category:      "art",
		SkillLevel:    "beginner",
		Cadence:       "daily",
		Status:        types.ResolutionStatusActive,
	}
	if err := tx.Create(resolution).Error; err != nil {
		t.Fatalf("failed to seed resolution: %v", err)
	}
	goal := &types.WeeklyGoal{
		ResolutionID: resolution.ID,
		GoalText:     "original goal",
		WeekStart:    time.Now().UTC(),
		WeekEnd:      time.Now().UTC().AddDate(0, 0, 6),
	}
	if err := tx.Create(goal).Error; err != nil {
		t.Fatalf("failed to seed weekly goal: %v", err)
	}
	feedback := &types.AIFeedback{
		UserID:       user.ID,
		ContentType:  types.FeedbackContentWeeklyGoal,
		ContentID:    goal.ID,
		Rating:       types.RatingThumbsDown,
		FeedbackText: "too vague",
	}
	if err := tx.Create(feedback).Error; err != nil {
		t.Fatalf("failed to seed feedback: %v", err)
	}
	return resolution, feedback
}

func newFeedbackTestService(t *testing.T, tx *gorm.DB, weekly *stubWeeklyGoalService) FeedbackService {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	return NewFeedbackService(
		tx,
		log,
		repos.NewAIFeedbackRepo(tx, log),
		repos.NewResolutionRepo(tx, log),
		repos.NewWeeklyGoalRepo(tx, log),
		repos.NewNorthStarRepo(tx, log),
		nil,
		weekly,
		nil,
	)
}

func TestFeedbackRegenerateWritesArtifactInSameTransaction(t *testing.T) {
	tx := openFeedbackTestDB(t)
	_, feedback := seedWeeklyGoalFeedback(t, tx)
	weekly := &stubWeeklyGoalService{}
	svc := newFeedbackTestService(t, tx, weekly)

	updated, err := svc.Regenerate(context.Background(), feedback.UserID, feedback.ID)
	if err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}
	if weekly.gotTx == nil {
		t.Fatal("regeneration ran outside the feedback transaction")
	}
	if !updated.WasRegenerated || updated.RegeneratedContentID == nil {
		t.Fatalf("feedback row not finalized: %+v", updated)
	}

	var goal types.WeeklyGoal
	if err := tx.First(&goal, "id = ?", *updated.RegeneratedContentID).Error; err != nil {
		t.Fatalf("replacement goal not visible in transaction: %v", err)
	}
	if goal.GoalText != "regenerated goal" {
		t.Fatalf("unexpected replacement goal: %q", goal.GoalText)
	}
}

func TestFeedbackRegenerateFailureLeavesRowUntouched(t *testing.T) {
	tx := openFeedbackTestDB(t)
	_, feedback := seedWeeklyGoalFeedback(t, tx)
	weekly := &stubWeeklyGoalService{fail: true}
	svc := newFeedbackTestService(t, tx, weekly)

	if _, err := svc.Regenerate(context.Background(), feedback.UserID, feedback.ID); err == nil {
		t.Fatal("expected regeneration failure to surface")
	}

	var reloaded types.AIFeedback
	if err := tx.First(&reloaded, "id = ?", feedback.ID).Error; err != nil {
		t.Fatalf("failed to reload feedback: %v", err)
	}
	if reloaded.WasRegenerated || reloaded.RegeneratedContentID != nil {
		t.Fatalf("failed regeneration must not mark the row: %+v", reloaded)
	}
}
