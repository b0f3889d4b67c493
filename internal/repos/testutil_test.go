package repos

import (
	"os"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/types"
)

// openTestDB connects to the database named by TEST_POSTGRES_DSN and hands
// the test a transaction that is rolled back afterwards, so tests never leak
// rows into each other.
func openTestDB(t *testing.T) *gorm.DB {
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
		&types.Milestone{},
		&types.ProgressLog{},
		&types.VerificationQuiz{},
		&types.Streak{},
		&types.LearningMetric{},
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

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	return log
}

func seedResolution(t *testing.T, tx *gorm.DB) *types.Resolution {
	t.Helper()
	user := &types.User{Email: "test@example.com", FullName: "Test User"}
	if err := tx.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	resolution := &types.Resolution{
		UserID:        user.ID,
		GoalStatement: "learn Go",
		Category:      "programming",
		SkillLevel:    "beginner",
		Cadence:       "daily",
		Status:        types.ResolutionStatusActive,
	}
	if err := tx.Create(resolution).Error; err != nil {
		t.Fatalf("failed to seed resolution: %v", err)
	}
	return resolution
}
