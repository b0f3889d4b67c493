package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestStreakRepoCreatesRowOnFirstRead(t *testing.T) {
	tx := openTestDB(t)
	log := testLogger(t)
	repo := NewStreakRepo(tx, log)
	resolution := seedResolution(t, tx)
	ctx := context.Background()

	streak, err := repo.GetByResolution(ctx, tx, resolution.ID)
	if err != nil {
		t.Fatalf("GetByResolution failed: %v", err)
	}
	if streak.ResolutionID != resolution.ID {
		t.Fatalf("streak bound to wrong resolution: %s", streak.ResolutionID)
	}
	if streak.CurrentStreak != 0 || streak.LongestStreak != 0 {
		t.Fatalf("fresh streak should start at zero, got %d/%d", streak.CurrentStreak, streak.LongestStreak)
	}
	if streak.ID == uuid.Nil {
		t.Fatal("streak row was not persisted")
	}

	again, err := repo.GetByResolution(ctx, tx, resolution.ID)
	if err != nil {
		t.Fatalf("second read failed: %v", err)
	}
	if again.ID != streak.ID {
		t.Fatalf("second read created a new row: %s vs %s", again.ID, streak.ID)
	}
}

func TestStreakRepoSaveRoundTrip(t *testing.T) {
	tx := openTestDB(t)
	log := testLogger(t)
	repo := NewStreakRepo(tx, log)
	resolution := seedResolution(t, tx)
	ctx := context.Background()

	streak, err := repo.GetByResolution(ctx, tx, resolution.ID)
	if err != nil {
		t.Fatalf("GetByResolution failed: %v", err)
	}

	logDate := time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)
	streak.CurrentStreak = 4
	streak.LongestStreak = 9
	streak.TotalVerifiedDays = 2
	streak.LastLogDate = &logDate
	if err := repo.Save(ctx, tx, streak); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded, err := repo.GetByResolution(ctx, tx, resolution.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.CurrentStreak != 4 || reloaded.LongestStreak != 9 {
		t.Fatalf("counters not persisted, got %d/%d", reloaded.CurrentStreak, reloaded.LongestStreak)
	}
	if reloaded.TotalVerifiedDays != 2 {
		t.Fatalf("verified days not persisted, got %d", reloaded.TotalVerifiedDays)
	}
	if reloaded.LastLogDate == nil || reloaded.LastLogDate.Format("2006-01-02") != "2026-08-21" {
		t.Fatalf("last log date not persisted, got %v", reloaded.LastLogDate)
	}
}
