package repos

import (
	"context"
	"testing"
	"time"

	"github.com/neuroresolv/backend/internal/apierr"
	"github.com/neuroresolv/backend/internal/types"
)

func TestProgressLogRepoDuplicateDateConflict(t *testing.T) {
	tx := openTestDB(t)
	log := testLogger(t)
	repo := NewProgressLogRepo(tx, log)
	resolution := seedResolution(t, tx)
	ctx := context.Background()

	date := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	first := &types.ProgressLog{
		ResolutionID: resolution.ID,
		Date:         date,
		Content:      "practiced for an hour",
	}
	if _, err := repo.Create(ctx, tx, first); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	second := &types.ProgressLog{
		ResolutionID: resolution.ID,
		Date:         date,
		Content:      "logged again by mistake",
	}
	_, err := repo.Create(ctx, tx, second)
	if err == nil {
		t.Fatal("expected conflict for duplicate date, got nil")
	}
	apiErr := apierr.From(err)
	if apiErr == nil || apiErr.Status != 409 {
		t.Fatalf("expected 409 conflict, got %v", err)
	}
}

func TestProgressLogRepoCountSince(t *testing.T) {
	tx := openTestDB(t)
	log := testLogger(t)
	repo := NewProgressLogRepo(tx, log)
	resolution := seedResolution(t, tx)
	ctx := context.Background()

	base := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		entry := &types.ProgressLog{
			ResolutionID: resolution.ID,
			Date:         base.AddDate(0, 0, i),
			Content:      "daily entry",
		}
		if _, err := repo.Create(ctx, tx, entry); err != nil {
			t.Fatalf("create %d failed: %v", i, err)
		}
	}

	count, err := repo.CountSince(ctx, tx, resolution.ID, base.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("CountSince failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 logs since cutoff, got %d", count)
	}

	listed, err := repo.ListSince(ctx, tx, resolution.ID, base.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("ListSince failed: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 listed logs, got %d", len(listed))
	}
}
