package services

import (
	"testing"
	"time"

	"github.com/neuroresolv/backend/internal/types"
)

func TestWeekBoundsMondayToSunday(t *testing.T) {
	// 2026-03-11 is a Wednesday.
	start, end := weekBounds(time.Date(2026, 3, 11, 15, 30, 0, 0, time.UTC))
	if start.Weekday() != time.Monday {
		t.Fatalf("week should start Monday, got %v", start.Weekday())
	}
	if !start.Equal(day("2026-03-09")) {
		t.Fatalf("expected start 2026-03-09, got %v", start)
	}
	if !end.Equal(day("2026-03-15")) {
		t.Fatalf("expected end 2026-03-15, got %v", end)
	}
}

func TestWeekBoundsOnMonday(t *testing.T) {
	start, end := weekBounds(day("2026-03-09"))
	if !start.Equal(day("2026-03-09")) || !end.Equal(day("2026-03-15")) {
		t.Fatalf("monday should anchor its own week, got %v..%v", start, end)
	}
}

func TestWeekBoundsOnSunday(t *testing.T) {
	start, _ := weekBounds(day("2026-03-15"))
	if !start.Equal(day("2026-03-09")) {
		t.Fatalf("sunday belongs to the week started the prior monday, got %v", start)
	}
}

func TestFallbackWeeklyGoalHasActions(t *testing.T) {
	draft := fallbackWeeklyGoal(&types.Resolution{GoalStatement: "learn piano"})
	if draft.GoalText == "" || draft.MotivationNote == "" {
		t.Fatalf("fallback goal incomplete: %+v", draft)
	}
	if len(draft.MicroActions) < 3 {
		t.Fatalf("expected at least 3 micro actions, got %d", len(draft.MicroActions))
	}
}

func TestFallbackRoadmapSpacingByCadence(t *testing.T) {
	cases := []struct {
		cadence string
		weeks   int
	}{
		{CadenceDaily, 2},
		{CadenceThreeTimes, 3},
		{CadenceWeekdays, 3},
		{CadenceWeekly, 4},
		{"unknown", 3},
	}
	for _, tc := range cases {
		drafts := fallbackRoadmap(&types.Resolution{GoalStatement: "g", Cadence: tc.cadence})
		if len(drafts) != 4 {
			t.Fatalf("cadence %q: expected 4 phases, got %d", tc.cadence, len(drafts))
		}
		for i, d := range drafts {
			if want := tc.weeks * (i + 1); d.WeeksFromStart != want {
				t.Fatalf("cadence %q phase %d: expected week %d, got %d", tc.cadence, i, want, d.WeeksFromStart)
			}
		}
	}
}
