package services

import (
	"testing"
	"time"
)

func TestNextRefreshIntervals(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		cadence string
		want    time.Duration
	}{
		{CadenceDaily, 7 * 24 * time.Hour},
		{CadenceThreeTimes, 14 * 24 * time.Hour},
		{CadenceWeekdays, 14 * 24 * time.Hour},
		{CadenceWeekly, 28 * 24 * time.Hour},
		{"somehow_unknown", 14 * 24 * time.Hour},
		{"", 14 * 24 * time.Hour},
	}
	for _, tc := range cases {
		got := NextRefresh(tc.cadence, nil, now)
		if got.Sub(now) != tc.want {
			t.Fatalf("cadence %q: expected %v ahead, got %v", tc.cadence, tc.want, got.Sub(now))
		}
	}
}

func TestNextRefreshAlwaysStrictlyFuture(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	stale := now.Add(-90 * 24 * time.Hour)
	for _, cadence := range []string{CadenceDaily, CadenceThreeTimes, CadenceWeekdays, CadenceWeekly, "unknown"} {
		got := NextRefresh(cadence, &stale, now)
		if !got.After(now) {
			t.Fatalf("cadence %q: refresh %v not after now %v", cadence, got, now)
		}
	}
}

func TestNextRefreshFromRecentLastRefresh(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	last := now.Add(-24 * time.Hour)
	got := NextRefresh(CadenceDaily, &last, now)
	if want := last.Add(7 * 24 * time.Hour); !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
