package services

import (
	"testing"
	"time"

	"github.com/neuroresolv/backend/internal/types"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestApplyDailyLogFirstLog(t *testing.T) {
	s := &types.Streak{}
	ApplyDailyLog(s, day("2026-03-10"))
	if s.CurrentStreak != 1 || s.LongestStreak != 1 {
		t.Fatalf("expected 1/1, got %d/%d", s.CurrentStreak, s.LongestStreak)
	}
	if s.LastLogDate == nil || !s.LastLogDate.Equal(day("2026-03-10")) {
		t.Fatalf("last log date not recorded: %v", s.LastLogDate)
	}
}

func TestApplyDailyLogConsecutiveDayIncrements(t *testing.T) {
	last := day("2026-03-10")
	s := &types.Streak{CurrentStreak: 3, LongestStreak: 5, LastLogDate: &last}
	ApplyDailyLog(s, day("2026-03-11"))
	if s.CurrentStreak != 4 {
		t.Fatalf("expected streak 4, got %d", s.CurrentStreak)
	}
	if s.LongestStreak != 5 {
		t.Fatalf("longest should stay 5, got %d", s.LongestStreak)
	}
}

func TestApplyDailyLogSameDayIsNoop(t *testing.T) {
	last := day("2026-03-10")
	s := &types.Streak{CurrentStreak: 3, LongestStreak: 5, LastLogDate: &last}
	ApplyDailyLog(s, day("2026-03-10"))
	if s.CurrentStreak != 3 {
		t.Fatalf("same-day log must not change streak, got %d", s.CurrentStreak)
	}
}

func TestApplyDailyLogGapResets(t *testing.T) {
	last := day("2026-03-10")
	s := &types.Streak{CurrentStreak: 9, LongestStreak: 9, LastLogDate: &last}
	ApplyDailyLog(s, day("2026-03-13"))
	if s.CurrentStreak != 1 {
		t.Fatalf("expected reset to 1, got %d", s.CurrentStreak)
	}
	if s.LongestStreak != 9 {
		t.Fatalf("longest must never decrease, got %d", s.LongestStreak)
	}
}

func TestApplyDailyLogExtendsLongest(t *testing.T) {
	last := day("2026-03-10")
	s := &types.Streak{CurrentStreak: 5, LongestStreak: 5, LastLogDate: &last}
	ApplyDailyLog(s, day("2026-03-11"))
	if s.LongestStreak != 6 {
		t.Fatalf("expected longest 6, got %d", s.LongestStreak)
	}
}

func TestApplyVerifiedDayLeavesActivityStreakAlone(t *testing.T) {
	last := day("2026-03-10")
	s := &types.Streak{CurrentStreak: 4, LongestStreak: 8, LastLogDate: &last, TotalVerifiedDays: 2}
	ApplyVerifiedDay(s, day("2026-03-10"))
	if s.TotalVerifiedDays != 3 {
		t.Fatalf("expected 3 verified days, got %d", s.TotalVerifiedDays)
	}
	if s.CurrentStreak != 4 || s.LongestStreak != 8 {
		t.Fatalf("verification must not touch activity streak, got %d/%d", s.CurrentStreak, s.LongestStreak)
	}
	if s.LastVerifiedDate == nil || !s.LastVerifiedDate.Equal(day("2026-03-10")) {
		t.Fatalf("last verified date not recorded: %v", s.LastVerifiedDate)
	}
}
