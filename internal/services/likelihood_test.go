package services

import "testing"

func TestGoalLikelihoodWorkedExample(t *testing.T) {
	got := GoalLikelihood(LikelihoodInputs{
		CurrentStreak:       5,
		LongestStreak:       10,
		CompletedMilestones: 2,
		TotalMilestones:     4,
		RecentLogCount:      7,
		RecentScores:        []float64{0.8, 0.9},
	})
	if got != 0.67 {
		t.Fatalf("expected 0.67, got %v", got)
	}
}

func TestGoalLikelihoodNoSignalsIsNeutralQuality(t *testing.T) {
	// No scores means the quality term contributes 0.2*0.5.
	got := GoalLikelihood(LikelihoodInputs{})
	if got != 0.1 {
		t.Fatalf("expected 0.1, got %v", got)
	}
}

func TestGoalLikelihoodLongestFloorSeven(t *testing.T) {
	// A short longest streak is floored at 7 so early runs cannot max the
	// consistency term.
	got := GoalLikelihood(LikelihoodInputs{
		CurrentStreak: 3,
		LongestStreak: 3,
		RecentScores:  []float64{1.0},
	})
	// 0.3*(3/7) + 0 + 0 + 0.2*1.0 = 0.1286 + 0.2
	if got != 0.33 {
		t.Fatalf("expected 0.33, got %v", got)
	}
}

func TestGoalLikelihoodCapsAtOne(t *testing.T) {
	got := GoalLikelihood(LikelihoodInputs{
		CurrentStreak:       30,
		LongestStreak:       30,
		CompletedMilestones: 8,
		TotalMilestones:     8,
		RecentLogCount:      20,
		RecentScores:        []float64{1.0, 1.0},
	})
	if got != 1.0 {
		t.Fatalf("expected 1.0, got %v", got)
	}
}

func TestGoalLikelihoodActivityCapsAtSevenLogs(t *testing.T) {
	a := GoalLikelihood(LikelihoodInputs{RecentLogCount: 7})
	b := GoalLikelihood(LikelihoodInputs{RecentLogCount: 70})
	if a != b {
		t.Fatalf("activity term should cap at 7 logs: %v vs %v", a, b)
	}
}
