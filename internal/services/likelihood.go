package services

import "math"

// LikelihoodInputs are the observed signals behind the goal likelihood
// score. RecentScores holds the verification scores of the lookback window;
// an empty slice means no signal, which scores as a neutral 0.5.
type LikelihoodInputs struct {
	CurrentStreak       int
	LongestStreak       int
	CompletedMilestones int
	TotalMilestones     int
	RecentLogCount      int
	RecentScores        []float64
}

// GoalLikelihood blends streak consistency, milestone completion, recent
// activity and verification quality into a 0..1 score with two-decimal
// precision. Weights: 0.3 / 0.3 / 0.2 / 0.2.
func GoalLikelihood(in LikelihoodInputs) float64 {
	longest := in.LongestStreak
	if longest < 7 {
		longest = 7
	}
	consistency := math.Min(float64(in.CurrentStreak)/float64(longest), 1.0)

	total := in.TotalMilestones
	if total < 1 {
		total = 1
	}
	completion := float64(in.CompletedMilestones) / float64(total)

	activity := math.Min(float64(in.RecentLogCount)/7.0, 1.0)

	quality := 0.5
	if len(in.RecentScores) > 0 {
		sum := 0.0
		for _, score := range in.RecentScores {
			sum += score
		}
		quality = sum / float64(len(in.RecentScores))
	}

	score := 0.3*consistency + 0.3*completion + 0.2*activity + 0.2*quality
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return math.Round(score*100) / 100
}
