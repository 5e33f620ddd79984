package domain

import "math"

// Rating policy. These are a single global policy, not per-specialty.
const (
	KFactor               = 32
	MaxDelta              = 40
	DefaultRating         = 1200
	DefaultOpponentRating = 1500
	MinQuestions          = 5

	// Accepted range of a client supplied opponent rating.
	MinOpponentRating = 0
	MaxOpponentRating = 10000
)

// ExpectedScore is the logistic expectation for a player rated current
// against a field of strength opponent.
func ExpectedScore(current, opponent int) float64 {
	gap := float64(opponent) - float64(current)
	return 1.0 / (1.0 + math.Pow(10.0, gap/400.0))
}

// ComputeDelta returns the clamped rating change for one session.
// score must be in [0,1]. Rounding is math.Round, i.e. half away from zero.
func ComputeDelta(current int, score float64, opponent int, k int) int {
	raw := int(math.Round(float64(k) * (score - ExpectedScore(current, opponent))))
	return clampDelta(raw)
}

// Delta is ComputeDelta with the default K factor.
func Delta(current int, score float64, opponent int) int {
	return ComputeDelta(current, score, opponent, KFactor)
}

// Score converts a correct/total pair into a fraction. total must be > 0.
func Score(correct, total int) float64 {
	return float64(correct) / float64(total)
}

func clampDelta(d int) int {
	if d > MaxDelta {
		return MaxDelta
	}
	if d < -MaxDelta {
		return -MaxDelta
	}
	return d
}
