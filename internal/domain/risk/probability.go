package risk

import "math"

const (
	highBaseProbability = 0.8
	lowBaseProbability  = 0.2
	minCoverageFactor   = 0.2
)

// DeriveProbability computes the heuristic risk probability for label.
// When rate is set the base value is scaled by max(0.2, (100-rate)/100).
// The result is clamped to [0,1] so out-of-range rates cannot escape it.
func DeriveProbability(label Label, rate *float64) Probability {
	p := lowBaseProbability
	if label == High {
		p = highBaseProbability
	}
	if rate != nil {
		p *= math.Max(minCoverageFactor, (100-*rate)/100)
	}
	return Probability(clamp01(p))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
