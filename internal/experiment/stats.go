package experiment

import (
	"math"

	"github.com/jordan/outreach-agent/internal/types"
)

// zQuantile returns the two-sided standard-normal critical value for the
// given confidence level, e.g. ~1.96 for 0.95.
func zQuantile(confidence float64) float64 {
	return math.Sqrt2 * math.Erfinv(confidence)
}

// waldInterval is the normal-approximation confidence interval for a
// binomial proportion, clamped to [0, 1]. With zero exposures the interval
// degenerates to [0, 0].
func waldInterval(successes, exposures int, z float64) types.ConfidenceInterval {
	if exposures == 0 {
		return types.ConfidenceInterval{}
	}
	p := float64(successes) / float64(exposures)
	margin := z * math.Sqrt(p*(1-p)/float64(exposures))
	return types.ConfidenceInterval{
		Lower: math.Max(0, p-margin),
		Upper: math.Min(1, p+margin),
	}
}

// twoProportionPValue runs a pooled two-proportion z-test and returns the
// two-sided p-value. A degenerate pooled variance (all successes or all
// failures across both groups) carries no evidence of a difference, so the
// p-value is 1.
func twoProportionPValue(s1, n1, s2, n2 int) float64 {
	if n1 == 0 || n2 == 0 {
		return 1
	}
	p1 := float64(s1) / float64(n1)
	p2 := float64(s2) / float64(n2)
	pooled := float64(s1+s2) / float64(n1+n2)
	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(n1) + 1/float64(n2)))
	if se == 0 {
		return 1
	}
	z := (p1 - p2) / se
	return math.Erfc(math.Abs(z) / math.Sqrt2)
}
