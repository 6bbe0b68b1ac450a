package safety

import (
	"time"

	"github.com/jordan/outreach-agent/internal/types"
)

// Component weights of the composite risk score. The score is a convex
// combination, so it stays in [0, 1] as long as each component does, and it
// rises monotonically with utilization when the other components are held
// fixed.
const (
	utilizationWeight = 0.60
	failureWeight     = 0.25
	burstWeight       = 0.15
)

// kindRiskWeight ranks action kinds by how aggressive they look to the
// platform. Outbound contact weighs far more than passive browsing.
var kindRiskWeight = map[types.ActionKind]float64{
	types.KindConnectionRequest: 0.8,
	types.KindMessage:           0.7,
	types.KindPost:              0.5,
	types.KindComment:           0.4,
	types.KindLike:              0.2,
	types.KindProfileView:       0.1,
}

// burstSampleSize is how many of the most recent admissions feed the
// burstiness estimate.
const burstSampleSize = 10

// computeRiskLocked evaluates the composite risk score at now. Caller must
// hold b.mu.
func (b *Budget) computeRiskLocked(now time.Time) float64 {
	score := utilizationWeight*b.utilizationLocked(now) +
		failureWeight*b.failureRateLocked() +
		burstWeight*b.burstinessLocked(now)
	return clamp01(score)
}

// utilizationLocked is the risk-weighted mean of per-kind window
// utilization, where each kind contributes the fuller of its hourly and
// daily windows.
func (b *Budget) utilizationLocked(now time.Time) float64 {
	var weighted, totalWeight float64
	for kind, weight := range kindRiskWeight {
		var util float64
		if ceil, ok := b.cfg.HourlyCeilings[kind]; ok && ceil > 0 {
			util = float64(b.hourly[kind].count(now)) / float64(ceil)
		}
		if ceil, ok := b.cfg.DailyCeilings[kind]; ok && ceil > 0 {
			if u := float64(b.daily[kind].count(now)) / float64(ceil); u > util {
				util = u
			}
		}
		weighted += weight * clamp01(util)
		totalWeight += weight
	}
	if totalWeight == 0 {
		return 0
	}
	return weighted / totalWeight
}

// failureRateLocked is the share of failures among the recent-outcome ring.
// Skipped actions count as neutral, not failed.
func (b *Budget) failureRateLocked() float64 {
	if len(b.outcomes) == 0 {
		return 0
	}
	failed := 0
	for _, e := range b.outcomes {
		if e.outcome == types.OutcomeFailure {
			failed++
		}
	}
	return float64(failed) / float64(len(b.outcomes))
}

// burstinessLocked compares the mean spacing of the most recent admissions
// against the spacing an even spread under the aggregate hourly ceiling
// would produce. Tighter-than-even spacing raises the component toward 1.
func (b *Budget) burstinessLocked(now time.Time) float64 {
	b.aggHour.prune(now)
	times := b.aggHour.times
	if len(times) < 3 || b.cfg.AggregateHourly <= 0 {
		return 0
	}
	if len(times) > burstSampleSize {
		times = times[len(times)-burstSampleSize:]
	}
	actual := times[len(times)-1].Sub(times[0]).Seconds() / float64(len(times)-1)
	expected := time.Hour.Seconds() / float64(b.cfg.AggregateHourly)
	if expected <= 0 || actual >= expected {
		return 0
	}
	return clamp01(1 - actual/expected)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
