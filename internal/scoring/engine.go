package scoring

import (
	"sort"
	"time"

	"github.com/jordan/outreach-agent/internal/config"
	"github.com/jordan/outreach-agent/internal/types"
)

// Engine scores prospects against the configured targeting preferences.
// Scoring is a pure computation over the prospect and the clock; the same
// inputs always produce the same score.
type Engine struct {
	cfg config.ScoringConfig
}

// NewEngine builds a scoring engine from validated scoring configuration.
// The factor weights are expected to sum to 1.
func NewEngine(cfg config.ScoringConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Score computes the weighted composite score for one prospect. Factors
// whose inputs are entirely absent contribute the neutral midpoint, so a
// missing signal never zeroes out the whole profile.
func (e *Engine) Score(p types.Prospect, now time.Time) types.LeadScore {
	breakdown := map[types.ScoreFactor]float64{
		types.FactorProfileQuality:    orNeutral(profileQualityScore(p)),
		types.FactorEngagementHistory: orNeutral(engagementScore(p)),
		types.FactorMutualConnections: orNeutral(mutualConnectionsScore(p)),
		types.FactorCompanyTargeting:  orNeutral(companyTargetingScore(p, e.cfg)),
		types.FactorActivityLevel:     orNeutral(activityLevelScore(p, now)),
	}

	total := 0.0
	for factor, score := range breakdown {
		total += e.cfg.Weights[factor] * score
	}
	total = clampScore(total)

	tier := tierFor(total)
	return types.LeadScore{
		Total:          total,
		Breakdown:      breakdown,
		Tier:           tier,
		Recommendation: recommendationFor(tier),
	}
}

// BatchScore scores every prospect and returns them ordered best-first.
// The sort is stable, so prospects with equal scores keep their input
// order.
func (e *Engine) BatchScore(prospects []types.Prospect, now time.Time) []types.ScoredProspect {
	scored := make([]types.ScoredProspect, 0, len(prospects))
	for _, p := range prospects {
		scored = append(scored, types.ScoredProspect{Prospect: p, Score: e.Score(p, now)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score.Total > scored[j].Score.Total
	})
	return scored
}

// BatchStats summarizes one batch-scoring pass.
type BatchStats struct {
	Count      int
	Average    float64
	Best       float64
	TierCounts map[types.PriorityTier]int
}

// Stats aggregates a scored batch into counts per tier plus the average
// and best totals.
func Stats(scored []types.ScoredProspect) BatchStats {
	stats := BatchStats{
		Count:      len(scored),
		TierCounts: make(map[types.PriorityTier]int),
	}
	sum := 0.0
	for _, sp := range scored {
		sum += sp.Score.Total
		if sp.Score.Total > stats.Best {
			stats.Best = sp.Score.Total
		}
		stats.TierCounts[sp.Score.Tier]++
	}
	if stats.Count > 0 {
		stats.Average = sum / float64(stats.Count)
	}
	return stats
}

func orNeutral(score float64, present bool) float64 {
	if !present {
		return neutralScore
	}
	return score
}
