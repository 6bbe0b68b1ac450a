package scoring

import "github.com/jordan/outreach-agent/internal/types"

// Tier boundaries on the 0-100 composite scale.
const (
	tierCriticalMin = 80
	tierHighMin     = 60
	tierMediumMin   = 40
	tierLowMin      = 20
)

// tierFor buckets a composite score into a priority tier.
func tierFor(total float64) types.PriorityTier {
	switch {
	case total >= tierCriticalMin:
		return types.TierCritical
	case total >= tierHighMin:
		return types.TierHigh
	case total >= tierMediumMin:
		return types.TierMedium
	case total >= tierLowMin:
		return types.TierLow
	default:
		return types.TierIgnore
	}
}

// recommendationFor suggests a next action for a tier.
func recommendationFor(tier types.PriorityTier) string {
	switch tier {
	case types.TierCritical:
		return "reach out immediately with a personalized note"
	case types.TierHigh:
		return "send a connection request within the next cycle"
	case types.TierMedium:
		return "engage with their recent content before connecting"
	case types.TierLow:
		return "monitor for stronger engagement signals"
	default:
		return "deprioritize"
	}
}
