package orchestrator

import (
	"sort"

	"github.com/jordan/outreach-agent/internal/types"
)

// orderCandidates arranges gathered candidates into execution order:
// time-critical work first (earliest due first), then everything else by
// score, best first. The sort is stable, so candidates that tie keep the
// order their producers emitted them in.
func orderCandidates(candidates []types.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.TimeCritical != b.TimeCritical {
			return a.TimeCritical
		}
		if a.TimeCritical {
			return a.DueAt.Before(b.DueAt)
		}
		return a.Score > b.Score
	})
}
