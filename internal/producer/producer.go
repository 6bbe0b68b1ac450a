// Package producer turns the agent's work sources into action candidates:
// due scheduled posts, relevant feed posts, campaign prospects, and due
// sequence steps. Producers only propose work; admission and execution stay
// with the orchestrator.
package producer

import (
	"context"
	"strings"
	"time"

	"github.com/jordan/outreach-agent/internal/types"
)

// Producer is one source of action candidates. HandleResult is called after
// the orchestrator executes a candidate, so each producer owns the
// follow-through for its own domain (marking posts published, advancing
// enrollments, recording experiment samples).
type Producer interface {
	Name() string
	Gather(ctx context.Context, now time.Time) ([]types.Candidate, error)
	HandleResult(ctx context.Context, cand types.Candidate, rec types.ActionRecord) error
}

// Candidate parameter keys shared between producers and the orchestrator.
const (
	ParamContent      = "content"
	ParamNote         = "note"
	ParamPostID       = "post_id"
	ParamCampaignID   = "campaign_id"
	ParamProfileURL   = "profile_url"
	ParamProspectName = "prospect_name"
	ParamProspectLoc  = "prospect_location"
	ParamEnrollmentID = "enrollment_id"
	ParamSequenceID   = "sequence_id"
	ParamExperimentID = "experiment_id"
	ParamVariantID    = "variant_id"
)

// relevanceScore rates a feed post against the user's interest keywords.
// Each matched interest is worth 10 points, with a 5 point bonus for posts
// long enough to carry substance, so the score ranks posts rather than
// grading them on an absolute scale.
func relevanceScore(text string, interests []string) float64 {
	lower := strings.ToLower(text)
	score := 0.0
	for _, interest := range interests {
		if interest == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(interest)) {
			score += 10
		}
	}
	if score > 0 && len(text) >= 100 {
		score += 5
	}
	return score
}
