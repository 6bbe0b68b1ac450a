package scoring

import (
	"strings"
	"time"

	"github.com/jordan/outreach-agent/internal/config"
	"github.com/jordan/outreach-agent/internal/types"
)

// neutralScore is substituted for a factor whose inputs are entirely
// missing, so sparse profiles are neither rewarded nor punished for the
// gap.
const neutralScore = 50.0

// profileQualityScore rates profile completeness on a 0-100 scale. A
// prospect with no photo signal, no connection count, and no title carries
// no information for this factor at all.
func profileQualityScore(p types.Prospect) (float64, bool) {
	if p.HasProfilePhoto == nil && p.ConnectionCount == nil && p.Title == "" {
		return 0, false
	}
	score := 0.0
	if p.HasProfilePhoto != nil && *p.HasProfilePhoto {
		score += 30
	}
	if p.Title != "" {
		score += 30
	}
	if p.ConnectionCount != nil {
		switch n := *p.ConnectionCount; {
		case n >= 500:
			score += 40
		case n >= 200:
			score += 30
		case n >= 100:
			score += 20
		case n >= 50:
			score += 10
		}
	}
	return clampScore(score), true
}

// engagementScore rewards recent likes and comments, with comments worth
// triple and a bonus when both signals are present.
func engagementScore(p types.Prospect) (float64, bool) {
	if p.RecentLikes == nil && p.RecentComments == nil {
		return 0, false
	}
	likes, comments := 0, 0
	if p.RecentLikes != nil {
		likes = *p.RecentLikes
	}
	if p.RecentComments != nil {
		comments = *p.RecentComments
	}
	score := minFloat(float64(likes)*5, 25) + minFloat(float64(comments)*15, 60)
	if likes > 0 && comments > 0 {
		score += 15
	}
	return clampScore(score), true
}

// mutualConnectionsScore maps the mutual-connection count onto a step
// curve. Diminishing returns kick in past twenty mutuals; mutuals known to
// be high quality add 5 each (up to 15) on top, so a well-connected
// prospect can reach the full 100.
func mutualConnectionsScore(p types.Prospect) (float64, bool) {
	if p.MutualConnections == nil {
		return 0, false
	}
	var score float64
	switch n := *p.MutualConnections; {
	case n > 20:
		score = 85
	case n >= 11:
		score = 70
	case n >= 6:
		score = 50
	case n >= 3:
		score = 35
	case n >= 1:
		score = 20
	}
	if p.QualityMutuals != nil {
		score += minFloat(float64(*p.QualityMutuals)*5, 15)
	}
	return clampScore(score), true
}

// companyTargetingScore rates how well the prospect matches the configured
// target companies, industries, and titles. Matching is case-insensitive;
// title matching is substring-based so "VP of Engineering" matches a
// "engineering" target.
func companyTargetingScore(p types.Prospect, cfg config.ScoringConfig) (float64, bool) {
	if p.Company == "" && p.Industry == "" && p.Title == "" {
		return 0, false
	}
	score := 0.0
	if containsFold(cfg.TargetCompanies, p.Company) {
		score += 50
	}
	if containsFold(cfg.TargetIndustries, p.Industry) {
		score += 30
	}
	title := strings.ToLower(p.Title)
	for _, t := range cfg.TargetTitles {
		if t != "" && strings.Contains(title, strings.ToLower(t)) {
			score += 20
			break
		}
	}
	return clampScore(score), true
}

// activityLevelScore rates recency of platform activity in day buckets.
func activityLevelScore(p types.Prospect, now time.Time) (float64, bool) {
	if p.LastActiveAt == nil {
		return 0, false
	}
	days := now.Sub(*p.LastActiveAt).Hours() / 24
	switch {
	case days <= 1:
		return 100, true
	case days <= 3:
		return 90, true
	case days <= 7:
		return 80, true
	case days <= 14:
		return 70, true
	case days <= 30:
		return 60, true
	case days <= 60:
		return 40, true
	default:
		return 20, true
	}
}

func containsFold(haystack []string, needle string) bool {
	if needle == "" {
		return false
	}
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
