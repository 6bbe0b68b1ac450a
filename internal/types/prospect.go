package types

import "time"

// Prospect is a candidate connection target built from upstream profile
// data. Prospects are ephemeral: they are constructed per scoring call and
// only their score survives, attached to a ConnectionRequest record.
type Prospect struct {
	Name              string     `json:"name"`
	Title             string     `json:"title,omitempty"`
	Company           string     `json:"company,omitempty"`
	Industry          string     `json:"industry,omitempty"`
	Location          string     `json:"location,omitempty"`
	ProfileURL        string     `json:"profile_url"`
	HasProfilePhoto   *bool      `json:"has_profile_photo,omitempty"`
	ConnectionCount   *int       `json:"connection_count,omitempty"`
	MutualConnections *int       `json:"mutual_connections,omitempty"`
	QualityMutuals    *int       `json:"quality_mutuals,omitempty"` // mutuals who are themselves targets or senior contacts
	RecentLikes       *int       `json:"recent_likes,omitempty"`    // likes they left on our posts
	RecentComments    *int       `json:"recent_comments,omitempty"` // comments they left on our posts
	LastActiveAt      *time.Time `json:"last_active_at,omitempty"`
}

// ScoreFactor names one component of the lead score.
type ScoreFactor string

// Lead score factors.
const (
	FactorProfileQuality    ScoreFactor = "profile_quality"
	FactorEngagementHistory ScoreFactor = "engagement_history"
	FactorMutualConnections ScoreFactor = "mutual_connections"
	FactorCompanyTargeting  ScoreFactor = "company_targeting"
	FactorActivityLevel     ScoreFactor = "activity_level"
)

// PriorityTier is the discrete bucket derived from a continuous lead score.
type PriorityTier string

// Priority tiers, a fixed monotonic partition of the 0-100 score range.
const (
	TierCritical PriorityTier = "critical" // >= 80
	TierHigh     PriorityTier = "high"     // >= 60
	TierMedium   PriorityTier = "medium"   // >= 40
	TierLow      PriorityTier = "low"      // >= 20
	TierIgnore   PriorityTier = "ignore"
)

// LeadScore is the result of scoring one prospect.
type LeadScore struct {
	Total          float64                 `json:"total"` // 0-100
	Breakdown      map[ScoreFactor]float64 `json:"breakdown"`
	Tier           PriorityTier            `json:"tier"`
	Recommendation string                  `json:"recommendation"`
}

// ScoredProspect pairs a prospect with its computed score for batch output.
type ScoredProspect struct {
	Prospect Prospect  `json:"prospect"`
	Score    LeadScore `json:"score"`
}
