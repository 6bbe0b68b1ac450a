package types

import "time"

// ExperimentStatus tracks an experiment through its lifecycle.
type ExperimentStatus string

// Experiment lifecycle states.
const (
	ExperimentDraft     ExperimentStatus = "draft"
	ExperimentRunning   ExperimentStatus = "running"
	ExperimentConcluded ExperimentStatus = "concluded"
)

// ExperimentType names what dimension of content the experiment varies.
type ExperimentType string

// Supported experiment types.
const (
	ExperimentHeadline  ExperimentType = "headline"
	ExperimentTone      ExperimentType = "tone"
	ExperimentLength    ExperimentType = "length"
	ExperimentCTA       ExperimentType = "cta"
	ExperimentTimeOfDay ExperimentType = "time_of_day"
	ExperimentHashtag   ExperimentType = "hashtag"
)

// Variant is one arm of an A/B(/N) experiment with its accumulating sample.
type Variant struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Content   string `json:"content,omitempty"` // the content template this arm uses
	IsControl bool   `json:"is_control"`
	Exposures int    `json:"exposures"`
	Successes int    `json:"successes"`
}

// SuccessRate returns successes/exposures, or 0 with no exposures.
func (v Variant) SuccessRate() float64 {
	if v.Exposures == 0 {
		return 0
	}
	return float64(v.Successes) / float64(v.Exposures)
}

// Experiment is a named A/B(/N) test over an ordered set of variants.
type Experiment struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Type        ExperimentType   `json:"type"`
	Hypothesis  string           `json:"hypothesis,omitempty"`
	Status      ExperimentStatus `json:"status"`
	Variants    []Variant        `json:"variants"`
	CreatedAt   time.Time        `json:"created_at"`
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	ConcludedAt *time.Time       `json:"concluded_at,omitempty"`
	WinnerID    string           `json:"winner_id,omitempty"`
}

// ConfidenceInterval is a two-sided interval on a variant's success rate.
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// VariantAnalysis holds the descriptive stats computed for one variant.
type VariantAnalysis struct {
	VariantID   string             `json:"variant_id"`
	Label       string             `json:"label"`
	IsControl   bool               `json:"is_control"`
	Exposures   int                `json:"exposures"`
	Successes   int                `json:"successes"`
	SuccessRate float64            `json:"success_rate"`
	Interval    ConfidenceInterval `json:"confidence_interval"`
}

// ExperimentAnalysis is the full result of analyzing one experiment. A
// declared winner always carries its confidence basis (p-value, sample
// sizes, confidence level), never a bare label.
type ExperimentAnalysis struct {
	ExperimentID       string            `json:"experiment_id"`
	Name               string            `json:"name"`
	PerVariant         []VariantAnalysis `json:"per_variant"`
	ConfidenceLevel    float64           `json:"confidence_level"`
	MinSampleSize      int               `json:"min_sample_size"`
	SufficientSample   bool              `json:"sufficient_sample"`
	PValue             float64           `json:"p_value,omitempty"`
	WinnerID           string            `json:"winner_id,omitempty"` // empty when no significant winner
	LiftOverControl    float64           `json:"lift_over_control,omitempty"`
	LiftDefined        bool              `json:"lift_defined"` // false when the baseline rate is zero
	Significant        bool              `json:"significant"`
	InsufficientDetail string            `json:"insufficient_detail,omitempty"` // which variants lack samples
}
