// Package contentgen generates outreach content: feed comments, scheduled
// posts, connection notes, and experiment variants. It wraps an LLM client
// with domain prompts and validates structured responses before they reach
// the orchestrator.
package contentgen

// ModelTier represents the complexity/capability level of a model.
type ModelTier string

const (
	// TierLite is for short, low-stakes text: comments, likes rationale.
	TierLite ModelTier = "lite"
	// TierStandard is for moderate tasks: connection notes, follow-ups.
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long-form work: posts and variant generation.
	TierAdvanced ModelTier = "advanced"
)

// Config holds the model configuration for content generation.
type Config struct {
	Models map[ModelTier]string
}

// DefaultConfig returns the default Gemini model mapping.
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
	}
}

// GetModel returns the model name for a given tier, falling back through
// standard and lite when the tier is not configured.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}
