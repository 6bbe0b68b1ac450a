// Package config provides YAML configuration loading and validation for the agent.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jordan/outreach-agent/internal/types"
)

// DefaultConfigFile is the path checked when no --config flag is given.
const DefaultConfigFile = "agent.yaml"

// Config is the full agent configuration. Values load in the hierarchy
// defaults < YAML < ENV, then validate; invalid configuration fails fast
// at startup.
type Config struct {
	DatabaseURL string `yaml:"database_url"`
	APIKey      string `yaml:"api_key"` // Gemini API key; GEMINI_API_KEY overrides
	Verbose     bool   `yaml:"verbose"`

	Safety      SafetyConfig     `yaml:"safety"`
	Scoring     ScoringConfig    `yaml:"scoring"`
	Experiments ExperimentConfig `yaml:"experiments"`
	Sequences   SequenceConfig   `yaml:"sequences"`
	Agent       AgentConfig      `yaml:"agent"`
}

// SafetyConfig holds the rate ceilings and risk thresholds consumed by the
// safety budget.
type SafetyConfig struct {
	HourlyCeilings map[types.ActionKind]int `yaml:"hourly_ceilings"`
	DailyCeilings  map[types.ActionKind]int `yaml:"daily_ceilings"`
	// AggregateHourly and AggregateDaily cap total actions across all kinds.
	AggregateHourly    int           `yaml:"aggregate_hourly" validate:"gt=0"`
	AggregateDaily     int           `yaml:"aggregate_daily" validate:"gt=0"`
	RiskPauseThreshold float64       `yaml:"risk_pause_threshold" validate:"gt=0,lte=1"`
	Cooldown           time.Duration `yaml:"cooldown" validate:"gt=0"`
	// FailureWindow is how many recent outcomes feed the failure-rate penalty.
	FailureWindow int `yaml:"failure_window" validate:"gt=0"`
}

// ScoringConfig holds lead-scoring weights and targeting lists.
type ScoringConfig struct {
	// Weights per factor; must sum to 1.0.
	Weights          map[types.ScoreFactor]float64 `yaml:"weights"`
	TargetCompanies  []string                      `yaml:"target_companies"`
	TargetTitles     []string                      `yaml:"target_titles"`
	TargetIndustries []string                      `yaml:"target_industries"`
	UserInterests    []string                      `yaml:"user_interests"`
}

// ExperimentConfig holds the statistical thresholds for experiment analysis.
// Both are configuration, not constants, so operators can tune them.
type ExperimentConfig struct {
	MinSampleSize   int     `yaml:"min_sample_size" validate:"gt=0"`
	ConfidenceLevel float64 `yaml:"confidence_level" validate:"gt=0,lt=1"`
}

// SequenceConfig holds timezone scheduling settings.
type SequenceConfig struct {
	// SendHour is the local hour (0-23) messages shift to when timezone
	// scheduling is enabled.
	SendHour           int    `yaml:"send_hour" validate:"gte=0,lte=23"`
	TimezoneScheduling bool   `yaml:"timezone_scheduling"`
	FallbackTimezone   string `yaml:"fallback_timezone"`
}

// AgentConfig holds the loop cadence and producer toggles.
type AgentConfig struct {
	TickInterval  time.Duration `yaml:"tick_interval" validate:"gt=0"`
	ActionTimeout time.Duration `yaml:"action_timeout" validate:"gt=0"`
	JitterMin     time.Duration `yaml:"jitter_min" validate:"gte=0"`
	JitterMax     time.Duration `yaml:"jitter_max" validate:"gte=0"`

	EnableScheduledPosts bool `yaml:"enable_scheduled_posts"`
	EnableFeedEngagement bool `yaml:"enable_feed_engagement"`
	EnableCampaigns      bool `yaml:"enable_campaigns"`
	EnableSequences      bool `yaml:"enable_sequences"`

	// MaxEngagementsPerCycle bounds feed-engagement candidates per tick.
	MaxEngagementsPerCycle int `yaml:"max_engagements_per_cycle" validate:"gt=0"`
}

// Defaults returns the baseline configuration before YAML and env overlays.
// Ceilings follow the conservative limits the platform tolerates.
func Defaults() Config {
	return Config{
		Safety: SafetyConfig{
			HourlyCeilings: map[types.ActionKind]int{
				types.KindPost:              2,
				types.KindComment:           5,
				types.KindLike:              10,
				types.KindConnectionRequest: 3,
				types.KindMessage:           5,
				types.KindProfileView:       15,
			},
			DailyCeilings: map[types.ActionKind]int{
				types.KindPost:              3,
				types.KindComment:           15,
				types.KindLike:              40,
				types.KindConnectionRequest: 10,
				types.KindMessage:           20,
				types.KindProfileView:       60,
			},
			AggregateHourly:    10,
			AggregateDaily:     50,
			RiskPauseThreshold: 0.8,
			Cooldown:           45 * time.Minute,
			FailureWindow:      20,
		},
		Scoring: ScoringConfig{
			Weights: map[types.ScoreFactor]float64{
				types.FactorProfileQuality:    0.30,
				types.FactorEngagementHistory: 0.25,
				types.FactorMutualConnections: 0.20,
				types.FactorCompanyTargeting:  0.15,
				types.FactorActivityLevel:     0.10,
			},
		},
		Experiments: ExperimentConfig{
			MinSampleSize:   30,
			ConfidenceLevel: 0.95,
		},
		Sequences: SequenceConfig{
			SendHour:           9,
			TimezoneScheduling: true,
			FallbackTimezone:   "UTC",
		},
		Agent: AgentConfig{
			TickInterval:           5 * time.Minute,
			ActionTimeout:          90 * time.Second,
			JitterMin:              30 * time.Second,
			JitterMax:              90 * time.Second,
			EnableScheduledPosts:   true,
			EnableFeedEngagement:   true,
			EnableCampaigns:        true,
			EnableSequences:        true,
			MaxEngagementsPerCycle: 3,
		},
	}
}

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// A missing YAML file is not an error.
func Load(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigFile
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// loadEnv overlays environment variables onto cfg. Only non-empty env
// values override the current config.
func loadEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.APIKey = v
	}
}

// Validate checks structural rules (via validator tags) and the cross-field
// rules the tags cannot express. Any violation is fatal at startup.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	for kind, ceil := range c.Safety.HourlyCeilings {
		if ceil <= 0 {
			return fmt.Errorf("config error: hourly ceiling for %q must be positive, got %d", kind, ceil)
		}
	}
	for kind, ceil := range c.Safety.DailyCeilings {
		if ceil <= 0 {
			return fmt.Errorf("config error: daily ceiling for %q must be positive, got %d", kind, ceil)
		}
	}
	for kind, hourly := range c.Safety.HourlyCeilings {
		if daily, ok := c.Safety.DailyCeilings[kind]; ok && daily < hourly {
			return fmt.Errorf("config error: daily ceiling for %q (%d) is below its hourly ceiling (%d)", kind, daily, hourly)
		}
	}

	sum := 0.0
	for _, w := range c.Scoring.Weights {
		if w < 0 {
			return fmt.Errorf("config error: scoring weights must be non-negative")
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 0.001 {
		return fmt.Errorf("config error: scoring weights must sum to 1.0, got %.3f", sum)
	}

	if c.Agent.JitterMax < c.Agent.JitterMin {
		return fmt.Errorf("config error: jitter_max must be >= jitter_min")
	}

	if c.Sequences.FallbackTimezone != "" {
		if _, err := time.LoadLocation(c.Sequences.FallbackTimezone); err != nil {
			return fmt.Errorf("config error: unknown fallback_timezone %q: %w", c.Sequences.FallbackTimezone, err)
		}
	}

	return nil
}
