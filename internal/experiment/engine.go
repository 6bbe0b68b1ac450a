package experiment

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jordan/outreach-agent/internal/config"
	"github.com/jordan/outreach-agent/internal/types"
)

var (
	// ErrNotFound is returned when no experiment has the given ID.
	ErrNotFound = errors.New("experiment not found")
	// ErrNotRunning is returned when samples arrive for an experiment that
	// is not in the running state.
	ErrNotRunning = errors.New("experiment is not running")
	// ErrDuplicateSample is returned when an action that already produced a
	// sample tries to produce another, in any experiment.
	ErrDuplicateSample = errors.New("action already sampled")
)

// Engine manages content experiments: variant bookkeeping, sample
// recording, and significance analysis. It is safe for concurrent use.
type Engine struct {
	mu          sync.Mutex
	cfg         config.ExperimentConfig
	experiments map[string]*types.Experiment
	sampled     map[string]string // action ID -> experiment ID
}

// NewEngine builds an experiment engine from validated configuration.
func NewEngine(cfg config.ExperimentConfig) *Engine {
	return &Engine{
		cfg:         cfg,
		experiments: make(map[string]*types.Experiment),
		sampled:     make(map[string]string),
	}
}

// Create registers a draft experiment. The first variant is the control;
// at least two variants are required and their IDs must be unique.
func (e *Engine) Create(name string, expType types.ExperimentType, hypothesis string, variants []types.Variant, now time.Time) (types.Experiment, error) {
	if len(variants) < 2 {
		return types.Experiment{}, fmt.Errorf("experiment %q: need at least 2 variants, got %d", name, len(variants))
	}
	seen := make(map[string]bool, len(variants))
	for i := range variants {
		if variants[i].ID == "" {
			variants[i].ID = uuid.New().String()
		}
		if seen[variants[i].ID] {
			return types.Experiment{}, fmt.Errorf("experiment %q: duplicate variant ID %s", name, variants[i].ID)
		}
		seen[variants[i].ID] = true
		variants[i].IsControl = i == 0
		variants[i].Exposures = 0
		variants[i].Successes = 0
	}

	exp := &types.Experiment{
		ID:         uuid.New().String(),
		Name:       name,
		Type:       expType,
		Hypothesis: hypothesis,
		Status:     types.ExperimentDraft,
		Variants:   variants,
		CreatedAt:  now,
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.experiments[exp.ID] = exp
	return *exp, nil
}

// Start moves a draft experiment into the running state.
func (e *Engine) Start(id string, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	exp, ok := e.experiments[id]
	if !ok {
		return ErrNotFound
	}
	if exp.Status != types.ExperimentDraft {
		return fmt.Errorf("experiment %q: cannot start from status %s", exp.Name, exp.Status)
	}
	exp.Status = types.ExperimentRunning
	exp.StartedAt = &now
	return nil
}

// ChooseVariant returns the variant of a running experiment with the
// fewest exposures, so assignment stays balanced without per-target state.
// Ties go to the earlier variant.
func (e *Engine) ChooseVariant(id string) (types.Variant, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	exp, ok := e.experiments[id]
	if !ok {
		return types.Variant{}, ErrNotFound
	}
	if exp.Status != types.ExperimentRunning {
		return types.Variant{}, ErrNotRunning
	}
	best := 0
	for i := 1; i < len(exp.Variants); i++ {
		if exp.Variants[i].Exposures < exp.Variants[best].Exposures {
			best = i
		}
	}
	return exp.Variants[best], nil
}

// RecordSample attributes one action outcome to a variant. Each action ID
// may contribute at most one sample across all experiments, so retries and
// double-reporting cannot inflate a variant.
func (e *Engine) RecordSample(experimentID, variantID, actionID string, success bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	exp, ok := e.experiments[experimentID]
	if !ok {
		return ErrNotFound
	}
	if exp.Status != types.ExperimentRunning {
		return ErrNotRunning
	}
	if prior, dup := e.sampled[actionID]; dup {
		return fmt.Errorf("%w: action %s already counted in experiment %s", ErrDuplicateSample, actionID, prior)
	}

	for i := range exp.Variants {
		if exp.Variants[i].ID == variantID {
			exp.Variants[i].Exposures++
			if success {
				exp.Variants[i].Successes++
			}
			e.sampled[actionID] = experimentID
			return nil
		}
	}
	return fmt.Errorf("experiment %q: unknown variant %s", exp.Name, variantID)
}

// Analyze evaluates an experiment without changing its state. With any
// variant below the minimum sample size the analysis reports insufficient
// data and never names a winner. Otherwise the best-performing challenger
// is tested against the control with a pooled two-proportion z-test.
func (e *Engine) Analyze(id string) (types.ExperimentAnalysis, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	exp, ok := e.experiments[id]
	if !ok {
		return types.ExperimentAnalysis{}, ErrNotFound
	}
	return e.analyzeLocked(exp), nil
}

func (e *Engine) analyzeLocked(exp *types.Experiment) types.ExperimentAnalysis {
	z := zQuantile(e.cfg.ConfidenceLevel)
	analysis := types.ExperimentAnalysis{
		ExperimentID:    exp.ID,
		Name:            exp.Name,
		ConfidenceLevel: e.cfg.ConfidenceLevel,
		MinSampleSize:   e.cfg.MinSampleSize,
		PValue:          1,
	}

	sufficient := true
	for _, v := range exp.Variants {
		analysis.PerVariant = append(analysis.PerVariant, types.VariantAnalysis{
			VariantID:   v.ID,
			Label:       v.Label,
			IsControl:   v.IsControl,
			Exposures:   v.Exposures,
			Successes:   v.Successes,
			SuccessRate: v.SuccessRate(),
			Interval:    waldInterval(v.Successes, v.Exposures, z),
		})
		if v.Exposures < e.cfg.MinSampleSize {
			sufficient = false
		}
	}
	analysis.SufficientSample = sufficient
	if !sufficient {
		analysis.InsufficientDetail = fmt.Sprintf("every variant needs at least %d exposures", e.cfg.MinSampleSize)
		return analysis
	}

	control := &exp.Variants[0]
	var challenger *types.Variant
	for i := 1; i < len(exp.Variants); i++ {
		v := &exp.Variants[i]
		if challenger == nil || v.SuccessRate() > challenger.SuccessRate() {
			challenger = v
		}
	}

	analysis.PValue = twoProportionPValue(
		challenger.Successes, challenger.Exposures,
		control.Successes, control.Exposures,
	)
	analysis.Significant = analysis.PValue < 1-e.cfg.ConfidenceLevel

	winner := control
	if challenger.SuccessRate() > control.SuccessRate() {
		winner = challenger
	}

	// Lift is measured from the winning variant. When the baseline holds
	// there is no lift to report; when it has zero successes the ratio is
	// undefined and stays unreported.
	switch {
	case winner == control:
		analysis.LiftDefined = true
	case control.SuccessRate() > 0:
		analysis.LiftOverControl = (winner.SuccessRate() - control.SuccessRate()) / control.SuccessRate()
		analysis.LiftDefined = true
	}

	if analysis.Significant {
		analysis.WinnerID = winner.ID
	}
	return analysis
}

// Conclude analyzes a running experiment and moves it to the concluded
// state, stamping the winner when the result is significant.
func (e *Engine) Conclude(id string, now time.Time) (types.ExperimentAnalysis, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	exp, ok := e.experiments[id]
	if !ok {
		return types.ExperimentAnalysis{}, ErrNotFound
	}
	if exp.Status != types.ExperimentRunning {
		return types.ExperimentAnalysis{}, fmt.Errorf("experiment %q: cannot conclude from status %s", exp.Name, exp.Status)
	}

	analysis := e.analyzeLocked(exp)
	exp.Status = types.ExperimentConcluded
	exp.ConcludedAt = &now
	exp.WinnerID = analysis.WinnerID
	return analysis, nil
}

// Restore loads persisted experiments into the engine, replacing any with
// the same ID. Sample deduplication history is process-local; restored
// experiments only guard against double-reporting from the current run.
func (e *Engine) Restore(experiments []types.Experiment) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, exp := range experiments {
		cp := exp
		cp.Variants = append([]types.Variant(nil), exp.Variants...)
		e.experiments[cp.ID] = &cp
	}
}

// Get returns a snapshot of one experiment.
func (e *Engine) Get(id string) (types.Experiment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	exp, ok := e.experiments[id]
	if !ok {
		return types.Experiment{}, ErrNotFound
	}
	return snapshot(exp), nil
}

// List returns snapshots of all experiments ordered by creation time, then
// name for a stable tiebreak.
func (e *Engine) List() []types.Experiment {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]types.Experiment, 0, len(e.experiments))
	for _, exp := range e.experiments {
		out = append(out, snapshot(exp))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Running returns snapshots of experiments currently accepting samples.
func (e *Engine) Running() []types.Experiment {
	all := e.List()
	out := all[:0]
	for _, exp := range all {
		if exp.Status == types.ExperimentRunning {
			out = append(out, exp)
		}
	}
	return out
}

// snapshot copies an experiment so callers cannot mutate engine state
// through the returned value.
func snapshot(exp *types.Experiment) types.Experiment {
	cp := *exp
	cp.Variants = append([]types.Variant(nil), exp.Variants...)
	return cp
}
