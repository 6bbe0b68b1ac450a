// Package orchestrator runs the agent's work loop: gather candidates from
// the producers, order them, push each through the safety budget, execute
// the admitted ones, and fan results back out to the producers and the
// audit trail.
package orchestrator

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jordan/outreach-agent/internal/browser"
	"github.com/jordan/outreach-agent/internal/config"
	"github.com/jordan/outreach-agent/internal/producer"
	"github.com/jordan/outreach-agent/internal/safety"
	"github.com/jordan/outreach-agent/internal/types"
)

// State is the orchestrator lifecycle state.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateStopped State = "stopped"
)

// failureBackoffThreshold is how many consecutive failures of one action
// kind stop that kind for the rest of the cycle.
const failureBackoffThreshold = 3

// RecordStore persists the audit trail and cycle summaries.
type RecordStore interface {
	InsertActionRecord(ctx context.Context, rec types.ActionRecord) (uuid.UUID, error)
	InsertCycleSummary(ctx context.Context, summary types.CycleSummary) error
}

// Orchestrator coordinates producers, the safety budget, and the executor.
type Orchestrator struct {
	cfg       config.AgentConfig
	budget    *safety.Budget
	executor  browser.Executor
	store     RecordStore
	producers map[string]producer.Producer
	ordered   []producer.Producer
	jitter    func() time.Duration
	now       func() time.Time

	mu        sync.Mutex
	state     State
	lastCycle time.Time
}

// New builds an orchestrator. The jitter source spaces consecutive actions;
// pass NoJitter in tests.
func New(cfg config.AgentConfig, budget *safety.Budget, executor browser.Executor, store RecordStore, producers []producer.Producer, jitter func() time.Duration) *Orchestrator {
	byName := make(map[string]producer.Producer, len(producers))
	for _, p := range producers {
		byName[p.Name()] = p
	}
	return &Orchestrator{
		cfg:       cfg,
		budget:    budget,
		executor:  executor,
		store:     store,
		producers: byName,
		ordered:   producers,
		jitter:    jitter,
		now:       time.Now,
		state:     StateIdle,
	}
}

// Run executes cycles on the tick interval until the context is canceled.
// The loop keeps ticking while the budget is paused; a paused cycle still
// gathers nothing but lets the pause expire on its own clock.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.setState(StateRunning)
	defer o.setState(StateStopped)

	ticker := time.NewTicker(o.cfg.TickInterval)
	defer ticker.Stop()

	for {
		if _, err := o.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("[CYCLE] cycle failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RunCycle performs one full gather-order-execute pass and returns its
// summary.
func (o *Orchestrator) RunCycle(ctx context.Context) (types.CycleSummary, error) {
	start := o.now()

	summary := types.CycleSummary{
		CycleStart: start,
		Counts:     make(map[types.ActionKind]types.KindCounts),
	}

	if paused, reason := o.budget.Paused(start); paused {
		o.setState(StatePaused)
		log.Printf("[CYCLE] skipping cycle: budget paused (%s)", reason)
		summary.CycleEnd = o.now()
		summary.RiskScore = o.budget.CurrentRiskScore(summary.CycleEnd)
		summary.Paused = true
		summary.PauseReason = reason
		o.finishCycle(ctx, &summary)
		return summary, nil
	}
	o.setState(StateRunning)

	candidates := o.gather(ctx, start)
	orderCandidates(candidates)
	log.Printf("[CYCLE] gathered %d candidates from %d producers", len(candidates), len(o.ordered))

	exhausted := make(map[types.ActionKind]bool)
	failStreak := make(map[types.ActionKind]int)

	for _, cand := range candidates {
		if ctx.Err() != nil {
			break
		}
		kind := cand.Action.Kind
		counts := summary.Counts[kind]

		if exhausted[kind] {
			counts.Skipped++
			summary.Counts[kind] = counts
			continue
		}

		adm := o.budget.TryAdmit(kind, o.now())
		if !adm.Admitted {
			counts.Skipped++
			summary.Counts[kind] = counts
			log.Printf("[SAFETY] denied %s on %s: %s", kind, cand.Action.TargetRef, adm.Reason)
			if adm.Reason == safety.ReasonPaused {
				// Nothing else will be admitted this cycle.
				for _, k := range types.AllKinds {
					exhausted[k] = true
				}
			} else {
				exhausted[kind] = true
			}
			continue
		}

		if err := sleepCtx(ctx, o.jitter()); err != nil {
			// Admitted but never attempted: hand the slot back.
			o.budget.Release(kind, o.now())
			counts.Skipped++
			summary.Counts[kind] = counts
			break
		}

		rec := o.execute(ctx, cand)
		counts.Attempted++
		switch rec.Outcome {
		case types.OutcomeSuccess:
			counts.Succeeded++
			failStreak[kind] = 0
		default:
			counts.Failed++
			failStreak[kind]++
			if failStreak[kind] >= failureBackoffThreshold {
				log.Printf("[CYCLE] backing off %s after %d consecutive failures", kind, failStreak[kind])
				exhausted[kind] = true
			}
		}
		summary.Counts[kind] = counts

		o.budget.RecordOutcome(kind, rec.Outcome, rec.PerformedAt)

		if _, err := o.store.InsertActionRecord(ctx, rec); err != nil {
			log.Printf("[STORE] recording %s action: %v", kind, err)
		}
		if p, ok := o.producers[cand.Source]; ok {
			if err := p.HandleResult(ctx, cand, rec); err != nil {
				log.Printf("[CYCLE] %s result handling: %v", cand.Source, err)
			}
		}
	}

	summary.CycleEnd = o.now()
	summary.RiskScore = o.budget.CurrentRiskScore(summary.CycleEnd)
	summary.Paused, summary.PauseReason = o.budget.Paused(summary.CycleEnd)
	if summary.Paused {
		o.setState(StatePaused)
	}
	o.finishCycle(ctx, &summary)

	totals := summary.Totals()
	log.Printf("[CYCLE] done: %d attempted, %d succeeded, %d failed, %d skipped, risk %.2f",
		totals.Attempted, totals.Succeeded, totals.Failed, totals.Skipped, summary.RiskScore)
	return summary, nil
}

// gather collects candidates from every producer concurrently. A producer
// failure costs only its own candidates; the cycle runs with whatever the
// others returned.
func (o *Orchestrator) gather(ctx context.Context, now time.Time) []types.Candidate {
	var mu sync.Mutex
	var all []types.Candidate

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range o.ordered {
		g.Go(func() error {
			// A panicking producer must not take the cycle down with it.
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[CYCLE] producer %s panicked: %v", p.Name(), r)
				}
			}()
			cands, err := p.Gather(gctx, now)
			if err != nil {
				log.Printf("[CYCLE] producer %s failed: %v", p.Name(), err)
				return nil
			}
			mu.Lock()
			all = append(all, cands...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return all
}

// execute runs one admitted action under the per-action timeout and builds
// its audit record.
func (o *Orchestrator) execute(ctx context.Context, cand types.Candidate) types.ActionRecord {
	actionCtx, cancel := context.WithTimeout(ctx, o.cfg.ActionTimeout)
	defer cancel()

	started := o.now()
	result, err := o.executor.Execute(actionCtx, cand.Action)
	performed := o.now()

	rec := types.ActionRecord{
		ID:           uuid.New(),
		Kind:         cand.Action.Kind,
		ActorContext: cand.Source,
		TargetRef:    cand.Action.TargetRef,
		PerformedAt:  performed,
		Duration:     performed.Sub(started).Seconds(),
	}
	switch {
	case err == nil && result.Success:
		rec.Outcome = types.OutcomeSuccess
	case actionCtx.Err() == context.DeadlineExceeded:
		rec.Outcome = types.OutcomeFailure
		rec.ErrorKind = "timeout"
	case err != nil:
		rec.Outcome = types.OutcomeFailure
		rec.ErrorKind = "execution_error"
		log.Printf("[CYCLE] %s on %s failed: %v", cand.Action.Kind, cand.Action.TargetRef, err)
	default:
		rec.Outcome = types.OutcomeFailure
		rec.ErrorKind = result.ErrorKind
	}
	return rec
}

// finishCycle persists the summary and stamps the cycle time.
func (o *Orchestrator) finishCycle(ctx context.Context, summary *types.CycleSummary) {
	if err := o.store.InsertCycleSummary(ctx, *summary); err != nil {
		log.Printf("[STORE] recording cycle summary: %v", err)
	}
	o.mu.Lock()
	o.lastCycle = summary.CycleEnd
	o.mu.Unlock()
}

// Pause halts admissions until Resume.
func (o *Orchestrator) Pause(reason string) {
	o.budget.Pause(reason)
	o.setState(StatePaused)
}

// Resume lifts a pause.
func (o *Orchestrator) Resume() {
	o.budget.Resume()
	o.setState(StateRunning)
}

// Status reports the live budget and loop state.
func (o *Orchestrator) Status() types.StatusSnapshot {
	snap := o.budget.Snapshot(o.now())
	o.mu.Lock()
	snap.State = string(o.state)
	snap.LastCycleAt = o.lastCycle
	o.mu.Unlock()
	return snap
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}
