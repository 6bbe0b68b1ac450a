package safety

import (
	"fmt"
	"sync"
	"time"

	"github.com/jordan/outreach-agent/internal/config"
	"github.com/jordan/outreach-agent/internal/types"
)

// DenyReason explains why an admission request was rejected.
type DenyReason string

const (
	ReasonRateLimitHour DenyReason = "rate_limit_hour"
	ReasonRateLimitDay  DenyReason = "rate_limit_day"
	ReasonPaused        DenyReason = "paused"
)

// Admission is the result of a TryAdmit call.
type Admission struct {
	Admitted bool
	Reason   DenyReason
}

// warnRatio is the utilization level at which an alert is surfaced in
// status snapshots, before any ceiling is actually hit.
const warnRatio = 0.8

// outcomeEntry is one completed action in the recent-outcome ring used for
// failure-rate computation.
type outcomeEntry struct {
	kind    types.ActionKind
	outcome types.Outcome
	at      time.Time
}

// Budget enforces per-kind and aggregate sliding-window ceilings and tracks
// a composite risk score over recent activity. All methods are safe for
// concurrent use; admission decisions are atomic with respect to each other,
// so two racing TryAdmit calls can never both consume the last slot under a
// ceiling.
//
// Admission reserves capacity immediately: a slot consumed by TryAdmit stays
// consumed even if the action later fails, which keeps the budget
// conservative. Release exists for the narrow case of an admitted action
// that was abandoned before any attempt at execution.
type Budget struct {
	mu sync.Mutex

	cfg config.SafetyConfig

	hourly map[types.ActionKind]*window
	daily  map[types.ActionKind]*window

	aggHour *window
	aggDay  *window
	weekly  *window

	outcomes []outcomeEntry

	risk        float64
	paused      bool
	pauseReason string
	pausedAt    time.Time
	manualPause bool
}

// NewBudget builds a budget from validated safety configuration.
func NewBudget(cfg config.SafetyConfig) *Budget {
	b := &Budget{
		cfg:     cfg,
		hourly:  make(map[types.ActionKind]*window, len(cfg.HourlyCeilings)),
		daily:   make(map[types.ActionKind]*window, len(cfg.DailyCeilings)),
		aggHour: newWindow(time.Hour),
		aggDay:  newWindow(24 * time.Hour),
		weekly:  newWindow(7 * 24 * time.Hour),
	}
	for kind := range cfg.HourlyCeilings {
		b.hourly[kind] = newWindow(time.Hour)
	}
	for kind := range cfg.DailyCeilings {
		b.daily[kind] = newWindow(24 * time.Hour)
	}
	return b
}

// TryAdmit asks whether one action of the given kind may run now. On
// admission the slot is reserved before returning. Denials from a ceiling
// breach also pause the budget, so subsequent calls are denied with
// ReasonPaused until the cooldown elapses or an operator resumes.
func (b *Budget) TryAdmit(kind types.ActionKind, now time.Time) Admission {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.maybeAutoResumeLocked(now)

	if b.paused {
		return Admission{Admitted: false, Reason: ReasonPaused}
	}

	if reason, breach, aggregate := b.ceilingDeniesLocked(kind, now); reason != "" {
		// A per-kind ceiling only exhausts that kind; other kinds keep
		// their own headroom. Aggregate exhaustion halts everything.
		if aggregate {
			b.pauseLocked(breach, now, false)
		}
		return Admission{Admitted: false, Reason: reason}
	}

	if w, ok := b.hourly[kind]; ok {
		w.add(now)
	}
	if w, ok := b.daily[kind]; ok {
		w.add(now)
	}
	b.aggHour.add(now)
	b.aggDay.add(now)
	b.weekly.add(now)

	b.risk = b.computeRiskLocked(now)
	if b.risk > b.cfg.RiskPauseThreshold {
		b.pauseLocked(fmt.Sprintf("risk score %.2f exceeded threshold %.2f", b.risk, b.cfg.RiskPauseThreshold), now, false)
	}
	return Admission{Admitted: true}
}

// ceilingDeniesLocked checks the hourly ceilings first, then the daily
// ones, per-kind before aggregate within each tier. It returns the denial
// reason, a human-readable breach description, and whether the breached
// ceiling was an aggregate one; the reason is empty when every ceiling has
// headroom.
func (b *Budget) ceilingDeniesLocked(kind types.ActionKind, now time.Time) (DenyReason, string, bool) {
	if ceil, ok := b.cfg.HourlyCeilings[kind]; ok {
		if b.hourly[kind].count(now) >= ceil {
			return ReasonRateLimitHour, fmt.Sprintf("hourly ceiling reached for %s (%d)", kind, ceil), false
		}
	}
	if b.aggHour.count(now) >= b.cfg.AggregateHourly {
		return ReasonRateLimitHour, fmt.Sprintf("aggregate hourly ceiling reached (%d)", b.cfg.AggregateHourly), true
	}
	if ceil, ok := b.cfg.DailyCeilings[kind]; ok {
		if b.daily[kind].count(now) >= ceil {
			return ReasonRateLimitDay, fmt.Sprintf("daily ceiling reached for %s (%d)", kind, ceil), false
		}
	}
	if b.aggDay.count(now) >= b.cfg.AggregateDaily {
		return ReasonRateLimitDay, fmt.Sprintf("aggregate daily ceiling reached (%d)", b.cfg.AggregateDaily), true
	}
	return "", "", false
}

// Release returns a reservation taken by TryAdmit for an action that was
// never attempted. It must be called at most once per admitted action;
// over-releasing trips the negative-count panic in the windows.
func (b *Budget) Release(kind types.ActionKind, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if w, ok := b.hourly[kind]; ok {
		w.prune(now)
		w.removeLast()
	}
	if w, ok := b.daily[kind]; ok {
		w.prune(now)
		w.removeLast()
	}
	b.aggHour.prune(now)
	b.aggHour.removeLast()
	b.aggDay.prune(now)
	b.aggDay.removeLast()
	b.weekly.prune(now)
	b.weekly.removeLast()
}

// RecordOutcome registers the result of an executed action. Failures feed
// the failure-rate component of the risk score; a risk score above the
// configured threshold pauses admissions.
func (b *Budget) RecordOutcome(kind types.ActionKind, outcome types.Outcome, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.outcomes = append(b.outcomes, outcomeEntry{kind: kind, outcome: outcome, at: now})
	if len(b.outcomes) > b.cfg.FailureWindow {
		b.outcomes = b.outcomes[len(b.outcomes)-b.cfg.FailureWindow:]
	}

	b.risk = b.computeRiskLocked(now)
	if !b.paused && b.risk > b.cfg.RiskPauseThreshold {
		b.pauseLocked(fmt.Sprintf("risk score %.2f exceeded threshold %.2f", b.risk, b.cfg.RiskPauseThreshold), now, false)
	}
}

// Pause halts admissions until Resume is called. Manual pauses do not
// auto-expire with the cooldown.
func (b *Budget) Pause(reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pauseLocked(reason, time.Now(), true)
}

// Resume clears any pause, manual or automatic.
func (b *Budget) Resume() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resumeLocked()
}

// Paused reports whether admissions are currently halted and why.
func (b *Budget) Paused(now time.Time) (bool, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeAutoResumeLocked(now)
	return b.paused, b.pauseReason
}

// CurrentRiskScore returns the risk score as of now, recomputed against the
// live window contents.
func (b *Budget) CurrentRiskScore(now time.Time) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.risk = b.computeRiskLocked(now)
	return b.risk
}

func (b *Budget) pauseLocked(reason string, now time.Time, manual bool) {
	if b.paused {
		return
	}
	b.paused = true
	b.pauseReason = reason
	b.pausedAt = now
	b.manualPause = manual
}

func (b *Budget) resumeLocked() {
	b.paused = false
	b.pauseReason = ""
	b.manualPause = false
}

// maybeAutoResumeLocked lifts an automatic pause once the cooldown has
// fully elapsed. Manual pauses persist until an explicit Resume.
func (b *Budget) maybeAutoResumeLocked(now time.Time) {
	if !b.paused || b.manualPause {
		return
	}
	if now.Sub(b.pausedAt) >= b.cfg.Cooldown {
		b.resumeLocked()
	}
}

// Snapshot summarizes the live budget state for status reporting. The
// orchestrator fills in its own fields (state, last cycle) on top.
func (b *Budget) Snapshot(now time.Time) types.StatusSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.maybeAutoResumeLocked(now)
	b.risk = b.computeRiskLocked(now)

	snap := types.StatusSnapshot{
		RiskScore:    b.risk,
		Paused:       b.paused,
		PauseReason:  b.pauseReason,
		HourlyCounts: make(map[types.ActionKind]int, len(b.hourly)),
		DailyCounts:  make(map[types.ActionKind]int, len(b.daily)),
		WeeklyTotal:  b.weekly.count(now),
	}
	for kind, w := range b.hourly {
		snap.HourlyCounts[kind] = w.count(now)
	}
	for kind, w := range b.daily {
		snap.DailyCounts[kind] = w.count(now)
	}
	if b.cfg.AggregateHourly > 0 {
		snap.HourlyPercent = float64(b.aggHour.count(now)) / float64(b.cfg.AggregateHourly) * 100
	}
	if b.cfg.AggregateDaily > 0 {
		snap.DailyPercent = float64(b.aggDay.count(now)) / float64(b.cfg.AggregateDaily) * 100
	}
	snap.ActiveAlerts = b.alertsLocked(now)
	return snap
}

// alertsLocked derives warning strings for any window running at or above
// warnRatio of its ceiling. Alerts are recomputed on demand rather than
// stored, so they clear on their own as the windows slide.
func (b *Budget) alertsLocked(now time.Time) []string {
	var alerts []string
	for _, kind := range types.AllKinds {
		if ceil, ok := b.cfg.HourlyCeilings[kind]; ok && ceil > 0 {
			if n := b.hourly[kind].count(now); float64(n) >= warnRatio*float64(ceil) {
				alerts = append(alerts, fmt.Sprintf("%s hourly usage at %d/%d", kind, n, ceil))
			}
		}
		if ceil, ok := b.cfg.DailyCeilings[kind]; ok && ceil > 0 {
			if n := b.daily[kind].count(now); float64(n) >= warnRatio*float64(ceil) {
				alerts = append(alerts, fmt.Sprintf("%s daily usage at %d/%d", kind, n, ceil))
			}
		}
	}
	if n := b.aggHour.count(now); float64(n) >= warnRatio*float64(b.cfg.AggregateHourly) {
		alerts = append(alerts, fmt.Sprintf("aggregate hourly usage at %d/%d", n, b.cfg.AggregateHourly))
	}
	if n := b.aggDay.count(now); float64(n) >= warnRatio*float64(b.cfg.AggregateDaily) {
		alerts = append(alerts, fmt.Sprintf("aggregate daily usage at %d/%d", n, b.cfg.AggregateDaily))
	}
	return alerts
}
