package safety

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordan/outreach-agent/internal/config"
	"github.com/jordan/outreach-agent/internal/types"
)

func testSafetyConfig() config.SafetyConfig {
	return config.SafetyConfig{
		HourlyCeilings: map[types.ActionKind]int{
			types.KindComment:           2,
			types.KindLike:              10,
			types.KindConnectionRequest: 3,
		},
		DailyCeilings: map[types.ActionKind]int{
			types.KindComment:           6,
			types.KindLike:              40,
			types.KindConnectionRequest: 10,
		},
		AggregateHourly:    20,
		AggregateDaily:     100,
		RiskPauseThreshold: 0.8,
		Cooldown:           30 * time.Minute,
		FailureWindow:      20,
	}
}

func TestTryAdmit_UnderCeiling(t *testing.T) {
	b := NewBudget(testSafetyConfig())
	now := time.Now()

	adm := b.TryAdmit(types.KindComment, now)
	assert.True(t, adm.Admitted)
	assert.Empty(t, adm.Reason)
}

func TestTryAdmit_HourlyCeilingDeniesOnlyThatKind(t *testing.T) {
	b := NewBudget(testSafetyConfig())
	now := time.Now()

	require.True(t, b.TryAdmit(types.KindComment, now).Admitted)
	require.True(t, b.TryAdmit(types.KindComment, now).Admitted)

	adm := b.TryAdmit(types.KindComment, now)
	assert.False(t, adm.Admitted)
	assert.Equal(t, ReasonRateLimitHour, adm.Reason)

	// A per-kind ceiling is not a pause: kinds with headroom still admit.
	adm = b.TryAdmit(types.KindLike, now)
	assert.True(t, adm.Admitted)

	paused, _ := b.Paused(now)
	assert.False(t, paused)
}

func TestTryAdmit_PerKindDenialLeavesOtherKindsAdmissible(t *testing.T) {
	cfg := testSafetyConfig()
	cfg.HourlyCeilings[types.KindComment] = 1
	b := NewBudget(cfg)
	now := time.Now()

	require.True(t, b.TryAdmit(types.KindComment, now).Admitted)
	require.Equal(t, ReasonRateLimitHour, b.TryAdmit(types.KindComment, now).Reason)

	// Ten likes of headroom remain and every one of them is usable.
	for i := 0; i < 10; i++ {
		adm := b.TryAdmit(types.KindLike, now)
		require.True(t, adm.Admitted, "like %d denied with reason %q", i+1, adm.Reason)
	}
}

func TestTryAdmit_AggregateBreachPausesAllKinds(t *testing.T) {
	cfg := testSafetyConfig()
	cfg.AggregateHourly = 2
	b := NewBudget(cfg)
	now := time.Now()

	require.True(t, b.TryAdmit(types.KindLike, now).Admitted)
	require.True(t, b.TryAdmit(types.KindComment, now).Admitted)

	adm := b.TryAdmit(types.KindLike, now)
	assert.Equal(t, ReasonRateLimitHour, adm.Reason)

	// Aggregate exhaustion halts everything, not just the denied kind.
	adm = b.TryAdmit(types.KindConnectionRequest, now)
	assert.Equal(t, ReasonPaused, adm.Reason)

	paused, reason := b.Paused(now)
	assert.True(t, paused)
	assert.Contains(t, reason, "aggregate hourly")
}

func TestTryAdmit_DailyCeilingDenies(t *testing.T) {
	cfg := testSafetyConfig()
	cfg.HourlyCeilings[types.KindComment] = 10
	cfg.DailyCeilings[types.KindComment] = 2
	b := NewBudget(cfg)
	now := time.Now()

	require.True(t, b.TryAdmit(types.KindComment, now).Admitted)
	require.True(t, b.TryAdmit(types.KindComment, now).Admitted)

	adm := b.TryAdmit(types.KindComment, now)
	assert.False(t, adm.Admitted)
	assert.Equal(t, ReasonRateLimitDay, adm.Reason)
}

func TestTryAdmit_AggregateHourlyCeilingDenies(t *testing.T) {
	cfg := testSafetyConfig()
	cfg.AggregateHourly = 3
	b := NewBudget(cfg)
	now := time.Now()

	require.True(t, b.TryAdmit(types.KindLike, now).Admitted)
	require.True(t, b.TryAdmit(types.KindLike, now).Admitted)
	require.True(t, b.TryAdmit(types.KindConnectionRequest, now).Admitted)

	adm := b.TryAdmit(types.KindLike, now)
	assert.False(t, adm.Admitted)
	assert.Equal(t, ReasonRateLimitHour, adm.Reason)
}

func TestTryAdmit_WindowSlidesContinuously(t *testing.T) {
	b := NewBudget(testSafetyConfig())
	now := time.Now()

	require.True(t, b.TryAdmit(types.KindComment, now).Admitted)
	require.True(t, b.TryAdmit(types.KindComment, now.Add(10*time.Minute)).Admitted)
	require.False(t, b.TryAdmit(types.KindComment, now.Add(20*time.Minute)).Admitted)

	// 65 minutes after the first admission only one entry remains in the
	// hourly window; the oldest aged out without any boundary reset.
	adm := b.TryAdmit(types.KindComment, now.Add(65*time.Minute))
	assert.True(t, adm.Admitted)
}

func TestBudget_CooldownAutoResume(t *testing.T) {
	cfg := testSafetyConfig()
	cfg.AggregateHourly = 2
	b := NewBudget(cfg)
	now := time.Now()

	require.True(t, b.TryAdmit(types.KindComment, now).Admitted)
	require.True(t, b.TryAdmit(types.KindComment, now).Admitted)
	require.Equal(t, ReasonRateLimitHour, b.TryAdmit(types.KindLike, now).Reason)

	// Still inside the cooldown: paused regardless of the window contents.
	adm := b.TryAdmit(types.KindLike, now.Add(29*time.Minute))
	assert.Equal(t, ReasonPaused, adm.Reason)

	// Cooldown elapsed, pause lifts, but the aggregate window is still
	// full, so the denial reverts to the rate limit (and re-pauses).
	adm = b.TryAdmit(types.KindLike, now.Add(31*time.Minute))
	assert.Equal(t, ReasonRateLimitHour, adm.Reason)

	// Well past both the cooldown and the window span.
	adm = b.TryAdmit(types.KindLike, now.Add(2*time.Hour))
	assert.True(t, adm.Admitted)
}

func TestBudget_ManualPausePersistsPastCooldown(t *testing.T) {
	b := NewBudget(testSafetyConfig())
	now := time.Now()

	b.Pause("operator maintenance")
	adm := b.TryAdmit(types.KindLike, now.Add(3*time.Hour))
	assert.Equal(t, ReasonPaused, adm.Reason)

	b.Resume()
	adm = b.TryAdmit(types.KindLike, now.Add(3*time.Hour))
	assert.True(t, adm.Admitted)
}

func TestBudget_ReleaseReturnsReservation(t *testing.T) {
	b := NewBudget(testSafetyConfig())
	now := time.Now()

	require.True(t, b.TryAdmit(types.KindComment, now).Admitted)
	require.True(t, b.TryAdmit(types.KindComment, now).Admitted)
	b.Release(types.KindComment, now)

	adm := b.TryAdmit(types.KindComment, now)
	assert.True(t, adm.Admitted)
}

func TestBudget_ReleaseWithoutReservationPanics(t *testing.T) {
	b := NewBudget(testSafetyConfig())

	require.Panics(t, func() {
		b.Release(types.KindComment, time.Now())
	})
}

func TestRecordOutcome_HighFailureRatePauses(t *testing.T) {
	cfg := testSafetyConfig()
	cfg.RiskPauseThreshold = 0.2
	cfg.FailureWindow = 10
	b := NewBudget(cfg)
	now := time.Now()

	for i := 0; i < 10; i++ {
		b.RecordOutcome(types.KindMessage, types.OutcomeFailure, now)
	}

	paused, reason := b.Paused(now)
	assert.True(t, paused)
	assert.Contains(t, reason, "risk score")
}

func TestRecordOutcome_RingBoundedByFailureWindow(t *testing.T) {
	cfg := testSafetyConfig()
	cfg.FailureWindow = 5
	b := NewBudget(cfg)
	now := time.Now()

	for i := 0; i < 5; i++ {
		b.RecordOutcome(types.KindLike, types.OutcomeFailure, now)
	}
	// Five successes displace the five failures entirely.
	for i := 0; i < 5; i++ {
		b.RecordOutcome(types.KindLike, types.OutcomeSuccess, now)
	}

	assert.Zero(t, b.failureRateLocked())
}

func TestTryAdmit_ConcurrentNeverOverAdmits(t *testing.T) {
	cfg := testSafetyConfig()
	cfg.HourlyCeilings[types.KindLike] = 5
	b := NewBudget(cfg)
	now := time.Now()

	var admitted int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if b.TryAdmit(types.KindLike, now).Admitted {
				atomic.AddInt64(&admitted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(5), admitted)
}

func TestSnapshot_ReportsCountsAndAlerts(t *testing.T) {
	cfg := testSafetyConfig()
	cfg.HourlyCeilings[types.KindLike] = 5
	b := NewBudget(cfg)
	now := time.Now()

	for i := 0; i < 4; i++ {
		require.True(t, b.TryAdmit(types.KindLike, now).Admitted)
	}

	snap := b.Snapshot(now)
	assert.Equal(t, 4, snap.HourlyCounts[types.KindLike])
	assert.Equal(t, 4, snap.WeeklyTotal)
	assert.InDelta(t, 20.0, snap.HourlyPercent, 0.01)
	assert.False(t, snap.Paused)

	// 4 of 5 is 80% utilization, which crosses the warning ratio.
	found := false
	for _, a := range snap.ActiveAlerts {
		if a == "like hourly usage at 4/5" {
			found = true
		}
	}
	assert.True(t, found, "expected hourly alert, got %v", snap.ActiveAlerts)
}
