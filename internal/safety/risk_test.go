package safety

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordan/outreach-agent/internal/types"
)

func TestCurrentRiskScore_ZeroWhenIdle(t *testing.T) {
	b := NewBudget(testSafetyConfig())

	assert.Zero(t, b.CurrentRiskScore(time.Now()))
}

func TestCurrentRiskScore_StaysInUnitInterval(t *testing.T) {
	cfg := testSafetyConfig()
	cfg.RiskPauseThreshold = 2 // keep admissions flowing for the test
	b := NewBudget(cfg)
	now := time.Now()

	for i := 0; i < 10; i++ {
		b.TryAdmit(types.KindConnectionRequest, now.Add(time.Duration(i)*time.Second))
		b.RecordOutcome(types.KindConnectionRequest, types.OutcomeFailure, now)
	}

	risk := b.CurrentRiskScore(now.Add(time.Minute))
	assert.GreaterOrEqual(t, risk, 0.0)
	assert.LessOrEqual(t, risk, 1.0)
}

func TestCurrentRiskScore_RisesWithUtilization(t *testing.T) {
	b := NewBudget(testSafetyConfig())
	now := time.Now()

	// Spread admissions evenly so the burstiness component stays flat and
	// the comparison isolates utilization.
	spacing := 10 * time.Minute
	require.True(t, b.TryAdmit(types.KindConnectionRequest, now).Admitted)
	low := b.CurrentRiskScore(now.Add(time.Second))

	require.True(t, b.TryAdmit(types.KindConnectionRequest, now.Add(spacing)).Admitted)
	require.True(t, b.TryAdmit(types.KindConnectionRequest, now.Add(2*spacing)).Admitted)
	high := b.CurrentRiskScore(now.Add(2*spacing + time.Second))

	assert.Greater(t, high, low)
}

func TestCurrentRiskScore_DecaysAsWindowsEmpty(t *testing.T) {
	b := NewBudget(testSafetyConfig())
	now := time.Now()

	require.True(t, b.TryAdmit(types.KindConnectionRequest, now).Admitted)
	require.True(t, b.TryAdmit(types.KindConnectionRequest, now.Add(time.Minute)).Admitted)
	busy := b.CurrentRiskScore(now.Add(2 * time.Minute))

	// A day later every window has drained.
	later := b.CurrentRiskScore(now.Add(25 * time.Hour))
	assert.Less(t, later, busy)
	assert.Zero(t, later)
}

func TestBurstiness_TightSpacingScoresHigherThanEven(t *testing.T) {
	now := time.Now()

	tight := NewBudget(testSafetyConfig())
	for i := 0; i < 5; i++ {
		require.True(t, tight.TryAdmit(types.KindLike, now.Add(time.Duration(i)*time.Second)).Admitted)
	}

	even := NewBudget(testSafetyConfig())
	for i := 0; i < 5; i++ {
		require.True(t, even.TryAdmit(types.KindLike, now.Add(time.Duration(i)*10*time.Minute)).Admitted)
	}

	at := now.Add(41 * time.Minute)
	// Same counts in both budgets at the observation instant would be ideal,
	// but the windows differ; compare the burst components directly.
	assert.Greater(t, tight.burstinessLocked(at), even.burstinessLocked(at))
}

func TestFailureRate_IgnoresSkippedOutcomes(t *testing.T) {
	b := NewBudget(testSafetyConfig())
	now := time.Now()

	b.RecordOutcome(types.KindMessage, types.OutcomeFailure, now)
	b.RecordOutcome(types.KindMessage, types.OutcomeSkipped, now)
	b.RecordOutcome(types.KindMessage, types.OutcomeSuccess, now)
	b.RecordOutcome(types.KindMessage, types.OutcomeSuccess, now)

	assert.InDelta(t, 0.25, b.failureRateLocked(), 1e-9)
}

func TestUtilization_WeighsAggressiveKindsMore(t *testing.T) {
	cfg := testSafetyConfig()
	cfg.HourlyCeilings[types.KindProfileView] = 3
	cfg.DailyCeilings[types.KindProfileView] = 60
	now := time.Now()

	views := NewBudget(cfg)
	for i := 0; i < 3; i++ {
		require.True(t, views.TryAdmit(types.KindProfileView, now).Admitted)
	}

	requests := NewBudget(cfg)
	for i := 0; i < 3; i++ {
		require.True(t, requests.TryAdmit(types.KindConnectionRequest, now).Admitted)
	}

	// Both budgets sit at full hourly utilization for one kind, but
	// connection requests carry eight times the risk weight.
	assert.Greater(t, requests.utilizationLocked(now), views.utilizationLocked(now))
}
