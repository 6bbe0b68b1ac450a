package observability

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jordan/outreach-agent/internal/types"
)

func TestPrintCycleSummary_IncludesCountsAndRisk(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	now := time.Now()
	p.PrintCycleSummary(types.CycleSummary{
		CycleStart: now,
		CycleEnd:   now.Add(2 * time.Minute),
		RiskScore:  0.42,
		Counts: map[types.ActionKind]types.KindCounts{
			types.KindComment: {Attempted: 3, Succeeded: 2, Failed: 1},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Cycle Summary")
	assert.Contains(t, out, "0.42")
	assert.Contains(t, out, "comment")
	assert.Contains(t, out, "2 ok, 1 failed")
}

func TestPrintStatus_ShowsAlertsWhenPresent(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintStatus(types.StatusSnapshot{
		State:        "running",
		RiskScore:    0.1,
		ActiveAlerts: []string{"comment hourly usage at 4/5"},
	})

	out := buf.String()
	assert.Contains(t, out, "Agent Status")
	assert.Contains(t, out, "! comment hourly usage")
}

func TestPrintExperimentAnalysis_MarksWinner(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintExperimentAnalysis(types.ExperimentAnalysis{
		Name:             "tone test",
		SufficientSample: true,
		Significant:      true,
		WinnerID:         "casual",
		LiftDefined:      true,
		LiftOverControl:  1.5,
		ConfidenceLevel:  0.95,
		PValue:           0.003,
		PerVariant: []types.VariantAnalysis{
			{VariantID: "control", Label: "formal", IsControl: true, Exposures: 400, Successes: 40, SuccessRate: 0.1},
			{VariantID: "casual", Label: "casual", Exposures: 400, Successes: 100, SuccessRate: 0.25},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Experiment: tone test")
	assert.Contains(t, out, "* casual")
	assert.Contains(t, out, "(control)")
	assert.Contains(t, out, "Winner:   casual")
	assert.NotContains(t, out, "...", "variant rows must fit the box untruncated")
}

func TestPrintScoredProspects_TruncatesLongLists(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	scored := make([]types.ScoredProspect, 15)
	for i := range scored {
		scored[i] = types.ScoredProspect{
			Prospect: types.Prospect{Name: "Prospect"},
			Score:    types.LeadScore{Total: 50, Tier: types.TierMedium},
		}
	}
	p.PrintScoredProspects(scored)

	assert.Contains(t, buf.String(), "and 5 more")
}
