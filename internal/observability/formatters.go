// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jordan/outreach-agent/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes. Wide enough
	// that an experiment variant row with its confidence interval and the
	// control marker fits without truncation.
	boxWidth = 72
	// maxProspectsToShow is the default number of prospects to display
	maxProspectsToShow = 10
)

// Printer handles formatted output for the status and reporting commands
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintCycleSummary outputs a human-readable summary of one cycle.
func (p *Printer) PrintCycleSummary(summary types.CycleSummary) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Duration:  %s\n", summary.CycleEnd.Sub(summary.CycleStart).Round(0)))
	sb.WriteString(fmt.Sprintf("Risk:      %.2f\n", summary.RiskScore))
	if summary.Paused {
		sb.WriteString(fmt.Sprintf("Paused:    %s\n", summary.PauseReason))
	}
	sb.WriteString("\n")

	for _, kind := range types.AllKinds {
		counts, ok := summary.Counts[kind]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("%-20s %d ok, %d failed, %d skipped\n",
			kind, counts.Succeeded, counts.Failed, counts.Skipped))
	}

	totals := summary.Totals()
	sb.WriteString(fmt.Sprintf("\nTotal: %d attempted, %d succeeded", totals.Attempted, totals.Succeeded))

	p.printBox("Cycle Summary", sb.String())
}

// PrintStatus outputs the live budget and loop state.
func (p *Printer) PrintStatus(status types.StatusSnapshot) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("State:      %s\n", status.State))
	sb.WriteString(fmt.Sprintf("Risk score: %.2f\n", status.RiskScore))
	if status.Paused {
		sb.WriteString(fmt.Sprintf("Paused:     %s\n", status.PauseReason))
	}
	if !status.LastCycleAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Last cycle: %s\n", status.LastCycleAt.Format("2006-01-02 15:04:05")))
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Hourly usage: %.0f%%   Daily usage: %.0f%%\n", status.HourlyPercent, status.DailyPercent))
	for _, kind := range types.AllKinds {
		sb.WriteString(fmt.Sprintf("%-20s %3d this hour, %3d today\n",
			kind, status.HourlyCounts[kind], status.DailyCounts[kind]))
	}
	sb.WriteString(fmt.Sprintf("%-20s %3d this week\n", "all actions", status.WeeklyTotal))

	if len(status.ActiveAlerts) > 0 {
		sb.WriteString("\nAlerts:\n")
		for _, alert := range status.ActiveAlerts {
			sb.WriteString(fmt.Sprintf("  ! %s\n", alert))
		}
	}

	p.printBox("Agent Status", sb.String())
}

// PrintExperimentAnalysis outputs the analysis of one experiment.
func (p *Printer) PrintExperimentAnalysis(analysis types.ExperimentAnalysis) {
	var sb strings.Builder

	for _, v := range analysis.PerVariant {
		marker := " "
		if v.VariantID == analysis.WinnerID {
			marker = "*"
		}
		control := ""
		if v.IsControl {
			control = " (control)"
		}
		sb.WriteString(fmt.Sprintf("%s %-14s %3d/%3d  %.1f%%  CI [%.1f%%, %.1f%%]%s\n",
			marker, v.Label, v.Successes, v.Exposures, v.SuccessRate*100,
			v.Interval.Lower*100, v.Interval.Upper*100, control))
	}
	sb.WriteString("\n")

	if !analysis.SufficientSample {
		sb.WriteString(fmt.Sprintf("Insufficient data: %s\n", analysis.InsufficientDetail))
	} else {
		sb.WriteString(fmt.Sprintf("p-value:  %.4f at %.0f%% confidence\n", analysis.PValue, analysis.ConfidenceLevel*100))
		if analysis.Significant {
			if analysis.LiftDefined {
				sb.WriteString(fmt.Sprintf("Winner:   %s (%+.0f%% vs control)\n", analysis.WinnerID, analysis.LiftOverControl*100))
			} else {
				sb.WriteString(fmt.Sprintf("Winner:   %s (control had no successes)\n", analysis.WinnerID))
			}
		} else {
			sb.WriteString("No significant difference yet\n")
		}
	}

	p.printBox(fmt.Sprintf("Experiment: %s", analysis.Name), sb.String())
}

// PrintScoredProspects outputs a ranked prospect list.
func (p *Printer) PrintScoredProspects(scored []types.ScoredProspect) {
	var sb strings.Builder

	shown := scored
	if len(shown) > maxProspectsToShow {
		shown = shown[:maxProspectsToShow]
	}
	for i, sp := range shown {
		sb.WriteString(fmt.Sprintf("%2d. %-24s %5.1f  %s\n", i+1, sp.Prospect.Name, sp.Score.Total, sp.Score.Tier))
	}
	if len(scored) > len(shown) {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(scored)-len(shown)))
	}

	p.printBox("Scored Prospects", sb.String())
}
