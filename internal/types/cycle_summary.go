package types

import "time"

// KindCounts tallies per-kind activity within one cycle.
type KindCounts struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// CycleSummary is the structured snapshot emitted after every orchestrator
// cycle. It is the only externally observable state beyond persisted records.
type CycleSummary struct {
	CycleStart  time.Time                 `json:"cycle_start"`
	CycleEnd    time.Time                 `json:"cycle_end"`
	Counts      map[ActionKind]KindCounts `json:"counts"`
	RiskScore   float64                   `json:"risk_score"`
	Paused      bool                      `json:"paused"`
	PauseReason string                    `json:"pause_reason,omitempty"`
}

// Totals sums the per-kind counts.
func (s CycleSummary) Totals() KindCounts {
	var t KindCounts
	for _, c := range s.Counts {
		t.Attempted += c.Attempted
		t.Succeeded += c.Succeeded
		t.Failed += c.Failed
		t.Skipped += c.Skipped
	}
	return t
}

// StatusSnapshot is the poll-able status surface for an external display
// or the CLI.
type StatusSnapshot struct {
	RiskScore     float64            `json:"risk_score"`
	Paused        bool               `json:"paused"`
	PauseReason   string             `json:"pause_reason,omitempty"`
	HourlyCounts  map[ActionKind]int `json:"hourly_counts"`
	DailyCounts   map[ActionKind]int `json:"daily_counts"`
	WeeklyTotal   int                `json:"weekly_total"`
	ActiveAlerts  []string           `json:"active_alerts,omitempty"`
	LastCycleAt   time.Time          `json:"last_cycle_at,omitempty"`
	State         string             `json:"state"`
	HourlyPercent float64            `json:"hourly_percent"`
	DailyPercent  float64            `json:"daily_percent"`
}
