package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jordan/outreach-agent/internal/types"
)

// InsertCycleSummary records the outcome of one orchestration cycle.
func (s *Store) InsertCycleSummary(ctx context.Context, summary types.CycleSummary) error {
	counts, err := json.Marshal(summary.Counts)
	if err != nil {
		return fmt.Errorf("failed to marshal cycle counts: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO cycle_summaries (cycle_start, cycle_end, counts, risk_score, paused, pause_reason)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		summary.CycleStart, summary.CycleEnd, counts, summary.RiskScore, summary.Paused, summary.PauseReason,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cycle summary: %w", err)
	}
	return nil
}

// RecentCycleSummaries returns the latest n cycle summaries, newest first.
func (s *Store) RecentCycleSummaries(ctx context.Context, n int) ([]types.CycleSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT cycle_start, cycle_end, counts, risk_score, paused, pause_reason
		 FROM cycle_summaries ORDER BY cycle_start DESC LIMIT $1`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycle summaries: %w", err)
	}
	defer rows.Close()

	var summaries []types.CycleSummary
	for rows.Next() {
		var sum types.CycleSummary
		var counts []byte
		if err := rows.Scan(&sum.CycleStart, &sum.CycleEnd, &counts, &sum.RiskScore, &sum.Paused, &sum.PauseReason); err != nil {
			return nil, fmt.Errorf("failed to scan cycle summary: %w", err)
		}
		if err := json.Unmarshal(counts, &sum.Counts); err != nil {
			return nil, fmt.Errorf("decoding cycle counts: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}
