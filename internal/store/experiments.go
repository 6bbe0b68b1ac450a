package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jordan/outreach-agent/internal/types"
)

// SaveExperiment upserts an experiment's full state. Variants with their
// running tallies live in one JSON column; analysis always reads the whole
// experiment, so there is nothing to gain from normalizing them.
func (s *Store) SaveExperiment(ctx context.Context, exp types.Experiment) error {
	variants, err := json.Marshal(exp.Variants)
	if err != nil {
		return fmt.Errorf("failed to marshal variants: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO experiments (id, name, type, hypothesis, status, variants, created_at, started_at, concluded_at, winner_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE
		 SET status = $5, variants = $6, started_at = $8, concluded_at = $9, winner_id = $10`,
		exp.ID, exp.Name, exp.Type, exp.Hypothesis, exp.Status, variants,
		exp.CreatedAt, exp.StartedAt, exp.ConcludedAt, exp.WinnerID,
	)
	if err != nil {
		return fmt.Errorf("failed to save experiment: %w", err)
	}
	return nil
}

// LoadExperiments returns every stored experiment, oldest first, for
// rehydrating the in-memory engine at startup.
func (s *Store) LoadExperiments(ctx context.Context) ([]types.Experiment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, type, hypothesis, status, variants, created_at, started_at, concluded_at, winner_id
		 FROM experiments ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query experiments: %w", err)
	}
	defer rows.Close()

	var experiments []types.Experiment
	for rows.Next() {
		var exp types.Experiment
		var variants []byte
		if err := rows.Scan(&exp.ID, &exp.Name, &exp.Type, &exp.Hypothesis, &exp.Status, &variants,
			&exp.CreatedAt, &exp.StartedAt, &exp.ConcludedAt, &exp.WinnerID); err != nil {
			return nil, fmt.Errorf("failed to scan experiment: %w", err)
		}
		if err := json.Unmarshal(variants, &exp.Variants); err != nil {
			return nil, fmt.Errorf("decoding variants: %w", err)
		}
		experiments = append(experiments, exp)
	}
	return experiments, rows.Err()
}
