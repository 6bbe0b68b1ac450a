package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jordan/outreach-agent/internal/types"
)

// InsertActionRecord appends one executed action to the audit trail and
// returns its ID.
func (s *Store) InsertActionRecord(ctx context.Context, rec types.ActionRecord) (uuid.UUID, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO action_records (id, kind, outcome, actor_context, target_ref, performed_at, duration_seconds, error_kind)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.Kind, rec.Outcome, rec.ActorContext, rec.TargetRef, rec.PerformedAt, rec.Duration, rec.ErrorKind,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert action record: %w", err)
	}
	return rec.ID, nil
}

// ActionRecordsSince returns the audit trail entries performed at or after
// the cutoff, newest first.
func (s *Store) ActionRecordsSince(ctx context.Context, cutoff time.Time) ([]types.ActionRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, kind, outcome, actor_context, target_ref, performed_at, duration_seconds, error_kind
		 FROM action_records
		 WHERE performed_at >= $1
		 ORDER BY performed_at DESC`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query action records: %w", err)
	}
	defer rows.Close()

	var records []types.ActionRecord
	for rows.Next() {
		var rec types.ActionRecord
		if err := rows.Scan(&rec.ID, &rec.Kind, &rec.Outcome, &rec.ActorContext, &rec.TargetRef, &rec.PerformedAt, &rec.Duration, &rec.ErrorKind); err != nil {
			return nil, fmt.Errorf("failed to scan action record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CountActionsSince counts audit entries of one kind at or after the
// cutoff, regardless of outcome.
func (s *Store) CountActionsSince(ctx context.Context, kind types.ActionKind, cutoff time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM action_records WHERE kind = $1 AND performed_at >= $2`,
		kind, cutoff,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count action records: %w", err)
	}
	return n, nil
}
