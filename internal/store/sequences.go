package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jordan/outreach-agent/internal/types"
)

// CreateSequence stores a sequence definition and returns its ID. Steps and
// branches are stored as JSON; their shape changes with product iteration
// and does not need relational queries.
func (s *Store) CreateSequence(ctx context.Context, seq types.Sequence) (int64, error) {
	steps, err := json.Marshal(seq.Steps)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal steps: %w", err)
	}
	var branches []byte
	if seq.Branches != nil {
		if branches, err = json.Marshal(seq.Branches); err != nil {
			return 0, fmt.Errorf("failed to marshal branches: %w", err)
		}
	}

	var id int64
	err = s.pool.QueryRow(ctx,
		`INSERT INTO sequences (name, trigger, steps, branches, active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		seq.Name, seq.Trigger, steps, branches, seq.Active,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create sequence: %w", err)
	}
	return id, nil
}

// SequenceByID retrieves one sequence definition.
func (s *Store) SequenceByID(ctx context.Context, id int64) (types.Sequence, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, trigger, steps, branches, active FROM sequences WHERE id = $1`,
		id,
	)
	seq, err := scanSequence(row)
	if err != nil {
		return types.Sequence{}, fmt.Errorf("failed to get sequence %d: %w", id, err)
	}
	return seq, nil
}

// SequencesByTrigger returns sequences listening for a trigger.
func (s *Store) SequencesByTrigger(ctx context.Context, trigger types.TriggerType) ([]types.Sequence, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, trigger, steps, branches, active FROM sequences WHERE trigger = $1`,
		trigger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sequences: %w", err)
	}
	defer rows.Close()

	var sequences []types.Sequence
	for rows.Next() {
		seq, err := scanSequence(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sequence: %w", err)
		}
		sequences = append(sequences, seq)
	}
	return sequences, rows.Err()
}

func scanSequence(row pgx.Row) (types.Sequence, error) {
	var seq types.Sequence
	var steps, branches []byte
	if err := row.Scan(&seq.ID, &seq.Name, &seq.Trigger, &steps, &branches, &seq.Active); err != nil {
		return types.Sequence{}, err
	}
	if err := json.Unmarshal(steps, &seq.Steps); err != nil {
		return types.Sequence{}, fmt.Errorf("decoding steps: %w", err)
	}
	if len(branches) > 0 {
		seq.Branches = &types.SequenceBranches{}
		if err := json.Unmarshal(branches, seq.Branches); err != nil {
			return types.Sequence{}, fmt.Errorf("decoding branches: %w", err)
		}
	}
	return seq, nil
}

// CreateEnrollment inserts an enrollment and fills in its generated ID.
func (s *Store) CreateEnrollment(ctx context.Context, enr *types.Enrollment) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO enrollments (sequence_id, target_ref, target_name, target_location, anchor_time, current_step, next_due_at, status, responded, responded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		enr.SequenceID, enr.TargetRef, enr.TargetName, enr.TargetLocation, enr.AnchorTime,
		enr.CurrentStep, enr.NextDueAt, enr.Status, enr.Responded, enr.RespondedAt,
	).Scan(&enr.ID)
	if err != nil {
		return fmt.Errorf("failed to create enrollment: %w", err)
	}
	return nil
}

// UpdateEnrollment persists enrollment progress.
func (s *Store) UpdateEnrollment(ctx context.Context, enr *types.Enrollment) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE enrollments
		 SET current_step = $1, next_due_at = $2, status = $3, responded = $4, responded_at = $5
		 WHERE id = $6`,
		enr.CurrentStep, enr.NextDueAt, enr.Status, enr.Responded, enr.RespondedAt, enr.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update enrollment %d: %w", enr.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("enrollment %d not found", enr.ID)
	}
	return nil
}

// ActiveEnrollments returns every enrollment still receiving steps.
func (s *Store) ActiveEnrollments(ctx context.Context) ([]types.Enrollment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, sequence_id, target_ref, target_name, target_location, anchor_time, current_step, next_due_at, status, responded, responded_at
		 FROM enrollments WHERE status = $1`,
		types.EnrollmentActive,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []types.Enrollment
	for rows.Next() {
		var enr types.Enrollment
		if err := rows.Scan(&enr.ID, &enr.SequenceID, &enr.TargetRef, &enr.TargetName, &enr.TargetLocation,
			&enr.AnchorTime, &enr.CurrentStep, &enr.NextDueAt, &enr.Status, &enr.Responded, &enr.RespondedAt); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		enrollments = append(enrollments, enr)
	}
	return enrollments, rows.Err()
}

// EnrollmentsBySequence returns every enrollment of one sequence, any
// status, for performance reporting.
func (s *Store) EnrollmentsBySequence(ctx context.Context, sequenceID int64) ([]types.Enrollment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, sequence_id, target_ref, target_name, target_location, anchor_time, current_step, next_due_at, status, responded, responded_at
		 FROM enrollments WHERE sequence_id = $1`,
		sequenceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments for sequence %d: %w", sequenceID, err)
	}
	defer rows.Close()

	var enrollments []types.Enrollment
	for rows.Next() {
		var enr types.Enrollment
		if err := rows.Scan(&enr.ID, &enr.SequenceID, &enr.TargetRef, &enr.TargetName, &enr.TargetLocation,
			&enr.AnchorTime, &enr.CurrentStep, &enr.NextDueAt, &enr.Status, &enr.Responded, &enr.RespondedAt); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		enrollments = append(enrollments, enr)
	}
	return enrollments, rows.Err()
}

// ActiveEnrollmentExists reports whether a target is already actively
// enrolled in a sequence.
func (s *Store) ActiveEnrollmentExists(ctx context.Context, sequenceID int64, targetRef string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM enrollments
			WHERE sequence_id = $1 AND target_ref = $2 AND status = $3
		 )`,
		sequenceID, targetRef, types.EnrollmentActive,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	}
	return exists, nil
}
