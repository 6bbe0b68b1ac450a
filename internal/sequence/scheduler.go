package sequence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jordan/outreach-agent/internal/config"
	"github.com/jordan/outreach-agent/internal/types"
)

// ErrAlreadyEnrolled is returned when a target already has an active
// enrollment in the same sequence.
var ErrAlreadyEnrolled = errors.New("target already enrolled in sequence")

// Store is the persistence surface the scheduler needs. The production
// implementation lives in the store package.
type Store interface {
	SequenceByID(ctx context.Context, id int64) (types.Sequence, error)
	SequencesByTrigger(ctx context.Context, trigger types.TriggerType) ([]types.Sequence, error)
	ActiveEnrollments(ctx context.Context) ([]types.Enrollment, error)
	ActiveEnrollmentExists(ctx context.Context, sequenceID int64, targetRef string) (bool, error)
	CreateEnrollment(ctx context.Context, enr *types.Enrollment) error
	UpdateEnrollment(ctx context.Context, enr *types.Enrollment) error
}

// DueStep is one enrollment whose next step has come due, paired with the
// sequence and step content needed to act on it.
type DueStep struct {
	Enrollment types.Enrollment
	Sequence   types.Sequence
	Step       types.SequenceStep
}

// Scheduler advances multi-step outreach sequences. Step timing is anchored
// to the enrollment time: each step's delay is an offset from the anchor,
// not from the previous step, so a late send does not push the rest of the
// sequence later.
type Scheduler struct {
	store Store
	cfg   config.SequenceConfig
}

// NewScheduler builds a scheduler over the given store.
func NewScheduler(store Store, cfg config.SequenceConfig) *Scheduler {
	return &Scheduler{store: store, cfg: cfg}
}

// Enroll adds a target to a sequence. The first step is scheduled from the
// enrollment time; a target with an active enrollment in the same sequence
// is rejected so triggers firing twice cannot double-message anyone.
func (s *Scheduler) Enroll(ctx context.Context, seq types.Sequence, targetRef, targetName, targetLocation string, now time.Time) (types.Enrollment, error) {
	if len(seq.Steps) == 0 {
		return types.Enrollment{}, fmt.Errorf("sequence %q has no steps", seq.Name)
	}
	exists, err := s.store.ActiveEnrollmentExists(ctx, seq.ID, targetRef)
	if err != nil {
		return types.Enrollment{}, fmt.Errorf("checking enrollment for %s: %w", targetRef, err)
	}
	if exists {
		return types.Enrollment{}, ErrAlreadyEnrolled
	}

	enr := types.Enrollment{
		SequenceID:     seq.ID,
		TargetRef:      targetRef,
		TargetName:     targetName,
		TargetLocation: targetLocation,
		AnchorTime:     now,
		CurrentStep:    0,
		NextDueAt:      s.dueAt(now, seq.Steps[0].Delay, targetLocation),
		Status:         types.EnrollmentActive,
	}
	if err := s.store.CreateEnrollment(ctx, &enr); err != nil {
		return types.Enrollment{}, fmt.Errorf("creating enrollment for %s: %w", targetRef, err)
	}
	return enr, nil
}

// DueSteps returns every active enrollment whose next step is due at now,
// with the step content resolved through any response branch.
func (s *Scheduler) DueSteps(ctx context.Context, now time.Time) ([]DueStep, error) {
	enrollments, err := s.store.ActiveEnrollments(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading active enrollments: %w", err)
	}

	var due []DueStep
	for _, enr := range enrollments {
		if enr.NextDueAt.After(now) {
			continue
		}
		seq, err := s.store.SequenceByID(ctx, enr.SequenceID)
		if err != nil {
			return nil, fmt.Errorf("loading sequence %d: %w", enr.SequenceID, err)
		}
		steps := effectiveSteps(seq, enr)
		if enr.CurrentStep >= len(steps) {
			continue
		}
		due = append(due, DueStep{Enrollment: enr, Sequence: seq, Step: steps[enr.CurrentStep]})
	}
	return due, nil
}

// Advance moves an enrollment past its current step after the step has been
// sent. The enrollment completes when no steps remain on its effective
// path.
func (s *Scheduler) Advance(ctx context.Context, enr types.Enrollment, seq types.Sequence, now time.Time) (types.Enrollment, error) {
	steps := effectiveSteps(seq, enr)
	enr.CurrentStep++
	if enr.CurrentStep >= len(steps) {
		enr.Status = types.EnrollmentCompleted
	} else {
		enr.NextDueAt = s.dueAt(enr.AnchorTime, steps[enr.CurrentStep].Delay, enr.TargetLocation)
	}
	if err := s.store.UpdateEnrollment(ctx, &enr); err != nil {
		return types.Enrollment{}, fmt.Errorf("advancing enrollment %d: %w", enr.ID, err)
	}
	return enr, nil
}

// MarkResponded records that the target replied. Sequences without branches
// stop outright so a reply never draws another templated follow-up; branched
// sequences switch the remaining steps to the responded path.
func (s *Scheduler) MarkResponded(ctx context.Context, enr types.Enrollment, seq types.Sequence, now time.Time) (types.Enrollment, error) {
	if enr.Status != types.EnrollmentActive {
		return enr, nil
	}
	enr.Responded = true
	enr.RespondedAt = &now

	if seq.Branches == nil {
		enr.Status = types.EnrollmentStopped
	} else {
		steps := effectiveSteps(seq, enr)
		if enr.CurrentStep >= len(steps) {
			enr.Status = types.EnrollmentCompleted
		} else {
			enr.NextDueAt = s.dueAt(enr.AnchorTime, steps[enr.CurrentStep].Delay, enr.TargetLocation)
		}
	}
	if err := s.store.UpdateEnrollment(ctx, &enr); err != nil {
		return types.Enrollment{}, fmt.Errorf("marking enrollment %d responded: %w", enr.ID, err)
	}
	return enr, nil
}

// Stop halts an enrollment without completing it.
func (s *Scheduler) Stop(ctx context.Context, enr types.Enrollment) (types.Enrollment, error) {
	if enr.Status != types.EnrollmentActive {
		return enr, nil
	}
	enr.Status = types.EnrollmentStopped
	if err := s.store.UpdateEnrollment(ctx, &enr); err != nil {
		return types.Enrollment{}, fmt.Errorf("stopping enrollment %d: %w", enr.ID, err)
	}
	return enr, nil
}

// dueAt schedules a step offset from the anchor, then shifts it to the send
// hour in the target's local timezone when timezone scheduling is on.
func (s *Scheduler) dueAt(anchor time.Time, delay time.Duration, targetLocation string) time.Time {
	raw := anchor.Add(delay)
	if !s.cfg.TimezoneScheduling {
		return raw
	}
	loc := zoneForLocation(targetLocation, s.cfg.FallbackTimezone)
	return adjustToSendHour(raw, loc, s.cfg.SendHour)
}

// effectiveSteps resolves the step path for an enrollment. Branched
// sequences share the steps up to the branch point and then diverge on
// whether the target has responded.
func effectiveSteps(seq types.Sequence, enr types.Enrollment) []types.SequenceStep {
	if seq.Branches == nil {
		return seq.Steps
	}
	point := seq.Branches.BranchPoint
	if point > len(seq.Steps) {
		point = len(seq.Steps)
	}
	base := seq.Steps[:point]
	if enr.Responded {
		return append(append([]types.SequenceStep(nil), base...), seq.Branches.Responded...)
	}
	return append(append([]types.SequenceStep(nil), base...), seq.Branches.NoResponse...)
}

// RenderTemplate fills the placeholder fields of a step template for one
// target.
func RenderTemplate(template string, enr types.Enrollment) string {
	first := enr.TargetName
	if i := strings.IndexByte(first, ' '); i > 0 {
		first = first[:i]
	}
	out := strings.ReplaceAll(template, "{name}", enr.TargetName)
	return strings.ReplaceAll(out, "{first_name}", first)
}
