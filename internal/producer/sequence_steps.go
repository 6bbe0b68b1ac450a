package producer

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jordan/outreach-agent/internal/sequence"
	"github.com/jordan/outreach-agent/internal/types"
)

// SequenceSteps proposes the follow-up messages that sequence enrollments
// have come due for. Steps are time-critical: the scheduler already picked
// the send time for the target's timezone.
type SequenceSteps struct {
	scheduler *sequence.Scheduler

	// due indexes the gathered steps by enrollment ID so HandleResult can
	// advance the right enrollment. Gather and HandleResult run within one
	// cycle on the orchestrator goroutine.
	due map[int64]sequence.DueStep
}

// NewSequenceSteps builds the producer.
func NewSequenceSteps(scheduler *sequence.Scheduler) *SequenceSteps {
	return &SequenceSteps{scheduler: scheduler, due: make(map[int64]sequence.DueStep)}
}

// Name identifies the producer in logs and summaries.
func (p *SequenceSteps) Name() string { return "sequence_steps" }

// Gather proposes one message per due enrollment step, with the template
// rendered for the target.
func (p *SequenceSteps) Gather(ctx context.Context, now time.Time) ([]types.Candidate, error) {
	due, err := p.scheduler.DueSteps(ctx, now)
	if err != nil {
		return nil, err
	}

	p.due = make(map[int64]sequence.DueStep, len(due))
	var candidates []types.Candidate
	for _, d := range due {
		p.due[d.Enrollment.ID] = d
		candidates = append(candidates, types.Candidate{
			Action: types.Action{
				Kind:      types.KindMessage,
				TargetRef: d.Enrollment.TargetRef,
				Parameters: map[string]string{
					ParamContent:      sequence.RenderTemplate(d.Step.Template, d.Enrollment),
					ParamEnrollmentID: strconv.FormatInt(d.Enrollment.ID, 10),
					ParamSequenceID:   strconv.FormatInt(d.Sequence.ID, 10),
				},
			},
			TimeCritical: true,
			DueAt:        d.Enrollment.NextDueAt,
			Source:       p.Name(),
		})
	}
	return candidates, nil
}

// HandleResult advances the enrollment past the step that was just sent.
// Failed sends stay on the current step and come due again next cycle.
func (p *SequenceSteps) HandleResult(ctx context.Context, cand types.Candidate, rec types.ActionRecord) error {
	if rec.Outcome != types.OutcomeSuccess {
		return nil
	}
	id, err := strconv.ParseInt(cand.Action.Parameters[ParamEnrollmentID], 10, 64)
	if err != nil {
		return fmt.Errorf("bad enrollment ID on candidate: %w", err)
	}
	d, ok := p.due[id]
	if !ok {
		return fmt.Errorf("no gathered step for enrollment %d", id)
	}
	if _, err := p.scheduler.Advance(ctx, d.Enrollment, d.Sequence, rec.PerformedAt); err != nil {
		return err
	}
	delete(p.due, id)
	return nil
}
