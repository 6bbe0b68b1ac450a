package sequence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jordan/outreach-agent/internal/types"
)

// TriggerEvent is a behavioral signal that can start a sequence: a new
// connection, a profile view, or engagement with one of our posts.
type TriggerEvent struct {
	Trigger        types.TriggerType
	TargetRef      string
	TargetName     string
	TargetLocation string
}

// HandleTrigger enrolls the event's target into every active sequence
// listening for the trigger. Targets already actively enrolled in a
// sequence are skipped, so repeated profile views do not stack follow-ups.
func (s *Scheduler) HandleTrigger(ctx context.Context, ev TriggerEvent, now time.Time) ([]types.Enrollment, error) {
	sequences, err := s.store.SequencesByTrigger(ctx, ev.Trigger)
	if err != nil {
		return nil, fmt.Errorf("loading sequences for trigger %s: %w", ev.Trigger, err)
	}

	var created []types.Enrollment
	for _, seq := range sequences {
		if !seq.Active {
			continue
		}
		enr, err := s.Enroll(ctx, seq, ev.TargetRef, ev.TargetName, ev.TargetLocation, now)
		if errors.Is(err, ErrAlreadyEnrolled) {
			continue
		}
		if err != nil {
			return created, err
		}
		created = append(created, enr)
	}
	return created, nil
}
