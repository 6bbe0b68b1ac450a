package types

import "time"

// TriggerType names the behavioral condition that auto-enrolls a target
// into a sequence.
type TriggerType string

// Trigger types evaluated by the sequence scheduler.
const (
	TriggerNewConnection  TriggerType = "new_connection"
	TriggerProfileView    TriggerType = "profile_view"
	TriggerPostEngagement TriggerType = "post_engagement"
	TriggerManual         TriggerType = "manual"
)

// SequenceStep is one message in a sequence, sent Delay after the
// enrollment's anchor time.
type SequenceStep struct {
	Delay    time.Duration `json:"delay"`
	Template string        `json:"template"`
}

// SequenceBranches optionally splits a sequence after BranchPoint steps
// based on whether the target has responded.
type SequenceBranches struct {
	BranchPoint int            `json:"branch_point"`
	Responded   []SequenceStep `json:"responded"`
	NoResponse  []SequenceStep `json:"no_response"`
}

// Sequence is an ordered list of message steps with an enrollment trigger.
type Sequence struct {
	ID       int64             `json:"id"`
	Name     string            `json:"name"`
	Trigger  TriggerType       `json:"trigger"`
	Steps    []SequenceStep    `json:"steps"`
	Branches *SequenceBranches `json:"branches,omitempty"`
	Active   bool              `json:"active"`
}

// EnrollmentStatus tracks one target's progress through a sequence.
type EnrollmentStatus string

// Enrollment states.
const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentStopped   EnrollmentStatus = "stopped"
)

// Enrollment binds one target identity to one sequence. NextDueAt is always
// derived from AnchorTime plus the current step's delay, shifted into the
// target's local send window when timezone scheduling is enabled.
type Enrollment struct {
	ID             int64            `json:"id"`
	SequenceID     int64            `json:"sequence_id"`
	TargetRef      string           `json:"target_ref"` // profile URL or stable identity
	TargetName     string           `json:"target_name,omitempty"`
	TargetLocation string           `json:"target_location,omitempty"` // used for timezone detection
	AnchorTime     time.Time        `json:"anchor_time"`
	CurrentStep    int              `json:"current_step"`
	NextDueAt      time.Time        `json:"next_due_at"`
	Status         EnrollmentStatus `json:"status"`
	Responded      bool             `json:"responded"`
	RespondedAt    *time.Time       `json:"responded_at,omitempty"`
}

// Completed reports whether the enrollment has fired its last step.
func (e Enrollment) Completed() bool {
	return e.Status == EnrollmentCompleted
}
