// Package types provides type definitions for structured data used throughout the outreach-agent system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/google/uuid"
)

// ActionKind identifies the category of a platform action.
type ActionKind string

// Action kinds the agent can perform.
const (
	KindPost              ActionKind = "post"
	KindComment           ActionKind = "comment"
	KindLike              ActionKind = "like"
	KindConnectionRequest ActionKind = "connection_request"
	KindMessage           ActionKind = "message"
	KindProfileView       ActionKind = "profile_view"
)

// AllKinds lists every action kind in a fixed order, used for iteration
// in budget accounting and summaries.
var AllKinds = []ActionKind{
	KindPost,
	KindComment,
	KindLike,
	KindConnectionRequest,
	KindMessage,
	KindProfileView,
}

// Outcome describes how an attempted action ended.
type Outcome string

// Action outcomes.
const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeSkipped Outcome = "skipped"
)

// ActionRecord is one performed or attempted action. Records are immutable
// once written and are used only in aggregate (sliding-window counts).
type ActionRecord struct {
	ID           uuid.UUID  `json:"id"`
	Kind         ActionKind `json:"kind"`
	Outcome      Outcome    `json:"outcome"`
	ActorContext string     `json:"actor_context"` // which producer issued it
	TargetRef    string     `json:"target_ref,omitempty"`
	PerformedAt  time.Time  `json:"performed_at"`
	Duration     float64    `json:"duration_seconds,omitempty"`
	ErrorKind    string     `json:"error_kind,omitempty"`
}

// Action is a fully-specified unit of work handed to the execution
// collaborator. Parameters carry kind-specific inputs such as the comment
// text or the profile URL.
type Action struct {
	Kind       ActionKind        `json:"kind"`
	TargetRef  string            `json:"target_ref"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// ActionResult is what the execution collaborator returns for one action.
type ActionResult struct {
	Success       bool              `json:"success"`
	ExtractedData map[string]string `json:"extracted_data,omitempty"`
	ErrorKind     string            `json:"error_kind,omitempty"`
}

// Candidate is one unit of proposed work gathered from a producer during a
// cycle, before admission control.
type Candidate struct {
	Action       Action    `json:"action"`
	Score        float64   `json:"score"`         // descending priority within a cycle
	TimeCritical bool      `json:"time_critical"` // overdue scheduled work jumps the queue
	DueAt        time.Time `json:"due_at,omitempty"`
	Source       string    `json:"source"` // producer name
}
