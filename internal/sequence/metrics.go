package sequence

import "github.com/jordan/outreach-agent/internal/types"

// Performance summarizes how one sequence's enrollments are faring.
type Performance struct {
	SequenceID     int64   `json:"sequence_id"`
	Enrolled       int     `json:"enrolled"`
	Active         int     `json:"active"`
	Completed      int     `json:"completed"`
	Stopped        int     `json:"stopped"`
	Responded      int     `json:"responded"`
	ResponseRate   float64 `json:"response_rate"`   // responded / enrolled
	CompletionRate float64 `json:"completion_rate"` // completed / finished (completed + stopped)
}

// MeasurePerformance computes response and completion rates for one
// sequence from its enrollments. Enrollments belonging to other sequences
// are ignored.
func MeasurePerformance(sequenceID int64, enrollments []types.Enrollment) Performance {
	perf := Performance{SequenceID: sequenceID}
	for _, enr := range enrollments {
		if enr.SequenceID != sequenceID {
			continue
		}
		perf.Enrolled++
		switch enr.Status {
		case types.EnrollmentActive:
			perf.Active++
		case types.EnrollmentCompleted:
			perf.Completed++
		case types.EnrollmentStopped:
			perf.Stopped++
		}
		if enr.Responded {
			perf.Responded++
		}
	}
	if perf.Enrolled > 0 {
		perf.ResponseRate = float64(perf.Responded) / float64(perf.Enrolled)
	}
	if finished := perf.Completed + perf.Stopped; finished > 0 {
		perf.CompletionRate = float64(perf.Completed) / float64(finished)
	}
	return perf
}
