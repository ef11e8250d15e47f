package domain

import (
	"encoding/json"
	"time"
)

// JobStatus is the lifecycle state of an asynchronous job.
type JobStatus string

const (
	JobPendingInput JobStatus = "pending_input"
	JobProcessing   JobStatus = "processing"
	JobCompleted    JobStatus = "completed"
	JobFailed       JobStatus = "failed"
)

// IsTerminal reports whether no further transition is allowed.
func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed
}

// CanTransitionTo reports whether moving from s to next is a legal forward step.
// The billing override completed -> failed is not a transition; see Job.ForceFail.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobPendingInput:
		return next == JobProcessing || next == JobFailed
	case JobProcessing:
		return next == JobCompleted || next == JobFailed
	default:
		return false
	}
}

// Job is a durable record of work that outlives a single request.
type Job struct {
	JobID     string          `json:"jobID"`
	AccountID string          `json:"accountID"`
	Status    JobStatus       `json:"status"`
	InputRef  string          `json:"inputRef"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// ApplyTransition moves the job to next. It returns false with no change when the job is
// already terminal, and false when next is not reachable from the current status.
func (j *Job) ApplyTransition(next JobStatus, now time.Time) bool {
	if !j.Status.CanTransitionTo(next) {
		return false
	}
	j.Status = next
	j.UpdatedAt = now
	return true
}

// ForceFail overwrites a completed job with a failure. Used when the result could not be paid for.
func (j *Job) ForceFail(message string, now time.Time) {
	j.Status = JobFailed
	j.Result = nil
	j.Error = message
	j.UpdatedAt = now
}

// JobTransition is the outcome of a transition request.
type JobTransition struct {
	Job     *Job
	Applied bool
}
