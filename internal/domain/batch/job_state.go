package batch

import "fmt"

// JobState represents the current lifecycle state of a batch job. It enables
// tracking of job execution from initial queueing through completion, failure,
// or abortion. Transitions are driven by the external scheduler; this core
// only validates and observes them.
type JobState string

const (
	// JobStateQueued indicates a job has been created but not yet started.
	JobStateQueued JobState = "QUEUED"

	// JobStateRunning indicates a job is actively processing slices.
	JobStateRunning JobState = "RUNNING"

	// JobStatePaused indicates a job has been temporarily halted.
	JobStatePaused JobState = "PAUSED"

	// JobStateFailed indicates the job encountered an unrecoverable error.
	JobStateFailed JobState = "FAILED"

	// JobStateCompleted indicates all job slices finished successfully.
	JobStateCompleted JobState = "COMPLETED"

	// JobStateAborted indicates the job was terminated by an operator.
	JobStateAborted JobState = "ABORTED"
)

func (s JobState) String() string { return string(s) }

// ParseJobState converts a string to a JobState.
func ParseJobState(s string) JobState {
	switch s {
	case "QUEUED":
		return JobStateQueued
	case "RUNNING":
		return JobStateRunning
	case "PAUSED":
		return JobStatePaused
	case "FAILED":
		return JobStateFailed
	case "COMPLETED":
		return JobStateCompleted
	case "ABORTED":
		return JobStateAborted
	default:
		return "" // represents unspecified
	}
}

// IsTerminal reports whether no further transitions are allowed from this state.
func (s JobState) IsTerminal() bool {
	return s == JobStateCompleted || s == JobStateAborted
}

// ValidateTransition checks if a state transition is valid and returns an error if not.
func (s JobState) ValidateTransition(target JobState) error {
	if !s.isValidTransition(target) {
		return fmt.Errorf("invalid job state transition from %s to %s", s, target)
	}
	return nil
}

// isValidTransition checks if the current state can transition to the target state.
// It enforces the job lifecycle rules to prevent invalid state changes.
func (s JobState) isValidTransition(target JobState) bool {
	switch s {
	case JobStateQueued:
		// From Queued, a job can start running or be aborted before pickup.
		return target == JobStateRunning || target == JobStateAborted
	case JobStateRunning:
		return target == JobStatePaused ||
			target == JobStateFailed ||
			target == JobStateCompleted ||
			target == JobStateAborted
	case JobStatePaused:
		// A paused job resumes or is abandoned.
		return target == JobStateRunning || target == JobStateAborted
	case JobStateFailed:
		// A failed job may be retried or abandoned.
		return target == JobStateRunning || target == JobStateAborted
	case JobStateCompleted, JobStateAborted:
		// Terminal states - no further transitions allowed.
		return false
	default:
		return false
	}
}
