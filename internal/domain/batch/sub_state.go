package batch

import "fmt"

// SubState represents the finer-grained phase of a running batch job,
// distinguishing the single-threaded pre-hook, the parallel slice-processing
// phase, and the single-threaded post-hook. It is meaningful only while the
// job state is RUNNING and is advanced exclusively by the external scheduler.
type SubState string

const (
	// SubStateNone indicates the job has not yet entered a running phase.
	SubStateNone SubState = "NONE"

	// SubStateBefore indicates the job's pre-hook is executing.
	SubStateBefore SubState = "BEFORE"

	// SubStateProcessing indicates workers are actively processing slices.
	SubStateProcessing SubState = "PROCESSING"

	// SubStateAfter indicates the job's post-hook is executing.
	SubStateAfter SubState = "AFTER"

	// SubStateComplete indicates all running phases have finished.
	SubStateComplete SubState = "COMPLETE"
)

func (s SubState) String() string { return string(s) }

// ParseSubState converts a string to a SubState.
func ParseSubState(s string) SubState {
	switch s {
	case "NONE", "":
		return SubStateNone
	case "BEFORE":
		return SubStateBefore
	case "PROCESSING":
		return SubStateProcessing
	case "AFTER":
		return SubStateAfter
	case "COMPLETE":
		return SubStateComplete
	default:
		return SubStateNone
	}
}

// ValidateTransition checks if a sub-state transition is valid and returns an
// error if not. Phases advance strictly in order; the only other permitted
// move is a reset to NONE when the job leaves the running state.
func (s SubState) ValidateTransition(target SubState) error {
	if !s.isValidTransition(target) {
		return fmt.Errorf("invalid sub-state transition from %s to %s", s, target)
	}
	return nil
}

func (s SubState) isValidTransition(target SubState) bool {
	if target == SubStateNone {
		return true
	}

	switch s {
	case SubStateNone:
		return target == SubStateBefore
	case SubStateBefore:
		return target == SubStateProcessing
	case SubStateProcessing:
		return target == SubStateAfter
	case SubStateAfter:
		return target == SubStateComplete
	case SubStateComplete:
		return false
	default:
		return false
	}
}
