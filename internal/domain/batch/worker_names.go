package batch

import "context"

// WorkerNames derives the identities of the workers currently active on a job.
//
// The result is empty unless the job is running. During the single-threaded
// pre/post hooks it is the job's own worker name; during slice processing it
// is the worker name of every running input slice, in store iteration order,
// without de-duplication.
func WorkerNames(ctx context.Context, job *Job, store SliceStore) ([]string, error) {
	if job.State() != JobStateRunning {
		return nil, nil
	}

	switch job.SubState() {
	case SubStateBefore, SubStateAfter:
		return []string{job.WorkerName()}, nil
	case SubStateProcessing:
		return store.RunningWorkers(ctx)
	default:
		return nil, nil
	}
}
