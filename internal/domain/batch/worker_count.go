package batch

import (
	"context"
	"sync"
	"time"
)

// WorkerCounter derives the number of workers currently active on a job,
// memoized with a 1-second TTL keyed on the wall-clock second. The cache
// bounds query load against the slice store to at most one query per second
// per job no matter how often callers poll; a cache hit returns the previous
// value verbatim even if the job's sub-state changed mid-second.
//
// It is the only piece of mutable state this package owns and is safe for
// concurrent use. The lock is never held across slice store calls, so a
// racing caller may at worst trigger a redundant recomputation.
type WorkerCounter struct {
	mu     sync.Mutex
	value  int
	second int64
	cached bool
}

// NewWorkerCounter creates an empty WorkerCounter.
func NewWorkerCounter() *WorkerCounter { return new(WorkerCounter) }

// Count returns the number of active workers as of now.
//
// A job that is not running has no workers. The single-threaded pre/post
// hooks count as one worker; during slice processing the count is the number
// of running input slices. Errors from the slice store propagate unmodified
// and are never cached.
func (c *WorkerCounter) Count(ctx context.Context, job *Job, input SliceCounter, now time.Time) (int, error) {
	sec := now.Unix()

	c.mu.Lock()
	if c.cached && c.second == sec {
		value := c.value
		c.mu.Unlock()
		return value, nil
	}
	c.mu.Unlock()

	value, err := activeWorkers(ctx, job, input)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.value = value
	c.second = sec
	c.cached = true
	c.mu.Unlock()

	return value, nil
}

func activeWorkers(ctx context.Context, job *Job, input SliceCounter) (int, error) {
	if job.State() != JobStateRunning {
		return 0, nil
	}

	switch job.SubState() {
	case SubStateBefore, SubStateAfter:
		// The job's own single-threaded hook execution counts as one worker.
		return 1, nil
	case SubStateProcessing:
		return input.RunningCount(ctx)
	default:
		return 0, nil
	}
}
