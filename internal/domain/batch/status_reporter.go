package batch

import (
	"context"
	"math"
	"time"
)

// Minimum progress before an ETA is exposed; early-run estimates are too
// unstable to report.
const minPercentForETA = 5

// Status map keys computed by the reporter.
const (
	statusKeyQueuedSlices   = "queued_slices"
	statusKeyActiveSlices   = "active_slices"
	statusKeyFailedSlices   = "failed_slices"
	statusKeyOutputSlices   = "output_slices"
	statusKeyETA            = "est_remaining_duration"
	statusKeyRecordsPerHour = "records_per_hour"
	statusKeyResult         = "result"
	statusKeyWorkerName     = "worker_name"
)

// StatusReporter composes point-in-time status snapshots for a single job,
// branching on the job's lifecycle state. It owns the job's worker-count
// cache, so one reporter should be reused per job instance.
type StatusReporter struct {
	formatDuration DurationFormatter
	workers        *WorkerCounter
}

// NewStatusReporter creates a StatusReporter using the given duration
// formatter for ETA rendering. A nil formatter falls back to HumanizeDuration.
func NewStatusReporter(formatDuration DurationFormatter) *StatusReporter {
	if formatDuration == nil {
		formatDuration = HumanizeDuration
	}
	return &StatusReporter{
		formatDuration: formatDuration,
		workers:        NewWorkerCounter(),
	}
}

// WorkerCount returns the job's active worker count through the reporter's
// 1-second memoized cache.
func (r *StatusReporter) WorkerCount(ctx context.Context, job *Job, store SliceStore, now time.Time) (int, error) {
	return r.workers.Count(ctx, job, store.Input(), now)
}

// Status builds a flat status mapping for the job as of now, merging in the
// externally supplied base mapping (name, timestamps, id, ...). Computed
// fields win over base entries on the rare key collision. Callers must not
// assume key ordering or a fixed key set; keys appear and disappear based on
// the job's state.
//
// The snapshot is assembled from independent point queries over concurrently
// mutated slice collections, so the counts are best-effort and need not be
// mutually consistent. Slice store failures propagate unmodified.
func (r *StatusReporter) Status(
	ctx context.Context,
	job *Job,
	store SliceStore,
	base map[string]any,
	now time.Time,
) (map[string]any, error) {
	status := make(map[string]any, len(base)+4)
	for k, v := range base {
		status[k] = v
	}

	input := store.Input()

	switch job.State() {
	case JobStateQueued:
		queued, err := input.QueuedCount(ctx)
		if err != nil {
			return nil, err
		}
		status[statusKeyQueuedSlices] = queued

	case JobStateRunning, JobStatePaused, JobStateFailed:
		active, err := r.workers.Count(ctx, job, input, now)
		if err != nil {
			return nil, err
		}
		failed, err := input.FailedCount(ctx)
		if err != nil {
			return nil, err
		}
		queued, err := input.QueuedCount(ctx)
		if err != nil {
			return nil, err
		}
		status[statusKeyActiveSlices] = active
		status[statusKeyFailedSlices] = failed
		status[statusKeyQueuedSlices] = queued

		if job.State() == JobStateRunning {
			if err := r.addETA(ctx, job, input, status, now); err != nil {
				return nil, err
			}
		}

	case JobStateCompleted:
		if recordCount, ok := job.RecordCount(); ok && recordCount > 0 {
			if elapsed := job.GetTimeline().ElapsedSeconds(now); elapsed > 0 {
				status[statusKeyRecordsPerHour] = int(math.Round(float64(recordCount) / elapsed * 3600))
			}
		}
	}

	// Once completed, output counts belong in the final result payload,
	// not the live status.
	if job.CollectOutput() && job.State() != JobStateCompleted {
		outputs, err := store.Output().Count(ctx)
		if err != nil {
			return nil, err
		}
		status[statusKeyOutputSlices] = outputs
	}

	// A batch job's result is not a scalar; real results live in output slices.
	delete(status, statusKeyResult)

	// A single worker_name is misleading when many workers participate.
	if job.SubState() == SubStateProcessing {
		delete(status, statusKeyWorkerName)
	}

	return status, nil
}

// addETA attaches est_remaining_duration while the job is running, provided
// the expected record count is known, progress has reached a stable minimum,
// and some wall-clock time has elapsed.
func (r *StatusReporter) addETA(
	ctx context.Context,
	job *Job,
	input SliceCounter,
	status map[string]any,
	now time.Time,
) error {
	recordCount, ok := job.RecordCount()
	if !ok || recordCount <= 0 {
		return nil
	}

	percent, err := PercentComplete(ctx, job, input)
	if err != nil {
		return err
	}
	if percent < minPercentForETA {
		return nil
	}

	elapsed := job.GetTimeline().ElapsedSeconds(now)
	if elapsed <= 0 {
		return nil
	}

	remaining := elapsed/float64(percent)*100 - elapsed
	status[statusKeyETA] = r.formatDuration(remaining)
	return nil
}
