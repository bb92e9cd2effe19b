package batch

import "context"

// PercentComplete estimates how far along a job is as an integer in [0, 100].
//
// The estimate assumes every still-queued slice holds a full sliceSize worth
// of records, which over-counts remaining work when partially filled slices
// exist. A completed job is the only case that reports 100; when the
// slice-size assumption is violated (the estimate exceeds the expected record
// count) the result is clamped to 99 rather than reporting a bogus value.
// An unknown or non-positive record count reports 0.
//
// The underlying counts are mutated concurrently by workers, so the result is
// best-effort and may move non-monotonically between calls.
func PercentComplete(ctx context.Context, job *Job, input SliceCounter) (int, error) {
	if job.State() == JobStateCompleted {
		return 100, nil
	}

	recordCount, ok := job.RecordCount()
	if !ok || recordCount <= 0 {
		return 0, nil
	}

	queued, err := input.QueuedCount(ctx)
	if err != nil {
		return 0, err
	}

	estimate := queued * job.SliceSize()
	if estimate > recordCount {
		// The slice_size assumption has been violated; never report >99
		// while the job is not completed.
		return 99, nil
	}

	percent := (recordCount - estimate) * 100 / recordCount
	if percent > 99 {
		// Zero queued slices while not yet completed; only the completed
		// state may report 100.
		percent = 99
	}
	return percent, nil
}
