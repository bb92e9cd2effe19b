package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newStatusJob builds a job whose timeline starts at a fixed instant so tests
// can control elapsed time via the `now` argument to Status.
func newStatusJob(
	state JobState,
	subState SubState,
	cfg JobConfig,
	recordCount *int,
	workerName string,
	start, completed time.Time,
) *Job {
	if cfg.SliceSize == 0 {
		cfg.SliceSize = DefaultSliceSize
	}
	timeline := ReconstructTimeline(start, completed, start, new(realTimeProvider))
	return ReconstructJob(uuid.New(), state, subState, cfg, recordCount, workerName, timeline)
}

var statusStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestStatusReporter_QueuedJob(t *testing.T) {
	job := newStatusJob(JobStateQueued, SubStateNone, DefaultJobConfig(), nil, "", statusStart, time.Time{})
	store := newStubStore()
	store.input.queued = 12

	status, err := NewStatusReporter(nil).Status(context.Background(), job, store, map[string]any{"name": "import"}, statusStart)
	require.NoError(t, err)

	assert.Equal(t, 12, status["queued_slices"])
	assert.Equal(t, "import", status["name"])
	assert.NotContains(t, status, "active_slices")
	assert.NotContains(t, status, "failed_slices")
	assert.NotContains(t, status, "est_remaining_duration")
}

func TestStatusReporter_RunningJobCounts(t *testing.T) {
	for _, state := range []JobState{JobStateRunning, JobStatePaused, JobStateFailed} {
		t.Run(state.String(), func(t *testing.T) {
			job := newStatusJob(state, SubStateProcessing, DefaultJobConfig(), nil, "", statusStart, time.Time{})
			store := newStubStore()
			store.input.queued = 8
			store.input.running = 5
			store.input.failed = 2

			status, err := NewStatusReporter(nil).Status(context.Background(), job, store, nil, statusStart)
			require.NoError(t, err)

			// Paused/failed jobs have no active workers; the sub-state is
			// only meaningful while running.
			wantActive := 0
			if state == JobStateRunning {
				wantActive = 5
			}
			assert.Equal(t, wantActive, status["active_slices"])
			assert.Equal(t, 2, status["failed_slices"])
			assert.Equal(t, 8, status["queued_slices"])
		})
	}
}

func TestStatusReporter_ETA(t *testing.T) {
	tests := []struct {
		name        string
		state       JobState
		recordCount *int
		queued      int // sliceSize 1, so percent = recordCount - queued (of 100)
		elapsed     time.Duration
		wantETA     bool
	}{
		{
			name:        "running at ten percent after a minute",
			state:       JobStateRunning,
			recordCount: intPtr(100),
			queued:      90,
			elapsed:     time.Minute,
			wantETA:     true,
		},
		{
			name:        "below five percent is too unstable to expose",
			state:       JobStateRunning,
			recordCount: intPtr(100),
			queued:      96,
			elapsed:     time.Minute,
			wantETA:     false,
		},
		{
			name:        "exactly five percent reports",
			state:       JobStateRunning,
			recordCount: intPtr(100),
			queued:      95,
			elapsed:     time.Minute,
			wantETA:     true,
		},
		{
			name:    "unknown record count never reports",
			state:   JobStateRunning,
			queued:  10,
			elapsed: time.Minute,
			wantETA: false,
		},
		{
			name:        "zero elapsed never reports",
			state:       JobStateRunning,
			recordCount: intPtr(100),
			queued:      90,
			elapsed:     0,
			wantETA:     false,
		},
		{
			name:        "paused job never reports",
			state:       JobStatePaused,
			recordCount: intPtr(100),
			queued:      90,
			elapsed:     time.Minute,
			wantETA:     false,
		},
		{
			name:        "failed job never reports",
			state:       JobStateFailed,
			recordCount: intPtr(100),
			queued:      90,
			elapsed:     time.Minute,
			wantETA:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := newStatusJob(tt.state, SubStateProcessing, JobConfig{SliceSize: 1}, tt.recordCount, "", statusStart, time.Time{})
			store := newStubStore()
			store.input.queued = tt.queued

			status, err := NewStatusReporter(nil).Status(context.Background(), job, store, nil, statusStart.Add(tt.elapsed))
			require.NoError(t, err)

			if tt.wantETA {
				assert.Contains(t, status, "est_remaining_duration")
			} else {
				assert.NotContains(t, status, "est_remaining_duration")
			}
		})
	}
}

func TestStatusReporter_ETAUsesFormatter(t *testing.T) {
	// 10% done after 60s leaves an estimated 540s of work.
	job := newStatusJob(JobStateRunning, SubStateProcessing, JobConfig{SliceSize: 1}, intPtr(100), "", statusStart, time.Time{})
	store := newStubStore()
	store.input.queued = 90

	var gotSeconds float64
	formatter := func(seconds float64) string {
		gotSeconds = seconds
		return "9 minutes"
	}

	status, err := NewStatusReporter(formatter).Status(context.Background(), job, store, nil, statusStart.Add(time.Minute))
	require.NoError(t, err)

	assert.Equal(t, "9 minutes", status["est_remaining_duration"])
	assert.InDelta(t, 540.0, gotSeconds, 0.001)
}

func TestStatusReporter_CompletedJob(t *testing.T) {
	tests := []struct {
		name        string
		recordCount *int
		elapsed     time.Duration
		wantRPH     any
	}{
		{name: "records per hour from elapsed", recordCount: intPtr(1000), elapsed: time.Hour, wantRPH: 1000},
		{name: "rounds to nearest", recordCount: intPtr(1000), elapsed: 45 * time.Minute, wantRPH: 1333},
		{name: "zero elapsed omitted", recordCount: intPtr(1000), elapsed: 0, wantRPH: nil},
		{name: "unknown record count omitted", recordCount: nil, elapsed: time.Hour, wantRPH: nil},
		{name: "zero record count omitted", recordCount: intPtr(0), elapsed: time.Hour, wantRPH: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completed := statusStart.Add(tt.elapsed)
			job := newStatusJob(JobStateCompleted, SubStateNone, DefaultJobConfig(), tt.recordCount, "", statusStart, completed)
			store := newStubStore()

			status, err := NewStatusReporter(nil).Status(context.Background(), job, store, nil, completed.Add(time.Hour))
			require.NoError(t, err)

			if tt.wantRPH == nil {
				assert.NotContains(t, status, "records_per_hour")
			} else {
				assert.Equal(t, tt.wantRPH, status["records_per_hour"])
			}

			// Completed jobs never report live slice counts.
			assert.NotContains(t, status, "queued_slices")
			assert.NotContains(t, status, "active_slices")
		})
	}
}

func TestStatusReporter_OutputSlices(t *testing.T) {
	tests := []struct {
		name          string
		state         JobState
		collectOutput bool
		want          bool
	}{
		{name: "collecting while running", state: JobStateRunning, collectOutput: true, want: true},
		{name: "collecting while queued", state: JobStateQueued, collectOutput: true, want: true},
		{name: "not collecting", state: JobStateRunning, collectOutput: false, want: false},
		{name: "completed output lives in the result payload", state: JobStateCompleted, collectOutput: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := newStatusJob(tt.state, SubStateNone, JobConfig{CollectOutput: tt.collectOutput}, nil, "", statusStart, statusStart)
			store := newStubStore()
			store.output.total = 17

			status, err := NewStatusReporter(nil).Status(context.Background(), job, store, nil, statusStart)
			require.NoError(t, err)

			if tt.want {
				assert.Equal(t, 17, status["output_slices"])
			} else {
				assert.NotContains(t, status, "output_slices")
			}
		})
	}
}

func TestStatusReporter_NeverContainsResult(t *testing.T) {
	base := map[string]any{"result": "not a scalar", "id": "j-1"}

	for _, state := range []JobState{JobStateQueued, JobStateRunning, JobStatePaused, JobStateFailed, JobStateCompleted, JobStateAborted} {
		job := newStatusJob(state, SubStateNone, DefaultJobConfig(), nil, "", statusStart, statusStart)
		store := newStubStore()

		status, err := NewStatusReporter(nil).Status(context.Background(), job, store, base, statusStart)
		require.NoError(t, err)

		assert.NotContains(t, status, "result", "state %s", state)
		assert.Equal(t, "j-1", status["id"])
	}

	// The caller's base mapping is never mutated.
	assert.Equal(t, "not a scalar", base["result"])
}

func TestStatusReporter_WorkerNameRemovedOnlyWhileProcessing(t *testing.T) {
	tests := []struct {
		name     string
		state    JobState
		subState SubState
		want     bool
	}{
		{name: "processing hides the single name", state: JobStateRunning, subState: SubStateProcessing, want: false},
		{name: "pre-hook keeps it", state: JobStateRunning, subState: SubStateBefore, want: true},
		{name: "post-hook keeps it", state: JobStateRunning, subState: SubStateAfter, want: true},
		{name: "queued keeps it", state: JobStateQueued, subState: SubStateNone, want: true},
		{name: "completed keeps it", state: JobStateCompleted, subState: SubStateNone, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := newStatusJob(tt.state, tt.subState, DefaultJobConfig(), nil, "worker-1", statusStart, statusStart)
			store := newStubStore()

			status, err := NewStatusReporter(nil).Status(
				context.Background(), job, store,
				map[string]any{"worker_name": "worker-1"},
				statusStart,
			)
			require.NoError(t, err)

			if tt.want {
				assert.Equal(t, "worker-1", status["worker_name"])
			} else {
				assert.NotContains(t, status, "worker_name")
			}
		})
	}
}

func TestStatusReporter_ComputedFieldsWinOnCollision(t *testing.T) {
	job := newStatusJob(JobStateQueued, SubStateNone, DefaultJobConfig(), nil, "", statusStart, time.Time{})
	store := newStubStore()
	store.input.queued = 12

	status, err := NewStatusReporter(nil).Status(
		context.Background(), job, store,
		map[string]any{"queued_slices": "stale upstream value"},
		statusStart,
	)
	require.NoError(t, err)

	assert.Equal(t, 12, status["queued_slices"])
}

func TestStatusReporter_StoreErrorPropagates(t *testing.T) {
	storeErr := errors.New("store unavailable")
	job := newStatusJob(JobStateQueued, SubStateNone, DefaultJobConfig(), nil, "", statusStart, time.Time{})
	store := newStubStore()
	store.input.err = storeErr

	_, err := NewStatusReporter(nil).Status(context.Background(), job, store, nil, statusStart)
	assert.ErrorIs(t, err, storeErr)
}
