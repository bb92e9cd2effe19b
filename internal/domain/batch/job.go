package batch

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultSliceSize is the number of records a full slice nominally holds.
const DefaultSliceSize = 100

// JobConfig carries the user-supplied configuration for a batch job.
type JobConfig struct {
	// SliceSize is the nominal number of records per slice. Zero means
	// "use the default"; negative values are rejected.
	SliceSize int

	// CollectOutput controls whether worker output is collected into
	// output slices.
	CollectOutput bool

	// CollectNilOutput controls whether nil worker output is collected.
	// Only effective when CollectOutput is also set.
	CollectNilOutput bool

	// Compress controls whether slice payloads are compressed at rest.
	Compress bool

	// Encrypt controls whether slice payloads are encrypted at rest.
	Encrypt bool

	// UploadFileName records the name of the file the job's records were
	// uploaded from, when applicable.
	UploadFileName string
}

// DefaultJobConfig returns a JobConfig populated with the per-field defaults.
func DefaultJobConfig() JobConfig {
	return JobConfig{
		SliceSize:        DefaultSliceSize,
		CollectNilOutput: true,
	}
}

// Job coordinates and tracks a large batch of records split into many
// independently processed slices. It holds configuration plus the read-only
// lifecycle sub-state that the progress and status components observe.
// The outer state and sub-state are advanced by the external scheduler;
// the mutators here only validate those transitions.
type Job struct {
	jobID    uuid.UUID
	state    JobState
	subState SubState

	sliceSize        int
	recordCount      *int
	collectOutput    bool
	collectNilOutput bool
	compress         bool
	encrypt          bool
	uploadFileName   string
	workerName       string

	timeline *Timeline
}

// NewJob creates a new Job instance with the provided job ID and configuration.
func NewJob(jobID uuid.UUID, cfg JobConfig) (*Job, error) {
	if cfg.SliceSize < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSliceSize, cfg.SliceSize)
	}

	sliceSize := cfg.SliceSize
	if sliceSize == 0 {
		sliceSize = DefaultSliceSize
	}

	return &Job{
		jobID:            jobID,
		state:            JobStateQueued,
		subState:         SubStateNone,
		sliceSize:        sliceSize,
		collectOutput:    cfg.CollectOutput,
		collectNilOutput: cfg.CollectNilOutput,
		compress:         cfg.Compress,
		encrypt:          cfg.Encrypt,
		uploadFileName:   cfg.UploadFileName,
		timeline:         NewTimeline(new(realTimeProvider)),
	}, nil
}

// ReconstructJob creates a Job instance from stored fields, bypassing creation
// invariants. This should only be used by repositories when loading from the DB.
func ReconstructJob(
	jobID uuid.UUID,
	state JobState,
	subState SubState,
	cfg JobConfig,
	recordCount *int,
	workerName string,
	timeline *Timeline,
) *Job {
	return &Job{
		jobID:            jobID,
		state:            state,
		subState:         subState,
		sliceSize:        cfg.SliceSize,
		recordCount:      recordCount,
		collectOutput:    cfg.CollectOutput,
		collectNilOutput: cfg.CollectNilOutput,
		compress:         cfg.Compress,
		encrypt:          cfg.Encrypt,
		uploadFileName:   cfg.UploadFileName,
		workerName:       workerName,
		timeline:         timeline,
	}
}

// JobID returns the unique identifier for this batch job.
func (j *Job) JobID() uuid.UUID { return j.jobID }

// State returns the current lifecycle state of the batch job.
func (j *Job) State() JobState { return j.state }

// SubState returns the current running phase of the batch job.
// It is SubStateNone whenever the job is not running.
func (j *Job) SubState() SubState {
	if j.state != JobStateRunning {
		return SubStateNone
	}
	return j.subState
}

// SliceSize returns the nominal number of records per slice. Always positive.
func (j *Job) SliceSize() int { return j.sliceSize }

// RecordCount returns the final expected record count and whether it is known.
// A job whose records are still streaming in has no record count yet.
func (j *Job) RecordCount() (int, bool) {
	if j.recordCount == nil {
		return 0, false
	}
	return *j.recordCount, true
}

// UploadFileName returns the name of the uploaded input file, if any.
func (j *Job) UploadFileName() string { return j.uploadFileName }

// WorkerName returns the worker executing the job's single-threaded phases.
// Only meaningful while the sub-state is BEFORE or AFTER.
func (j *Job) WorkerName() string { return j.workerName }

// GetTimeline provides access to the job's timeline information.
func (j *Job) GetTimeline() *Timeline { return j.timeline }

// StartTime returns when this batch job began executing.
func (j *Job) StartTime() time.Time { return j.timeline.StartedAt() }

// EndTime returns when this batch job finished.
// A job only has an end time if it's in a terminal state or failed.
func (j *Job) EndTime() (time.Time, bool) {
	if j.state == JobStateCompleted || j.state == JobStateFailed || j.state == JobStateAborted {
		return j.timeline.CompletedAt(), true
	}
	return time.Time{}, false
}

// Encrypted reports whether slice payloads are encrypted at rest.
func (j *Job) Encrypted() bool { return j.encrypt }

// Compressed reports whether slice payloads are compressed at rest.
func (j *Job) Compressed() bool { return j.compress }

// CollectOutput reports whether worker output is collected into output slices.
func (j *Job) CollectOutput() bool { return j.collectOutput }

// CollectNilOutput reports whether nil worker output is collected.
// It is false whenever output collection itself is disabled, regardless of
// the stored flag value.
func (j *Job) CollectNilOutput() bool { return j.collectOutput && j.collectNilOutput }

// SetRecordCount records the final expected record count for the job. It is
// set once by the upload/ingestion path when the total becomes known; any
// later attempt fails with ErrRecordCountAlreadySet.
func (j *Job) SetRecordCount(count int) error {
	if j.recordCount != nil {
		return fmt.Errorf("%w: %d", ErrRecordCountAlreadySet, *j.recordCount)
	}
	j.recordCount = &count
	j.timeline.UpdateLastUpdate()
	return nil
}

// SetWorkerName records the worker executing the job's single-threaded phases.
// Called by the external scheduler when it claims the job's pre/post hooks.
func (j *Job) SetWorkerName(name string) {
	j.workerName = name
	j.timeline.UpdateLastUpdate()
}

// UpdateState changes the job's lifecycle state after validating the
// transition. Called by the external scheduler; this core never initiates
// state changes on its own. Leaving the running state clears the sub-state.
func (j *Job) UpdateState(newState JobState) error {
	if err := j.state.ValidateTransition(newState); err != nil {
		return err
	}

	// Mark the start time when the job begins actual execution.
	if j.state == JobStateQueued && newState == JobStateRunning {
		j.timeline.MarkStarted()
	}

	// Mark completion time when transitioning to a terminal or failed state.
	if newState == JobStateCompleted || newState == JobStateFailed || newState == JobStateAborted {
		j.timeline.MarkCompleted()
	}

	if newState != JobStateRunning {
		j.subState = SubStateNone
	}

	j.state = newState
	j.timeline.UpdateLastUpdate()
	return nil
}

// UpdateSubState advances the job's running phase after validating the
// transition. Only valid while the job is running.
func (j *Job) UpdateSubState(newSubState SubState) error {
	if j.state != JobStateRunning {
		return fmt.Errorf("cannot set sub-state %s: job is not running (current state: %s)", newSubState, j.state)
	}
	if err := j.subState.ValidateTransition(newSubState); err != nil {
		return err
	}

	j.subState = newSubState
	j.timeline.UpdateLastUpdate()
	return nil
}

// ConfigForRestart returns the user-supplied configuration to carry forward
// when the external restart routine creates a fresh run of this job. Runtime
// state (record count, worker name, timeline) deliberately does not survive
// a restart.
func (j *Job) ConfigForRestart() JobConfig {
	return JobConfig{
		SliceSize:        j.sliceSize,
		CollectOutput:    j.collectOutput,
		CollectNilOutput: j.collectNilOutput,
		Compress:         j.compress,
		Encrypt:          j.encrypt,
		UploadFileName:   j.uploadFileName,
	}
}
