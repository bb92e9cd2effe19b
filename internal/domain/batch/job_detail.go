package batch

import (
	"time"

	"github.com/google/uuid"
)

// SliceCounts is a point-in-time aggregate of a job's input slices, gathered
// by the caller from independent SliceCounter queries. The counts need not be
// mutually consistent.
type SliceCounts struct {
	Total   int
	Queued  int
	Running int
	Failed  int
}

// JobDetail represents a comprehensive view of a batch job, including its
// current state, slice counts, and progress. It is designed to provide all
// the information needed by API consumers to understand a job's progress and
// characteristics.
type JobDetail struct {
	// Core job identifiers.
	ID       uuid.UUID
	State    JobState
	SubState SubState

	// Configuration.
	SliceSize      int
	RecordCount    *int
	UploadFileName string
	CollectOutput  bool
	Compressed     bool
	Encrypted      bool

	// Timing information.
	StartTime time.Time
	EndTime   *time.Time
	UpdatedAt time.Time

	// Slice progress metrics.
	TotalSlices     int
	QueuedSlices    int
	RunningSlices   int
	FailedSlices    int
	PercentComplete int
}

// NewJobDetailFromJob creates a JobDetail from a job, its input slice counts,
// and a pre-computed completion percentage. This factory method ensures
// consistent construction and property mapping.
func NewJobDetailFromJob(job *Job, counts SliceCounts, percent int) *JobDetail {
	var endTimePtr *time.Time
	if endTime, hasEndTime := job.EndTime(); hasEndTime {
		endTimePtr = &endTime
	}

	var recordCountPtr *int
	if recordCount, ok := job.RecordCount(); ok {
		recordCountPtr = &recordCount
	}

	return &JobDetail{
		ID:              job.JobID(),
		State:           job.State(),
		SubState:        job.SubState(),
		SliceSize:       job.SliceSize(),
		RecordCount:     recordCountPtr,
		UploadFileName:  job.UploadFileName(),
		CollectOutput:   job.CollectOutput(),
		Compressed:      job.Compressed(),
		Encrypted:       job.Encrypted(),
		StartTime:       job.StartTime(),
		EndTime:         endTimePtr,
		UpdatedAt:       job.GetTimeline().LastUpdate(),
		TotalSlices:     counts.Total,
		QueuedSlices:    counts.Queued,
		RunningSlices:   counts.Running,
		FailedSlices:    counts.Failed,
		PercentComplete: percent,
	}
}
