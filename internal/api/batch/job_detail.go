package batch

import (
	"time"

	batchDomain "github.com/ahrav/batch-armada/internal/domain/batch"
)

// JobDetail represents the API response for a batch job's details.
// It contains all the information needed to understand a job's progress and
// characteristics.
type JobDetail struct {
	// Core job identifiers.
	ID       string `json:"id"`
	State    string `json:"state"`
	SubState string `json:"sub_state"`

	// Configuration.
	SliceSize      int    `json:"slice_size"`
	RecordCount    *int   `json:"record_count,omitempty"`
	UploadFileName string `json:"upload_file_name,omitempty"`
	CollectOutput  bool   `json:"collect_output"`
	Compressed     bool   `json:"compressed"`
	Encrypted      bool   `json:"encrypted"`

	// Timing information.
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Slice progress metrics.
	TotalSlices     int `json:"total_slices"`
	QueuedSlices    int `json:"queued_slices"`
	RunningSlices   int `json:"running_slices"`
	FailedSlices    int `json:"failed_slices"`
	PercentComplete int `json:"percent_complete"`
}

// FromDomain creates an API JobDetail from a domain JobDetail.
// This mapper function ensures proper translation between domain model and
// API representation.
func FromDomain(domainJob *batchDomain.JobDetail) JobDetail {
	return JobDetail{
		ID:              domainJob.ID.String(),
		State:           domainJob.State.String(),
		SubState:        domainJob.SubState.String(),
		SliceSize:       domainJob.SliceSize,
		RecordCount:     domainJob.RecordCount,
		UploadFileName:  domainJob.UploadFileName,
		CollectOutput:   domainJob.CollectOutput,
		Compressed:      domainJob.Compressed,
		Encrypted:       domainJob.Encrypted,
		StartTime:       domainJob.StartTime,
		EndTime:         domainJob.EndTime,
		UpdatedAt:       domainJob.UpdatedAt,
		TotalSlices:     domainJob.TotalSlices,
		QueuedSlices:    domainJob.QueuedSlices,
		RunningSlices:   domainJob.RunningSlices,
		FailedSlices:    domainJob.FailedSlices,
		PercentComplete: domainJob.PercentComplete,
	}
}
