package batch

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SliceCategory distinguishes input slices (work to process) from output
// slices (collected results).
type SliceCategory string

const (
	// SliceCategoryInput identifies slices holding records to process.
	SliceCategoryInput SliceCategory = "INPUT"

	// SliceCategoryOutput identifies slices holding collected worker output.
	SliceCategoryOutput SliceCategory = "OUTPUT"
)

func (c SliceCategory) String() string { return string(c) }

// SliceStatus represents the processing state of an individual slice.
type SliceStatus string

const (
	// SliceStatusQueued indicates a slice is waiting to be claimed by a worker.
	SliceStatusQueued SliceStatus = "QUEUED"

	// SliceStatusRunning indicates a worker has claimed the slice and is processing it.
	SliceStatusRunning SliceStatus = "RUNNING"

	// SliceStatusFailed indicates processing failed and the slice awaits retry or triage.
	SliceStatusFailed SliceStatus = "FAILED"

	// SliceStatusCompleted indicates the slice finished successfully.
	SliceStatusCompleted SliceStatus = "COMPLETED"
)

func (s SliceStatus) String() string { return string(s) }

// ParseSliceStatus converts a string to a SliceStatus.
func ParseSliceStatus(s string) SliceStatus {
	switch s {
	case "QUEUED":
		return SliceStatusQueued
	case "RUNNING":
		return SliceStatusRunning
	case "FAILED":
		return SliceStatusFailed
	case "COMPLETED":
		return SliceStatusCompleted
	default:
		return "" // represents unspecified
	}
}

// Slice is a bounded unit of work within a batch job: nominally SliceSize
// records, queued, claimed, processed, and retried independently of every
// other slice.
type Slice struct {
	sliceID    uuid.UUID
	jobID      uuid.UUID
	category   SliceCategory
	status     SliceStatus
	workerName string
	records    int
	retryCount int
	createdAt  time.Time
	updatedAt  time.Time
}

// NewSlice creates a queued slice for the given job and category.
func NewSlice(sliceID, jobID uuid.UUID, category SliceCategory, records int) *Slice {
	now := time.Now()
	return &Slice{
		sliceID:   sliceID,
		jobID:     jobID,
		category:  category,
		status:    SliceStatusQueued,
		records:   records,
		createdAt: now,
		updatedAt: now,
	}
}

// ReconstructSlice creates a Slice from stored fields, bypassing creation
// invariants. This should only be used by repositories when loading from the DB.
func ReconstructSlice(
	sliceID, jobID uuid.UUID,
	category SliceCategory,
	status SliceStatus,
	workerName string,
	records, retryCount int,
	createdAt, updatedAt time.Time,
) *Slice {
	return &Slice{
		sliceID:    sliceID,
		jobID:      jobID,
		category:   category,
		status:     status,
		workerName: workerName,
		records:    records,
		retryCount: retryCount,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// SliceID returns the unique identifier for this slice.
func (s *Slice) SliceID() uuid.UUID { return s.sliceID }

// JobID returns the job this slice belongs to.
func (s *Slice) JobID() uuid.UUID { return s.jobID }

// Category returns whether this is an input or output slice.
func (s *Slice) Category() SliceCategory { return s.category }

// Status returns the current processing state of the slice.
func (s *Slice) Status() SliceStatus { return s.status }

// WorkerName returns the worker currently or last processing this slice.
func (s *Slice) WorkerName() string { return s.workerName }

// Records returns the number of records held by this slice.
func (s *Slice) Records() int { return s.records }

// RetryCount returns how many times processing of this slice has been retried.
func (s *Slice) RetryCount() int { return s.retryCount }

// CreatedAt returns when this slice was created.
func (s *Slice) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns when this slice last changed state.
func (s *Slice) UpdatedAt() time.Time { return s.updatedAt }

// Claim marks the slice as running under the given worker.
func (s *Slice) Claim(workerName string) error {
	if s.status != SliceStatusQueued {
		return fmt.Errorf("cannot claim slice in status %s", s.status)
	}
	s.status = SliceStatusRunning
	s.workerName = workerName
	s.updatedAt = time.Now()
	return nil
}

// Complete marks the slice as successfully processed.
func (s *Slice) Complete() error {
	if s.status != SliceStatusRunning {
		return fmt.Errorf("cannot complete slice in status %s", s.status)
	}
	s.status = SliceStatusCompleted
	s.updatedAt = time.Now()
	return nil
}

// Fail marks the slice as failed.
func (s *Slice) Fail() error {
	if s.status != SliceStatusRunning {
		return fmt.Errorf("cannot fail slice in status %s", s.status)
	}
	s.status = SliceStatusFailed
	s.updatedAt = time.Now()
	return nil
}

// Requeue returns a failed slice to the queue for another attempt.
func (s *Slice) Requeue() error {
	if s.status != SliceStatusFailed {
		return fmt.Errorf("cannot requeue slice in status %s", s.status)
	}
	s.status = SliceStatusQueued
	s.workerName = ""
	s.retryCount++
	s.updatedAt = time.Now()
	return nil
}
