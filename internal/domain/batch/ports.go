package batch

import (
	"context"

	"github.com/google/uuid"
)

// SliceCounter exposes cheap aggregate queries over one category of a job's
// slices. Each call is an independent point query against concurrently
// mutated state; no atomicity across calls is assumed or required.
type SliceCounter interface {
	// Count returns the total number of slices in the category.
	Count(ctx context.Context) (int, error)

	// QueuedCount returns the number of slices waiting to be claimed.
	QueuedCount(ctx context.Context) (int, error)

	// RunningCount returns the number of slices currently being processed.
	RunningCount(ctx context.Context) (int, error)

	// FailedCount returns the number of slices in the failed state.
	FailedCount(ctx context.Context) (int, error)
}

// SliceStore is the consumed capability of the slice storage engine, scoped
// to a single job. The store is owned and mutated elsewhere; this core only
// performs best-effort read aggregation over it.
type SliceStore interface {
	// Input returns aggregate queries over the job's input slices.
	Input() SliceCounter

	// Output returns aggregate queries over the job's output slices.
	Output() SliceCounter

	// RunningWorkers returns the worker name of every input slice currently
	// being processed, in store iteration order. The order is not guaranteed
	// to be stable across calls, and names are not de-duplicated.
	RunningWorkers(ctx context.Context) ([]string, error)
}

// JobRepository defines the persistence requirements for batch jobs.
type JobRepository interface {
	// CreateJob persists a new job's initial state.
	CreateJob(ctx context.Context, job *Job) error

	// GetJob retrieves a job by ID.
	// Returns ErrJobNotFound if the job doesn't exist.
	GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error)

	// UpdateJob persists the job's current state.
	// Returns ErrJobNotFound if the job doesn't exist.
	UpdateJob(ctx context.Context, job *Job) error
}

// DurationFormatter renders a duration in seconds as a human-readable string
// for status payloads. Supplied by the presentation layer; a humanized
// default is available via HumanizeDuration.
type DurationFormatter func(seconds float64) string
