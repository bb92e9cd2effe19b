package batch

import "time"

// TimeProvider is an interface that provides a Now method to get the current time.
type TimeProvider interface {
	Now() time.Time
}

// Real implementation for production.
type realTimeProvider struct{}

func (r *realTimeProvider) Now() time.Time { return time.Now() }

// Timeline tracks temporal aspects of batch jobs.
type Timeline struct {
	startedAt    time.Time
	completedAt  time.Time
	lastUpdate   time.Time
	timeProvider TimeProvider
}

// NewTimeline creates a new Timeline instance.
func NewTimeline(timeProvider TimeProvider) *Timeline {
	now := timeProvider.Now()
	return &Timeline{
		startedAt:    now,
		lastUpdate:   now,
		timeProvider: timeProvider,
	}
}

// ReconstructTimeline creates a Timeline from stored timestamps, bypassing
// creation behavior. This should only be used by repositories when loading
// from the DB. A nil timeProvider falls back to the wall clock.
func ReconstructTimeline(startedAt, completedAt, lastUpdate time.Time, timeProvider TimeProvider) *Timeline {
	if timeProvider == nil {
		timeProvider = new(realTimeProvider)
	}
	return &Timeline{
		startedAt:    startedAt,
		completedAt:  completedAt,
		lastUpdate:   lastUpdate,
		timeProvider: timeProvider,
	}
}

// StartedAt returns the time the batch job started.
func (t *Timeline) StartedAt() time.Time { return t.startedAt }

// CompletedAt returns the time the batch job completed.
func (t *Timeline) CompletedAt() time.Time { return t.completedAt }

// LastUpdate returns the time the batch job was last updated.
func (t *Timeline) LastUpdate() time.Time { return t.lastUpdate }

// MarkStarted records the start of actual job execution.
func (t *Timeline) MarkStarted() {
	t.startedAt = t.timeProvider.Now()
	t.UpdateLastUpdate()
}

// MarkCompleted records completion time.
func (t *Timeline) MarkCompleted() {
	t.completedAt = t.timeProvider.Now()
	t.UpdateLastUpdate()
}

// UpdateLastUpdate updates the last update timestamp.
func (t *Timeline) UpdateLastUpdate() {
	t.lastUpdate = t.timeProvider.Now()
}

// IsCompleted checks if the timeline has been marked as completed.
func (t *Timeline) IsCompleted() bool { return !t.completedAt.IsZero() }

// Elapsed returns how long the job has been executing as of the provided
// instant. Once the timeline is marked completed, the duration is frozen at
// completion time. Never negative.
func (t *Timeline) Elapsed(now time.Time) time.Duration {
	end := now
	if t.IsCompleted() {
		end = t.completedAt
	}

	elapsed := end.Sub(t.startedAt)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// ElapsedSeconds returns Elapsed as fractional seconds.
func (t *Timeline) ElapsedSeconds(now time.Time) float64 {
	return t.Elapsed(now).Seconds()
}
