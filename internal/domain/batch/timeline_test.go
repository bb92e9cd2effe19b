package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeline_Elapsed(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	provider := &fakeTimeProvider{now: start}
	timeline := NewTimeline(provider)

	assert.Equal(t, time.Duration(0), timeline.Elapsed(start))
	assert.Equal(t, 90*time.Second, timeline.Elapsed(start.Add(90*time.Second)))
	assert.InDelta(t, 90.0, timeline.ElapsedSeconds(start.Add(90*time.Second)), 0.001)
}

func TestTimeline_ElapsedFrozenAfterCompletion(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	provider := &fakeTimeProvider{now: start}
	timeline := NewTimeline(provider)

	provider.now = start.Add(time.Hour)
	timeline.MarkCompleted()
	assert.True(t, timeline.IsCompleted())

	// Elapsed stops at completion time regardless of the observation instant.
	assert.Equal(t, time.Hour, timeline.Elapsed(start.Add(5*time.Hour)))
}

func TestTimeline_ElapsedNeverNegative(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	timeline := NewTimeline(&fakeTimeProvider{now: start})

	assert.Equal(t, time.Duration(0), timeline.Elapsed(start.Add(-time.Minute)))
}

func TestTimeline_MarkStarted(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	provider := &fakeTimeProvider{now: created}
	timeline := NewTimeline(provider)

	started := created.Add(10 * time.Minute)
	provider.now = started
	timeline.MarkStarted()

	assert.Equal(t, started, timeline.StartedAt())
	assert.Equal(t, started, timeline.LastUpdate())
}

func TestReconstructTimeline(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	timeline := ReconstructTimeline(start, end, end, new(realTimeProvider))

	assert.Equal(t, start, timeline.StartedAt())
	assert.Equal(t, end, timeline.CompletedAt())
	assert.True(t, timeline.IsCompleted())
	assert.Equal(t, 30*time.Minute, timeline.Elapsed(end.Add(time.Hour)))
}
