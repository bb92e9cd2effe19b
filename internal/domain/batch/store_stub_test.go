package batch

import (
	"context"
	"sync"
)

// stubCounter implements SliceCounter with canned values, tracking how many
// queries were issued. Safe for concurrent use so cache tests can hammer it.
type stubCounter struct {
	mu      sync.Mutex
	total   int
	queued  int
	running int
	failed  int
	err     error

	calls int
}

func (c *stubCounter) record() {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *stubCounter) Count(context.Context) (int, error) {
	c.record()
	return c.total, c.err
}

func (c *stubCounter) QueuedCount(context.Context) (int, error) {
	c.record()
	return c.queued, c.err
}

func (c *stubCounter) RunningCount(context.Context) (int, error) {
	c.record()
	return c.running, c.err
}

func (c *stubCounter) FailedCount(context.Context) (int, error) {
	c.record()
	return c.failed, c.err
}

// stubStore implements SliceStore with canned values.
type stubStore struct {
	input      *stubCounter
	output     *stubCounter
	workers    []string
	workersErr error
}

func newStubStore() *stubStore {
	return &stubStore{input: new(stubCounter), output: new(stubCounter)}
}

func (s *stubStore) Input() SliceCounter  { return s.input }
func (s *stubStore) Output() SliceCounter { return s.output }

func (s *stubStore) RunningWorkers(context.Context) ([]string, error) {
	return s.workers, s.workersErr
}
