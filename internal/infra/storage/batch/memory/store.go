// Package memory provides an in-memory implementation of the batch job and
// slice stores. It is used by tests and local single-process runs; the
// production deployment uses the postgres adapter.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ahrav/batch-armada/internal/domain/batch"
)

// Store holds batch jobs and their slices in memory, guarded by a single
// read-write mutex. Slices are kept in insertion order so iteration-order
// semantics (worker name listings) match what a real store would produce.
type Store struct {
	mu     sync.RWMutex
	jobs   map[uuid.UUID]*batch.Job
	slices map[uuid.UUID][]*batch.Slice
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		jobs:   make(map[uuid.UUID]*batch.Job),
		slices: make(map[uuid.UUID][]*batch.Slice),
	}
}

// Ensure Store implements batch.JobRepository at compile time.
var _ batch.JobRepository = (*Store)(nil)

// CreateJob persists a new job's initial state.
func (s *Store) CreateJob(_ context.Context, job *batch.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.JobID()]; exists {
		return fmt.Errorf("job %s already exists", job.JobID())
	}
	s.jobs[job.JobID()] = job
	return nil
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(_ context.Context, jobID uuid.UUID) (*batch.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, batch.ErrJobNotFound
	}
	return job, nil
}

// UpdateJob persists the job's current state.
func (s *Store) UpdateJob(_ context.Context, job *batch.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.JobID()]; !ok {
		return batch.ErrJobNotFound
	}
	s.jobs[job.JobID()] = job
	return nil
}

// AddSlice appends a slice to its job's collection.
func (s *Store) AddSlice(slice *batch.Slice) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slices[slice.JobID()] = append(s.slices[slice.JobID()], slice)
}

// ClaimNextSlice claims the oldest queued input slice of the job for the
// given worker. Returns ErrSliceNotFound when nothing is queued.
func (s *Store) ClaimNextSlice(jobID uuid.UUID, workerName string) (*batch.Slice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, slice := range s.slices[jobID] {
		if slice.Category() == batch.SliceCategoryInput && slice.Status() == batch.SliceStatusQueued {
			if err := slice.Claim(workerName); err != nil {
				return nil, err
			}
			return slice, nil
		}
	}
	return nil, batch.ErrSliceNotFound
}

// CompleteSlice marks a running slice as successfully processed.
func (s *Store) CompleteSlice(jobID, sliceID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slice, err := s.findSlice(jobID, sliceID)
	if err != nil {
		return err
	}
	return slice.Complete()
}

// FailSlice marks a running slice as failed.
func (s *Store) FailSlice(jobID, sliceID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slice, err := s.findSlice(jobID, sliceID)
	if err != nil {
		return err
	}
	return slice.Fail()
}

// RequeueSlice returns a failed slice to the queue for another attempt.
func (s *Store) RequeueSlice(jobID, sliceID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slice, err := s.findSlice(jobID, sliceID)
	if err != nil {
		return err
	}
	return slice.Requeue()
}

// findSlice must be called with the lock held.
func (s *Store) findSlice(jobID, sliceID uuid.UUID) (*batch.Slice, error) {
	for _, slice := range s.slices[jobID] {
		if slice.SliceID() == sliceID {
			return slice, nil
		}
	}
	return nil, batch.ErrSliceNotFound
}

// SliceStore returns the read-only aggregate view over one job's slices.
func (s *Store) SliceStore(jobID uuid.UUID) batch.SliceStore {
	return &jobSliceView{store: s, jobID: jobID}
}

// jobSliceView implements batch.SliceStore scoped to a single job.
type jobSliceView struct {
	store *Store
	jobID uuid.UUID
}

func (v *jobSliceView) Input() batch.SliceCounter {
	return &categoryCounter{store: v.store, jobID: v.jobID, category: batch.SliceCategoryInput}
}

func (v *jobSliceView) Output() batch.SliceCounter {
	return &categoryCounter{store: v.store, jobID: v.jobID, category: batch.SliceCategoryOutput}
}

func (v *jobSliceView) RunningWorkers(context.Context) ([]string, error) {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()

	var names []string
	for _, slice := range v.store.slices[v.jobID] {
		if slice.Category() == batch.SliceCategoryInput && slice.Status() == batch.SliceStatusRunning {
			names = append(names, slice.WorkerName())
		}
	}
	return names, nil
}

// categoryCounter implements batch.SliceCounter for one category of a job's
// slices.
type categoryCounter struct {
	store    *Store
	jobID    uuid.UUID
	category batch.SliceCategory
}

func (c *categoryCounter) Count(context.Context) (int, error) {
	return c.countWhere(func(*batch.Slice) bool { return true }), nil
}

func (c *categoryCounter) QueuedCount(context.Context) (int, error) {
	return c.countWhere(func(s *batch.Slice) bool { return s.Status() == batch.SliceStatusQueued }), nil
}

func (c *categoryCounter) RunningCount(context.Context) (int, error) {
	return c.countWhere(func(s *batch.Slice) bool { return s.Status() == batch.SliceStatusRunning }), nil
}

func (c *categoryCounter) FailedCount(context.Context) (int, error) {
	return c.countWhere(func(s *batch.Slice) bool { return s.Status() == batch.SliceStatusFailed }), nil
}

func (c *categoryCounter) countWhere(match func(*batch.Slice) bool) int {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	count := 0
	for _, slice := range c.store.slices[c.jobID] {
		if slice.Category() == c.category && match(slice) {
			count++
		}
	}
	return count
}
