package batch

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	domain "github.com/ahrav/batch-armada/internal/domain/batch"
)

// mockJobRepository implements domain.JobRepository for testing.
type mockJobRepository struct{ mock.Mock }

func (m *mockJobRepository) CreateJob(ctx context.Context, job *domain.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *mockJobRepository) GetJob(ctx context.Context, jobID uuid.UUID) (*domain.Job, error) {
	args := m.Called(ctx, jobID)
	if job := args.Get(0); job != nil {
		return job.(*domain.Job), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockJobRepository) UpdateJob(ctx context.Context, job *domain.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// mockSliceCounter implements domain.SliceCounter for testing.
type mockSliceCounter struct{ mock.Mock }

func (m *mockSliceCounter) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockSliceCounter) QueuedCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockSliceCounter) RunningCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockSliceCounter) FailedCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// mockSliceStore implements domain.SliceStore for testing.
type mockSliceStore struct {
	input   *mockSliceCounter
	output  *mockSliceCounter
	workers mock.Mock
}

func newMockSliceStore() *mockSliceStore {
	return &mockSliceStore{input: new(mockSliceCounter), output: new(mockSliceCounter)}
}

func (m *mockSliceStore) Input() domain.SliceCounter  { return m.input }
func (m *mockSliceStore) Output() domain.SliceCounter { return m.output }

func (m *mockSliceStore) RunningWorkers(ctx context.Context) ([]string, error) {
	args := m.workers.Called(ctx)
	if names := args.Get(0); names != nil {
		return names.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

// staticStoreProvider hands back the same store view for every job.
type staticStoreProvider struct{ store domain.SliceStore }

func (p *staticStoreProvider) SliceStore(uuid.UUID) domain.SliceStore { return p.store }
