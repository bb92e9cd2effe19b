package postgres

import (
	"context"
	"testing"

	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/batch-armada/internal/domain/batch"
	"github.com/ahrav/batch-armada/internal/infra/storage"
)

func setupSliceStoreTest(t *testing.T) (context.Context, *jobStore, *sliceStore, func()) {
	t.Helper()

	db, cleanup := storage.SetupTestContainer(t)
	jobs := NewJobStore(db, storage.NoOpTracer())
	slices := NewSliceStore(db, storage.NoOpTracer())
	ctx := context.Background()

	return ctx, jobs, slices, cleanup
}

// seedJob inserts a job row so the slice foreign key holds.
func seedJob(t *testing.T, ctx context.Context, jobs *jobStore) uuid.UUID {
	t.Helper()

	job := createTestJob(t, batch.DefaultJobConfig())
	require.NoError(t, jobs.CreateJob(ctx, job))
	return job.JobID()
}

func seedSlice(
	t *testing.T,
	ctx context.Context,
	slices *sliceStore,
	jobID uuid.UUID,
	category batch.SliceCategory,
) *batch.Slice {
	t.Helper()

	slice := batch.NewSlice(uuid.New(), jobID, category, 100)
	require.NoError(t, slices.CreateSlice(ctx, slice))
	return slice
}

func TestSliceStore_CreateAndGetSlice(t *testing.T) {
	t.Parallel()

	ctx, jobs, slices, cleanup := setupSliceStoreTest(t)
	defer cleanup()

	jobID := seedJob(t, ctx, jobs)
	slice := seedSlice(t, ctx, slices, jobID, batch.SliceCategoryInput)

	loaded, err := slices.GetSlice(ctx, slice.SliceID())
	require.NoError(t, err)

	assert.Equal(t, slice.SliceID(), loaded.SliceID())
	assert.Equal(t, jobID, loaded.JobID())
	assert.Equal(t, batch.SliceCategoryInput, loaded.Category())
	assert.Equal(t, batch.SliceStatusQueued, loaded.Status())
	assert.Equal(t, 100, loaded.Records())
	assert.Zero(t, loaded.RetryCount())
}

func TestSliceStore_GetSlice_NotFound(t *testing.T) {
	t.Parallel()

	ctx, _, slices, cleanup := setupSliceStoreTest(t)
	defer cleanup()

	_, err := slices.GetSlice(ctx, uuid.New())
	assert.ErrorIs(t, err, batch.ErrSliceNotFound)
}

func TestSliceStore_UpdateSlice_Lifecycle(t *testing.T) {
	t.Parallel()

	ctx, jobs, slices, cleanup := setupSliceStoreTest(t)
	defer cleanup()

	jobID := seedJob(t, ctx, jobs)
	slice := seedSlice(t, ctx, slices, jobID, batch.SliceCategoryInput)

	require.NoError(t, slice.Claim("worker-1"))
	require.NoError(t, slices.UpdateSlice(ctx, slice))

	loaded, err := slices.GetSlice(ctx, slice.SliceID())
	require.NoError(t, err)
	assert.Equal(t, batch.SliceStatusRunning, loaded.Status())
	assert.Equal(t, "worker-1", loaded.WorkerName())

	require.NoError(t, slice.Fail())
	require.NoError(t, slice.Requeue())
	require.NoError(t, slices.UpdateSlice(ctx, slice))

	loaded, err = slices.GetSlice(ctx, slice.SliceID())
	require.NoError(t, err)
	assert.Equal(t, batch.SliceStatusQueued, loaded.Status())
	assert.Equal(t, 1, loaded.RetryCount())
}

func TestSliceStore_UpdateSlice_NotFound(t *testing.T) {
	t.Parallel()

	ctx, jobs, slices, cleanup := setupSliceStoreTest(t)
	defer cleanup()

	jobID := seedJob(t, ctx, jobs)
	slice := batch.NewSlice(uuid.New(), jobID, batch.SliceCategoryInput, 100)

	err := slices.UpdateSlice(ctx, slice)
	assert.ErrorIs(t, err, batch.ErrSliceNotFound)
}

func TestSliceStore_CategoryCounts(t *testing.T) {
	t.Parallel()

	ctx, jobs, slices, cleanup := setupSliceStoreTest(t)
	defer cleanup()

	jobID := seedJob(t, ctx, jobs)
	otherJobID := seedJob(t, ctx, jobs)

	// 3 queued + 1 running + 1 failed input slices, 2 output slices.
	for i := 0; i < 3; i++ {
		seedSlice(t, ctx, slices, jobID, batch.SliceCategoryInput)
	}
	running := seedSlice(t, ctx, slices, jobID, batch.SliceCategoryInput)
	require.NoError(t, running.Claim("worker-1"))
	require.NoError(t, slices.UpdateSlice(ctx, running))

	failed := seedSlice(t, ctx, slices, jobID, batch.SliceCategoryInput)
	require.NoError(t, failed.Claim("worker-2"))
	require.NoError(t, failed.Fail())
	require.NoError(t, slices.UpdateSlice(ctx, failed))

	seedSlice(t, ctx, slices, jobID, batch.SliceCategoryOutput)
	seedSlice(t, ctx, slices, jobID, batch.SliceCategoryOutput)

	// Slices on another job must not leak into the counts.
	seedSlice(t, ctx, slices, otherJobID, batch.SliceCategoryInput)

	view := slices.SliceStore(jobID)

	total, err := view.Input().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	queued, err := view.Input().QueuedCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, queued)

	active, err := view.Input().RunningCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, active)

	failedCount, err := view.Input().FailedCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, failedCount)

	outputs, err := view.Output().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, outputs)
}

func TestSliceStore_RunningWorkers(t *testing.T) {
	t.Parallel()

	ctx, jobs, slices, cleanup := setupSliceStoreTest(t)
	defer cleanup()

	jobID := seedJob(t, ctx, jobs)

	for _, worker := range []string{"w1", "w2", "w1"} {
		slice := seedSlice(t, ctx, slices, jobID, batch.SliceCategoryInput)
		require.NoError(t, slice.Claim(worker))
		require.NoError(t, slices.UpdateSlice(ctx, slice))
	}

	// Output slices and queued input slices are excluded.
	seedSlice(t, ctx, slices, jobID, batch.SliceCategoryInput)
	outSlice := seedSlice(t, ctx, slices, jobID, batch.SliceCategoryOutput)
	require.NoError(t, outSlice.Claim("w9"))
	require.NoError(t, slices.UpdateSlice(ctx, outSlice))

	view := slices.SliceStore(jobID)

	workers, err := view.RunningWorkers(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"w1", "w2", "w1"}, workers)
}
