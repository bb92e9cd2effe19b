package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/batch-armada/internal/domain/batch"
	"github.com/ahrav/batch-armada/internal/infra/storage"
)

// sliceStore persists batch slices in Postgres and serves the per-job
// aggregate views the status layer reads. Counts are point-in-time COUNT
// queries; no snapshot consistency is attempted across calls.
type sliceStore struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// NewSliceStore creates a slice store backed by PostgreSQL.
func NewSliceStore(pool *pgxpool.Pool, tracer trace.Tracer) *sliceStore {
	return &sliceStore{pool: pool, tracer: tracer}
}

const createSliceQuery = `
INSERT INTO batch_slices (
	slice_id, job_id, category, status, worker_name,
	records, retry_count, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

// CreateSlice persists a new slice.
func (s *sliceStore) CreateSlice(ctx context.Context, slice *batch.Slice) error {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("slice_id", slice.SliceID().String()),
		attribute.String("job_id", slice.JobID().String()),
		attribute.String("category", string(slice.Category())),
	)

	return storage.ExecuteAndTrace(ctx, s.tracer, "postgres.batch.create_slice", dbAttrs, func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, createSliceQuery,
			pgtype.UUID{Bytes: slice.SliceID(), Valid: true},
			pgtype.UUID{Bytes: slice.JobID(), Valid: true},
			string(slice.Category()),
			string(slice.Status()),
			slice.WorkerName(),
			slice.Records(),
			slice.RetryCount(),
			pgtype.Timestamptz{Time: slice.CreatedAt(), Valid: true},
			pgtype.Timestamptz{Time: slice.UpdatedAt(), Valid: true},
		)
		if err != nil {
			return fmt.Errorf("CreateSlice insert error: %w", err)
		}
		return nil
	})
}

const updateSliceQuery = `
UPDATE batch_slices
SET status = $2, worker_name = $3, retry_count = $4, updated_at = $5
WHERE slice_id = $1
`

// UpdateSlice persists a slice's processing state after a lifecycle
// transition (claim, complete, fail, requeue).
func (s *sliceStore) UpdateSlice(ctx context.Context, slice *batch.Slice) error {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("slice_id", slice.SliceID().String()),
		attribute.String("status", string(slice.Status())),
	)

	return storage.ExecuteAndTrace(ctx, s.tracer, "postgres.batch.update_slice", dbAttrs, func(ctx context.Context) error {
		tag, err := s.pool.Exec(ctx, updateSliceQuery,
			pgtype.UUID{Bytes: slice.SliceID(), Valid: true},
			string(slice.Status()),
			slice.WorkerName(),
			slice.RetryCount(),
			pgtype.Timestamptz{Time: slice.UpdatedAt(), Valid: true},
		)
		if err != nil {
			return fmt.Errorf("UpdateSlice update error: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return batch.ErrSliceNotFound
		}
		return nil
	})
}

const getSliceQuery = `
SELECT job_id, category, status, worker_name, records, retry_count, created_at, updated_at
FROM batch_slices
WHERE slice_id = $1
`

// GetSlice retrieves a slice by ID.
func (s *sliceStore) GetSlice(ctx context.Context, sliceID uuid.UUID) (*batch.Slice, error) {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("slice_id", sliceID.String()),
	)

	var domainSlice *batch.Slice

	err := storage.ExecuteAndTrace(ctx, s.tracer, "postgres.batch.get_slice", dbAttrs, func(ctx context.Context) error {
		var (
			jobID                pgtype.UUID
			category, status     string
			workerName           string
			records, retryCount  int
			createdAt, updatedAt pgtype.Timestamptz
		)

		row := s.pool.QueryRow(ctx, getSliceQuery, pgtype.UUID{Bytes: sliceID, Valid: true})
		err := row.Scan(&jobID, &category, &status, &workerName, &records, &retryCount, &createdAt, &updatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("GetSlice query error: %w", err)
		}

		domainSlice = batch.ReconstructSlice(
			sliceID,
			jobID.Bytes,
			batch.SliceCategory(category),
			batch.ParseSliceStatus(status),
			workerName,
			records,
			retryCount,
			createdAt.Time,
			updatedAt.Time,
		)
		return nil
	})

	if err != nil {
		return nil, err
	}
	if domainSlice == nil {
		return nil, batch.ErrSliceNotFound
	}
	return domainSlice, nil
}

// SliceStore returns the read-side aggregate view over one job's slices.
func (s *sliceStore) SliceStore(jobID uuid.UUID) batch.SliceStore {
	return &jobSliceView{store: s, jobID: jobID}
}

// Ensure jobSliceView satisfies batch.SliceStore (compile-time check).
var _ batch.SliceStore = (*jobSliceView)(nil)

// jobSliceView scopes aggregate slice queries to a single job.
type jobSliceView struct {
	store *sliceStore
	jobID uuid.UUID
}

func (v *jobSliceView) Input() batch.SliceCounter {
	return &categoryCounter{store: v.store, jobID: v.jobID, category: batch.SliceCategoryInput}
}

func (v *jobSliceView) Output() batch.SliceCounter {
	return &categoryCounter{store: v.store, jobID: v.jobID, category: batch.SliceCategoryOutput}
}

const runningWorkersQuery = `
SELECT worker_name
FROM batch_slices
WHERE job_id = $1 AND category = $2 AND status = $3
`

// RunningWorkers returns the worker name of every input slice currently
// being processed. Names are not de-duplicated and no ordering is imposed.
func (v *jobSliceView) RunningWorkers(ctx context.Context) ([]string, error) {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("job_id", v.jobID.String()),
	)

	var workers []string

	err := storage.ExecuteAndTrace(ctx, v.store.tracer, "postgres.batch.running_workers", dbAttrs, func(ctx context.Context) error {
		rows, err := v.store.pool.Query(ctx, runningWorkersQuery,
			pgtype.UUID{Bytes: v.jobID, Valid: true},
			string(batch.SliceCategoryInput),
			string(batch.SliceStatusRunning),
		)
		if err != nil {
			return fmt.Errorf("RunningWorkers query error: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return fmt.Errorf("RunningWorkers scan error: %w", err)
			}
			workers = append(workers, name)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return workers, nil
}

// Ensure categoryCounter satisfies batch.SliceCounter (compile-time check).
var _ batch.SliceCounter = (*categoryCounter)(nil)

// categoryCounter answers aggregate count queries for one category of one
// job's slices.
type categoryCounter struct {
	store    *sliceStore
	jobID    uuid.UUID
	category batch.SliceCategory
}

const countSlicesQuery = `
SELECT COUNT(*) FROM batch_slices WHERE job_id = $1 AND category = $2
`

const countSlicesByStatusQuery = `
SELECT COUNT(*) FROM batch_slices WHERE job_id = $1 AND category = $2 AND status = $3
`

func (c *categoryCounter) Count(ctx context.Context) (int, error) {
	var count int
	err := storage.ExecuteAndTrace(ctx, c.store.tracer, "postgres.batch.count_slices", c.attrs(), func(ctx context.Context) error {
		row := c.store.pool.QueryRow(ctx, countSlicesQuery,
			pgtype.UUID{Bytes: c.jobID, Valid: true},
			string(c.category),
		)
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("Count query error: %w", err)
		}
		return nil
	})
	return count, err
}

func (c *categoryCounter) QueuedCount(ctx context.Context) (int, error) {
	return c.countByStatus(ctx, batch.SliceStatusQueued)
}

func (c *categoryCounter) RunningCount(ctx context.Context) (int, error) {
	return c.countByStatus(ctx, batch.SliceStatusRunning)
}

func (c *categoryCounter) FailedCount(ctx context.Context) (int, error) {
	return c.countByStatus(ctx, batch.SliceStatusFailed)
}

func (c *categoryCounter) countByStatus(ctx context.Context, status batch.SliceStatus) (int, error) {
	dbAttrs := append(c.attrs(), attribute.String("status", string(status)))

	var count int
	err := storage.ExecuteAndTrace(ctx, c.store.tracer, "postgres.batch.count_slices_by_status", dbAttrs, func(ctx context.Context) error {
		row := c.store.pool.QueryRow(ctx, countSlicesByStatusQuery,
			pgtype.UUID{Bytes: c.jobID, Valid: true},
			string(c.category),
			string(status),
		)
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("countByStatus query error: %w", err)
		}
		return nil
	})
	return count, err
}

func (c *categoryCounter) attrs() []attribute.KeyValue {
	return append(
		defaultDBAttributes,
		attribute.String("job_id", c.jobID.String()),
		attribute.String("category", string(c.category)),
	)
}
