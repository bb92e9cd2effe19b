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

var defaultDBAttributes = []attribute.KeyValue{
	attribute.String("db.system", "postgresql"),
}

// Ensure jobStore satisfies batch.JobRepository (compile-time check).
var _ batch.JobRepository = (*jobStore)(nil)

// jobStore implements batch.JobRepository using Postgres. It persists the
// job's lifecycle state, configuration, and timeline so the status layer can
// reconstruct the full domain entity on read.
type jobStore struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// NewJobStore creates a JobRepository backed by PostgreSQL.
func NewJobStore(pool *pgxpool.Pool, tracer trace.Tracer) *jobStore {
	return &jobStore{pool: pool, tracer: tracer}
}

const createJobQuery = `
INSERT INTO batch_jobs (
	job_id, state, sub_state, slice_size, record_count,
	collect_output, collect_nil_output, compress, encrypt,
	upload_file_name, worker_name, started_at, completed_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
`

// CreateJob persists a new job's initial state.
func (s *jobStore) CreateJob(ctx context.Context, job *batch.Job) error {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("job_id", job.JobID().String()),
		attribute.String("state", string(job.State())),
	)

	return storage.ExecuteAndTrace(ctx, s.tracer, "postgres.batch.create_job", dbAttrs, func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, createJobQuery, jobRowArgs(job)...)
		if err != nil {
			return fmt.Errorf("CreateJob insert error: %w", err)
		}
		return nil
	})
}

const getJobQuery = `
SELECT state, sub_state, slice_size, record_count,
	collect_output, collect_nil_output, compress, encrypt,
	upload_file_name, worker_name, started_at, completed_at, updated_at
FROM batch_jobs
WHERE job_id = $1
`

// GetJob retrieves a job's current state and reconstructs the domain entity.
func (s *jobStore) GetJob(ctx context.Context, jobID uuid.UUID) (*batch.Job, error) {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("job_id", jobID.String()),
	)

	var domainJob *batch.Job

	err := storage.ExecuteAndTrace(ctx, s.tracer, "postgres.batch.get_job", dbAttrs, func(ctx context.Context) error {
		var (
			state, subState            string
			sliceSize                  int
			recordCount                pgtype.Int8
			collectOutput              bool
			collectNilOutput           bool
			compress, encrypt          bool
			uploadFileName, workerName string
			startedAt, updatedAt       pgtype.Timestamptz
			completedAt                pgtype.Timestamptz
		)

		row := s.pool.QueryRow(ctx, getJobQuery, pgtype.UUID{Bytes: jobID, Valid: true})
		err := row.Scan(
			&state, &subState, &sliceSize, &recordCount,
			&collectOutput, &collectNilOutput, &compress, &encrypt,
			&uploadFileName, &workerName, &startedAt, &completedAt, &updatedAt,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("GetJob query error: %w", err)
		}

		var rc *int
		if recordCount.Valid {
			v := int(recordCount.Int64)
			rc = &v
		}

		timeline := batch.ReconstructTimeline(startedAt.Time, completedAt.Time, updatedAt.Time, nil)
		domainJob = batch.ReconstructJob(
			jobID,
			batch.ParseJobState(state),
			batch.ParseSubState(subState),
			batch.JobConfig{
				SliceSize:        sliceSize,
				CollectOutput:    collectOutput,
				CollectNilOutput: collectNilOutput,
				Compress:         compress,
				Encrypt:          encrypt,
				UploadFileName:   uploadFileName,
			},
			rc,
			workerName,
			timeline,
		)
		return nil
	})

	if err != nil {
		return nil, err
	}
	if domainJob == nil {
		return nil, batch.ErrJobNotFound
	}
	return domainJob, nil
}

const updateJobQuery = `
UPDATE batch_jobs
SET state = $2, sub_state = $3, slice_size = $4, record_count = $5,
	collect_output = $6, collect_nil_output = $7, compress = $8, encrypt = $9,
	upload_file_name = $10, worker_name = $11,
	started_at = $12, completed_at = $13, updated_at = $14
WHERE job_id = $1
`

// UpdateJob persists changes to an existing job's state.
func (s *jobStore) UpdateJob(ctx context.Context, job *batch.Job) error {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("job_id", job.JobID().String()),
		attribute.String("state", string(job.State())),
		attribute.String("sub_state", string(job.SubState())),
	)

	return storage.ExecuteAndTrace(ctx, s.tracer, "postgres.batch.update_job", dbAttrs, func(ctx context.Context) error {
		tag, err := s.pool.Exec(ctx, updateJobQuery, jobRowArgs(job)...)
		if err != nil {
			return fmt.Errorf("UpdateJob update error: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return batch.ErrJobNotFound
		}
		return nil
	})
}

// jobRowArgs flattens a job into the positional arguments shared by the
// insert and update statements.
func jobRowArgs(job *batch.Job) []any {
	var recordCount pgtype.Int8
	if rc, ok := job.RecordCount(); ok {
		recordCount = pgtype.Int8{Int64: int64(rc), Valid: true}
	}

	var completedAt pgtype.Timestamptz
	if end, ok := job.EndTime(); ok {
		completedAt = pgtype.Timestamptz{Time: end, Valid: true}
	}

	cfg := job.ConfigForRestart()
	timeline := job.GetTimeline()

	return []any{
		pgtype.UUID{Bytes: job.JobID(), Valid: true},
		string(job.State()),
		string(job.SubState()),
		cfg.SliceSize,
		recordCount,
		cfg.CollectOutput,
		cfg.CollectNilOutput,
		cfg.Compress,
		cfg.Encrypt,
		cfg.UploadFileName,
		job.WorkerName(),
		pgtype.Timestamptz{Time: timeline.StartedAt(), Valid: true},
		completedAt,
		pgtype.Timestamptz{Time: timeline.LastUpdate(), Valid: true},
	}
}
