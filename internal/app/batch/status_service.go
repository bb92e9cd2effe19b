package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domain "github.com/ahrav/batch-armada/internal/domain/batch"
	"github.com/ahrav/batch-armada/pkg/common/logger"
)

// SliceStoreProvider resolves the slice store view for a specific job.
// Implemented by the storage adapters; each returned view is scoped to the
// given job's slices.
type SliceStoreProvider interface {
	SliceStore(jobID uuid.UUID) domain.SliceStore
}

// StatusService exposes best-effort progress and status reporting for batch
// jobs to the presentation layers (API, CLI, dashboards). All operations are
// synchronous reads over externally mutated slice collections; the only state
// owned here is the per-job worker-count cache.
type StatusService interface {
	// PercentComplete estimates the job's completion as an integer in [0, 100].
	PercentComplete(ctx context.Context, jobID uuid.UUID) (int, error)

	// Status composes a point-in-time status snapshot for the job, merging
	// the externally supplied base mapping. Computed fields win on key
	// collision.
	Status(ctx context.Context, jobID uuid.UUID, base map[string]any) (map[string]any, error)

	// WorkerCount reports how many workers are active on the job, memoized
	// with a 1-second TTL per job.
	WorkerCount(ctx context.Context, jobID uuid.UUID) (int, error)

	// WorkerNames reports the identities of the workers active on the job.
	WorkerNames(ctx context.Context, jobID uuid.UUID) ([]string, error)

	// JobDetail assembles a comprehensive read-model of the job for API
	// consumers.
	JobDetail(ctx context.Context, jobID uuid.UUID) (*domain.JobDetail, error)
}

// statusService implements StatusService by composing the domain's progress
// components over a job repository and per-job slice store views.
type statusService struct {
	jobs           domain.JobRepository
	slices         SliceStoreProvider
	formatDuration domain.DurationFormatter
	logger         *logger.Logger
	tracer         trace.Tracer

	// reporters holds one StatusReporter per observed job so the 1-second
	// worker-count memoization is shared across all callers polling the
	// same job.
	mu        sync.Mutex
	reporters map[uuid.UUID]*domain.StatusReporter
}

// NewStatusService creates a StatusService with the provided dependencies.
// A nil formatDuration falls back to the humanized default.
func NewStatusService(
	jobs domain.JobRepository,
	slices SliceStoreProvider,
	formatDuration domain.DurationFormatter,
	logger *logger.Logger,
	tracer trace.Tracer,
) StatusService {
	return &statusService{
		jobs:           jobs,
		slices:         slices,
		formatDuration: formatDuration,
		logger:         logger,
		tracer:         tracer,
		reporters:      make(map[uuid.UUID]*domain.StatusReporter),
	}
}

// reporterFor returns the job's status reporter, creating one on first use.
func (s *statusService) reporterFor(jobID uuid.UUID) *domain.StatusReporter {
	s.mu.Lock()
	defer s.mu.Unlock()

	reporter, ok := s.reporters[jobID]
	if !ok {
		reporter = domain.NewStatusReporter(s.formatDuration)
		s.reporters[jobID] = reporter
	}
	return reporter
}

func (s *statusService) PercentComplete(ctx context.Context, jobID uuid.UUID) (int, error) {
	ctx, span := s.tracer.Start(ctx, "status_service.batch.percent_complete",
		trace.WithAttributes(attribute.String("job_id", jobID.String())))
	defer span.End()

	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get job")
		return 0, fmt.Errorf("getting job: %w", err)
	}

	store := s.slices.SliceStore(jobID)
	percent, err := domain.PercentComplete(ctx, job, store.Input())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to estimate progress")
		return 0, fmt.Errorf("estimating progress: %w", err)
	}

	span.SetAttributes(attribute.Int("percent_complete", percent))
	return percent, nil
}

func (s *statusService) Status(ctx context.Context, jobID uuid.UUID, base map[string]any) (map[string]any, error) {
	ctx, span := s.tracer.Start(ctx, "status_service.batch.status",
		trace.WithAttributes(attribute.String("job_id", jobID.String())))
	defer span.End()

	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get job")
		return nil, fmt.Errorf("getting job: %w", err)
	}

	store := s.slices.SliceStore(jobID)
	status, err := s.reporterFor(jobID).Status(ctx, job, store, base, time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build status")
		return nil, fmt.Errorf("building status: %w", err)
	}

	span.SetAttributes(attribute.String("state", job.State().String()))
	return status, nil
}

func (s *statusService) WorkerCount(ctx context.Context, jobID uuid.UUID) (int, error) {
	ctx, span := s.tracer.Start(ctx, "status_service.batch.worker_count",
		trace.WithAttributes(attribute.String("job_id", jobID.String())))
	defer span.End()

	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get job")
		return 0, fmt.Errorf("getting job: %w", err)
	}

	store := s.slices.SliceStore(jobID)
	count, err := s.reporterFor(jobID).WorkerCount(ctx, job, store, time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to count workers")
		return 0, fmt.Errorf("counting workers: %w", err)
	}

	span.SetAttributes(attribute.Int("worker_count", count))
	return count, nil
}

func (s *statusService) WorkerNames(ctx context.Context, jobID uuid.UUID) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "status_service.batch.worker_names",
		trace.WithAttributes(attribute.String("job_id", jobID.String())))
	defer span.End()

	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get job")
		return nil, fmt.Errorf("getting job: %w", err)
	}

	store := s.slices.SliceStore(jobID)
	names, err := domain.WorkerNames(ctx, job, store)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list workers")
		return nil, fmt.Errorf("listing workers: %w", err)
	}

	span.SetAttributes(attribute.Int("worker_count", len(names)))
	return names, nil
}

func (s *statusService) JobDetail(ctx context.Context, jobID uuid.UUID) (*domain.JobDetail, error) {
	ctx, span := s.tracer.Start(ctx, "status_service.batch.job_detail",
		trace.WithAttributes(attribute.String("job_id", jobID.String())))
	defer span.End()

	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get job")
		return nil, fmt.Errorf("getting job: %w", err)
	}

	store := s.slices.SliceStore(jobID)
	input := store.Input()

	// Independent point queries; the counts need not be mutually consistent.
	var counts domain.SliceCounts
	if counts.Total, err = input.Count(ctx); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("counting slices: %w", err)
	}
	if counts.Queued, err = input.QueuedCount(ctx); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("counting queued slices: %w", err)
	}
	if counts.Running, err = input.RunningCount(ctx); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("counting running slices: %w", err)
	}
	if counts.Failed, err = input.FailedCount(ctx); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("counting failed slices: %w", err)
	}

	percent, err := domain.PercentComplete(ctx, job, input)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("estimating progress: %w", err)
	}

	return domain.NewJobDetailFromJob(job, counts, percent), nil
}
