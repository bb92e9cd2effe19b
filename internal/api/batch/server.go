package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	appbatch "github.com/ahrav/batch-armada/internal/app/batch"
	batchDomain "github.com/ahrav/batch-armada/internal/domain/batch"
	"github.com/ahrav/batch-armada/pkg/common/logger"
	"github.com/ahrav/batch-armada/pkg/common/otel"
)

// Server serves the read-only status API for batch jobs.
type Server struct {
	addr   string
	logger *logger.Logger
	router *chi.Mux
	status appbatch.StatusService
	tracer trace.Tracer
}

// NewServer constructs the status API server with all routes bound.
func NewServer(addr string, log *logger.Logger, tracer trace.Tracer, status appbatch.StatusService) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(otel.Middleware(tracer))
	r.Use(loggerMiddleware(log))
	r.Use(middleware.Recoverer)

	s := &Server{
		addr:   addr,
		logger: log,
		router: r,
		status: status,
		tracer: tracer,
	}

	s.routes()
	return s
}

func loggerMiddleware(log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				ctx := r.Context()
				log.Info(ctx, "Request completed",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"duration", time.Since(start),
					"trace_id", otel.GetTraceID(ctx),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func (s *Server) routes() {
	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/readiness", s.handleReadiness)

		r.Route("/jobs/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetJob)
			r.Get("/status", s.handleJobStatus)
			r.Get("/progress", s.handleJobProgress)
			r.Get("/workers", s.handleJobWorkers)
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// handleGetJob returns the full detail view of a job.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := s.jobIDParam(w, r)
	if !ok {
		return
	}

	detail, err := s.status.JobDetail(r.Context(), jobID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respond(w, r, http.StatusOK, FromDomain(detail))
}

// handleJobStatus returns the state-dependent status payload for a job.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID, ok := s.jobIDParam(w, r)
	if !ok {
		return
	}

	status, err := s.status.Status(r.Context(), jobID, nil)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respond(w, r, http.StatusOK, status)
}

// progressResponse represents the response for a job's completion percentage.
type progressResponse struct {
	ID              string `json:"id"`
	PercentComplete int    `json:"percent_complete"`
}

// handleJobProgress returns the job's estimated completion percentage.
func (s *Server) handleJobProgress(w http.ResponseWriter, r *http.Request) {
	jobID, ok := s.jobIDParam(w, r)
	if !ok {
		return
	}

	percent, err := s.status.PercentComplete(r.Context(), jobID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respond(w, r, http.StatusOK, progressResponse{
		ID:              jobID.String(),
		PercentComplete: percent,
	})
}

// workersResponse represents the response for a job's active workers.
type workersResponse struct {
	ID          string   `json:"id"`
	WorkerCount int      `json:"worker_count"`
	WorkerNames []string `json:"worker_names"`
}

// handleJobWorkers returns the count and names of workers currently
// processing the job.
func (s *Server) handleJobWorkers(w http.ResponseWriter, r *http.Request) {
	jobID, ok := s.jobIDParam(w, r)
	if !ok {
		return
	}

	ctx := r.Context()

	count, err := s.status.WorkerCount(ctx, jobID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	names, err := s.status.WorkerNames(ctx, jobID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respond(w, r, http.StatusOK, workersResponse{
		ID:          jobID.String(),
		WorkerCount: count,
		WorkerNames: names,
	})
}

// jobIDParam parses the {id} route param, writing a 400 on malformed input.
func (s *Server) jobIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return jobID, true
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(r.Context(), "failed to encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, batchDomain.ErrJobNotFound) {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	s.logger.Error(r.Context(), "request failed", "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// Start runs the HTTP server until the context is canceled, then shuts it
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.addr,
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "failed to shutdown server", "error", err)
		}
	}()

	s.logger.Info(ctx, "starting server",
		"addr", server.Addr,
		"service", "status-api",
	)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Handler exposes the underlying router, primarily for tests.
func (s *Server) Handler() http.Handler { return s.router }
