// Package webui serves a small JSON API and status page over build jobs,
// build runs, and query benchmarks.
package webui

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/succinctlab/rmmt/internal/repository"
	"github.com/succinctlab/rmmt/pkg/utils"
)

var tracer = otel.Tracer("rmmt-build-service")

// Server serves the rmMt build-service status UI and JSON API.
type Server struct {
	repos  *repository.Repositories
	port   int
	logger utils.Logger
	server *http.Server
}

// NewServer creates a new web UI server backed by repos.
func NewServer(repos *repository.Repositories, port int, logger utils.Logger) *Server {
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}
	return &Server{
		repos:  repos,
		port:   port,
		logger: logger,
	}
}

// Start starts the web server and blocks until it exits.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/jobs/pending", s.handlePendingJobs)
	mux.HandleFunc("/api/jobs/status", s.handleJobStatus)
	mux.HandleFunc("/api/runs", s.handleRun)
	mux.HandleFunc("/api/runs/benchmarks", s.handleBenchmarks)
	mux.HandleFunc("/", s.handleIndex)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Info("Starting web server at http://localhost:%d", s.port)
	s.logger.Info("Press Ctrl+C to stop")

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>rmMt build service</title></head>
<body>
<h1>rmMt build service</h1>
<p>Pending jobs: <a href="/api/jobs/pending">/api/jobs/pending</a></p>
<p>Job status: <a href="/api/jobs/status?uuid=">/api/jobs/status?uuid=&lt;job uuid&gt;</a></p>
<p>Build run: <a href="/api/runs?job=">/api/runs?job=&lt;job uuid&gt;</a></p>
<p>Query benchmarks: <a href="/api/runs/benchmarks?run_id=">/api/runs/benchmarks?run_id=&lt;build run id&gt;</a></p>
</body>
</html>`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, nil); err != nil {
		s.logger.Error("failed to render index: %v", err)
	}
}

// handlePendingJobs lists build jobs waiting to be picked up by a worker.
func (s *Server) handlePendingJobs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	jobs, err := s.repos.BuildJob.GetPendingJobs(r.Context(), limit)
	if err != nil {
		http.Error(w, "failed to fetch pending jobs", http.StatusInternalServerError)
		return
	}

	writeJSON(w, jobs)
}

// handleJobStatus reports a single build job's current status.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	uuid := r.URL.Query().Get("uuid")
	if uuid == "" {
		http.Error(w, "uuid is required", http.StatusBadRequest)
		return
	}

	job, err := s.repos.BuildJob.GetJobByUUID(r.Context(), uuid)
	if err != nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	writeJSON(w, job)
}

// handleRun reports the completed BuildRun for a job, if any.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	jobUUID := r.URL.Query().Get("job")
	if jobUUID == "" {
		http.Error(w, "job is required", http.StatusBadRequest)
		return
	}

	run, err := s.repos.BuildRun.GetRunByJobUUID(r.Context(), jobUUID)
	if err != nil {
		http.Error(w, "build run not found", http.StatusNotFound)
		return
	}

	writeJSON(w, run)
}

// handleBenchmarks lists the recorded QueryBenchmark rows for a BuildRun.
func (s *Server) handleBenchmarks(w http.ResponseWriter, r *http.Request) {
	runIDStr := r.URL.Query().Get("run_id")
	if runIDStr == "" {
		http.Error(w, "run_id is required", http.StatusBadRequest)
		return
	}

	runID, err := strconv.ParseInt(runIDStr, 10, 64)
	if err != nil {
		http.Error(w, "run_id must be an integer", http.StatusBadRequest)
		return
	}

	ctx, span := tracer.Start(r.Context(), "rmmt.query.benchmarks", trace.WithAttributes(
		attribute.Int64("run_id", runID),
	))
	defer span.End()

	benchmarks, err := s.repos.QueryBenchmark.GetBenchmarksByRunID(ctx, runID)
	if err != nil {
		span.RecordError(err)
		http.Error(w, "failed to fetch benchmarks", http.StatusInternalServerError)
		return
	}
	span.SetAttributes(attribute.Int("count", len(benchmarks)))

	writeJSON(w, benchmarks)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(v)
}
