package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cwbudde/blendga/internal/config"
	"github.com/cwbudde/blendga/internal/ga"
	"github.com/cwbudde/blendga/internal/store"
)

// maxRequestBody bounds run submissions.
const maxRequestBody = 1 << 20

// Server represents the HTTP server
type Server struct {
	jobManager *JobManager
	store      store.Store
	metrics    *metrics
	addr       string
	server     *http.Server
}

// NewServer creates a new HTTP server. runStore may be nil, in which case
// completed runs are only kept in memory.
func NewServer(addr string, runStore store.Store) *Server {
	jm := NewJobManager()
	return &Server{
		jobManager: jm,
		store:      runStore,
		metrics:    newMetrics(jm),
		addr:       addr,
	}
}

// Handler returns the server's routes wrapped in middleware
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Register API routes
	mux.HandleFunc("/api/v1/runs", s.handleRuns)
	mux.HandleFunc("/api/v1/runs/", s.handleRunsWithID)
	mux.Handle("/metrics", s.metrics.handler())

	return s.loggingMiddleware(s.corsMiddleware(mux))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	slog.Info("Starting HTTP server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleRuns handles /api/v1/runs
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateRun(w, r)
	case http.MethodGet:
		s.handleListRuns(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleRunsWithID handles /api/v1/runs/:id/*
func (s *Server) handleRunsWithID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Parse run ID from path
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/runs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Run ID required", http.StatusBadRequest)
		return
	}

	runID := parts[0]

	// Route based on subpath
	if len(parts) == 1 || parts[1] == "status" {
		s.handleGetRunStatus(w, r, runID)
	} else if parts[1] == "history" {
		s.handleGetRunHistory(w, r, runID)
	} else if parts[1] == "stream" {
		s.handleJobStream(w, r, runID)
	} else {
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// decodeRunConfig builds a run configuration from a submission. Fields that
// are absent keep their defaults; when the body sets an objective or dims but
// no bounds, the objective's conventional bounds are used.
func decodeRunConfig(body []byte) (config.RunConfig, error) {
	var probe struct {
		Objective string `json:"objective"`
		Dims      int    `json:"dims"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return config.RunConfig{}, err
	}

	cfg := config.Default()
	if probe.Objective != "" || probe.Dims != 0 {
		var err error
		cfg, err = config.ForObjective(probe.Objective, probe.Dims)
		if err != nil {
			return config.RunConfig{}, err
		}
	}

	if err := json.Unmarshal(body, &cfg); err != nil {
		return config.RunConfig{}, err
	}
	if probe.Dims > 0 && cfg.Dims() != probe.Dims {
		return config.RunConfig{}, &ga.ConfigError{
			Field:  "Bounds",
			Reason: fmt.Sprintf("dims = %d but %d bounds given", probe.Dims, cfg.Dims()),
		}
	}
	return cfg, nil
}

// handleCreateRun handles POST /api/v1/runs
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to read body: %v", err), http.StatusBadRequest)
		return
	}

	cfg, err := decodeRunConfig(body)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid run config: %v", err), http.StatusBadRequest)
		return
	}
	if err := cfg.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := s.jobManager.CreateJob(cfg)

	// Start worker in background
	go runJob(s.jobManager, s.metrics, s.store, job.ID)

	writeJSON(w, http.StatusCreated, job)
}

// handleListRuns handles GET /api/v1/runs
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.jobManager.ListJobs())
}

// lookupJob returns the in-memory job, or rebuilds a completed one from the
// store for runs finished by an earlier server process.
func (s *Server) lookupJob(runID string) (*Job, error) {
	if job, exists := s.jobManager.GetJob(runID); exists {
		return job, nil
	}
	if s.store == nil {
		return nil, &store.NotFoundError{RunID: runID}
	}

	record, err := s.store.LoadRun(runID)
	if err != nil {
		return nil, err
	}

	end := record.Timestamp
	return &Job{
		ID:          record.RunID,
		State:       StateCompleted,
		Config:      record.Config,
		Generation:  record.Config.Generations,
		BestGenes:   record.Best.Genes,
		BestFitness: record.Best.Fitness,
		History:     record.History,
		StartTime:   end.Add(-time.Duration(record.ElapsedSeconds * float64(time.Second))),
		EndTime:     &end,
	}, nil
}

func (s *Server) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// handleGetRunStatus handles GET /api/v1/runs/:id/status
func (s *Server) handleGetRunStatus(w http.ResponseWriter, r *http.Request, runID string) {
	job, err := s.lookupJob(runID)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}

	elapsed := job.Elapsed()

	// Every generation, generation 0 included, scores the whole population
	evaluations := 0
	if len(job.History) > 0 {
		evaluations = len(job.History) * job.Config.PopSize
	}
	eps := float64(0)
	if elapsed.Seconds() > 0 {
		eps = float64(evaluations) / elapsed.Seconds()
	}

	response := map[string]interface{}{
		"id":          job.ID,
		"state":       job.State,
		"config":      job.Config,
		"generation":  job.Generation,
		"bestFitness": job.BestFitness,
		"bestGenes":   job.BestGenes,
		"evaluations": evaluations,
		"elapsed":     elapsed.Seconds(),
		"eps":         eps,
		"startTime":   job.StartTime,
		"endTime":     job.EndTime,
		"error":       job.Error,
	}

	writeJSON(w, http.StatusOK, response)
}

// handleGetRunHistory handles GET /api/v1/runs/:id/history
func (s *Server) handleGetRunHistory(w http.ResponseWriter, r *http.Request, runID string) {
	job, err := s.lookupJob(runID)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, job.History)
}

// writeJSON encodes v before writing anything, so a value JSON cannot
// represent (NaN or infinite fitness) becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to encode response", "status", status, "error", err)
		http.Error(w, fmt.Sprintf("Failed to encode response: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
