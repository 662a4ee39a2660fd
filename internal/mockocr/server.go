// Package mockocr emulates the remote Layla OCR service for tests and
// local development: the same routes, auth, and wire payloads, with
// simulated page-by-page processing instead of real OCR.
package mockocr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vaheandonians/layla-client/model"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 30 * time.Second
	maxUploadSize     = 32 << 20 // 32 MB
)

// Config controls the emulator's behavior.
type Config struct {
	// APIKey is the bearer token required on job endpoints. Empty
	// disables authentication.
	APIKey string
	// DBPath is the SQLite path; empty means in-memory.
	DBPath string
	// Pages overrides the per-model page count when positive.
	Pages int
	// PageDelay overrides the per-model page delay when positive.
	PageDelay time.Duration
	// FailTrigger fails any job whose filename contains this substring.
	FailTrigger string
}

// Server is the emulated OCR service. It implements http.Handler.
type Server struct {
	router *chi.Mux
	store  *store
	worker *worker
	log    *slog.Logger
	apiKey string
}

// NewServer builds the emulator with its job store and simulation worker.
func NewServer(cfg Config, logger *slog.Logger) (*Server, error) {
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = ":memory:"
	}
	st, err := newStore(dbPath)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router: chi.NewRouter(),
		store:  st,
		worker: newWorker(st, logger, cfg),
		log:    logger,
		apiKey: cfg.APIKey,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(metricsMiddleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.routes()

	return s, nil
}

func (s *Server) routes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", metricsHandler())

	s.router.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/ocr", s.handleSubmit)
		r.Get("/status/{id}", s.handleStatus)
		r.Delete("/jobs/{id}", s.handleDelete)
	})
}

// ServeHTTP makes the server mountable in tests via httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close waits for in-flight simulations and releases the store.
func (s *Server) Close() error {
	s.worker.wait()
	return s.store.Close()
}

// Run starts the HTTP server and blocks until a shutdown signal is received.
func (s *Server) Run(addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("mock OCR service listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.log.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.log.Info("server stopped")
	return s.Close()
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	file.Close()

	m := r.URL.Query().Get("model")
	if m == "" {
		m = string(model.DefaultModel)
	}
	if !knownModel(m) {
		s.writeError(w, http.StatusBadRequest, "unknown model: "+m)
		return
	}

	now := time.Now().UTC()
	job := &jobRecord{
		ID:        newJobID(),
		Status:    string(model.StateProcessing),
		Model:     m,
		Filename:  header.Filename,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.createJob(r.Context(), job); err != nil {
		s.log.Error("create job", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	s.worker.start(job)

	s.writeJSON(w, http.StatusOK, model.Job{
		ID:      job.ID,
		Status:  model.StateProcessing,
		Model:   m,
		Message: "Job submitted successfully",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	j, err := s.store.getJob(r.Context(), id)
	if errors.Is(err, errNotFound) {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		s.log.Error("get job", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get job")
		return
	}

	resp := model.JobStatus{
		ID:     j.ID,
		Status: model.State(j.Status),
		Model:  j.Model,
	}
	switch resp.Status {
	case model.StateProcessing:
		resp.Progress = j.Progress
	case model.StateCompleted:
		resp.Result = j.Result
	case model.StateFailed:
		resp.Error = j.Error
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := s.store.deleteJob(r.Context(), id)
	if err != nil {
		s.log.Error("delete job", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to delete job")
		return
	}
	if !deleted {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"job_id":  id,
		"message": "Job deleted successfully",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.countProcessing(r.Context())
	if err != nil {
		s.log.Error("count processing jobs", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read queue")
		return
	}

	s.writeJSON(w, http.StatusOK, model.Health{
		Status:    "healthy",
		Redis:     "connected",
		QueueSize: &n,
	})
}

// authMiddleware enforces the bearer API key on job endpoints.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get("Authorization") != "Bearer "+s.apiKey {
			s.writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request using the structured logger.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", "error", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func knownModel(m string) bool {
	for _, known := range model.KnownModels() {
		if m == string(known) {
			return true
		}
	}
	return false
}
