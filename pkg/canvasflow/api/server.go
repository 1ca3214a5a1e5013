// Package api serves graph execution over HTTP.
//
// Routes:
//
//	POST /api/workflow/execute               run a submitted graph
//	GET  /api/workflow/executions/{graph_id} recent executions of a graph
//	GET  /api/workflow/execution/{id}        one execution
//	GET  /metrics                            Prometheus metrics
//	GET  /health                             liveness
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow/history"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/scheduler"
)

// ListLimit caps the executions returned per graph.
const ListLimit = 50

const maxBodyBytes = 1 << 20

// Server handles the execution API.
type Server struct {
	sched    *scheduler.Scheduler
	history  history.Store
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	handler  http.Handler
	server   *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithGatherer serves /metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		if g != nil {
			s.gatherer = g
		}
	}
}

// NewServer creates a server that runs graphs on sched and reads past
// executions from hist. A nil hist falls back to the scheduler's store,
// then to an empty in-memory store.
func NewServer(sched *scheduler.Scheduler, hist history.Store, logger *slog.Logger, opts ...Option) *Server {
	if hist == nil {
		hist = sched.History()
	}
	if hist == nil {
		hist = history.NewMemoryStore()
	}
	s := &Server{
		sched:    sched,
		history:  hist,
		logger:   logger,
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("POST /api/workflow/execute", s.handleExecute)
	mux.HandleFunc("GET /api/workflow/executions/{graph_id}", s.handleExecutions)
	mux.HandleFunc("GET /api/workflow/execution/{id}", s.handleExecution)

	s.handler = s.withLogging(s.withRecovery(mux))
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if s.logger != nil {
			s.logger.Info("server starting", slog.String("addr", addr))
		}
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if s.logger != nil {
			s.logger.Info("server stopping")
		}
		return s.server.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json_body", err)
		return
	}
	if req.GraphID == "" || req.Nodes == nil {
		writeError(w, http.StatusBadRequest, "graph_id and nodes array required", nil)
		return
	}

	snap := req.Snapshot()
	if err := snap.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid graph", err)
		return
	}

	res, err := s.sched.Execute(r.Context(), req.GraphID, snap)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, scheduler.ErrCycleDetected) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, "execution failed", err)
		return
	}
	writeJSON(w, http.StatusOK, ExecutionResponse{Success: true, Execution: res})
}

func (s *Server) handleExecutions(w http.ResponseWriter, r *http.Request) {
	graphID := r.PathValue("graph_id")
	recs, err := s.history.List(r.Context(), graphID, ListLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch execution history", err)
		return
	}

	out := make([]*scheduler.Result, 0, len(recs))
	for _, rec := range recs {
		res, err := scheduler.DecodeResult(rec)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to decode execution", err)
			return
		}
		out = append(out, res)
	}
	writeJSON(w, http.StatusOK, ExecutionsResponse{Success: true, Executions: out})
}

func (s *Server) handleExecution(w http.ResponseWriter, r *http.Request) {
	rec, err := s.history.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, "execution not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch execution", err)
		return
	}
	res, err := scheduler.DecodeResult(rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to decode execution", err)
		return
	}
	writeJSON(w, http.StatusOK, ExecutionResponse{Success: true, Execution: res})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Message = err.Error()
	}
	writeJSON(w, status, resp)
}

func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if s.logger != nil {
					s.logger.Error("panic recovered",
						slog.String("path", r.URL.Path),
						slog.String("error", fmt.Sprint(v)),
					)
				}
				writeError(w, http.StatusInternalServerError, "internal_server_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	if s.logger == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.status),
			slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
		)
	})
}
