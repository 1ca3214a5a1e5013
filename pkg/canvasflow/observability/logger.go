// Package observability provides structured logging, metrics and tracing
// for canvasflow sessions and the execution scheduler.
//
// Features:
//   - Structured logging via slog
//   - Metrics via OpenTelemetry or Prometheus
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// NewLogger builds a slog logger writing to w.
// Level is one of debug, info, warn, error; format is text or json.
func NewLogger(level, format string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// EnrichLogger adds run context to a logger.
// Returns a new logger with run_id and graph_id fields.
func EnrichLogger(logger *slog.Logger, runID, graphID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("graph_id", graphID),
	)
}

// LogRunStart logs the start of a graph execution.
func LogRunStart(logger *slog.Logger, runID, graphID string, nodeCount int) {
	if logger == nil {
		return
	}
	logger.Info("execution starting",
		slog.String("run_id", runID),
		slog.String("graph_id", graphID),
		slog.Int("total_nodes", nodeCount),
	)
}

// LogRunComplete logs the end of a graph execution.
func LogRunComplete(logger *slog.Logger, runID, status string, durationMs float64, completed, failed int) {
	if logger == nil {
		return
	}
	logger.Info("execution finished",
		slog.String("run_id", runID),
		slog.String("status", status),
		slog.Float64("duration_ms", durationMs),
		slog.Int("completed_nodes", completed),
		slog.Int("failed_nodes", failed),
	)
}

// LogNodeStart logs node execution start.
func LogNodeStart(logger *slog.Logger, nodeID int64, nodeType string) {
	if logger == nil {
		return
	}
	logger.Debug("node starting",
		slog.Int64("node_id", nodeID),
		slog.String("node_type", nodeType),
	)
}

// LogNodeComplete logs successful node completion.
func LogNodeComplete(logger *slog.Logger, nodeID int64, nodeType string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("node completed",
		slog.Int64("node_id", nodeID),
		slog.String("node_type", nodeType),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogNodeError logs node execution error.
func LogNodeError(logger *slog.Logger, nodeID int64, nodeType string, err error) {
	if logger == nil {
		return
	}
	logger.Error("node failed",
		slog.Int64("node_id", nodeID),
		slog.String("node_type", nodeType),
		slog.String("error", err.Error()),
	)
}

// LogCycleFallback logs nodes appended to the order because they sit on a cycle.
func LogCycleFallback(logger *slog.Logger, runID string, nodeIDs []int64) {
	if logger == nil {
		return
	}
	logger.Warn("cycle detected, running remaining nodes in input order",
		slog.String("run_id", runID),
		slog.Any("node_ids", nodeIDs),
	)
}

// LogHistoryError logs a history write failure (non-fatal).
func LogHistoryError(logger *slog.Logger, runID string, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("execution history failed",
		slog.String("run_id", runID),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// LogPersistError logs a graph save or load failure (non-fatal).
func LogPersistError(logger *slog.Logger, graphID string, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("graph persistence failed",
		slog.String("graph_id", graphID),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
