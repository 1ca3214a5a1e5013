package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records canvasflow metrics.
// Use NewMetricsRecorder() for OTel metrics, NewPromMetrics for Prometheus
// or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordNodeExecution records a node dispatch with its duration and error status.
	RecordNodeExecution(ctx context.Context, nodeType string, duration time.Duration, err error)

	// RecordRun records a finished execution by aggregate status.
	RecordRun(ctx context.Context, status string, duration time.Duration)

	// RecordHistoryError records a failed history store operation.
	RecordHistoryError(ctx context.Context, op string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	nodeExecutions metric.Int64Counter
	nodeLatency    metric.Float64Histogram
	nodeErrors     metric.Int64Counter
	runs           metric.Int64Counter
	runLatency     metric.Float64Histogram
	historyErrors  metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("canvasflow")

	nodeExecutions, err := meter.Int64Counter("canvasflow.node.executions",
		metric.WithDescription("Number of node executions"),
	)
	if err != nil {
		return nil, err
	}

	nodeLatency, err := meter.Float64Histogram("canvasflow.node.latency_ms",
		metric.WithDescription("Node execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	nodeErrors, err := meter.Int64Counter("canvasflow.node.errors",
		metric.WithDescription("Number of node execution errors"),
	)
	if err != nil {
		return nil, err
	}

	runs, err := meter.Int64Counter("canvasflow.run.count",
		metric.WithDescription("Number of graph executions"),
	)
	if err != nil {
		return nil, err
	}

	runLatency, err := meter.Float64Histogram("canvasflow.run.latency_ms",
		metric.WithDescription("Graph execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	historyErrors, err := meter.Int64Counter("canvasflow.history.errors",
		metric.WithDescription("Number of failed execution history operations"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		nodeExecutions: nodeExecutions,
		nodeLatency:    nodeLatency,
		nodeErrors:     nodeErrors,
		runs:           runs,
		runLatency:     runLatency,
		historyErrors:  historyErrors,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func (m *otelMetrics) RecordNodeExecution(ctx context.Context, nodeType string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("node_type", nodeType))

	m.nodeExecutions.Add(ctx, 1, attrs)
	m.nodeLatency.Record(ctx, durationMs(duration), attrs)
	if err != nil {
		m.nodeErrors.Add(ctx, 1, attrs)
	}
}

func (m *otelMetrics) RecordRun(ctx context.Context, status string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.runs.Add(ctx, 1, attrs)
	m.runLatency.Record(ctx, durationMs(duration), attrs)
}

func (m *otelMetrics) RecordHistoryError(ctx context.Context, op string) {
	m.historyErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
}

func durationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
