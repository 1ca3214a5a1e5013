package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PromMetrics implements MetricsRecorder with Prometheus collectors.
type PromMetrics struct {
	nodeExecutions *prometheus.CounterVec
	nodeErrors     *prometheus.CounterVec
	nodeLatency    *prometheus.HistogramVec
	runs           *prometheus.CounterVec
	runLatency     *prometheus.HistogramVec
	historyErrors  *prometheus.CounterVec
}

var _ MetricsRecorder = (*PromMetrics)(nil)

// NewPromMetrics creates the canvasflow collectors and registers them on reg.
// Pass prometheus.DefaultRegisterer to expose them through promhttp.Handler().
func NewPromMetrics(reg prometheus.Registerer) (*PromMetrics, error) {
	latencyBuckets := []float64{1, 5, 10, 50, 100, 500, 1000, 5000}
	m := &PromMetrics{
		nodeExecutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canvasflow_node_executions_total",
				Help: "Total number of node executions",
			},
			[]string{"node_type"},
		),
		nodeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canvasflow_node_errors_total",
				Help: "Total number of failed node executions",
			},
			[]string{"node_type"},
		),
		nodeLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "canvasflow_node_latency_ms",
				Help:    "Node execution latency in milliseconds",
				Buckets: latencyBuckets,
			},
			[]string{"node_type"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canvasflow_runs_total",
				Help: "Total number of graph executions",
			},
			[]string{"status"},
		),
		runLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "canvasflow_run_latency_ms",
				Help:    "Graph execution latency in milliseconds",
				Buckets: latencyBuckets,
			},
			[]string{"status"},
		),
		historyErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canvasflow_history_errors_total",
				Help: "Total number of failed execution history operations",
			},
			[]string{"operation"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.nodeExecutions, m.nodeErrors, m.nodeLatency,
		m.runs, m.runLatency, m.historyErrors,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordNodeExecution implements MetricsRecorder.
func (m *PromMetrics) RecordNodeExecution(_ context.Context, nodeType string, duration time.Duration, err error) {
	m.nodeExecutions.WithLabelValues(nodeType).Inc()
	m.nodeLatency.WithLabelValues(nodeType).Observe(durationMs(duration))
	if err != nil {
		m.nodeErrors.WithLabelValues(nodeType).Inc()
	}
}

// RecordRun implements MetricsRecorder.
func (m *PromMetrics) RecordRun(_ context.Context, status string, duration time.Duration) {
	m.runs.WithLabelValues(status).Inc()
	m.runLatency.WithLabelValues(status).Observe(durationMs(duration))
}

// RecordHistoryError implements MetricsRecorder.
func (m *PromMetrics) RecordHistoryError(_ context.Context, op string) {
	m.historyErrors.WithLabelValues(op).Inc()
}
