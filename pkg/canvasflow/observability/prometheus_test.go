package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gathered(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	out := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				out[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				out[mf.GetName()] += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out
}

func TestPromMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPromMetrics(reg)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordNodeExecution(ctx, "text-input", 2*time.Millisecond, nil)
	m.RecordNodeExecution(ctx, "output", 3*time.Millisecond, errors.New("boom"))
	m.RecordRun(ctx, "partial", 10*time.Millisecond)
	m.RecordHistoryError(ctx, "append")

	got := gathered(t, reg)
	assert.Equal(t, 2.0, got["canvasflow_node_executions_total"])
	assert.Equal(t, 1.0, got["canvasflow_node_errors_total"])
	assert.Equal(t, 2.0, got["canvasflow_node_latency_ms"])
	assert.Equal(t, 1.0, got["canvasflow_runs_total"])
	assert.Equal(t, 1.0, got["canvasflow_run_latency_ms"])
	assert.Equal(t, 1.0, got["canvasflow_history_errors_total"])
}

func TestPromMetrics_DoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPromMetrics(reg)
	require.NoError(t, err)

	_, err = NewPromMetrics(reg)
	assert.Error(t, err)
}
