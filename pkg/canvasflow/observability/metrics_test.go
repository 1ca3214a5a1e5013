package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupMetricsTest(t *testing.T) *sdkmetric.ManualReader {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	original := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)

	t.Cleanup(func() {
		otel.SetMeterProvider(original)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("shutdown meter provider: %v", err)
		}
	})
	return reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return &rm
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumTotal(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected Sum[int64], got %T", m.Data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestNewMetricsRecorder(t *testing.T) {
	setupMetricsTest(t)

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)
	_, isNoop := recorder.(NoopMetrics)
	assert.False(t, isNoop, "expected otel recorder")
}

func TestOtelMetrics_RecordNodeExecution(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordNodeExecution(ctx, "text-input", 10*time.Millisecond, nil)
	m.RecordNodeExecution(ctx, "text-input", 20*time.Millisecond, nil)
	m.RecordNodeExecution(ctx, "output", 5*time.Millisecond, errors.New("boom"))

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(3), sumTotal(t, findMetric(rm, "canvasflow.node.executions")))
	assert.Equal(t, int64(1), sumTotal(t, findMetric(rm, "canvasflow.node.errors")))

	latency := findMetric(rm, "canvasflow.node.latency_ms")
	require.NotNil(t, latency)
	hist, ok := latency.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(3), count)
}

func TestOtelMetrics_RecordRun(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordRun(ctx, "completed", 100*time.Millisecond)
	m.RecordRun(ctx, "partial", 50*time.Millisecond)

	rm := collectMetrics(t, reader)
	runs := findMetric(rm, "canvasflow.run.count")
	assert.Equal(t, int64(2), sumTotal(t, runs))

	sum := runs.Data.(metricdata.Sum[int64])
	statuses := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, ok := dp.Attributes.Value("status")
		require.True(t, ok)
		statuses[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"completed": 1, "partial": 1}, statuses)
	assert.NotNil(t, findMetric(rm, "canvasflow.run.latency_ms"))
}

func TestOtelMetrics_RecordHistoryError(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics()
	require.NoError(t, err)

	m.RecordHistoryError(context.Background(), "append")

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(1), sumTotal(t, findMetric(rm, "canvasflow.history.errors")))
}

func TestNoopMetrics(t *testing.T) {
	var m MetricsRecorder = NoopMetrics{}
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordNodeExecution(ctx, "x", time.Second, errors.New("x"))
		m.RecordRun(ctx, "failed", time.Second)
		m.RecordHistoryError(ctx, "append")
	})
}
