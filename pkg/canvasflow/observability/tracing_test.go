package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTracingTest(t *testing.T) *tracetest.InMemoryExporter {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer("canvasflow")

	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		tracer = otel.Tracer("canvasflow")
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("shutdown tracer provider: %v", err)
		}
	})
	return exporter
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	out := make(map[string]attribute.Value, len(attrs))
	for _, a := range attrs {
		out[string(a.Key)] = a.Value
	}
	return out
}

func TestSpanManager_RunAndNodeSpans(t *testing.T) {
	exporter := setupTracingTest(t)
	sm := NewSpanManager()

	ctx, run := sm.StartRunSpan(context.Background(), "graph-1", "exec_1")
	nodeCtx, node := sm.StartNodeSpan(ctx, 7, "text-combine")
	sm.AddSpanEvent(nodeCtx, "inputs.resolved", attribute.Int("count", 2))
	sm.EndSpanWithError(node, nil)
	sm.EndSpanWithError(run, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	nodeSpan, runSpan := spans[0], spans[1]
	assert.Equal(t, "canvasflow.node.text-combine", nodeSpan.Name)
	assert.Equal(t, "canvasflow.run", runSpan.Name)
	assert.Equal(t, runSpan.SpanContext.SpanID(), nodeSpan.Parent.SpanID())

	runAttrs := attrMap(runSpan.Attributes)
	assert.Equal(t, "graph-1", runAttrs["graph.id"].AsString())
	assert.Equal(t, "exec_1", runAttrs["run.id"].AsString())

	nodeAttrs := attrMap(nodeSpan.Attributes)
	assert.Equal(t, int64(7), nodeAttrs["node.id"].AsInt64())
	assert.Equal(t, codes.Ok, nodeSpan.Status.Code)
	require.Len(t, nodeSpan.Events, 1)
	assert.Equal(t, "inputs.resolved", nodeSpan.Events[0].Name)
}

func TestSpanManager_EmptyTypeName(t *testing.T) {
	exporter := setupTracingTest(t)

	_, span := NewSpanManager().StartNodeSpan(context.Background(), 1, "")
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "canvasflow.node.unknown", spans[0].Name)
}

func TestEndSpanWithError(t *testing.T) {
	exporter := setupTracingTest(t)

	_, span := NewSpanManager().StartRunSpan(context.Background(), "g", "r")
	EndSpanWithError(span, errors.New("boom"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "boom", spans[0].Status.Description)
	require.NotEmpty(t, spans[0].Events, "error recorded as event")

	assert.NotPanics(t, func() { EndSpanWithError(nil, nil) })
}

func TestNoopSpanManager(t *testing.T) {
	exporter := setupTracingTest(t)
	var sm SpanManager = NoopSpanManager{}

	ctx := context.Background()
	got, span := sm.StartRunSpan(ctx, "g", "r")
	assert.Equal(t, ctx, got)
	sm.AddSpanEvent(got, "ignored")
	sm.EndSpanWithError(span, errors.New("ignored"))

	assert.Empty(t, exporter.GetSpans())
}
