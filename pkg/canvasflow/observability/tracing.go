package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer uses the global OTel tracer provider.
var tracer = otel.Tracer("canvasflow")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartRunSpan starts a span covering one graph execution.
	StartRunSpan(ctx context.Context, graphID, runID string) (context.Context, trace.Span)

	// StartNodeSpan starts a child span for one node dispatch.
	StartNodeSpan(ctx context.Context, nodeID int64, nodeType string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses the global OTel tracer
// provider. Configure the provider first with otel.SetTracerProvider.
func NewSpanManager() SpanManager {
	return otelSpanManager{}
}

func (otelSpanManager) StartRunSpan(ctx context.Context, graphID, runID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "canvasflow.run",
		trace.WithAttributes(
			attribute.String("graph.id", graphID),
			attribute.String("run.id", runID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (otelSpanManager) StartNodeSpan(ctx context.Context, nodeID int64, nodeType string) (context.Context, trace.Span) {
	if nodeType == "" {
		nodeType = "unknown"
	}
	return tracer.Start(ctx, "canvasflow.node."+nodeType,
		trace.WithAttributes(
			attribute.Int64("node.id", nodeID),
			attribute.String("node.type", nodeType),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

func (otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
