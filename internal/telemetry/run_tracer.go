package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rishavSprinto/eigenflow/engine"
)

// RunTracer is the tracing collaborator: it opens one span per workflow
// run and closes it when the run ends. It implements
// engine.RunListener; the engine guarantees listener failures never
// fail the run.
type RunTracer struct {
	tracer trace.Tracer
}

// NewRunTracer creates a tracer against the global provider.
func NewRunTracer() *RunTracer {
	return &RunTracer{
		tracer: otel.Tracer("github.com/rishavSprinto/eigenflow/engine"),
	}
}

// OnRunStart opens the run span and returns the span context so nested
// handler spans attach to it.
func (t *RunTracer) OnRunStart(ctx context.Context, info engine.RunInfo) context.Context {
	attrs := []attribute.KeyValue{
		attribute.String("workflow.id", info.WorkflowID),
		attribute.String("workflow.run_id", info.RunID),
		attribute.String("workflow.thread_id", info.ThreadID),
	}
	for k, v := range info.Tags {
		attrs = append(attrs, attribute.String("workflow.tag."+k, v))
	}
	ctx, _ = t.tracer.Start(ctx, "workflow.run", trace.WithAttributes(attrs...))
	return ctx
}

// OnRunEnd records the outcome and ends the run span.
func (t *RunTracer) OnRunEnd(ctx context.Context, _ engine.RunInfo, err error) {
	span := trace.SpanFromContext(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
