package interceptors

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "statement-normalizer/pipeline"

// StageTracer instruments pipeline stages with OpenTelemetry spans.
type StageTracer struct {
	tracer trace.Tracer
}

// NewStageTracer creates a stage tracer. A nil tracer uses the global provider.
func NewStageTracer(tracer trace.Tracer) *StageTracer {
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &StageTracer{tracer: tracer}
}

// Start opens a span for one stage.
func (s *StageTracer) Start(ctx context.Context, stage string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, stage, trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(attribute.String("pipeline.stage", stage))
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}

// Finish records err on span, sets its status and ends it.
func (s *StageTracer) Finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "ok")
	}
	span.End()
}

// Traced runs fn inside a span named stage.
func (s *StageTracer) Traced(ctx context.Context, stage string, fn func(ctx context.Context) error) error {
	ctx, span := s.Start(ctx, stage)
	err := fn(ctx)
	s.Finish(span, err)
	return err
}
