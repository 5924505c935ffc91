package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope name for hrflow tracing.
const tracerName = "github.com/xraph/hrflow"

// Tracing returns middleware that wraps step execution in an OpenTelemetry
// span. If no TracerProvider is configured globally, the default noop
// tracer is used and this middleware becomes a pass-through with zero
// overhead.
//
// Span attributes include: hrflow.run.id, hrflow.graph, hrflow.step,
// hrflow.attempt. On error, the span status is set to codes.Error with
// the error message.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided tracer.
// This variant allows injecting a specific TracerProvider for testing or
// when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, info StepInfo, next Handler) error {
		ctx, span := tracer.Start(ctx, "hrflow.step.execute",
			trace.WithAttributes(
				attribute.String("hrflow.run.id", info.RunID),
				attribute.String("hrflow.graph", info.Graph),
				attribute.String("hrflow.step", info.Step),
				attribute.Int("hrflow.attempt", info.Attempt),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
