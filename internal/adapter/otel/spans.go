package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "eventboard"

// StartBroadcastSpan starts a span covering one registry fan-out.
func StartBroadcastSpan(ctx context.Context, kind string, subscribers int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "broadcast",
		trace.WithAttributes(
			attribute.String("change.kind", kind),
			attribute.Int("push.subscribers", subscribers),
		),
	)
}

// StartMutationSpan starts a span for an event mutation.
func StartMutationSpan(ctx context.Context, op, eventID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "event."+op,
		trace.WithAttributes(
			attribute.String("event.id", eventID),
		),
	)
}

// StartFeedPublishSpan starts a span for a change feed publish.
func StartFeedPublishSpan(ctx context.Context, subject string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "feed.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.destination.name", subject),
		),
	)
}
