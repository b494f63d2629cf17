package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "eventboard"

// Metrics holds all EventBoard metric instruments.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	SubscribersActive metric.Int64UpDownCounter
	Broadcasts        metric.Int64Counter
	DeliveriesFailed  metric.Int64Counter
	Mutations         metric.Int64Counter
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.SubscribersActive, err = meter.Int64UpDownCounter("eventboard.subscribers.active",
		metric.WithDescription("Number of registered push subscribers"))
	if err != nil {
		return nil, err
	}

	m.Broadcasts, err = meter.Int64Counter("eventboard.broadcasts",
		metric.WithDescription("Number of change notifications broadcast"))
	if err != nil {
		return nil, err
	}

	m.DeliveriesFailed, err = meter.Int64Counter("eventboard.deliveries.failed",
		metric.WithDescription("Number of push deliveries that failed"))
	if err != nil {
		return nil, err
	}

	m.Mutations, err = meter.Int64Counter("eventboard.events.mutations",
		metric.WithDescription("Number of event mutations"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// SubscriberAdded records a new subscriber on the given transport.
func (m *Metrics) SubscriberAdded(ctx context.Context, transport string) {
	if m == nil {
		return
	}
	m.SubscribersActive.Add(ctx, 1, metric.WithAttributes(attribute.String("transport", transport)))
}

// SubscriberRemoved records the removal of a subscriber.
func (m *Metrics) SubscriberRemoved(ctx context.Context, transport string) {
	if m == nil {
		return
	}
	m.SubscribersActive.Add(ctx, -1, metric.WithAttributes(attribute.String("transport", transport)))
}

// Broadcast records one fan-out of a change of the given kind.
func (m *Metrics) Broadcast(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.Broadcasts.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// DeliveryFailed records a failed delivery to one subscriber.
func (m *Metrics) DeliveryFailed(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.DeliveriesFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// Mutation records a successful mutation of the given change kind.
func (m *Metrics) Mutation(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.Mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
