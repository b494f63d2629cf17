// Package push implements the subscription registry and the streaming
// transports (Server-Sent Events and WebSocket) that feed it.
package push

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	ebotel "github.com/Strob0t/EventBoard/internal/adapter/otel"
	"github.com/Strob0t/EventBoard/internal/domain/change"
	"github.com/Strob0t/EventBoard/internal/port/broadcast"
)

// Subscriber is a live client stream held by the Registry.
type Subscriber interface {
	ID() string
	Transport() string
	// Send delivers a change without blocking. A non-nil error means the
	// subscriber can no longer be served.
	Send(c change.Change) error
	// Done is closed once the subscriber completes.
	Done() <-chan struct{}
	Close()
}

// Registry tracks live subscribers and fans change notifications out to them.
// It is safe for concurrent use by request handlers, transport goroutines
// and broadcasters.
type Registry struct {
	mu      sync.RWMutex
	subs    map[string]Subscriber
	closed  bool
	metrics *ebotel.Metrics
}

var _ broadcast.Broadcaster = (*Registry)(nil)

// NewRegistry creates an empty registry. metrics may be nil.
func NewRegistry(metrics *ebotel.Metrics) *Registry {
	return &Registry{
		subs:    make(map[string]Subscriber),
		metrics: metrics,
	}
}

// Register adds s to the broadcast set. Registering the same handle twice is
// a no-op. The subscriber is removed automatically once it completes. After
// Close, new subscribers are completed immediately.
func (r *Registry) Register(s Subscriber) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		s.Close()
		return
	}
	if _, ok := r.subs[s.ID()]; ok {
		r.mu.Unlock()
		return
	}
	r.subs[s.ID()] = s
	r.mu.Unlock()

	r.metrics.SubscriberAdded(context.Background(), s.Transport())
	slog.Debug("push subscriber registered", "subscriber", s.ID(), "transport", s.Transport())

	go func() {
		<-s.Done()
		r.Unregister(s)
	}()
}

// Unregister completes s and removes it. Removing an absent subscriber is a no-op.
func (r *Registry) Unregister(s Subscriber) {
	s.Close()

	r.mu.Lock()
	cur, ok := r.subs[s.ID()]
	if ok && cur == s {
		delete(r.subs, s.ID())
	}
	r.mu.Unlock()

	if ok && cur == s {
		r.metrics.SubscriberRemoved(context.Background(), s.Transport())
		slog.Debug("push subscriber removed", "subscriber", s.ID(), "transport", s.Transport())
	}
}

// Broadcast delivers c to every subscriber registered at the time of the
// call. A subscriber whose delivery fails is closed and removed; the others
// are unaffected. Delivery never blocks on a slow client.
func (r *Registry) Broadcast(ctx context.Context, c change.Change) {
	r.mu.RLock()
	snapshot := make([]Subscriber, 0, len(r.subs))
	for _, s := range r.subs {
		snapshot = append(snapshot, s)
	}
	r.mu.RUnlock()

	ctx, span := ebotel.StartBroadcastSpan(ctx, string(c.Kind), len(snapshot))
	defer span.End()
	r.metrics.Broadcast(ctx, string(c.Kind))

	for _, s := range snapshot {
		if err := s.Send(c); err != nil {
			r.metrics.DeliveryFailed(ctx, failureReason(err))
			slog.Debug("push delivery failed", "subscriber", s.ID(), "kind", c.Kind, "error", err)
			r.Unregister(s)
		}
	}
}

// Count returns the number of live subscribers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Close completes every subscriber and rejects future registrations.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	snapshot := make([]Subscriber, 0, len(r.subs))
	for _, s := range r.subs {
		snapshot = append(snapshot, s)
	}
	r.mu.Unlock()

	for _, s := range snapshot {
		r.Unregister(s)
	}
	if len(snapshot) > 0 {
		slog.Info("push registry closed", "subscribers", len(snapshot))
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrSlowSubscriber):
		return "slow"
	case errors.Is(err, ErrClosed):
		return "closed"
	default:
		return "error"
	}
}
