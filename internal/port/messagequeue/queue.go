// Package messagequeue defines the message queue port (interface).
package messagequeue

import (
	"context"
	"time"

	"github.com/Strob0t/EventBoard/internal/domain/change"
)

// Handler processes a message received from the queue.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to messages.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Drain gracefully drains all subscriptions before closing.
	Drain() error

	// Close shuts down the queue connection immediately.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subjects for the event change feed.
const (
	SubjectEventsPrefix = "events"
	SubjectEventsAll    = SubjectEventsPrefix + ".>"
)

// SubjectFor returns the change feed subject for a kind, e.g. "events.created".
func SubjectFor(kind change.Kind) string {
	return SubjectEventsPrefix + "." + string(kind)
}

// ChangeRecordPayload is the schema for messages on events.* subjects.
// Unlike the push stream it names the affected event.
type ChangeRecordPayload struct {
	Kind      change.Kind `json:"kind"`
	EventID   string      `json:"event_id"`
	RequestID string      `json:"request_id,omitempty"`
	At        time.Time   `json:"at"`
}
