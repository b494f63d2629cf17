// Package broadcast defines the port for pushing change notifications to connected clients.
package broadcast

import (
	"context"

	"github.com/Strob0t/EventBoard/internal/domain/change"
)

// Broadcaster delivers a change to every live subscriber, best-effort.
// Implementations must never block on a single slow subscriber and never
// report per-subscriber failures to the caller.
type Broadcaster interface {
	Broadcast(ctx context.Context, c change.Change)
}

// Nop discards changes.
type Nop struct{}

var _ Broadcaster = Nop{}

// Broadcast does nothing.
func (Nop) Broadcast(context.Context, change.Change) {}
