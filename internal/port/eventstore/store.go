// Package eventstore defines the Event Store Gateway port (interface).
package eventstore

import (
	"context"

	"github.com/Strob0t/EventBoard/internal/domain/event"
)

// Store is the port interface for persisting events.
//
// Get returns domain.ErrNotFound for an unknown id. Save inserts when
// ev.Version is 0 and otherwise updates the row whose version matches,
// returning domain.ErrConflict if it changed concurrently and
// domain.ErrNotFound if it no longer exists; on success ev carries the
// stored version and timestamps. Delete returns domain.ErrNotFound when
// nothing was removed.
type Store interface {
	Get(ctx context.Context, id string) (*event.Event, error)
	Save(ctx context.Context, ev *event.Event) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]event.Event, error)
}
