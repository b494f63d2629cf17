// Package memory provides an in-process event store for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/EventBoard/internal/domain"
	"github.com/Strob0t/EventBoard/internal/domain/event"
	"github.com/Strob0t/EventBoard/internal/port/eventstore"
)

var _ eventstore.Store = (*EventStore)(nil)

// EventStore implements eventstore.Store with a map guarded by a mutex.
// Contents are lost on restart.
type EventStore struct {
	mu     sync.RWMutex
	events map[string]event.Event
	now    func() time.Time
}

// NewEventStore creates an empty store.
func NewEventStore() *EventStore {
	return &EventStore{
		events: make(map[string]event.Event),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *EventStore) Get(_ context.Context, id string) (*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.events[id]
	if !ok {
		return nil, fmt.Errorf("get event %s: %w", id, domain.ErrNotFound)
	}
	ev = clone(ev)
	return &ev, nil
}

func (s *EventStore) List(_ context.Context) ([]event.Event, error) {
	s.mu.RLock()
	events := make([]event.Event, 0, len(s.events))
	for _, ev := range s.events {
		events = append(events, clone(ev))
	}
	s.mu.RUnlock()

	sort.Slice(events, func(i, j int) bool {
		if !events[i].DateTime.Equal(events[j].DateTime) {
			return events[i].DateTime.Before(events[j].DateTime)
		}
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
	return events, nil
}

func (s *EventStore) Save(_ context.Context, ev *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if ev.Guests == nil {
		ev.Guests = []string{}
	}

	if ev.Version == 0 {
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}
		if _, exists := s.events[ev.ID]; exists {
			return fmt.Errorf("insert event %s: %w", ev.ID, domain.ErrConflict)
		}
		ev.Version = 1
		ev.CreatedAt = now
		ev.UpdatedAt = now
		s.events[ev.ID] = clone(*ev)
		return nil
	}

	cur, ok := s.events[ev.ID]
	if !ok {
		return fmt.Errorf("update event %s: %w", ev.ID, domain.ErrNotFound)
	}
	if cur.Version != ev.Version {
		return fmt.Errorf("update event %s: %w", ev.ID, domain.ErrConflict)
	}
	ev.Version++
	ev.CreatedAt = cur.CreatedAt
	ev.UpdatedAt = now
	s.events[ev.ID] = clone(*ev)
	return nil
}

func (s *EventStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return fmt.Errorf("delete event %s: %w", id, domain.ErrNotFound)
	}
	delete(s.events, id)
	return nil
}

// clone copies ev so callers never share the guests backing array with the store.
func clone(ev event.Event) event.Event {
	ev.Guests = append([]string{}, ev.Guests...)
	return ev
}
