package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	ebotel "github.com/Strob0t/EventBoard/internal/adapter/otel"
	"github.com/Strob0t/EventBoard/internal/domain"
	"github.com/Strob0t/EventBoard/internal/domain/change"
	"github.com/Strob0t/EventBoard/internal/domain/event"
	"github.com/Strob0t/EventBoard/internal/logger"
	"github.com/Strob0t/EventBoard/internal/port/broadcast"
	"github.com/Strob0t/EventBoard/internal/port/cache"
	"github.com/Strob0t/EventBoard/internal/port/eventstore"
)

// fillStripes is the number of generation counters guarding cache fills.
const fillStripes = 64

// fillGuard counts mutations per id stripe. A cache fill is written only if
// no mutation of a stripe id completed since its store read began.
type fillGuard struct {
	mu  sync.Mutex
	gen uint64
}

// EventService handles event business logic. Every successful mutation
// invalidates the cached record, notifies push subscribers and appends to
// the change feed, in that order.
type EventService struct {
	store    eventstore.Store
	hub      broadcast.Broadcaster
	cache    cache.Cache
	cacheTTL time.Duration
	feed     *ChangeFeed
	metrics  *ebotel.Metrics
	group    singleflight.Group
	guards   [fillStripes]fillGuard
}

// NewEventService creates a new EventService.
func NewEventService(store eventstore.Store, hub broadcast.Broadcaster) *EventService {
	if hub == nil {
		hub = broadcast.Nop{}
	}
	return &EventService{store: store, hub: hub}
}

// SetCache enables read-through caching of single events.
func (s *EventService) SetCache(c cache.Cache, ttl time.Duration) {
	s.cache = c
	s.cacheTTL = ttl
}

// SetChangeFeed sets the optional durable change feed.
func (s *EventService) SetChangeFeed(f *ChangeFeed) {
	s.feed = f
}

// SetMetrics sets the optional metric instruments.
func (s *EventService) SetMetrics(m *ebotel.Metrics) {
	s.metrics = m
}

// List returns all events. An empty store yields an empty, non-nil slice.
func (s *EventService) List(ctx context.Context) ([]event.Event, error) {
	events, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []event.Event{}
	}
	return events, nil
}

// sharedRead is the outcome of one store read shared by concurrent misses.
type sharedRead struct {
	ev  *event.Event
	err error
	gen uint64 // generation of the id when the read began
}

// Get returns an event by ID. Concurrent misses for the same ID share a
// single store read, which is not cancelled when the first caller goes away.
// A caller never joins a read that began before a mutation it has observed.
func (s *EventService) Get(ctx context.Context, id string) (*event.Event, error) {
	if ev, ok := s.cached(ctx, id); ok {
		return ev, nil
	}

	seen := s.generation(id)
	shared := context.WithoutCancel(ctx)
	v, _, _ := s.group.Do(id, func() (any, error) {
		gen := s.generation(id)
		ev, err := s.store.Get(shared, id)
		if err == nil {
			s.fill(shared, ev, gen)
		}
		return sharedRead{ev: ev, err: err, gen: gen}, nil
	})

	res := v.(sharedRead)
	if res.gen < seen {
		res.ev, res.err = s.store.Get(ctx, id)
	}
	if res.err != nil {
		return nil, res.err
	}

	ev := *res.ev
	ev.Guests = append([]string{}, ev.Guests...)
	return &ev, nil
}

// Create validates req, stores a new event and announces it.
func (s *EventService) Create(ctx context.Context, req *event.Request) (*event.Event, error) {
	if err := event.ValidateRequest(req); err != nil {
		return nil, err
	}

	ev := &event.Event{ID: uuid.NewString()}
	ev.Apply(req)

	ctx, span := ebotel.StartMutationSpan(ctx, "create", ev.ID)
	defer span.End()

	if err := s.store.Save(ctx, ev); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.announce(ctx, change.KindCreated, ev.ID)
	return ev, nil
}

// Update replaces the writable fields of an existing event. A missing event
// yields domain.ErrNotFound and nothing is announced.
func (s *EventService) Update(ctx context.Context, id string, req *event.Request) (*event.Event, error) {
	if err := event.ValidateRequest(req); err != nil {
		return nil, err
	}

	ctx, span := ebotel.StartMutationSpan(ctx, "update", id)
	defer span.End()

	ev, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ev.Apply(req)

	if err := s.store.Save(ctx, ev); err != nil {
		return nil, fmt.Errorf("update event %s: %w", id, err)
	}

	s.announce(ctx, change.KindUpdated, id)
	return ev, nil
}

// Delete removes an event. Deleting an unknown ID is not an error and is
// still announced to subscribers.
func (s *EventService) Delete(ctx context.Context, id string) error {
	ctx, span := ebotel.StartMutationSpan(ctx, "delete", id)
	defer span.End()

	if err := s.store.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete event %s: %w", id, err)
	}

	s.announce(ctx, change.KindDeleted, id)
	return nil
}

func (s *EventService) announce(ctx context.Context, kind change.Kind, id string) {
	log := logger.FromContext(ctx)

	s.bump(id)
	if s.cache != nil {
		if err := s.cache.Delete(ctx, cache.EventKey(id)); err != nil {
			log.Warn("event cache invalidate failed", "event_id", id, "error", err)
		}
	}

	s.hub.Broadcast(ctx, change.New(kind))
	s.metrics.Mutation(ctx, string(kind))

	if s.feed != nil {
		if err := s.feed.Publish(ctx, kind, id); err != nil {
			log.Warn("change feed publish failed", "event_id", id, "kind", kind, "error", err)
		}
	}

	log.Info("event "+string(kind), "event_id", id)
}

func (s *EventService) cached(ctx context.Context, id string) (*event.Event, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, ok, err := s.cache.Get(ctx, cache.EventKey(id))
	if err != nil || !ok {
		return nil, false
	}
	var ev event.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		slog.Warn("event cache entry corrupt", "event_id", id, "error", err)
		return nil, false
	}
	return &ev, true
}

func (s *EventService) guard(id string) *fillGuard {
	return &s.guards[xxhash.Sum64String(id)%fillStripes]
}

func (s *EventService) generation(id string) uint64 {
	g := s.guard(id)
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gen
}

// bump marks a committed mutation of id. It runs before the cache entry is
// invalidated, so a fill racing the mutation either sees the new generation
// or lands before the invalidation.
func (s *EventService) bump(id string) {
	g := s.guard(id)
	g.mu.Lock()
	g.gen++
	g.mu.Unlock()
}

// fill caches ev unless id was mutated after gen was read.
func (s *EventService) fill(ctx context.Context, ev *event.Event, gen uint64) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	g := s.guard(ev.ID)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gen != gen {
		slog.Debug("event cache fill skipped, mutated during read", "event_id", ev.ID)
		return
	}
	if err := s.cache.Set(ctx, cache.EventKey(ev.ID), data, s.cacheTTL); err != nil {
		slog.Debug("event cache fill failed", "event_id", ev.ID, "error", err)
	}
}
