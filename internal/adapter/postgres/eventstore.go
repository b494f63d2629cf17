package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/EventBoard/internal/domain"
	"github.com/Strob0t/EventBoard/internal/domain/event"
	"github.com/Strob0t/EventBoard/internal/port/eventstore"
)

var _ eventstore.Store = (*EventStore)(nil)

// EventStore implements eventstore.Store using PostgreSQL.
type EventStore struct {
	pool *pgxpool.Pool
}

// NewEventStore creates a new EventStore backed by the given connection pool.
func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{pool: pool}
}

// eventColumns is the SELECT column list for events queries.
const eventColumns = `id::text, title, date_time, guests, location, version, created_at, updated_at`

func scanEvent(row scannable) (event.Event, error) {
	var ev event.Event
	err := row.Scan(&ev.ID, &ev.Title, &ev.DateTime, &ev.Guests, &ev.Location,
		&ev.Version, &ev.CreatedAt, &ev.UpdatedAt)
	ev.Guests = orEmpty(ev.Guests)
	return ev, err
}

func (s *EventStore) Get(ctx context.Context, id string) (*event.Event, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id)

	ev, err := scanEvent(row)
	if err != nil {
		return nil, notFoundWrap(err, "get event %s", id)
	}
	return &ev, nil
}

func (s *EventStore) List(ctx context.Context) ([]event.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY date_time ASC, created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return orEmpty(events), nil
}

// Save inserts ev when its version is 0 and otherwise performs an
// optimistic-locked update against the version it carries.
func (s *EventStore) Save(ctx context.Context, ev *event.Event) error {
	if ev.Version == 0 {
		return s.insert(ctx, ev)
	}
	return s.update(ctx, ev)
}

func (s *EventStore) insert(ctx context.Context, ev *event.Event) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO events (id, title, date_time, guests, location)
		 VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5)
		 RETURNING id::text, version, created_at, updated_at`,
		ev.ID, ev.Title, ev.DateTime, pgTextArray(ev.Guests), ev.Location)

	if err := row.Scan(&ev.ID, &ev.Version, &ev.CreatedAt, &ev.UpdatedAt); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	ev.Guests = pgTextArray(ev.Guests)
	return nil
}

func (s *EventStore) update(ctx context.Context, ev *event.Event) error {
	row := s.pool.QueryRow(ctx,
		`UPDATE events
		 SET title = $2, date_time = $3, guests = $4, location = $5,
		     version = version + 1, updated_at = now()
		 WHERE id = $1 AND version = $6
		 RETURNING version, updated_at`,
		ev.ID, ev.Title, ev.DateTime, pgTextArray(ev.Guests), ev.Location, ev.Version)

	err := row.Scan(&ev.Version, &ev.UpdatedAt)
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("update event %s: %w", ev.ID, err)
	}

	// No row matched: either it is gone or another writer bumped the version.
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, ev.ID).Scan(&exists); err != nil {
		return notFoundWrap(err, "update event %s", ev.ID)
	}
	if exists {
		return fmt.Errorf("update event %s: %w", ev.ID, domain.ErrConflict)
	}
	return fmt.Errorf("update event %s: %w", ev.ID, domain.ErrNotFound)
}

func (s *EventStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete event %s", id)
}
