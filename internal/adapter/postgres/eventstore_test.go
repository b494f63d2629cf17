package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/EventBoard/internal/adapter/postgres"
	"github.com/Strob0t/EventBoard/internal/config"
	"github.com/Strob0t/EventBoard/internal/domain"
	"github.com/Strob0t/EventBoard/internal/domain/event"
)

// setupStore creates a pgxpool connection, runs all migrations, and returns a
// ready-to-use EventStore. The pool is closed via t.Cleanup.
func setupStore(t *testing.T) *postgres.EventStore {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("requires DATABASE_URL")
	}

	ctx := context.Background()

	// Run goose migrations first (uses embedded SQL files).
	if err := postgres.RunMigrations(ctx, dsn); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	cfg := config.Defaults().Postgres
	cfg.DSN = dsn
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	t.Cleanup(pool.Close)

	return postgres.NewEventStore(pool)
}

func newEvent(title string) *event.Event {
	return &event.Event{
		Title:    title,
		DateTime: time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC),
		Guests:   []string{"ana", "ben"},
		Location: "Hall A",
	}
}

func TestEventStore_InsertAndGet(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	ev := newEvent("Launch party")
	if err := s.Save(ctx, ev); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ev.ID == "" || ev.Version != 1 || ev.CreatedAt.IsZero() {
		t.Fatalf("insert did not populate id/version/timestamps: %+v", ev)
	}
	t.Cleanup(func() { _ = s.Delete(ctx, ev.ID) })

	got, err := s.Get(ctx, ev.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Launch party" || len(got.Guests) != 2 || !got.DateTime.Equal(ev.DateTime) {
		t.Fatalf("got %+v", got)
	}
}

func TestEventStore_GetNotFound(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
		if _, err := s.Get(ctx, id); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Get(%q) err = %v, want ErrNotFound", id, err)
		}
	}
}

func TestEventStore_UpdateBumpsVersion(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	ev := newEvent("Standup")
	if err := s.Save(ctx, ev); err != nil {
		t.Fatalf("Save: %v", err)
	}
	t.Cleanup(func() { _ = s.Delete(ctx, ev.ID) })

	ev.Title = "Daily standup"
	ev.Guests = nil
	if err := s.Save(ctx, ev); err != nil {
		t.Fatalf("update: %v", err)
	}
	if ev.Version != 2 {
		t.Fatalf("version = %d, want 2", ev.Version)
	}

	got, err := s.Get(ctx, ev.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Daily standup" || got.Guests == nil || len(got.Guests) != 0 {
		t.Fatalf("got %+v", got)
	}
}

func TestEventStore_UpdateConflict(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	ev := newEvent("Retro")
	if err := s.Save(ctx, ev); err != nil {
		t.Fatalf("Save: %v", err)
	}
	t.Cleanup(func() { _ = s.Delete(ctx, ev.ID) })

	stale := *ev
	ev.Title = "Retro v2"
	if err := s.Save(ctx, ev); err != nil {
		t.Fatalf("first update: %v", err)
	}

	stale.Title = "Retro stale"
	if err := s.Save(ctx, &stale); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestEventStore_UpdateMissing(t *testing.T) {
	s := setupStore(t)

	ev := newEvent("Ghost")
	ev.ID = uuid.NewString()
	ev.Version = 1
	if err := s.Save(context.Background(), ev); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestEventStore_DeleteAndList(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	ev := newEvent("Offsite")
	if err := s.Save(ctx, ev); err != nil {
		t.Fatalf("Save: %v", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	found := false
	for i := range list {
		if list[i].ID == ev.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("saved event missing from List")
	}

	if err := s.Delete(ctx, ev.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, ev.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second Delete err = %v, want ErrNotFound", err)
	}
	if _, err := s.Get(ctx, ev.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get after delete err = %v", err)
	}
}

func TestMigrationVersion(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("requires DATABASE_URL")
	}
	ctx := context.Background()
	if err := postgres.RunMigrations(ctx, dsn); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	v, err := postgres.MigrationVersion(ctx, dsn)
	if err != nil {
		t.Fatalf("MigrationVersion: %v", err)
	}
	if v < 2 {
		t.Fatalf("version = %d, want >= 2", v)
	}
}
