package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/EventBoard/internal/middleware"
	"github.com/Strob0t/EventBoard/internal/port/cache"
)

var _ cache.Cache = (*memStore)(nil)

// memStore is an in-memory cache.Cache for testing.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemStore() *memStore { return &memStore{data: make(map[string][]byte)} }

func (m *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, false, m.err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// countingHandler responds with the given status and counts invocations.
func countingHandler(status int, calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"id":"ev-1"}`))
	})
}

func do(h http.Handler, method, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(`{}`))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIdempotency_ReplaysSuccessfulResponse(t *testing.T) {
	calls := 0
	h := middleware.Idempotency(newMemStore(), time.Hour)(countingHandler(http.StatusCreated, &calls))

	first := do(h, http.MethodPost, "/events", "k1")
	second := do(h, http.MethodPost, "/events", "k1")

	if calls != 1 {
		t.Fatalf("handler calls = %d, want 1", calls)
	}
	if second.Code != http.StatusCreated || second.Body.String() != first.Body.String() {
		t.Fatalf("replay = %d %q", second.Code, second.Body.String())
	}
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Error("expected replay marker header")
	}
}

func TestIdempotency_KeyScopedToRoute(t *testing.T) {
	calls := 0
	h := middleware.Idempotency(newMemStore(), time.Hour)(countingHandler(http.StatusOK, &calls))

	do(h, http.MethodPut, "/events/a", "k1")
	do(h, http.MethodPut, "/events/b", "k1")
	do(h, http.MethodDelete, "/events/a", "k1")

	if calls != 3 {
		t.Fatalf("handler calls = %d, want 3", calls)
	}
}

func TestIdempotency_FailuresAreNotStored(t *testing.T) {
	calls := 0
	h := middleware.Idempotency(newMemStore(), time.Hour)(countingHandler(http.StatusInternalServerError, &calls))

	do(h, http.MethodPost, "/events", "k2")
	do(h, http.MethodPost, "/events", "k2")

	if calls != 2 {
		t.Fatalf("handler calls = %d, want 2", calls)
	}
}

func TestIdempotency_SkipsReadsAndMissingKey(t *testing.T) {
	calls := 0
	h := middleware.Idempotency(newMemStore(), time.Hour)(countingHandler(http.StatusOK, &calls))

	do(h, http.MethodGet, "/events", "k3")
	do(h, http.MethodGet, "/events", "k3")
	do(h, http.MethodPost, "/events", "")
	do(h, http.MethodPost, "/events", "")

	if calls != 4 {
		t.Fatalf("handler calls = %d, want 4", calls)
	}
}

func TestIdempotency_StoreFailureDegrades(t *testing.T) {
	calls := 0
	store := newMemStore()
	store.err = errors.New("kv unavailable")
	h := middleware.Idempotency(store, time.Hour)(countingHandler(http.StatusCreated, &calls))

	if rec := do(h, http.MethodPost, "/events", "k4"); rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	if calls != 1 {
		t.Fatalf("handler calls = %d", calls)
	}
}

func TestIdempotency_ReplayDoesNotDuplicateOuterHeaders(t *testing.T) {
	calls := 0
	outer := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Request-ID", r.Header.Get("X-Request-ID"))
			w.Header().Set("X-RateLimit-Remaining", "99")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	}
	h := outer(middleware.Idempotency(newMemStore(), time.Hour)(countingHandler(http.StatusCreated, &calls)))

	send := func(reqID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "k1")
		req.Header.Set("X-Request-ID", reqID)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	send("req-1")
	replay := send("req-2")

	if calls != 1 {
		t.Fatalf("handler calls = %d, want 1", calls)
	}
	for _, name := range []string{"X-Request-ID", "X-RateLimit-Remaining", "X-Content-Type-Options", "Content-Type"} {
		if vals := replay.Header().Values(name); len(vals) != 1 {
			t.Errorf("%s = %q, want exactly one value", name, vals)
		}
	}
	if got := replay.Header().Get("X-Request-ID"); got != "req-2" {
		t.Errorf("X-Request-ID = %q, want the replaying request's id", got)
	}
	if got := replay.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
}
