package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/Strob0t/EventBoard/internal/adapter/push"
	"github.com/Strob0t/EventBoard/internal/service"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// Handlers holds the services the HTTP surface delegates to.
type Handlers struct {
	Events  *service.EventService
	Streams *push.Streams
	// Checks are run by GET /health, keyed by dependency name.
	Checks map[string]HealthCheck
}

// ListEvents handles GET /events
func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	handleList(h.Events.List)(w, r)
}

// GetEvent handles GET /events/{id}
func (h *Handlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Events.Get, "event not found")(w, r)
}

// CreateEvent handles POST /events
func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.Events.Create)(w, r)
}

// UpdateEvent handles PUT /events/{id}
func (h *Handlers) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.Events.Update, "event not found")(w, r)
}

// DeleteEvent handles DELETE /events/{id}. Deleting an unknown id succeeds.
func (h *Handlers) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Events.Delete, "event not found")(w, r)
}

type healthResponse struct {
	Status      string            `json:"status"`
	Subscribers int               `json:"subscribers"`
	Checks      map[string]string `json:"checks,omitempty"`
}

// Health handles GET /health. It answers 503 when any dependency check fails.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if h.Streams != nil {
		resp.Subscribers = h.Streams.Registry().Count()
	}

	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) > 0 {
		resp.Checks = make(map[string]string, len(names))
	}
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := h.Checks[name](ctx)
		cancel()
		if err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
