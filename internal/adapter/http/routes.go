package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// RouteConfig controls how routes are mounted.
type RouteConfig struct {
	// RequestTimeout bounds non-streaming requests; 0 disables it.
	RequestTimeout time.Duration
	// API middleware wraps the non-streaming routes only (tracing, idempotency).
	API []func(http.Handler) http.Handler
}

// MountRoutes registers the event API and the push endpoints on r.
// Push streams are long-lived and are mounted outside the timeout group.
func MountRoutes(r chi.Router, h *Handlers, rc RouteConfig) {
	r.Group(func(r chi.Router) {
		if rc.RequestTimeout > 0 {
			r.Use(chimw.Timeout(rc.RequestTimeout))
		}
		r.Use(rc.API...)

		r.Get("/health", h.Health)

		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.ListEvents)
			r.Post("/", h.CreateEvent)
			r.Get("/{id}", h.GetEvent)
			r.Put("/{id}", h.UpdateEvent)
			r.Delete("/{id}", h.DeleteEvent)
		})
	})

	r.Get("/sse", h.Streams.HandleSSE)
	r.Get("/ws", h.Streams.HandleWS)
}
