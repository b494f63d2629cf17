package otel

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// untracedPaths are polled by orchestrators and would drown real traffic.
var untracedPaths = map[string]bool{"/health": true}

// HTTPMiddleware traces API requests. Spans are renamed after the matched
// chi route ("PUT /events/{id}") once routing has finished, so ids never
// end up in span names.
func HTTPMiddleware(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		named := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if name, route := routeName(r); route != "" {
				span := trace.SpanFromContext(r.Context())
				span.SetName(name)
				span.SetAttributes(attribute.String("http.route", route))
			}
		})
		return otelhttp.NewHandler(named, serviceName,
			otelhttp.WithFilter(func(r *http.Request) bool {
				return !untracedPaths[r.URL.Path]
			}),
		)
	}
}

// routeName returns "METHOD pattern" for a routed request, or empty strings
// when chi has not matched a route.
func routeName(r *http.Request) (name, route string) {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return "", ""
	}
	route = rctx.RoutePattern()
	if route == "" {
		return "", ""
	}
	return r.Method + " " + route, route
}
