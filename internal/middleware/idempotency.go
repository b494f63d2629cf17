package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/Strob0t/EventBoard/internal/logger"
	"github.com/Strob0t/EventBoard/internal/port/cache"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
	maxIdempotencyBody   = 1 << 20 // 1 MB
)

// idempotencyEntry stores a completed HTTP response.
type idempotencyEntry struct {
	StatusCode int                 `json:"status_code"`
	Headers    map[string][]string `json:"headers"`
	Body       []byte              `json:"body"`
}

// Idempotency returns middleware that replays the stored response for a
// repeated POST/PUT/DELETE carrying the same Idempotency-Key on the same
// route. Only successful responses are stored, so failed attempts can be
// retried. Store errors degrade to normal processing.
func Idempotency(store cache.Cache, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodDelete {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(headerIdempotencyKey)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			log := logger.FromContext(r.Context())
			storeKey := idempotencyKey(r.Method, r.URL.Path, key)

			if data, ok, err := store.Get(r.Context(), storeKey); err != nil {
				log.Warn("idempotency lookup failed", "error", err)
			} else if ok {
				var cached idempotencyEntry
				if err := json.Unmarshal(data, &cached); err == nil {
					for k, vals := range cached.Headers {
						w.Header()[k] = vals
					}
					w.Header().Set(headerReplayed, "true")
					w.WriteHeader(cached.StatusCode)
					_, _ = w.Write(cached.Body)
					return
				}
				log.Warn("idempotency: corrupt entry", "key", key)
			}

			outer := w.Header().Clone()
			rec := &responseRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				body:           &bytes.Buffer{},
			}
			next.ServeHTTP(rec, r)

			if rec.statusCode < 200 || rec.statusCode >= 300 || rec.body.Len() > maxIdempotencyBody {
				return
			}
			data, err := json.Marshal(idempotencyEntry{
				StatusCode: rec.statusCode,
				Headers:    handlerHeaders(outer, w.Header()),
				Body:       rec.body.Bytes(),
			})
			if err != nil {
				return
			}
			if err := store.Set(r.Context(), storeKey, data, ttl); err != nil {
				log.Warn("idempotency: failed to store response", "key", key, "error", err)
			}
		})
	}
}

// idempotencyKey scopes a client key to one route and hashes it into the
// key alphabet accepted by every cache backend.
func idempotencyKey(method, path, key string) string {
	sum := sha256.Sum256([]byte(method + " " + path + " " + key))
	return "idem." + hex.EncodeToString(sum[:])
}

// handlerHeaders returns the headers the wrapped handler added or changed.
// Headers set by outer middleware before the handler ran (request id, rate
// limit, CORS, security) are left out; they are set afresh on a replay.
func handlerHeaders(before, after http.Header) http.Header {
	out := make(http.Header)
	for k, vals := range after {
		if slices.Equal(before[k], vals) {
			continue
		}
		out[k] = slices.Clone(vals)
	}
	return out
}

// responseRecorder wraps http.ResponseWriter to capture the response.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
