package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"iotledger/internal/platform/metrics"
)

// Latency records per-route request metrics. Mounted at the root router so
// every feature handler is covered. The chi route pattern keeps label
// cardinality bounded regardless of path parameters.
func Latency(m *metrics.HTTP) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			done := m.TrackInFlight()
			defer done()

			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			m.ObserveRequest(r.Method, route, recorder.status, time.Since(start))
		})
	}
}
