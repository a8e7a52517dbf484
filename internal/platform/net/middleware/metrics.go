package middleware

import (
	"net/http"
	"time"

	"signalgate/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

// Metrics records request count and latency labelled by the matched chi route pattern
// Unmatched requests are labelled "unmatched" to keep cardinality bounded
func Metrics(m *metrics.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(cw, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if p := rc.RoutePattern(); p != "" {
					route = p
				}
			}
			m.HTTPRequest(r.Method, route, cw.status, time.Since(start))
		})
	}
}
