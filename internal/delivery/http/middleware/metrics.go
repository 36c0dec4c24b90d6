package middleware

import (
	"net/http"
	"strconv"
	"time"

	"eventplanner/internal/metrics"
)

// Metrics records request count and latency per matched route pattern.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := newStatusRecorder(w)
		next.ServeHTTP(wrapped, r)

		route := routeLabel(r)
		metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(wrapped.status)).Inc()
		metrics.HTTPDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
