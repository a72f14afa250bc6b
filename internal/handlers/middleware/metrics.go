package middleware

import (
	"net/http"
	"time"
)

type metricsRecorder interface {
	ObserveHTTP(method string, route string, status int, elapsed time.Duration)
}

// MetricsMiddleware records request count and duration by route pattern
// Must wrap ServeMux directly: the mux sets matched pattern to the request it gets
func MetricsMiddleware(m metricsRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			lw := &logWriter{
				ResponseWriter: w,
				data:           logData{responseStatus: http.StatusOK},
			}

			next.ServeHTTP(lw, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			m.ObserveHTTP(r.Method, route, lw.data.responseStatus, time.Since(start))
		})
	}
}
