package http

import (
	"net/http"
	"time"
)

type RequestObserver interface {
	ObserveRequest(method, route string, status int, duration time.Duration)
}

// MetricsMiddleware reports every request under its route pattern, so path
// values such as company ids do not become labels.
func MetricsMiddleware(observer RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			observer.ObserveRequest(r.Method, route, rw.status, time.Since(start))
		})
	}
}
