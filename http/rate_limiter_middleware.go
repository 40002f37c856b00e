package http

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
)

func RateLimitMiddleware(
	limiter *RateLimiter,
	logger *slog.Logger,
	next http.Handler,
) http.Handler {

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		client, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			client = r.RemoteAddr
		}

		allowed, retryAfter := limiter.Allow(client)
		if !allowed {
			logger.Warn("rate limit exceeded", "client", client, "path", r.URL.Path)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			writeJSON(w, logger, http.StatusTooManyRequests, errorResponse{Error: "demasiadas solicitudes, intenta más tarde"})
			return
		}

		next.ServeHTTP(w, r)
	})
}
