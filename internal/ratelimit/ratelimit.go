// Package ratelimit limits inbound webhook traffic per client address.
package ratelimit

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Limiter decides whether one more request for key is allowed now.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// Window converts a requests-per-second rate and burst into the sliding
// window the Redis limiter enforces: burst requests per burst/rps seconds.
func Window(rps float64, burst int) time.Duration {
	if rps <= 0 || burst <= 0 {
		return time.Second
	}
	w := time.Duration(float64(burst) / rps * float64(time.Second))
	if w < time.Millisecond {
		return time.Millisecond
	}
	return w
}

// Middleware rejects requests over the limit with 429.
func Middleware(l Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !l.Allow(r.Context(), ip) {
				logger.Warn("webhook rate limited", "client_ip", ip, "path", r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(1))
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr. chi's RealIP middleware has
// already applied X-Forwarded-For / X-Real-IP by the time this runs.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
