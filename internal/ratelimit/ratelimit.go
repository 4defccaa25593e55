// Package ratelimit implements a fixed-window request limiter on Redis
// counters.
//
// The first increment of a window arms its expiry; once the counter passes
// the limit the caller is rejected until the window lapses. A cache backend
// failure fails open — rate limiting is protection, not a correctness
// guarantee.
package ratelimit

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/actabi/FreelanceAcademy/internal/cache"
)

// Limiter counts requests per key within a fixed window.
type Limiter struct {
	cache  *cache.Cache
	scope  string
	limit  int64
	window time.Duration
	log    *slog.Logger
}

// New returns a Limiter allowing limit requests per window under the given
// key scope.
func New(c *cache.Cache, scope string, limit int64, window time.Duration, log *slog.Logger) *Limiter {
	if log == nil {
		log = slog.Default()
	}
	return &Limiter{cache: c, scope: scope, limit: limit, window: window, log: log}
}

// Allow reports whether the caller identified by key may proceed.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	n, err := l.cache.IncrementCounter(ctx, "ratelimit:"+l.scope+":"+key, l.window)
	if err != nil {
		l.log.Warn("rate limit counter failed, allowing request", "key", key, "err", err)
		return true
	}
	return n <= l.limit
}

// Middleware wraps an HTTP handler, keying on the x-user-id header when
// present and the remote address otherwise.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("x-user-id")
		if key == "" {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			key = host
		}
		if !l.Allow(r.Context(), key) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
