package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter enforces a fixed-window request budget per client IP, counted
// in Redis so that every server instance shares the same window.
//
// A nil Redis client disables limiting. When Redis is unreachable the
// request is let through and a warning is logged.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	logger *slog.Logger
}

// NewRateLimiter creates a RateLimiter allowing limit requests per window.
func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{rdb: rdb, limit: limit, window: window, logger: logger}
}

// Allow counts one request for (resource, id) and reports whether it fits
// in the current window.
//
// SET NX EX and INCR run in one MULTI/EXEC transaction. The first request
// of a window creates the key at 0 with its expiry, INCR then counts it and
// keeps the TTL, so a counter key can never exist without an expiry.
func (rl *RateLimiter) Allow(ctx context.Context, resource, id string) (bool, error) {
	if rl.rdb == nil {
		return true, nil
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	var incr *redis.IntCmd
	_, err := rl.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, rl.window)
		incr = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("counting %s: %w", key, err)
	}

	return incr.Val() <= int64(rl.limit), nil
}

// Limit returns middleware that applies the limiter to one named resource,
// e.g. "login". Requests over budget get 429 with a Retry-After header.
func (rl *RateLimiter) Limit(resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := rl.Allow(r.Context(), resource, "ip:"+clientIP(r))
			if err != nil {
				rl.logger.Warn("rate limiter unavailable, allowing request",
					slog.String("resource", resource),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				RateLimitedTotal.WithLabelValues(resource).Inc()
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":   "rate_limited",
					"message": "too many requests, try again later",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr. RemoteAddr is the TCP peer
// unless the server runs chi's RealIP, which it only does when
// TRUST_PROXY_HEADERS is set.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
