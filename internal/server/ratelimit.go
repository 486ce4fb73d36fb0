package server

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter increments a windowed counter and returns the new value.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter keeps counters in Redis. The first increment of a window sets
// its expiry.
type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimiter allows Limit requests per client IP and fixed window.
type RateLimiter struct {
	counter Counter
	prefix  string
	limit   int
	window  time.Duration
}

func NewRateLimiter(counter Counter, prefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{counter: counter, prefix: prefix, limit: limit, window: window}
}

// Middleware rejects requests over the limit with 429. Counter failures let
// the request through.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count, err := l.counter.Incr(r.Context(), l.prefix+":"+clientIP(r), l.window)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, l.limit-int(count))))

		if int(count) > l.limit {
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			writeError(w, http.StatusTooManyRequests, "Too many login attempts. Try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP is RemoteAddr without the port. RealIP has already replaced
// RemoteAddr with the forwarded address when a proxy sets one.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
