package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/zentra/emojimatch/internal/utils"
	"github.com/zentra/emojimatch/pkg/database"
)

// Counter increments a fixed-window counter for key
type Counter func(ctx context.Context, key string, window time.Duration) (int64, error)

// RedisCounter backs the rate limiter with a shared Redis counter
func RedisCounter(client *redis.Client) Counter {
	return func(ctx context.Context, key string, window time.Duration) (int64, error) {
		return database.IncrementRateLimit(ctx, client, key, window)
	}
}

// RateLimitMiddleware limits requests per user or IP in one-second windows.
// Callers are keyed by user only when an earlier middleware attached a
// Principal. Requests are let through when the counter is unavailable.
func RateLimitMiddleware(counter Counter, rps int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var key string
			if p, ok := GetPrincipal(ctx); ok {
				key = fmt.Sprintf("user:%s", p.UserID.String())
			} else {
				key = fmt.Sprintf("ip:%s", getClientIP(r))
			}

			count, err := counter(ctx, key, time.Second)
			if err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Msg("Rate limit counter unavailable")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rps))
			if count > int64(rps) {
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", "1")
				utils.RespondErrorWithCode(w, http.StatusTooManyRequests, "RATE_LIMITED", "Rate limit exceeded")
				return
			}
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", int64(rps)-count))

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
