package server

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/tjfontaine/travel-gateway/internal/auth"
	"github.com/tjfontaine/travel-gateway/internal/core/domain"
	"github.com/tjfontaine/travel-gateway/internal/core/ports"
)

// Rate limit response headers.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRateLimitWindow    = "X-RateLimit-Window"
	HeaderRetryAfter         = "Retry-After"
)

// rateLimitContextKey is the context key for rate limit info
type rateLimitContextKey struct{}

// GetRateLimit returns the rate limit result of the current request, or
// nil when none was computed.
func GetRateLimit(ctx context.Context) *domain.RateLimitResult {
	if rl, ok := ctx.Value(rateLimitContextKey{}).(*domain.RateLimitResult); ok {
		return rl
	}
	return nil
}

// RateLimitMiddleware charges the authenticated key one request and writes
// the X-RateLimit-* headers for the window that decided. Denied requests
// get RATE_LIMIT_EXCEEDED with Retry-After. Must run after AuthMiddleware.
func RateLimitMiddleware(limiter ports.RateLimiter) func(http.Handler) http.Handler {
	return rateLimitMiddleware(limiter, time.Now)
}

func rateLimitMiddleware(limiter ports.RateLimiter, now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := auth.KeyFromContext(r.Context())
			if key == nil {
				WriteError(w, r, domain.ErrMissingKey())
				return
			}

			result, err := limiter.Check(r.Context(), key)
			if err != nil {
				WriteError(w, r, err)
				return
			}

			// a zero limit means nothing was enforced: unlimited key or fail-open
			if result.Limit > 0 {
				writeRateLimitHeaders(w.Header(), result)
			}

			if !result.Allowed {
				w.Header().Set(HeaderRetryAfter, strconv.FormatInt(retryAfter(result.ResetAt, now()), 10))
				WriteError(w, r, domain.ErrRateLimitExceeded(result.Window))
				return
			}

			ctx := context.WithValue(r.Context(), rateLimitContextKey{}, result)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeRateLimitHeaders(h http.Header, rl *domain.RateLimitResult) {
	h.Set(HeaderRateLimitLimit, strconv.FormatInt(rl.Limit, 10))
	h.Set(HeaderRateLimitRemaining, strconv.FormatInt(rl.Remaining, 10))
	h.Set(HeaderRateLimitReset, strconv.FormatInt(rl.ResetAt.Unix(), 10))
	h.Set(HeaderRateLimitWindow, rl.Window.String())
}

// retryAfter returns the whole seconds until reset, at least one.
func retryAfter(reset, now time.Time) int64 {
	secs := int64(math.Ceil(reset.Sub(now).Seconds()))
	return max(secs, 1)
}
