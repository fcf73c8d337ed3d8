package server

import (
	"context"
	"net/http"
	"time"
)

// TimeoutMiddleware bounds the request context to timeout. Handlers and
// the provider calls they make observe the deadline through ctx; the
// middleware never writes a response itself. A non-positive timeout
// disables it.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
