package server

import (
	"net/http"

	"github.com/tjfontaine/travel-gateway/internal/auth"
)

// AuthMiddleware validates the API key and attaches it to the context.
// Failures short-circuit with MISSING_KEY, INVALID_KEY or REVOKED_KEY.
func AuthMiddleware(validator *auth.Validator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, err := validator.Authenticate(r)
			if err != nil {
				WriteError(w, r, err)
				return
			}

			ctx := auth.WithKey(r.Context(), key)
			AddLogField(ctx, "tenant_id", key.TenantID)
			AddLogField(ctx, "key_prefix", key.Prefix)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
