// Package auth resolves presented credentials to API key records.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tjfontaine/travel-gateway/internal/core/domain"
	"github.com/tjfontaine/travel-gateway/internal/core/ports"
)

type keyContextKey struct{}

// Validator validates API keys against the key store.
type Validator struct {
	store  ports.KeyStore
	logger *slog.Logger
}

// NewValidator creates a validator backed by store.
func NewValidator(store ports.KeyStore, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{store: store, logger: logger}
}

// Authenticate extracts the credential from r and validates it.
func (v *Validator) Authenticate(r *http.Request) (*domain.APIKey, error) {
	raw, ok := ExtractAPIKey(r)
	if !ok {
		return nil, domain.ErrMissingKey()
	}
	return v.Validate(r.Context(), raw)
}

// Validate resolves a raw credential to its key record.
func (v *Validator) Validate(ctx context.Context, raw string) (*domain.APIKey, error) {
	prefix, ok := Prefix(raw)
	if !ok {
		return nil, domain.ErrInvalidKey()
	}

	key, err := v.store.GetKeyByPrefix(ctx, prefix)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			v.logger.DebugContext(ctx, "unknown api key prefix", slog.String("key_prefix", prefix))
			return nil, domain.ErrInvalidKey()
		}
		return nil, domain.ErrInternal(err)
	}

	// Constant-time comparison to prevent timing attacks
	if subtle.ConstantTimeCompare([]byte(HashAPIKey(raw)), []byte(key.KeyHash)) != 1 {
		v.logger.DebugContext(ctx, "api key hash mismatch", slog.String("key_prefix", prefix))
		return nil, domain.ErrInvalidKey()
	}

	if key.IsRevoked() {
		return nil, domain.ErrRevokedKey()
	}

	return key, nil
}

// ExtractAPIKey returns the credential of a request. A bearer token wins;
// an empty or malformed Authorization header falls through to X-API-Key.
func ExtractAPIKey(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			if key := strings.TrimSpace(parts[1]); key != "" {
				return key, true
			}
		}
	}

	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key, true
	}
	return "", false
}

// Prefix returns the lookup prefix of a credential.
func Prefix(raw string) (string, bool) {
	if len(raw) < domain.KeyPrefixLength {
		return "", false
	}
	return raw[:domain.KeyPrefixLength], true
}

// HashAPIKey creates a SHA-256 hash of an API key for storage
func HashAPIKey(apiKey string) string {
	hash := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(hash[:])
}

// WithKey returns a context carrying the authenticated key.
func WithKey(ctx context.Context, key *domain.APIKey) context.Context {
	return context.WithValue(ctx, keyContextKey{}, key)
}

// KeyFromContext returns the authenticated key, or nil if none.
func KeyFromContext(ctx context.Context) *domain.APIKey {
	if k, ok := ctx.Value(keyContextKey{}).(*domain.APIKey); ok {
		return k
	}
	return nil
}
