package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tjfontaine/travel-gateway/internal/core/domain"
	"github.com/tjfontaine/travel-gateway/internal/storage/memory"
)

const (
	validKey   = "tg_live_0123456789abcdef"
	revokedKey = "tg_live_revoked000000000"
)

type failingStore struct{}

func (failingStore) GetKeyByPrefix(ctx context.Context, prefix string) (*domain.APIKey, error) {
	return nil, errors.New("connection refused")
}

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	store := memory.New()
	ctx := context.Background()

	for _, k := range []*domain.APIKey{
		{ID: "k1", TenantID: "t1", Prefix: validKey[:domain.KeyPrefixLength], KeyHash: HashAPIKey(validKey)},
		{ID: "k2", TenantID: "t1", Prefix: revokedKey[:domain.KeyPrefixLength], KeyHash: HashAPIKey(revokedKey), Status: domain.KeyStatusRevoked},
	} {
		if err := store.CreateKey(ctx, k); err != nil {
			t.Fatalf("CreateKey() error = %v", err)
		}
	}
	return NewValidator(store, nil)
}

func TestHashAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		apiKey   string
		expected string
	}{
		{
			name:     "simple key",
			apiKey:   "test-key-123",
			expected: "625faa3fbbc3d2bd9d6ee7678d04cc5339cb33dc68d9b58451853d60046e226a",
		},
		{
			name:     "empty key",
			apiKey:   "",
			expected: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash := HashAPIKey(tt.apiKey)
			if hash != tt.expected {
				t.Errorf("HashAPIKey() = %v, want %v", hash, tt.expected)
			}
		})
	}
}

func TestExtractAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
		wantOK  bool
	}{
		{"bearer", map[string]string{"Authorization": "Bearer abc"}, "abc", true},
		{"lowercase scheme", map[string]string{"Authorization": "bearer abc"}, "abc", true},
		{"x-api-key", map[string]string{"X-API-Key": "xyz"}, "xyz", true},
		{"bearer wins", map[string]string{"Authorization": "Bearer abc", "X-API-Key": "xyz"}, "abc", true},
		{"empty bearer falls through", map[string]string{"Authorization": "Bearer ", "X-API-Key": "xyz"}, "xyz", true},
		{"malformed falls through", map[string]string{"Authorization": "Basic abc", "X-API-Key": "xyz"}, "xyz", true},
		{"malformed alone", map[string]string{"Authorization": "abc"}, "", false},
		{"none", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			got, ok := ExtractAPIKey(r)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ExtractAPIKey() = %q, %v, want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestValidator_Authenticate(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name     string
		header   string
		wantCode domain.ErrorCode
		wantID   string
	}{
		{"valid key", "Bearer " + validKey, "", "k1"},
		{"missing key", "", domain.ErrorCodeMissingKey, ""},
		{"short key", "Bearer tg_live", domain.ErrorCodeInvalidKey, ""},
		{"unknown prefix", "Bearer tg_test_0123456789abcdef", domain.ErrorCodeInvalidKey, ""},
		{"hash mismatch", "Bearer " + validKey[:domain.KeyPrefixLength] + "wrong", domain.ErrorCodeInvalidKey, ""},
		{"revoked", "Bearer " + revokedKey, domain.ErrorCodeRevokedKey, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/v1/search", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			key, err := v.Authenticate(r)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("Authenticate() error = %v", err)
				}
				if key.ID != tt.wantID {
					t.Errorf("Authenticate().ID = %v, want %v", key.ID, tt.wantID)
				}
				return
			}

			var apiErr *domain.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Authenticate() error = %v, want APIError", err)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("Authenticate() code = %v, want %v", apiErr.Code, tt.wantCode)
			}
			if apiErr.HTTPStatusCode() != http.StatusUnauthorized {
				t.Errorf("HTTPStatusCode() = %d, want 401", apiErr.HTTPStatusCode())
			}
		})
	}
}

func TestValidator_StoreFailure(t *testing.T) {
	v := NewValidator(failingStore{}, nil)

	_, err := v.Validate(context.Background(), validKey)
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != domain.ErrorCodeInternal {
		t.Errorf("Validate() error = %v, want INTERNAL_ERROR", err)
	}
}

func TestKeyFromContext(t *testing.T) {
	if KeyFromContext(context.Background()) != nil {
		t.Error("KeyFromContext() on empty context should be nil")
	}
	key := &domain.APIKey{ID: "k1"}
	if got := KeyFromContext(WithKey(context.Background(), key)); got != key {
		t.Errorf("KeyFromContext() = %v, want %v", got, key)
	}
}
