package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		expected string
	}{
		{
			name:     "code and message",
			err:      &APIError{Code: ErrorCodeInvalidKey, Message: "API key is invalid"},
			expected: "INVALID_KEY: API key is invalid",
		},
		{
			name:     "with cause",
			err:      &APIError{Code: ErrorCodeInternal, Message: "internal server error", Err: errors.New("disk full")},
			expected: "INTERNAL_ERROR: internal server error: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAPIError_HTTPStatusCode(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrorCodeMissingKey, http.StatusUnauthorized},
		{ErrorCodeInvalidKey, http.StatusUnauthorized},
		{ErrorCodeRevokedKey, http.StatusUnauthorized},
		{ErrorCodeRateLimitExceeded, http.StatusTooManyRequests},
		{ErrorCodeRateLimiterUnavailable, http.StatusServiceUnavailable},
		{ErrorCodeInvalidRequest, http.StatusBadRequest},
		{ErrorCodeNotFound, http.StatusNotFound},
		{ErrorCodeUnresolvedLocation, http.StatusUnprocessableEntity},
		{ErrorCodeProviderDegraded, http.StatusOK},
		{ErrorCodeInternal, http.StatusInternalServerError},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := &APIError{Code: tt.code}
			if got := err.HTTPStatusCode(); got != tt.expected {
				t.Errorf("HTTPStatusCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestAPIError_WithStatus(t *testing.T) {
	err := NewAPIError(ErrorCodeInvalidRequest, "method not allowed").WithStatus(http.StatusMethodNotAllowed)
	if err.HTTPStatusCode() != http.StatusMethodNotAllowed {
		t.Errorf("HTTPStatusCode() = %d, want %d", err.HTTPStatusCode(), http.StatusMethodNotAllowed)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *APIError
		code   ErrorCode
		status int
	}{
		{"ErrMissingKey", ErrMissingKey(), ErrorCodeMissingKey, http.StatusUnauthorized},
		{"ErrInvalidKey", ErrInvalidKey(), ErrorCodeInvalidKey, http.StatusUnauthorized},
		{"ErrRevokedKey", ErrRevokedKey(), ErrorCodeRevokedKey, http.StatusUnauthorized},
		{"ErrRateLimitExceeded", ErrRateLimitExceeded(WindowHour), ErrorCodeRateLimitExceeded, http.StatusTooManyRequests},
		{"ErrRateLimiterUnavailable", ErrRateLimiterUnavailable(errors.New("dial tcp")), ErrorCodeRateLimiterUnavailable, http.StatusServiceUnavailable},
		{"ErrInvalidRequest", ErrInvalidRequest("bad body"), ErrorCodeInvalidRequest, http.StatusBadRequest},
		{"ErrResourceNotFound", ErrResourceNotFound("search not found"), ErrorCodeNotFound, http.StatusNotFound},
		{"ErrUnresolvedLocation", ErrUnresolvedLocation("Atlantis"), ErrorCodeUnresolvedLocation, http.StatusUnprocessableEntity},
		{"ErrInternal", ErrInternal(errors.New("boom")), ErrorCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.code)
			}
			if tt.err.Status != tt.status {
				t.Errorf("Status = %d, want %d", tt.err.Status, tt.status)
			}
			if tt.err.Message == "" {
				t.Error("Message is empty")
			}
		})
	}

	if w := ErrRateLimitExceeded(WindowHour).Window; w != "hour" {
		t.Errorf("Window = %q, want %q", w, "hour")
	}
}

func TestAsAPIError(t *testing.T) {
	if AsAPIError(nil) != nil {
		t.Error("AsAPIError(nil) should be nil")
	}

	wrapped := fmt.Errorf("resolve destination: %w", ErrUnresolvedLocation("Atlantis"))
	if got := AsAPIError(wrapped); got.Code != ErrorCodeUnresolvedLocation {
		t.Errorf("AsAPIError(wrapped).Code = %v, want %v", got.Code, ErrorCodeUnresolvedLocation)
	}

	cause := errors.New("connection reset")
	got := AsAPIError(cause)
	if got.Code != ErrorCodeInternal {
		t.Errorf("AsAPIError(plain).Code = %v, want %v", got.Code, ErrorCodeInternal)
	}
	if !errors.Is(got, cause) {
		t.Error("AsAPIError(plain) should unwrap to the cause")
	}
}
