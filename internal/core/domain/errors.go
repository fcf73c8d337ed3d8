package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrIncompleteSearch is returned by providers given a context missing a
// field they need to query.
var ErrIncompleteSearch = errors.New("search context is missing required fields")

// ErrorCode is the machine-readable error code returned to clients.
type ErrorCode string

const (
	ErrorCodeMissingKey             ErrorCode = "MISSING_KEY"
	ErrorCodeInvalidKey             ErrorCode = "INVALID_KEY"
	ErrorCodeRevokedKey             ErrorCode = "REVOKED_KEY"
	ErrorCodeRateLimitExceeded      ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrorCodeRateLimiterUnavailable ErrorCode = "RATE_LIMITER_UNAVAILABLE"
	ErrorCodeInvalidRequest         ErrorCode = "INVALID_REQUEST"
	ErrorCodeNotFound               ErrorCode = "NOT_FOUND"
	ErrorCodeUnresolvedLocation     ErrorCode = "UNRESOLVED_LOCATION"
	ErrorCodeProviderDegraded       ErrorCode = "PROVIDER_DEGRADED"
	ErrorCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// APIError is the canonical error that reaches the client.
// Any error that is not an APIError is reported as INTERNAL_ERROR.
type APIError struct {
	// Code is the error code from the taxonomy
	Code ErrorCode `json:"code"`

	// Message is the human-readable error message
	Message string `json:"message"`

	// Status is the HTTP status code
	Status int `json:"status"`

	// Window names the rate-limit window that tripped (rate limit errors only)
	Window string `json:"window,omitempty"`

	// Err is the underlying cause, never serialized
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the HTTP status for this error.
func (e *APIError) HTTPStatusCode() int {
	if e.Status != 0 {
		return e.Status
	}

	switch e.Code {
	case ErrorCodeMissingKey, ErrorCodeInvalidKey, ErrorCodeRevokedKey:
		return http.StatusUnauthorized
	case ErrorCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case ErrorCodeRateLimiterUnavailable:
		return http.StatusServiceUnavailable
	case ErrorCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeUnresolvedLocation:
		return http.StatusUnprocessableEntity
	case ErrorCodeProviderDegraded:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// NewAPIError creates a new API error with the default status for its code.
func NewAPIError(code ErrorCode, message string) *APIError {
	e := &APIError{Code: code, Message: message}
	e.Status = e.HTTPStatusCode()
	return e
}

// WithCause attaches an underlying error.
func (e *APIError) WithCause(err error) *APIError {
	e.Err = err
	return e
}

// WithStatus overrides the HTTP status.
func (e *APIError) WithStatus(status int) *APIError {
	e.Status = status
	return e
}

// WithWindow records the rate-limit window that tripped.
func (e *APIError) WithWindow(window string) *APIError {
	e.Window = window
	return e
}

// ErrMissingKey creates a MISSING_KEY error.
func ErrMissingKey() *APIError {
	return NewAPIError(ErrorCodeMissingKey, "API key is required")
}

// ErrInvalidKey creates an INVALID_KEY error.
func ErrInvalidKey() *APIError {
	return NewAPIError(ErrorCodeInvalidKey, "API key is invalid")
}

// ErrRevokedKey creates a REVOKED_KEY error.
func ErrRevokedKey() *APIError {
	return NewAPIError(ErrorCodeRevokedKey, "API key has been revoked")
}

// ErrRateLimitExceeded creates a RATE_LIMIT_EXCEEDED error for the given window.
func ErrRateLimitExceeded(window Window) *APIError {
	return NewAPIError(ErrorCodeRateLimitExceeded,
		fmt.Sprintf("rate limit exceeded for the %s window", window)).
		WithWindow(window.String())
}

// ErrRateLimiterUnavailable creates a RATE_LIMITER_UNAVAILABLE error.
func ErrRateLimiterUnavailable(err error) *APIError {
	return NewAPIError(ErrorCodeRateLimiterUnavailable, "rate limiter unavailable").WithCause(err)
}

// ErrInvalidRequest creates an INVALID_REQUEST error.
func ErrInvalidRequest(message string) *APIError {
	return NewAPIError(ErrorCodeInvalidRequest, message)
}

// ErrResourceNotFound creates a NOT_FOUND error.
func ErrResourceNotFound(message string) *APIError {
	return NewAPIError(ErrorCodeNotFound, message)
}

// ErrUnresolvedLocation creates an UNRESOLVED_LOCATION error for the given input.
func ErrUnresolvedLocation(input string) *APIError {
	return NewAPIError(ErrorCodeUnresolvedLocation,
		fmt.Sprintf("could not resolve location %q", input))
}

// ErrInternal creates an INTERNAL_ERROR wrapping err.
func ErrInternal(err error) *APIError {
	return NewAPIError(ErrorCodeInternal, "internal server error").WithCause(err)
}

// AsAPIError converts any error into an APIError.
// Errors that are not already APIErrors become INTERNAL_ERROR.
func AsAPIError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return ErrInternal(err)
}
