package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/tjfontaine/travel-gateway/internal/core/domain"
)

// redactedMessage replaces INTERNAL_ERROR detail in production.
const redactedMessage = "internal server error"

type errorConfigKey struct{}

type errorConfig struct {
	production bool
	logger     *slog.Logger
}

// errorEnvelope is the body of every failed response.
type errorEnvelope struct {
	Success bool             `json:"success"`
	Error   *domain.APIError `json:"error"`
}

// ErrorMiddleware recovers panics into INTERNAL_ERROR responses and
// configures how WriteError renders internal errors. When production is
// set their detail is logged but never returned to the client.
func ErrorMiddleware(logger *slog.Logger, production bool) func(http.Handler) http.Handler {
	cfg := &errorConfig{production: production, logger: logger}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), errorConfigKey{}, cfg)
			r = r.WithContext(ctx)
			tw := &trackingResponseWriter{ResponseWriter: w}

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic recovered",
					slog.String("request_id", GetRequestID(ctx)),
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)
				if !tw.wroteHeader {
					WriteError(tw, r, fmt.Errorf("panic: %v", rec))
				}
			}()

			next.ServeHTTP(tw, r)
		})
	}
}

// WriteError renders err as the error envelope. Errors that are not
// *domain.APIError become INTERNAL_ERROR.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	apiErr := domain.AsAPIError(err)
	AddLogField(ctx, "error_code", string(apiErr.Code))
	AddError(ctx, err)

	out := *apiErr
	if out.Code == domain.ErrorCodeInternal {
		cfg, _ := ctx.Value(errorConfigKey{}).(*errorConfig)
		logger := slog.Default()
		if cfg != nil && cfg.logger != nil {
			logger = cfg.logger
		}
		logger.Error("internal error",
			slog.String("request_id", GetRequestID(ctx)),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)

		switch {
		case cfg != nil && cfg.production:
			out.Message = redactedMessage
		case apiErr.Err != nil:
			out.Message = apiErr.Err.Error()
		}
	}

	if out.Code == domain.ErrorCodeRateLimitExceeded {
		AddLogField(ctx, "ratelimit_window", out.Window)
	}

	WriteJSON(w, out.HTTPStatusCode(), errorEnvelope{Success: false, Error: &out})
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("failed to write response", slog.String("error", err.Error()))
	}
}

// trackingResponseWriter remembers whether the status line went out so a
// recovered panic does not write a second one.
type trackingResponseWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (tw *trackingResponseWriter) WriteHeader(code int) {
	tw.wroteHeader = true
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *trackingResponseWriter) Write(b []byte) (int, error) {
	tw.wroteHeader = true
	return tw.ResponseWriter.Write(b)
}
