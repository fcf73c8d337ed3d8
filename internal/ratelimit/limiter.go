// Package ratelimit enforces per-key fixed-window quotas over minute, hour
// and day windows aligned to the Unix epoch.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tjfontaine/travel-gateway/internal/core/domain"
	"github.com/tjfontaine/travel-gateway/internal/core/ports"
)

// FailureMode decides what happens when the counter store is unreachable.
type FailureMode string

const (
	// FailClosed denies the request with RATE_LIMITER_UNAVAILABLE.
	FailClosed FailureMode = "closed"
	// FailOpen lets the request through and logs a warning.
	FailOpen FailureMode = "open"
)

// ParseFailureMode parses a configured failure mode. Empty means closed.
func ParseFailureMode(s string) (FailureMode, error) {
	switch FailureMode(s) {
	case "", FailClosed:
		return FailClosed, nil
	case FailOpen:
		return FailOpen, nil
	default:
		return "", fmt.Errorf("unknown rate limit failure mode %q", s)
	}
}

// Limiter checks keys against their quotas.
type Limiter struct {
	store  ports.CounterStore
	mode   FailureMode
	now    func() time.Time
	logger *slog.Logger
}

var _ ports.RateLimiter = (*Limiter)(nil)

// Option configures a Limiter.
type Option func(*Limiter)

// WithFailureMode sets the failure mode.
func WithFailureMode(mode FailureMode) Option {
	return func(l *Limiter) { l.mode = mode }
}

// WithClock sets the clock.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) { l.logger = logger }
}

// New creates a Limiter over store.
func New(store ports.CounterStore, opts ...Option) *Limiter {
	l := &Limiter{
		store:  store,
		mode:   FailClosed,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check charges one request to every enforced window of key and reports
// the outcome. Increments are kept even when the request is denied.
//
// A denied result reports the tripped window that resets last. An allowed
// result reports the window with the least remaining quota, the shorter
// window on ties. A key without enforced windows is allowed with a zero
// Limit and the store is not touched.
//
// The returned error is non-nil only when the store failed in closed mode.
func (l *Limiter) Check(ctx context.Context, key *domain.APIKey) (*domain.RateLimitResult, error) {
	var windows []domain.Window
	for _, w := range domain.Windows {
		if key.Quota(w) > 0 {
			windows = append(windows, w)
		}
	}
	if len(windows) == 0 {
		return &domain.RateLimitResult{Allowed: true}, nil
	}

	now := l.now()
	counts, err := l.store.IncrementWindows(ctx, key.ID, windows, now)
	if err != nil {
		if l.mode == FailOpen {
			l.logger.Warn("rate limiter unavailable, allowing request",
				slog.String("key_prefix", key.Prefix),
				slog.String("error", err.Error()),
			)
			return &domain.RateLimitResult{Allowed: true}, nil
		}
		return nil, domain.ErrRateLimiterUnavailable(err)
	}

	return Evaluate(key, counts), nil
}

// Evaluate turns post-increment counts into a result.
func Evaluate(key *domain.APIKey, counts []domain.WindowCount) *domain.RateLimitResult {
	var denied, allowed *domain.RateLimitResult

	for _, c := range counts {
		limit := key.Quota(c.Window)
		r := &domain.RateLimitResult{
			Allowed:   c.Count <= limit,
			Limit:     limit,
			Remaining: max(0, limit-c.Count),
			ResetAt:   c.Start.Add(c.Window.Duration()),
			Window:    c.Window,
		}

		if !r.Allowed {
			if denied == nil || r.ResetAt.After(denied.ResetAt) {
				denied = r
			}
			continue
		}
		if allowed == nil || r.Remaining < allowed.Remaining {
			allowed = r
		}
	}

	if denied != nil {
		return denied
	}
	return allowed
}
