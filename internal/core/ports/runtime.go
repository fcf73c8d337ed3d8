package ports

import (
	"context"
	"time"

	"github.com/tjfontaine/travel-gateway/internal/core/domain"
)

// Provider is a downstream inventory back-end.
// Implementations: flightapi, hotelapi.
type Provider interface {
	// Name returns the configured instance name.
	Name() string

	// Kind returns the kind of results the provider returns.
	Kind() domain.ResultKind

	// Timeout returns the per-call timeout, or zero for the orchestrator default.
	Timeout() time.Duration

	// Search queries the provider. Implementations must honour ctx cancellation.
	Search(ctx context.Context, sc *domain.SearchContext) ([]domain.ProviderResult, error)
}

// RateLimiter decides whether an authenticated key may proceed.
type RateLimiter interface {
	Check(ctx context.Context, key *domain.APIKey) (*domain.RateLimitResult, error)
}
