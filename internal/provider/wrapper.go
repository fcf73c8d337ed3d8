package provider

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/tjfontaine/travel-gateway/internal/core/domain"
	"github.com/tjfontaine/travel-gateway/internal/core/ports"
)

// PacedProvider wraps a provider and paces outbound calls with a token bucket.
// Waiting for a token counts against the caller's deadline.
type PacedProvider struct {
	inner   ports.Provider
	limiter *rate.Limiter
}

// NewPacedProvider creates a new PacedProvider allowing rps calls per second
// with the given burst (at least 1).
func NewPacedProvider(inner ports.Provider, rps float64, burst int) *PacedProvider {
	if burst < 1 {
		burst = 1
	}
	return &PacedProvider{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (p *PacedProvider) Name() string {
	return p.inner.Name()
}

func (p *PacedProvider) Kind() domain.ResultKind {
	return p.inner.Kind()
}

func (p *PacedProvider) Timeout() time.Duration {
	return p.inner.Timeout()
}

func (p *PacedProvider) Search(ctx context.Context, sc *domain.SearchContext) ([]domain.ProviderResult, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		// Wait fails before the deadline when no token can arrive in time
		if _, ok := ctx.Deadline(); ok && ctx.Err() == nil {
			return nil, fmt.Errorf("provider %s pacing: %w: %v", p.inner.Name(), context.DeadlineExceeded, err)
		}
		return nil, fmt.Errorf("provider %s pacing: %w", p.inner.Name(), err)
	}
	return p.inner.Search(ctx, sc)
}
