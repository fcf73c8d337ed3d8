package provider

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/tjfontaine/travel-gateway/internal/core/domain"
	"github.com/tjfontaine/travel-gateway/internal/core/ports"
	"github.com/tjfontaine/travel-gateway/internal/pkg/config"
)

type stubProvider struct {
	name    string
	kind    domain.ResultKind
	timeout time.Duration
	calls   int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Kind() domain.ResultKind { return s.kind }

func (s *stubProvider) Timeout() time.Duration { return s.timeout }

func (s *stubProvider) Search(ctx context.Context, sc *domain.SearchContext) ([]domain.ProviderResult, error) {
	s.calls++
	return []domain.ProviderResult{{Kind: s.kind, Provider: s.name}}, nil
}

func TestMain(m *testing.M) {
	ClearFactories()
	// Register minimal stub factories to satisfy provider tests without pulling in HTTP adapters.
	RegisterFactory(ProviderFactory{
		Type:        "flightapi",
		Kind:        domain.KindFlight,
		Description: "stub flightapi",
		Create: func(cfg config.ProviderConfig) (ports.Provider, error) {
			return &stubProvider{name: cfg.Name, kind: domain.KindFlight, timeout: cfg.Timeout}, nil
		},
		ValidateConfig: func(cfg config.ProviderConfig) error { return nil },
	})
	RegisterFactory(ProviderFactory{
		Type:        "hotelapi",
		Kind:        domain.KindHotel,
		Description: "stub hotelapi",
		Create: func(cfg config.ProviderConfig) (ports.Provider, error) {
			return &stubProvider{name: cfg.Name, kind: domain.KindHotel, timeout: cfg.Timeout}, nil
		},
		ValidateConfig: func(cfg config.ProviderConfig) error { return nil },
	})
	os.Exit(m.Run())
}
