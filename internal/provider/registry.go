package provider

import (
	"fmt"

	"github.com/tjfontaine/travel-gateway/internal/core/ports"
	"github.com/tjfontaine/travel-gateway/internal/pkg/config"
)

// Registry creates providers from configuration using the registered
// ProviderFactory instances. See factory.go.
type Registry struct{}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// CreateProvider creates a provider instance from configuration, paced when
// the configuration sets rps.
func (r *Registry) CreateProvider(cfg config.ProviderConfig) (ports.Provider, error) {
	baseProvider, err := createFromFactory(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RPS > 0 {
		return NewPacedProvider(baseProvider, cfg.RPS, cfg.Burst), nil
	}
	return baseProvider, nil
}

// CreateProviders creates every configured provider, keeping configuration order.
func (r *Registry) CreateProviders(configs []config.ProviderConfig) ([]ports.Provider, error) {
	providers := make([]ports.Provider, 0, len(configs))
	seen := make(map[string]bool, len(configs))
	for _, cfg := range configs {
		if seen[cfg.Name] {
			return nil, fmt.Errorf("duplicate provider name: %s", cfg.Name)
		}
		seen[cfg.Name] = true

		p, err := r.CreateProvider(cfg)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, nil
}
