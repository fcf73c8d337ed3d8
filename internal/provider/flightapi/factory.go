package flightapi

import (
	"errors"

	"github.com/tjfontaine/travel-gateway/internal/core/domain"
	"github.com/tjfontaine/travel-gateway/internal/core/ports"
	"github.com/tjfontaine/travel-gateway/internal/pkg/config"
	"github.com/tjfontaine/travel-gateway/internal/pkg/safehttp"
	"github.com/tjfontaine/travel-gateway/internal/provider/registry"
)

// ProviderType is the provider type identifier used in configuration.
const ProviderType = "flightapi"

// RegisterProviderFactory registers the flight provider factory.
func RegisterProviderFactory() {
	if registry.IsRegistered(ProviderType) {
		return
	}
	registry.RegisterFactory(registry.ProviderFactory{
		Type:           ProviderType,
		Kind:           domain.KindFlight,
		Description:    "Flight offers API provider",
		Create:         CreateFromConfig,
		ValidateConfig: ValidateConfig,
	})
}

// CreateFromConfig creates a new flight provider from configuration.
func CreateFromConfig(cfg config.ProviderConfig) (ports.Provider, error) {
	return New(cfg.Name, cfg.APIKey, cfg.BaseURL,
		WithTimeout(cfg.Timeout),
		WithHTTPClient(safehttp.NewClient(cfg.AllowPrivateNetwork))), nil
}

// ValidateConfig validates the provider configuration.
func ValidateConfig(cfg config.ProviderConfig) error {
	if cfg.BaseURL == "" {
		return errors.New("base_url is required")
	}
	return nil
}
