// Package provider creates the configured flight and hotel providers.
//
// # Adding a New Provider
//
// To add a new provider, implement ports.Provider in its own package and
// expose an explicit registration function that calls
// registry.RegisterFactory. Wire that registration from cmd/gateway (or
// tests) so we avoid init() side effects.
package provider

import (
	"github.com/tjfontaine/travel-gateway/internal/core/ports"
	"github.com/tjfontaine/travel-gateway/internal/pkg/config"
	"github.com/tjfontaine/travel-gateway/internal/provider/registry"
)

// Re-export types from registry for convenience
type ProviderFactory = registry.ProviderFactory

// RegisterFactory registers a provider factory (delegated to registry).
var RegisterFactory = registry.RegisterFactory

// GetFactory returns the factory for a provider type (delegated to registry).
var GetFactory = registry.GetFactory

// ListFactories returns all registered provider factories (delegated to registry).
var ListFactories = registry.ListFactories

// ListProviderTypes returns all registered provider type names (delegated to registry).
var ListProviderTypes = registry.ListProviderTypes

// TypesOfKind returns the registered types producing a result kind (delegated to registry).
var TypesOfKind = registry.TypesOfKind

// IsRegistered returns true if a provider type is registered (delegated to registry).
var IsRegistered = registry.IsRegistered

// ValidateProviderConfig validates a provider configuration (delegated to registry).
var ValidateProviderConfig = registry.ValidateProviderConfig

// ClearFactories removes all registered factories (for testing only).
var ClearFactories = registry.ClearFactories

func createFromFactory(cfg config.ProviderConfig) (ports.Provider, error) {
	return registry.CreateFromFactory(cfg)
}
