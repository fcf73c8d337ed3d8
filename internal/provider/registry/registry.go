// Package registry holds the provider factories known to the gateway.
//
// Each provider package exposes an explicit registration function that
// calls RegisterFactory; cmd/gateway runs them at startup through
// registration.RegisterBuiltins, so nothing registers from init().
package registry

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/tjfontaine/travel-gateway/internal/core/domain"
	"github.com/tjfontaine/travel-gateway/internal/core/ports"
	"github.com/tjfontaine/travel-gateway/internal/pkg/config"
)

// ProviderFactory defines how to create a provider of a specific type.
type ProviderFactory struct {
	// Type is the identifier used in configuration ("flightapi", "hotelapi").
	Type string

	// Kind is the kind of results every provider of this type returns.
	Kind domain.ResultKind

	Description string

	Create func(cfg config.ProviderConfig) (ports.Provider, error)

	// ValidateConfig is optional.
	ValidateConfig func(cfg config.ProviderConfig) error
}

var (
	factoryMu sync.RWMutex
	factories = make(map[string]ProviderFactory)
)

// RegisterFactory registers a provider factory. It panics on an empty
// type, a missing Create function or a duplicate type.
func RegisterFactory(f ProviderFactory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	switch {
	case f.Type == "":
		panic("provider factory type cannot be empty")
	case f.Create == nil:
		panic(fmt.Sprintf("provider factory %q must have a Create function", f.Type))
	case f.Kind != domain.KindFlight && f.Kind != domain.KindHotel:
		panic(fmt.Sprintf("provider factory %q has unknown kind %q", f.Type, f.Kind))
	}
	if _, exists := factories[f.Type]; exists {
		panic(fmt.Sprintf("provider factory %q already registered", f.Type))
	}
	factories[f.Type] = f
}

// GetFactory returns the factory for a provider type, if registered.
func GetFactory(providerType string) (ProviderFactory, bool) {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	f, ok := factories[providerType]
	return f, ok
}

// ListFactories returns all registered factories sorted by type.
func ListFactories() []ProviderFactory {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	result := make([]ProviderFactory, 0, len(factories))
	for _, t := range slices.Sorted(maps.Keys(factories)) {
		result = append(result, factories[t])
	}
	return result
}

// ListProviderTypes returns all registered type names, sorted.
func ListProviderTypes() []string {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	return slices.Sorted(maps.Keys(factories))
}

// TypesOfKind returns the registered types producing kind, sorted.
func TypesOfKind(kind domain.ResultKind) []string {
	var types []string
	for _, f := range ListFactories() {
		if f.Kind == kind {
			types = append(types, f.Type)
		}
	}
	return types
}

// IsRegistered returns true if a provider type is registered.
func IsRegistered(providerType string) bool {
	_, ok := GetFactory(providerType)
	return ok
}

// ValidateProviderConfig runs the registered factory's validation.
func ValidateProviderConfig(cfg config.ProviderConfig) error {
	f, err := lookup(cfg.Type)
	if err != nil {
		return err
	}
	if f.ValidateConfig != nil {
		return f.ValidateConfig(cfg)
	}
	return nil
}

// CreateFromFactory validates cfg and creates a provider with the
// registered factory. The created provider must report the factory's kind.
func CreateFromFactory(cfg config.ProviderConfig) (ports.Provider, error) {
	f, err := lookup(cfg.Type)
	if err != nil {
		return nil, err
	}

	if f.ValidateConfig != nil {
		if err := f.ValidateConfig(cfg); err != nil {
			return nil, fmt.Errorf("invalid configuration for provider %q (%s): %w", cfg.Name, cfg.Type, err)
		}
	}

	p, err := f.Create(cfg)
	if err != nil {
		return nil, fmt.Errorf("create provider %q: %w", cfg.Name, err)
	}
	if p.Kind() != f.Kind {
		return nil, fmt.Errorf("provider %q returns %s results, factory %s declares %s", cfg.Name, p.Kind(), f.Type, f.Kind)
	}
	return p, nil
}

func lookup(providerType string) (ProviderFactory, error) {
	f, ok := GetFactory(providerType)
	if !ok {
		return ProviderFactory{}, fmt.Errorf("unknown provider type: %s (registered types: %v)", providerType, ListProviderTypes())
	}
	return f, nil
}

// ClearFactories removes all registered factories (for testing only).
func ClearFactories() {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	factories = make(map[string]ProviderFactory)
}
