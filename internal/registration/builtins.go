// Package registration wires the built-in provider factories.
package registration

import (
	"github.com/tjfontaine/travel-gateway/internal/provider/flightapi"
	"github.com/tjfontaine/travel-gateway/internal/provider/hotelapi"
)

// RegisterBuiltins registers built-in providers explicitly.
// This replaces init-based side effects and is intended to be called from
// cmd/gateway and tests before wiring registries.
func RegisterBuiltins() {
	RegisterProviderBuiltins()
}

// RegisterProviderBuiltins registers the flight and hotel providers.
func RegisterProviderBuiltins() {
	flightapi.RegisterProviderFactory()
	hotelapi.RegisterProviderFactory()
}
