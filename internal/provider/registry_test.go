package provider_test

import (
	"testing"
	"time"

	"github.com/tjfontaine/travel-gateway/internal/pkg/config"
	"github.com/tjfontaine/travel-gateway/internal/provider"
)

func TestRegistry_CreateProvider(t *testing.T) {
	registry := provider.NewRegistry()

	tests := []struct {
		name      string
		cfg       config.ProviderConfig
		wantErr   bool
		wantPaced bool
	}{
		{
			name:    "flightapi",
			cfg:     config.ProviderConfig{Name: "sky", Type: "flightapi", Timeout: 2 * time.Second},
			wantErr: false,
		},
		{
			name:      "paced hotelapi",
			cfg:       config.ProviderConfig{Name: "stay", Type: "hotelapi", RPS: 10, Burst: 2},
			wantErr:   false,
			wantPaced: true,
		},
		{
			name:    "unknown",
			cfg:     config.ProviderConfig{Type: "unknown"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := registry.CreateProvider(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateProvider() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if p.Name() != tt.cfg.Name {
				t.Errorf("Name() = %v, want %v", p.Name(), tt.cfg.Name)
			}
			if p.Timeout() != tt.cfg.Timeout {
				t.Errorf("Timeout() = %v, want %v", p.Timeout(), tt.cfg.Timeout)
			}
			_, paced := p.(*provider.PacedProvider)
			if paced != tt.wantPaced {
				t.Errorf("paced = %v, want %v", paced, tt.wantPaced)
			}
		})
	}
}

func TestRegistry_CreateProviders(t *testing.T) {
	registry := provider.NewRegistry()

	providers, err := registry.CreateProviders([]config.ProviderConfig{
		{Name: "b", Type: "hotelapi"},
		{Name: "a", Type: "flightapi"},
	})
	if err != nil {
		t.Fatalf("CreateProviders() error = %v", err)
	}
	if len(providers) != 2 || providers[0].Name() != "b" || providers[1].Name() != "a" {
		t.Errorf("CreateProviders() did not keep configuration order")
	}

	if _, err := registry.CreateProviders([]config.ProviderConfig{{Name: "x", Type: "nope"}}); err == nil {
		t.Error("CreateProviders() expected error for unknown type")
	}

	if _, err := registry.CreateProviders([]config.ProviderConfig{
		{Name: "dup", Type: "flightapi"},
		{Name: "dup", Type: "hotelapi"},
	}); err == nil {
		t.Error("CreateProviders() expected error for duplicate names")
	}
}
