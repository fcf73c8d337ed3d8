package resolver

import (
	"errors"
	"testing"

	"github.com/tjfontaine/travel-gateway/internal/catalog"
	"github.com/tjfontaine/travel-gateway/internal/core/domain"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := New(catalog.MustDefault(), WithCacheSize(16))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func TestResolve_CaseAndDiacritics(t *testing.T) {
	r := newTestResolver(t)

	for _, in := range []string{"Cancún", "cancun", "CANCUN", "  cancún  "} {
		loc, err := r.Resolve(in, "")
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", in, err)
		}
		if loc.Code != "CUN" {
			t.Errorf("Resolve(%q) = %s, want CUN", in, loc.Code)
		}
	}
}

func TestResolve_Unknown(t *testing.T) {
	r := newTestResolver(t)

	_, err := r.Resolve("Atlantis", "")
	if err == nil {
		t.Fatal("Resolve() expected error")
	}
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Resolve() error type = %T, want *APIError", err)
	}
	if apiErr.Code != domain.ErrorCodeUnresolvedLocation {
		t.Errorf("Code = %s, want %s", apiErr.Code, domain.ErrorCodeUnresolvedLocation)
	}
	if apiErr.HTTPStatusCode() != 422 {
		t.Errorf("HTTPStatusCode() = %d, want 422", apiErr.HTTPStatusCode())
	}
}

func TestResolve_Disambiguation(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		name    string
		input   string
		country string
		want    string
	}{
		{"population wins", "Valencia", "", "VLN"},
		{"country argument", "Valencia", "ES", "VLC"},
		{"country name argument", "Valencia", "España", "VLC"},
		{"country suffix", "Valencia, España", "", "VLC"},
		{"suffix code", "Cordoba, ES", "", "ODB"},
		{"argument beats suffix", "Cordoba, ES", "AR", "COR"},
		{"santiago", "Santiago", "", "SCL"},
		{"santiago dominicana", "santiago, republica dominicana", "", "STI"},
		{"paris", "Paris", "", "PAR"},
		{"code input", "MAD", "", "MAD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := r.Resolve(tt.input, tt.country)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if loc.Code != tt.want {
				t.Errorf("Resolve(%q, %q) = %s, want %s", tt.input, tt.country, loc.Code, tt.want)
			}
		})
	}
}

func TestResolve_CountryMismatch(t *testing.T) {
	r := newTestResolver(t)

	if _, err := r.Resolve("Madrid", "MX"); err == nil {
		t.Error("Resolve(Madrid, MX) expected error")
	}
	if _, err := r.Resolve("Madrid", "Narnia"); err == nil {
		t.Error("Resolve(Madrid, Narnia) expected error")
	}
}

func TestResolve_Deterministic(t *testing.T) {
	r := newTestResolver(t)

	first, err := r.Resolve("San José", "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	for i := 0; i < 50; i++ {
		got, _ := r.Resolve("san jose", "")
		if got.Code != first.Code {
			t.Fatalf("Resolve() iteration %d = %s, want %s", i, got.Code, first.Code)
		}
	}
	if first.Code != "SJC" {
		t.Errorf("Resolve(San José) = %s, want SJC", first.Code)
	}
}

func TestResolveHotel(t *testing.T) {
	r := newTestResolver(t)

	h, err := r.ResolveHotel("Barceló Bávaro Palace")
	if err != nil {
		t.Fatalf("ResolveHotel() error = %v", err)
	}
	if h.Code != "BARBAV-PUJ" {
		t.Errorf("ResolveHotel() = %s, want BARBAV-PUJ", h.Code)
	}

	if _, err := r.ResolveHotel("Grand Budapest"); err == nil {
		t.Error("ResolveHotel() expected error for unknown hotel")
	}
}
