// Package flightapi adapts the flight offers API to ports.Provider.
package flightapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	api "github.com/tjfontaine/travel-gateway/internal/api/flightapi"
	"github.com/tjfontaine/travel-gateway/internal/core/domain"
)

// ProviderOption configures the provider.
type ProviderOption func(*Provider)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = httpClient
	}
}

// WithTimeout sets the per-call timeout reported to the orchestrator.
func WithTimeout(d time.Duration) ProviderOption {
	return func(p *Provider) {
		p.timeout = d
	}
}

// Provider implements ports.Provider for the flight offers API.
type Provider struct {
	name       string
	client     *api.Client
	httpClient *http.Client
	timeout    time.Duration
}

// New creates a new flight provider.
func New(name, apiKey, baseURL string, opts ...ProviderOption) *Provider {
	p := &Provider{name: name}
	for _, opt := range opts {
		opt(p)
	}

	clientOpts := []api.ClientOption{api.WithBaseURL(baseURL)}
	if p.httpClient != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(p.httpClient))
	}
	p.client = api.NewClient(apiKey, clientOpts...)
	return p
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) Kind() domain.ResultKind { return domain.KindFlight }

func (p *Provider) Timeout() time.Duration { return p.timeout }

// Search returns one result per offer. Offers with unparseable timestamps
// are dropped.
func (p *Provider) Search(ctx context.Context, sc *domain.SearchContext) ([]domain.ProviderResult, error) {
	if sc.Origin == "" || sc.Destination == "" || sc.DepartureDate == "" {
		return nil, fmt.Errorf("%s: %w", p.name, domain.ErrIncompleteSearch)
	}

	resp, err := p.client.SearchOffers(ctx, &api.OffersRequest{
		Origin:      sc.Origin,
		Destination: sc.Destination,
		Departure:   sc.DepartureDate,
		Return:      sc.ReturnDate,
		Adults:      sc.Adults,
		Children:    sc.Children,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.name, err)
	}

	results := make([]domain.ProviderResult, 0, len(resp.Offers))
	for _, o := range resp.Offers {
		offer, err := toFlightOffer(o)
		if err != nil {
			continue
		}
		results = append(results, domain.ProviderResult{
			Kind:     domain.KindFlight,
			Provider: p.name,
			Flight:   offer,
		})
	}
	return results, nil
}

func toFlightOffer(o api.Offer) (*domain.FlightOffer, error) {
	offer := &domain.FlightOffer{
		ValidatingCarrier: strings.ToUpper(o.ValidatingCarrier),
		FareBrand:         strings.ToUpper(strings.TrimSpace(o.Fare.Brand)),
		RestrictiveOnly:   o.Fare.Restrictive,
		Price: domain.Price{
			Currency: o.Fare.Currency,
			Total:    o.Fare.Total,
			Base:     o.Fare.Base,
			Taxes:    o.Fare.Taxes,
		},
	}

	for _, it := range o.Itineraries {
		var leg domain.Leg
		for _, s := range it.Segments {
			seg, err := toSegment(s)
			if err != nil {
				return nil, fmt.Errorf("offer %s: %w", o.ID, err)
			}
			leg.Segments = append(leg.Segments, seg)
		}
		if len(leg.Segments) > 0 {
			offer.Legs = append(offer.Legs, leg)
		}
	}
	if len(offer.Legs) == 0 {
		return nil, fmt.Errorf("offer %s has no segments", o.ID)
	}
	if offer.ValidatingCarrier == "" {
		offer.ValidatingCarrier = offer.Legs[0].Segments[0].Carrier
	}
	return offer, nil
}

func toSegment(s api.Segment) (domain.Segment, error) {
	dep, err := time.Parse(time.RFC3339, s.Departure)
	if err != nil {
		return domain.Segment{}, fmt.Errorf("departure: %w", err)
	}
	arr, err := time.Parse(time.RFC3339, s.Arrival)
	if err != nil {
		return domain.Segment{}, fmt.Errorf("arrival: %w", err)
	}

	seg := domain.Segment{
		Carrier:      strings.ToUpper(s.Carrier),
		FlightNumber: s.Number,
		Origin:       s.From,
		Destination:  s.To,
		Departure:    dep,
		Arrival:      arr,
		Baggage: domain.BaggageAllowance{
			CheckedPieces:   s.Baggage.Checked,
			CheckedWeightKg: s.Baggage.WeightKg,
			CarryOn:         s.Baggage.Cabin,
		},
	}
	for _, st := range s.Stops {
		seg.TechnicalStops = append(seg.TechnicalStops, domain.TechnicalStop{
			Airport:  st.Airport,
			Duration: time.Duration(st.Minutes) * time.Minute,
		})
	}
	return seg, nil
}
