// Package hotelapi adapts the hotel availability API to ports.Provider.
package hotelapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	api "github.com/tjfontaine/travel-gateway/internal/api/hotelapi"
	"github.com/tjfontaine/travel-gateway/internal/catalog"
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

// Provider implements ports.Provider for the hotel availability API.
type Provider struct {
	name       string
	cat        *catalog.Catalog
	client     *api.Client
	httpClient *http.Client
	timeout    time.Duration
}

// New creates a new hotel provider. The catalog maps IATA destination codes
// to the API's destination ids.
func New(name, apiKey, baseURL string, cat *catalog.Catalog, opts ...ProviderOption) *Provider {
	p := &Provider{name: name, cat: cat}
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

func (p *Provider) Kind() domain.ResultKind { return domain.KindHotel }

func (p *Provider) Timeout() time.Duration { return p.timeout }

// Search returns one result per hotel, room and rate.
func (p *Provider) Search(ctx context.Context, sc *domain.SearchContext) ([]domain.ProviderResult, error) {
	if sc.Destination == "" || sc.DepartureDate == "" {
		return nil, fmt.Errorf("%s: %w", p.name, domain.ErrIncompleteSearch)
	}

	loc, ok := p.cat.LocationByCode(sc.Destination)
	if !ok || loc.HotelDestinationID == "" {
		return nil, fmt.Errorf("%s: no destination id for %s", p.name, sc.Destination)
	}

	checkOut, err := checkOutDate(sc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.name, err)
	}

	resp, err := p.client.Availability(ctx, &api.AvailabilityRequest{
		DestinationID: loc.HotelDestinationID,
		HotelCode:     sc.HotelCode,
		CheckIn:       sc.DepartureDate,
		CheckOut:      checkOut,
		Rooms:         distributeRooms(sc.Adults, sc.Children, sc.Rooms),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.name, err)
	}

	var results []domain.ProviderResult
	for _, h := range resp.Hotels {
		destination := h.Destination
		if destination == "" {
			destination = sc.Destination
		}
		for _, room := range h.Rooms {
			for _, rate := range room.Rates {
				offer := &domain.HotelOffer{
					HotelCode:   h.Code,
					HotelName:   h.Name,
					Chain:       h.ChainName,
					Destination: strings.ToUpper(destination),
					RoomName:    room.Name,
					RoomType:    room.Type,
					RateCode:    rate.Code,
					MealPlan:    strings.ToUpper(rate.Board),
					Price: domain.Price{
						Currency: rate.Currency,
						Total:    rate.Total,
						Base:     rate.Net,
						Taxes:    rate.Taxes,
						Fees:     rate.Fees,
					},
				}
				if rate.Occupancy != nil {
					offer.MaxAdults = rate.Occupancy.Adults
					offer.MaxChildren = rate.Occupancy.Children
				}
				results = append(results, domain.ProviderResult{
					Kind:     domain.KindHotel,
					Provider: p.name,
					Hotel:    offer,
				})
			}
		}
	}
	return results, nil
}

func checkOutDate(sc *domain.SearchContext) (string, error) {
	if sc.ReturnDate != "" {
		return sc.ReturnDate, nil
	}
	in, err := time.Parse(domain.DateLayout, sc.DepartureDate)
	if err != nil {
		return "", fmt.Errorf("invalid check-in date %q: %w", sc.DepartureDate, err)
	}
	return in.AddDate(0, 0, 1).Format(domain.DateLayout), nil
}

// distributeRooms spreads travellers as evenly as possible, earlier rooms
// taking the remainder.
func distributeRooms(adults, children, rooms int) []api.Room {
	if rooms < 1 {
		rooms = 1
	}
	if adults < rooms {
		adults = rooms
	}
	out := make([]api.Room, rooms)
	for i := range out {
		out[i].Adults = adults / rooms
		if i < adults%rooms {
			out[i].Adults++
		}
		out[i].Children = children / rooms
		if i < children%rooms {
			out[i].Children++
		}
	}
	return out
}
