// Package transform enriches merged provider results before filtering.
// Every function here is pure.
package transform

import (
	"math"
	"strings"

	"github.com/tjfontaine/travel-gateway/internal/catalog"
	"github.com/tjfontaine/travel-gateway/internal/core/domain"
)

// lightBrands are fare brands treated as light fares.
var lightBrands = map[string]bool{
	"LIGHT":         true,
	"BASIC":         true,
	"BASIC ECONOMY": true,
	"PROMO":         true,
}

// Enricher fills the derived fields of merged results.
type Enricher struct {
	cat *catalog.Catalog
}

// NewEnricher creates an enricher using cat for chain canonicalization.
func NewEnricher(cat *catalog.Catalog) *Enricher {
	return &Enricher{cat: cat}
}

// Enrich returns copies of results with connections, baggage, fare
// breakdown, light-fare flag and hotel chain filled in.
func (e *Enricher) Enrich(results []domain.FilteredResult) []domain.FilteredResult {
	out := make([]domain.FilteredResult, len(results))
	for i, r := range results {
		out[i] = e.enrichOne(r)
	}
	return out
}

func (e *Enricher) enrichOne(r domain.FilteredResult) domain.FilteredResult {
	r.Fare = Fare(r.Price())
	switch {
	case r.Flight != nil:
		r.Connections = make([]domain.LegConnections, len(r.Flight.Legs))
		r.Baggage = make([]domain.BaggageClass, len(r.Flight.Legs))
		for i, leg := range r.Flight.Legs {
			r.Connections[i] = Connections(leg)
			r.Baggage[i] = LegBaggage(leg)
		}
		r.LightFare = IsLightFare(r.Flight)
	case r.Hotel != nil:
		r.HotelChain = e.HotelChain(r.Hotel)
	}
	return r
}

// HotelChain returns the canonical chain of an offer: from the stated
// chain, then the catalog entry of the hotel, then the hotel name.
func (e *Enricher) HotelChain(h *domain.HotelOffer) string {
	if c := e.cat.CanonicalChain(h.Chain); c != "" {
		return c
	}
	if known, ok := e.cat.HotelByCode(h.HotelCode); ok && known.Chain != "" {
		if c := e.cat.CanonicalChain(known.Chain); c != "" {
			return c
		}
	}
	return e.cat.CanonicalChain(h.HotelName)
}

// Connections analyses one leg. Consecutive segments sharing carrier and
// flight number are a through flight: the landing between them is a
// technical stop, not a connection.
func Connections(leg domain.Leg) domain.LegConnections {
	var lc domain.LegConnections
	for i, seg := range leg.Segments {
		lc.TechnicalStops = append(lc.TechnicalStops, seg.TechnicalStops...)
		if i == 0 {
			continue
		}
		prev := leg.Segments[i-1]
		ground := seg.Departure.Sub(prev.Arrival)
		if sameFlight(prev, seg) {
			lc.TechnicalStops = append(lc.TechnicalStops, domain.TechnicalStop{Airport: prev.Destination, Duration: ground})
			continue
		}
		lc.Layovers = append(lc.Layovers, domain.Layover{Airport: prev.Destination, Duration: ground})
		lc.TotalLayover += ground
	}
	lc.Stops = len(lc.Layovers) + len(lc.TechnicalStops)
	return lc
}

func sameFlight(a, b domain.Segment) bool {
	return strings.EqualFold(a.Carrier, b.Carrier) &&
		strings.TrimLeft(a.FlightNumber, "0") == strings.TrimLeft(b.FlightNumber, "0")
}

// SegmentBaggage classifies one segment's allowance.
func SegmentBaggage(b domain.BaggageAllowance) domain.BaggageClass {
	switch {
	case b.CheckedPieces >= 2:
		return domain.BaggageChecked2Plus
	case b.CheckedPieces == 1:
		return domain.BaggageChecked1
	case b.CarryOn:
		return domain.BaggageCarryOn
	default:
		return domain.BaggagePersonalItem
	}
}

// LegBaggage is the most restrictive class over the leg's segments.
func LegBaggage(leg domain.Leg) domain.BaggageClass {
	if len(leg.Segments) == 0 {
		return domain.BaggagePersonalItem
	}
	class := SegmentBaggage(leg.Segments[0].Baggage)
	for _, s := range leg.Segments[1:] {
		if c := SegmentBaggage(s.Baggage); c.Rank() < class.Rank() {
			class = c
		}
	}
	return class
}

// Fare splits a price into base, taxes and fees. A missing component is
// derived from the total: fees when base is known, base otherwise.
func Fare(p domain.Price) domain.FareBreakdown {
	fb := domain.FareBreakdown{
		Currency: p.Currency,
		Base:     p.Base,
		Taxes:    p.Taxes,
		Fees:     p.Fees,
		Total:    p.Total,
	}
	switch {
	case p.Base == 0:
		fb.Base = p.Total - p.Taxes - p.Fees
	case p.Fees == 0:
		fb.Fees = p.Total - p.Base - p.Taxes
	}
	fb.Base = cents(fb.Base)
	fb.Taxes = cents(fb.Taxes)
	fb.Fees = cents(fb.Fees)
	fb.Total = cents(fb.Total)
	return fb
}

func cents(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0 // no negative zero
	}
	return r
}

// IsLightFare reports whether an offer is a restrictive fare.
func IsLightFare(f *domain.FlightOffer) bool {
	if f.RestrictiveOnly {
		return true
	}
	brand := strings.Join(strings.Fields(strings.ToUpper(f.FareBrand)), " ")
	return lightBrands[brand]
}
