package filter

import (
	"strings"

	"github.com/tjfontaine/travel-gateway/internal/catalog"
	"github.com/tjfontaine/travel-gateway/internal/core/domain"
)

// destinationWhitelistFilter drops hotels outside the market's allowed
// destinations. Markets without a list are unfiltered.
type destinationWhitelistFilter struct {
	allowed map[string]map[string]bool
}

func newDestinationWhitelist(lists map[string][]string) destinationWhitelistFilter {
	allowed := make(map[string]map[string]bool, len(lists))
	for market, codes := range lists {
		allowed[strings.ToUpper(market)] = upperSet(codes)
	}
	return destinationWhitelistFilter{allowed: allowed}
}

func (destinationWhitelistFilter) Name() string { return NameDestinationWhitelist }

func (f destinationWhitelistFilter) Keep(q *Query, r *domain.FilteredResult) bool {
	if r.Hotel == nil {
		return true
	}
	set, ok := f.allowed[strings.ToUpper(q.Market)]
	if !ok {
		return true
	}
	return set[strings.ToUpper(r.Hotel.Destination)]
}

// occupancyFilter drops rooms that cannot hold the per-room share of the party.
type occupancyFilter struct {
	cat *catalog.Catalog
}

func (occupancyFilter) Name() string { return NameOccupancy }

func (f occupancyFilter) Keep(q *Query, r *domain.FilteredResult) bool {
	if r.Hotel == nil || q.Search == nil {
		return true
	}
	rooms := max(q.Search.Rooms, 1)
	adults := ceilDiv(max(q.Search.Adults, 1), rooms)
	children := ceilDiv(max(q.Search.Children, 0), rooms)

	h := r.Hotel
	if h.MaxAdults > 0 {
		return h.MaxAdults >= adults && h.MaxAdults+h.MaxChildren >= adults+children
	}

	for _, label := range []string{h.RoomType, h.RoomName} {
		if capacity, ok := f.cat.RoomCapacity(label); ok {
			return capacity >= adults
		}
	}
	return true
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// lightFareFilter drops light fares of the configured carriers unless the
// traveller asked for the cheapest fare regardless of restrictions.
type lightFareFilter struct {
	airlines map[string]bool
}

func newLightFare(airlines []string) lightFareFilter {
	return lightFareFilter{airlines: upperSet(airlines)}
}

func (lightFareFilter) Name() string { return NameLightFare }

func (f lightFareFilter) Keep(q *Query, r *domain.FilteredResult) bool {
	if r.Flight == nil || !r.LightFare {
		return true
	}
	if q.Search != nil && q.Search.Filters.IncludeLightFares {
		return true
	}
	return !f.airlines[strings.ToUpper(r.Flight.ValidatingCarrier)]
}

// hotelChainFilter keeps only hotels of the requested chain.
type hotelChainFilter struct {
	cat *catalog.Catalog
}

func (hotelChainFilter) Name() string { return NameHotelChain }

func (f hotelChainFilter) Keep(q *Query, r *domain.FilteredResult) bool {
	if r.Hotel == nil || q.Search == nil || q.Search.Filters.HotelChain == "" {
		return true
	}
	want := q.Search.Filters.HotelChain
	if c, ok := f.cat.ChainByAlias(want); ok {
		want = c
	} else if c := f.cat.CanonicalChain(want); c != "" {
		want = c
	}
	return strings.EqualFold(r.HotelChain, want)
}

// timeOfDayFilter matches the outbound departure and arrival bands in the
// airport's local time, taken from the offset of each timestamp.
type timeOfDayFilter struct{}

func (timeOfDayFilter) Name() string { return NameTimeOfDay }

func (timeOfDayFilter) Keep(q *Query, r *domain.FilteredResult) bool {
	if r.Flight == nil || q.Search == nil || len(r.Flight.Legs) == 0 {
		return true
	}
	outbound := r.Flight.Legs[0].Segments
	if len(outbound) == 0 {
		return true
	}
	f := q.Search.Filters
	if f.DepartureBand != "" && domain.BandOf(outbound[0].Departure) != f.DepartureBand {
		return false
	}
	if f.ArrivalBand != "" && domain.BandOf(outbound[len(outbound)-1].Arrival) != f.ArrivalBand {
		return false
	}
	return true
}

// airlineFilter keeps offers validated by a requested carrier and drops
// offers touching an excluded one.
type airlineFilter struct{}

func (airlineFilter) Name() string { return NameAirline }

func (airlineFilter) Keep(q *Query, r *domain.FilteredResult) bool {
	if r.Flight == nil || q.Search == nil {
		return true
	}
	f := q.Search.Filters
	if len(f.ExcludedAirlines) > 0 {
		excluded := upperSet(f.ExcludedAirlines)
		if excluded[strings.ToUpper(r.Flight.ValidatingCarrier)] {
			return false
		}
		for _, leg := range r.Flight.Legs {
			for _, s := range leg.Segments {
				if excluded[strings.ToUpper(s.Carrier)] {
					return false
				}
			}
		}
	}
	if len(f.Airlines) > 0 {
		return upperSet(f.Airlines)[strings.ToUpper(r.Flight.ValidatingCarrier)]
	}
	return true
}

// stopsFilter keeps offers whose every leg has at most MaxStops stops,
// technical stops included.
type stopsFilter struct{}

func (stopsFilter) Name() string { return NameStops }

func (stopsFilter) Keep(q *Query, r *domain.FilteredResult) bool {
	if r.Flight == nil || q.Search == nil || q.Search.Filters.MaxStops == nil {
		return true
	}
	limit := *q.Search.Filters.MaxStops
	if limit < 0 {
		return true
	}
	for _, c := range r.Connections {
		if c.Stops > limit {
			return false
		}
	}
	return true
}

// baggageFilter keeps offers whose every leg includes at least the
// requested allowance.
type baggageFilter struct{}

func (baggageFilter) Name() string { return NameBaggage }

func (baggageFilter) Keep(q *Query, r *domain.FilteredResult) bool {
	if r.Flight == nil || q.Search == nil || q.Search.Filters.Baggage == "" {
		return true
	}
	want := q.Search.Filters.Baggage.Rank()
	for _, b := range r.Baggage {
		if b.Rank() < want {
			return false
		}
	}
	return true
}

// mealRank orders meal plans by what they include.
var mealRank = map[string]int{
	"RO": 0,
	"BB": 1,
	"HB": 2,
	"FB": 3,
	"AI": 4,
}

// mealPlanFilter keeps rates whose board includes at least the requested plan.
type mealPlanFilter struct{}

func (mealPlanFilter) Name() string { return NameMealPlan }

func (mealPlanFilter) Keep(q *Query, r *domain.FilteredResult) bool {
	if r.Hotel == nil || q.Search == nil || q.Search.Filters.MealPlan == "" {
		return true
	}
	want, ok := mealRank[strings.ToUpper(q.Search.Filters.MealPlan)]
	if !ok {
		return strings.EqualFold(r.Hotel.MealPlan, q.Search.Filters.MealPlan)
	}
	return mealRank[strings.ToUpper(r.Hotel.MealPlan)] >= want
}
