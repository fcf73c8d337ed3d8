package domain

import (
	"slices"
	"time"
)

// TripType is what the traveller is searching for.
type TripType string

const (
	TripFlight  TripType = "flight"
	TripHotel   TripType = "hotel"
	TripPackage TripType = "package"
)

// WantsFlights reports whether flight providers apply.
func (t TripType) WantsFlights() bool {
	return t == TripFlight || t == TripPackage
}

// WantsHotels reports whether hotel providers apply.
func (t TripType) WantsHotels() bool {
	return t == TripHotel || t == TripPackage
}

// DateLayout is the layout of search dates.
const DateLayout = "2006-01-02"

// TimeBand is a coarse time-of-day bucket.
type TimeBand string

const (
	BandNight     TimeBand = "night"     // 00:00-05:59
	BandMorning   TimeBand = "morning"   // 06:00-11:59
	BandAfternoon TimeBand = "afternoon" // 12:00-17:59
	BandEvening   TimeBand = "evening"   // 18:00-23:59
)

// BandOf returns the band containing the wall-clock time of t.
func BandOf(t time.Time) TimeBand {
	switch h := t.Hour(); {
	case h < 6:
		return BandNight
	case h < 12:
		return BandMorning
	case h < 18:
		return BandAfternoon
	default:
		return BandEvening
	}
}

// SearchFilters are the user-selected constraints of a search.
type SearchFilters struct {
	Airlines          []string     `json:"airlines,omitempty"`
	ExcludedAirlines  []string     `json:"excluded_airlines,omitempty"`
	MaxStops          *int         `json:"max_stops,omitempty"`
	Baggage           BaggageClass `json:"baggage,omitempty"`
	MealPlan          string       `json:"meal_plan,omitempty"`
	HotelChain        string       `json:"hotel_chain,omitempty"`
	DepartureBand     TimeBand     `json:"departure_band,omitempty"`
	ArrivalBand       TimeBand     `json:"arrival_band,omitempty"`
	IncludeLightFares bool         `json:"include_light_fares,omitempty"`
}

// SearchContext holds the resolved parameters of one search turn.
type SearchContext struct {
	ID              string        `json:"id,omitempty"`
	ConversationID  string        `json:"conversation_id,omitempty"`
	TripType        TripType      `json:"trip_type,omitempty"`
	Origin          string        `json:"origin,omitempty"`
	OriginName      string        `json:"origin_name,omitempty"`
	Destination     string        `json:"destination,omitempty"`
	DestinationName string        `json:"destination_name,omitempty"`
	DepartureDate   string        `json:"departure_date,omitempty"`
	ReturnDate      string        `json:"return_date,omitempty"`
	Adults          int           `json:"adults,omitempty"`
	Children        int           `json:"children,omitempty"`
	Rooms           int           `json:"rooms,omitempty"`
	HotelCode       string        `json:"hotel_code,omitempty"`
	Filters         SearchFilters `json:"filters"`
}

// Clone returns a deep copy.
func (sc *SearchContext) Clone() *SearchContext {
	if sc == nil {
		return nil
	}
	c := *sc
	c.Filters.Airlines = slices.Clone(sc.Filters.Airlines)
	c.Filters.ExcludedAirlines = slices.Clone(sc.Filters.ExcludedAirlines)
	if sc.Filters.MaxStops != nil {
		v := *sc.Filters.MaxStops
		c.Filters.MaxStops = &v
	}
	return &c
}

// ApplyDefaults fills occupancy and trip type when absent.
func (sc *SearchContext) ApplyDefaults() {
	if sc.TripType == "" {
		sc.TripType = TripFlight
	}
	if sc.Adults <= 0 {
		sc.Adults = 1
	}
	if sc.Children < 0 {
		sc.Children = 0
	}
	if sc.Rooms <= 0 {
		sc.Rooms = 1
	}
	// empty lists are omitted on the wire; keep them nil so contexts compare equal after a round trip
	if len(sc.Filters.Airlines) == 0 {
		sc.Filters.Airlines = nil
	}
	if len(sc.Filters.ExcludedAirlines) == 0 {
		sc.Filters.ExcludedAirlines = nil
	}
}

// StoredSearch is a persisted search context owned by a tenant.
type StoredSearch struct {
	TenantID  string
	Context   *SearchContext
	CreatedAt time.Time
}
