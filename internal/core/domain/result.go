package domain

import "time"

// ResultKind tags the variant held by a ProviderResult.
type ResultKind string

const (
	KindFlight ResultKind = "flight"
	KindHotel  ResultKind = "hotel"
)

// Price is an amount as reported by a provider. Components may be zero
// when the provider does not break them down.
type Price struct {
	Currency string  `json:"currency"`
	Total    float64 `json:"total"`
	Base     float64 `json:"base,omitempty"`
	Taxes    float64 `json:"taxes,omitempty"`
	Fees     float64 `json:"fees,omitempty"`
}

// BaggageAllowance is the allowance stated for one segment.
type BaggageAllowance struct {
	CheckedPieces   int  `json:"checked_pieces,omitempty"`
	CheckedWeightKg int  `json:"checked_weight_kg,omitempty"`
	CarryOn         bool `json:"carry_on,omitempty"`
}

// TechnicalStop is an operational landing inside a segment.
type TechnicalStop struct {
	Airport  string        `json:"airport"`
	Duration time.Duration `json:"duration"`
}

// Segment is one flown sector.
type Segment struct {
	Carrier        string           `json:"carrier"`
	FlightNumber   string           `json:"flight_number"`
	Origin         string           `json:"origin"`
	Destination    string           `json:"destination"`
	Departure      time.Time        `json:"departure"`
	Arrival        time.Time        `json:"arrival"`
	TechnicalStops []TechnicalStop  `json:"technical_stops,omitempty"`
	Baggage        BaggageAllowance `json:"baggage"`
}

// Leg is one direction of travel made of one or more segments.
type Leg struct {
	Segments []Segment `json:"segments"`
}

// FlightOffer is an itinerary priced by a provider.
type FlightOffer struct {
	Legs              []Leg  `json:"legs"`
	ValidatingCarrier string `json:"validating_carrier"`
	FareBrand         string `json:"fare_brand,omitempty"`
	RestrictiveOnly   bool   `json:"restrictive_only,omitempty"`
	Price             Price  `json:"price"`
}

// HotelOffer is one bookable hotel, room and rate.
type HotelOffer struct {
	HotelCode   string `json:"hotel_code,omitempty"`
	HotelName   string `json:"hotel_name"`
	Chain       string `json:"chain,omitempty"`
	Destination string `json:"destination"`
	RoomName    string `json:"room_name"`
	RoomType    string `json:"room_type,omitempty"`
	RateCode    string `json:"rate_code,omitempty"`
	MaxAdults   int    `json:"max_adults,omitempty"`
	MaxChildren int    `json:"max_children,omitempty"`
	MealPlan    string `json:"meal_plan,omitempty"`
	Price       Price  `json:"price"`
}

// ProviderResult is a raw record from one provider. Exactly one of
// Flight or Hotel is set, matching Kind.
type ProviderResult struct {
	Kind     ResultKind   `json:"kind"`
	Provider string       `json:"provider"`
	Flight   *FlightOffer `json:"flight,omitempty"`
	Hotel    *HotelOffer  `json:"hotel,omitempty"`
}

// Price returns the offer's price.
func (r *ProviderResult) Price() Price {
	switch {
	case r.Flight != nil:
		return r.Flight.Price
	case r.Hotel != nil:
		return r.Hotel.Price
	default:
		return Price{}
	}
}

// TotalPrice returns the offer's total price.
func (r *ProviderResult) TotalPrice() float64 {
	return r.Price().Total
}

// BaggageClass is the fixed baggage taxonomy.
type BaggageClass string

const (
	BaggagePersonalItem BaggageClass = "personal_item"
	BaggageCarryOn      BaggageClass = "carry_on"
	BaggageChecked1     BaggageClass = "checked_1"
	BaggageChecked2Plus BaggageClass = "checked_2plus"
)

// Rank orders baggage classes from least to most generous.
func (b BaggageClass) Rank() int {
	switch b {
	case BaggagePersonalItem:
		return 0
	case BaggageCarryOn:
		return 1
	case BaggageChecked1:
		return 2
	case BaggageChecked2Plus:
		return 3
	default:
		return -1
	}
}

// Layover is a connection between two segments.
type Layover struct {
	Airport  string        `json:"airport"`
	Duration time.Duration `json:"duration"`
}

// LegConnections is the connection analysis of one leg.
type LegConnections struct {
	Layovers       []Layover       `json:"layovers,omitempty"`
	TechnicalStops []TechnicalStop `json:"technical_stops,omitempty"`
	TotalLayover   time.Duration   `json:"total_layover"`
	Stops          int             `json:"stops"`
}

// FareBreakdown splits a total price into its components.
type FareBreakdown struct {
	Currency string  `json:"currency"`
	Base     float64 `json:"base"`
	Taxes    float64 `json:"taxes"`
	Fees     float64 `json:"fees"`
	Total    float64 `json:"total"`
}

// FilteredResult is a ProviderResult after enrichment and filtering.
type FilteredResult struct {
	ProviderResult
	Sources     []string         `json:"sources"`
	Connections []LegConnections `json:"connections,omitempty"`
	Baggage     []BaggageClass   `json:"baggage,omitempty"`
	Fare        FareBreakdown    `json:"fare"`
	LightFare   bool             `json:"light_fare,omitempty"`
	HotelChain  string           `json:"hotel_chain,omitempty"`
}

// DegradedProvider records a provider that failed for one search.
type DegradedProvider struct {
	Provider string    `json:"provider"`
	Code     ErrorCode `json:"code"`
	Reason   string    `json:"reason"`
}
