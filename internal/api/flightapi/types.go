package flightapi

// OffersRequest is the query of GET /v1/offers.
type OffersRequest struct {
	Origin      string
	Destination string
	Departure   string // YYYY-MM-DD
	Return      string // optional
	Adults      int
	Children    int
}

// OffersResponse is the body of a successful offers call.
type OffersResponse struct {
	Offers []Offer `json:"offers"`
}

type Offer struct {
	ID                string      `json:"id"`
	ValidatingCarrier string      `json:"validating_carrier"`
	Fare              Fare        `json:"fare"`
	Itineraries       []Itinerary `json:"itineraries"`
}

type Fare struct {
	Brand       string  `json:"brand,omitempty"`
	Restrictive bool    `json:"restrictive,omitempty"`
	Currency    string  `json:"currency"`
	Total       float64 `json:"total"`
	Base        float64 `json:"base,omitempty"`
	Taxes       float64 `json:"taxes,omitempty"`
}

type Itinerary struct {
	Segments []Segment `json:"segments"`
}

type Segment struct {
	Carrier   string  `json:"carrier"`
	Number    string  `json:"number"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Departure string  `json:"departure"` // RFC 3339 with the airport offset
	Arrival   string  `json:"arrival"`
	Stops     []Stop  `json:"stops,omitempty"`
	Baggage   Baggage `json:"baggage"`
}

type Stop struct {
	Airport string `json:"airport"`
	Minutes int    `json:"minutes"`
}

type Baggage struct {
	Checked  int  `json:"checked"`
	WeightKg int  `json:"weight_kg,omitempty"`
	Cabin    bool `json:"cabin"`
}

// ErrorResponse is the body of a failed call.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
