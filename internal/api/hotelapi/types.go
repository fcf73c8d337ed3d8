package hotelapi

// AvailabilityRequest is the body of POST /api/availability.
type AvailabilityRequest struct {
	DestinationID string `json:"destination_id"`
	HotelCode     string `json:"hotel_code,omitempty"`
	CheckIn       string `json:"check_in"`
	CheckOut      string `json:"check_out"`
	Rooms         []Room `json:"rooms"`
}

// Room is the requested occupancy of one room.
type Room struct {
	Adults   int `json:"adults"`
	Children int `json:"children,omitempty"`
}

// AvailabilityResponse is the body of an availability answer. Status is
// "OK" on success; anything else carries Message.
type AvailabilityResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message,omitempty"`
	Hotels  []Hotel `json:"hotels"`
}

type Hotel struct {
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	ChainName   string     `json:"chain_name,omitempty"`
	Destination string     `json:"destination"`
	Rooms       []RoomType `json:"rooms"`
}

type RoomType struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Rates []Rate `json:"rates"`
}

type Rate struct {
	Code      string     `json:"code"`
	Board     string     `json:"board,omitempty"`
	Occupancy *Occupancy `json:"occupancy,omitempty"`
	Currency  string     `json:"currency"`
	Total     float64    `json:"total"`
	Net       float64    `json:"net,omitempty"`
	Taxes     float64    `json:"taxes,omitempty"`
	Fees      float64    `json:"fees,omitempty"`
}

// Occupancy is the stated room capacity, absent for many properties.
type Occupancy struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
}
