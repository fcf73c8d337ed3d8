// Package iteration decides whether a query refines the previous search of
// a conversation or starts a new one, and builds the resulting context.
package iteration

import (
	"log/slog"
	"reflect"
	"slices"
	"time"

	"github.com/tjfontaine/travel-gateway/internal/core/domain"
	"github.com/tjfontaine/travel-gateway/internal/resolver"
)

// Kind classifies a query against the previous search.
type Kind string

const (
	KindNewSearch Kind = "NEW_SEARCH"
	KindModify    Kind = "MODIFY"
)

// Result is the outcome of Detect.
type Result struct {
	Kind Kind `json:"kind"`

	// Diff maps the JSON name of each changed field to its new value.
	// A nil value means the field was cleared. Empty for NEW_SEARCH.
	Diff map[string]any `json:"diff,omitempty"`

	// Context is the search context to run.
	Context *domain.SearchContext `json:"-"`
}

// Detector classifies queries. Safe for concurrent use.
type Detector struct {
	resolver *resolver.Resolver
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithClock sets the clock used to infer the year of partial dates.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) {
		d.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		d.logger = logger
	}
}

// NewDetector creates a Detector that confirms place names through r.
func NewDetector(r *resolver.Resolver, opts ...Option) *Detector {
	d := &Detector{resolver: r, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect classifies query against prior, the latest context of the same
// conversation (nil when there is none). overrides carries structured
// fields from the request body; its non-zero fields win over the text.
//
// A query naming a destination and a date where either conflicts with
// prior is always a new search. A conflicting destination or date without
// a continuity marker ("pero", "el mismo", "instead", a negation...) is a
// new search too. Everything else modifies prior.
func (d *Detector) Detect(query string, overrides, prior *domain.SearchContext) *Result {
	m := d.extract(query, d.now())
	if m.tripType == "" {
		var trip domain.TripType
		if prior != nil {
			trip = prior.TripType
		}
		m.originAsDestination(trip)
	}
	overrides = d.mentionOverrides(m, overrides)

	if prior == nil {
		return d.fresh(m, overrides, "no prior context")
	}

	base := prior.Clone()
	base.ApplyDefaults()

	destConflict := m.destination != nil && base.Destination != "" && m.destination.Code != base.Destination
	dateConflict := false
	if len(m.dates) > 0 && base.DepartureDate != "" && m.dates[0] != base.DepartureDate {
		dateConflict = true
	}
	if len(m.dates) > 1 && base.ReturnDate != "" && m.dates[1] != base.ReturnDate {
		dateConflict = true
	}

	switch {
	case m.destination != nil && len(m.dates) > 0 && (destConflict || dateConflict):
		return d.fresh(m, overrides, "new destination and dates")
	case (destConflict || dateConflict) && !m.continuity:
		return d.fresh(m, overrides, "conflicting trip without continuity marker")
	}

	merged := base.Clone()
	if m.tripType != "" && m.tripType != base.TripType && m.additive {
		m.tripType = domain.TripPackage
	}
	apply(merged, m)
	applyOverrides(merged, overrides)
	merged.ID = ""
	merged.ApplyDefaults()

	return &Result{
		Kind:    KindModify,
		Diff:    Diff(base, merged),
		Context: merged,
	}
}

func (d *Detector) fresh(m *mentions, overrides *domain.SearchContext, reason string) *Result {
	d.logger.Debug("iteration classified as new search", slog.String("reason", reason))

	sc := &domain.SearchContext{}
	apply(sc, m)
	applyOverrides(sc, overrides)
	sc.ApplyDefaults()
	return &Result{Kind: KindNewSearch, Context: sc}
}

// mentionOverrides folds the structured locations and dates into the
// mentions so they take part in conflict detection. It returns a copy of o
// with resolvable locations replaced by their codes.
func (d *Detector) mentionOverrides(m *mentions, o *domain.SearchContext) *domain.SearchContext {
	if o == nil {
		return nil
	}
	o = o.Clone()
	if o.Destination != "" {
		if loc, ok := d.resolver.Lookup(o.Destination, ""); ok {
			m.destination = &loc
			o.Destination = loc.Code
		}
	}
	if o.Origin != "" {
		if loc, ok := d.resolver.Lookup(o.Origin, ""); ok {
			m.origin = &loc
			o.Origin = loc.Code
		}
	}
	if o.DepartureDate != "" {
		if len(m.dates) == 0 {
			m.dates = []string{o.DepartureDate}
		} else {
			m.dates[0] = o.DepartureDate
		}
	}
	if o.ReturnDate != "" && len(m.dates) > 0 {
		if len(m.dates) == 1 {
			m.dates = append(m.dates, o.ReturnDate)
		} else {
			m.dates[1] = o.ReturnDate
		}
	}
	return o
}

func apply(sc *domain.SearchContext, m *mentions) {
	if m.tripType != "" {
		sc.TripType = m.tripType
	}
	if m.origin != nil {
		sc.Origin, sc.OriginName = m.origin.Code, m.origin.Name
	}
	if m.destination != nil {
		sc.Destination, sc.DestinationName = m.destination.Code, m.destination.Name
	}
	if m.hotel != nil {
		sc.HotelCode = m.hotel.Code
		if m.destination == nil {
			sc.Destination, sc.DestinationName = m.hotel.Destination, ""
		}
	}
	if len(m.dates) > 0 {
		sc.DepartureDate = m.dates[0]
	}
	if len(m.dates) > 1 {
		sc.ReturnDate = m.dates[1]
	}
	if m.stopsSet {
		sc.Filters.MaxStops = m.maxStops
	}

	f := &sc.Filters
	if len(m.airlines) > 0 {
		f.Airlines = slices.Clone(m.airlines)
		f.ExcludedAirlines = slices.DeleteFunc(f.ExcludedAirlines, func(c string) bool {
			return slices.Contains(m.airlines, c)
		})
	}
	for _, code := range m.excluded {
		if !slices.Contains(f.ExcludedAirlines, code) {
			f.ExcludedAirlines = append(f.ExcludedAirlines, code)
		}
		f.Airlines = slices.DeleteFunc(f.Airlines, func(c string) bool { return c == code })
	}
	if m.chain != "" {
		f.HotelChain = m.chain
	}
	if m.baggage != "" {
		f.Baggage = m.baggage
	}
	if m.mealPlan != "" {
		f.MealPlan = m.mealPlan
	}
	if m.depBand != "" {
		f.DepartureBand = m.depBand
	}
	if m.arrBand != "" {
		f.ArrivalBand = m.arrBand
	}
	if m.includeLight {
		f.IncludeLightFares = true
	}

	if m.adults > 0 {
		sc.Adults = m.adults
	}
	if m.children > 0 {
		sc.Children = m.children
	}
	if m.rooms > 0 {
		sc.Rooms = m.rooms
	}
}

// applyOverrides copies every non-zero field of o onto sc. Location
// fields are copied verbatim and resolved later.
func applyOverrides(sc *domain.SearchContext, o *domain.SearchContext) {
	if o == nil {
		return
	}
	if o.TripType != "" {
		sc.TripType = o.TripType
	}
	if o.Origin != "" && o.Origin != sc.Origin {
		sc.Origin, sc.OriginName = o.Origin, ""
	}
	if o.Destination != "" && o.Destination != sc.Destination {
		sc.Destination, sc.DestinationName = o.Destination, ""
	}
	if o.DepartureDate != "" {
		sc.DepartureDate = o.DepartureDate
	}
	if o.ReturnDate != "" {
		sc.ReturnDate = o.ReturnDate
	}
	if o.Adults > 0 {
		sc.Adults = o.Adults
	}
	if o.Children > 0 {
		sc.Children = o.Children
	}
	if o.Rooms > 0 {
		sc.Rooms = o.Rooms
	}
	if o.HotelCode != "" {
		sc.HotelCode = o.HotelCode
	}

	f, of := &sc.Filters, o.Filters
	if len(of.Airlines) > 0 {
		f.Airlines = slices.Clone(of.Airlines)
	}
	if len(of.ExcludedAirlines) > 0 {
		f.ExcludedAirlines = slices.Clone(of.ExcludedAirlines)
	}
	if of.MaxStops != nil {
		v := *of.MaxStops
		f.MaxStops = &v
	}
	if of.Baggage != "" {
		f.Baggage = of.Baggage
	}
	if of.MealPlan != "" {
		f.MealPlan = of.MealPlan
	}
	if of.HotelChain != "" {
		f.HotelChain = of.HotelChain
	}
	if of.DepartureBand != "" {
		f.DepartureBand = of.DepartureBand
	}
	if of.ArrivalBand != "" {
		f.ArrivalBand = of.ArrivalBand
	}
	if of.IncludeLightFares {
		f.IncludeLightFares = true
	}
}

type field struct {
	name string
	get  func(*domain.SearchContext) any
}

var diffFields = []field{
	{"trip_type", func(sc *domain.SearchContext) any { return sc.TripType }},
	{"origin", func(sc *domain.SearchContext) any { return sc.Origin }},
	{"destination", func(sc *domain.SearchContext) any { return sc.Destination }},
	{"departure_date", func(sc *domain.SearchContext) any { return sc.DepartureDate }},
	{"return_date", func(sc *domain.SearchContext) any { return sc.ReturnDate }},
	{"adults", func(sc *domain.SearchContext) any { return sc.Adults }},
	{"children", func(sc *domain.SearchContext) any { return sc.Children }},
	{"rooms", func(sc *domain.SearchContext) any { return sc.Rooms }},
	{"hotel_code", func(sc *domain.SearchContext) any { return sc.HotelCode }},
	{"airlines", func(sc *domain.SearchContext) any { return sc.Filters.Airlines }},
	{"excluded_airlines", func(sc *domain.SearchContext) any { return sc.Filters.ExcludedAirlines }},
	{"max_stops", func(sc *domain.SearchContext) any {
		if sc.Filters.MaxStops == nil {
			return nil
		}
		return *sc.Filters.MaxStops
	}},
	{"baggage", func(sc *domain.SearchContext) any { return sc.Filters.Baggage }},
	{"meal_plan", func(sc *domain.SearchContext) any { return sc.Filters.MealPlan }},
	{"hotel_chain", func(sc *domain.SearchContext) any { return sc.Filters.HotelChain }},
	{"departure_band", func(sc *domain.SearchContext) any { return sc.Filters.DepartureBand }},
	{"arrival_band", func(sc *domain.SearchContext) any { return sc.Filters.ArrivalBand }},
	{"include_light_fares", func(sc *domain.SearchContext) any { return sc.Filters.IncludeLightFares }},
}

// Diff returns the fields of after that differ from before, keyed by JSON name.
func Diff(before, after *domain.SearchContext) map[string]any {
	diff := make(map[string]any)
	for _, f := range diffFields {
		a, b := f.get(before), f.get(after)
		if !reflect.DeepEqual(a, b) {
			diff[f.name] = b
		}
	}
	return diff
}
