// Package filter is the ordered stack of result filters.
//
// Every filter is a pure per-result predicate, so independent filters
// commute and applying a filter twice equals applying it once. Filters on
// flight attributes pass hotel results through untouched and vice versa.
//
// Stack order:
//
//  1. destination_whitelist
//  2. occupancy
//  3. light_fare
//  4. hotel_chain
//  5. time_of_day
//  6. airline
//  7. stops
//  8. baggage
//  9. meal_plan
package filter

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/tjfontaine/travel-gateway/internal/catalog"
	"github.com/tjfontaine/travel-gateway/internal/core/domain"
)

// Filter names, used by filters.disabled.
const (
	NameDestinationWhitelist = "destination_whitelist"
	NameOccupancy            = "occupancy"
	NameLightFare            = "light_fare"
	NameHotelChain           = "hotel_chain"
	NameTimeOfDay            = "time_of_day"
	NameAirline              = "airline"
	NameStops                = "stops"
	NameBaggage              = "baggage"
	NameMealPlan             = "meal_plan"
)

// Query is what a filter knows about the request.
type Query struct {
	Search *domain.SearchContext
	// Market is the ISO country of the tenant's sales market.
	Market string
}

// Filter is a pure predicate over one result.
type Filter interface {
	Name() string
	Keep(q *Query, r *domain.FilteredResult) bool
}

// Config configures the stack.
type Config struct {
	Disabled             []string
	LightFareAirlines    []string
	DestinationWhitelist map[string][]string
}

// Stack runs the enabled filters in order.
type Stack struct {
	filters []Filter
	logger  *slog.Logger
}

// Option configures a Stack
type Option func(*Stack)

// WithLogger sets the logger for the stack
func WithLogger(logger *slog.Logger) Option {
	return func(s *Stack) {
		s.logger = logger
	}
}

// NewStack builds the stack in its fixed order, leaving out disabled filters.
func NewStack(cfg Config, cat *catalog.Catalog, opts ...Option) *Stack {
	all := []Filter{
		newDestinationWhitelist(cfg.DestinationWhitelist),
		occupancyFilter{cat: cat},
		newLightFare(cfg.LightFareAirlines),
		hotelChainFilter{cat: cat},
		timeOfDayFilter{},
		airlineFilter{},
		stopsFilter{},
		baggageFilter{},
		mealPlanFilter{},
	}

	s := &Stack{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	for _, f := range all {
		if slices.Contains(cfg.Disabled, f.Name()) {
			continue
		}
		s.filters = append(s.filters, f)
	}
	return s
}

// Names returns the enabled filters in order.
func (s *Stack) Names() []string {
	names := make([]string, len(s.filters))
	for i, f := range s.filters {
		names[i] = f.Name()
	}
	return names
}

// Apply returns the results kept by every enabled filter, preserving order.
func (s *Stack) Apply(q *Query, results []domain.FilteredResult) []domain.FilteredResult {
	out := make([]domain.FilteredResult, 0, len(results))
	dropped := make(map[string]int)
next:
	for i := range results {
		for _, f := range s.filters {
			if !f.Keep(q, &results[i]) {
				dropped[f.Name()]++
				continue next
			}
		}
		out = append(out, results[i])
	}
	if len(dropped) > 0 {
		attrs := make([]any, 0, len(dropped))
		for name, n := range dropped {
			attrs = append(attrs, slog.Int(name, n))
		}
		s.logger.Debug("filtered results", slog.Group("dropped", attrs...), slog.Int("kept", len(out)))
	}
	return out
}

func upperSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToUpper(strings.TrimSpace(v))] = true
	}
	return set
}
