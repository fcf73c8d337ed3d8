// Package catalog holds the immutable lookup tables used to resolve free
// text into provider codes: locations, hotels, chain and airline aliases,
// room-type capacities and country names.
package catalog

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/tjfontaine/travel-gateway/internal/pkg/textnorm"
)

//go:embed data/*.yaml
var dataFS embed.FS

// Location is a resolvable city or airport.
type Location struct {
	Code               string   `yaml:"code" json:"code"`
	HotelDestinationID string   `yaml:"hotel_destination_id" json:"hotel_destination_id"`
	Name               string   `yaml:"name" json:"name"`
	Country            string   `yaml:"country" json:"country"`
	Population         int64    `yaml:"population" json:"population"`
	Aliases            []string `yaml:"aliases" json:"-"`
}

// Hotel is a resolvable property.
type Hotel struct {
	Code        string   `yaml:"code"`
	Name        string   `yaml:"name"`
	Chain       string   `yaml:"chain"`
	Destination string   `yaml:"destination"`
	Aliases     []string `yaml:"aliases"`
}

// Catalog is the parsed set of tables with lookup indexes.
// It is never modified after Load returns and is safe for concurrent use.
type Catalog struct {
	locations []Location
	hotels    []Hotel

	locByName   map[string][]*Location
	locByCode   map[string]*Location
	hotelByName map[string]*Hotel
	hotelByCode map[string]*Hotel
	chainAlias  map[string]string
	airline     map[string]string
	airlineCode map[string]bool
	roomTypes   map[string]int
	countries   map[string]string

	maxChainWords int
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

// Default returns the catalog built from the embedded tables.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = Load()
	})
	return defaultCat, defaultErr
}

// MustDefault is Default for callers that cannot proceed without tables.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Load parses the embedded tables.
func Load() (*Catalog, error) {
	var (
		locations []Location
		hotels    []Hotel
		chains    map[string][]string
		airlines  map[string][]string
		roomTypes map[string]int
		countries map[string][]string
	)

	files := []struct {
		name string
		out  any
	}{
		{"locations.yaml", &locations},
		{"hotels.yaml", &hotels},
		{"chains.yaml", &chains},
		{"airlines.yaml", &airlines},
		{"room_types.yaml", &roomTypes},
		{"countries.yaml", &countries},
	}
	for _, f := range files {
		data, err := dataFS.ReadFile("data/" + f.name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.name, err)
		}
		if err := yaml.Unmarshal(data, f.out); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", f.name, err)
		}
	}

	return build(locations, hotels, chains, airlines, roomTypes, countries)
}

func build(locations []Location, hotels []Hotel, chains, airlines map[string][]string,
	roomTypes map[string]int, countries map[string][]string) (*Catalog, error) {
	c := &Catalog{
		locations:   locations,
		hotels:      hotels,
		locByName:   make(map[string][]*Location),
		locByCode:   make(map[string]*Location),
		hotelByName: make(map[string]*Hotel),
		hotelByCode: make(map[string]*Hotel),
		chainAlias:  make(map[string]string),
		airline:     make(map[string]string),
		airlineCode: make(map[string]bool),
		roomTypes:   make(map[string]int),
		countries:   make(map[string]string),
	}

	for i := range c.locations {
		loc := &c.locations[i]
		if loc.Code == "" {
			return nil, fmt.Errorf("location %q has no code", loc.Name)
		}
		if _, dup := c.locByCode[loc.Code]; dup {
			return nil, fmt.Errorf("duplicate location code %s", loc.Code)
		}
		c.locByCode[loc.Code] = loc
		names := append([]string{loc.Name}, loc.Aliases...)
		seen := make(map[string]bool)
		for _, n := range names {
			key := textnorm.Normalize(n)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			c.locByName[key] = append(c.locByName[key], loc)
		}
	}

	for i := range c.hotels {
		h := &c.hotels[i]
		c.hotelByCode[h.Code] = h
		for _, n := range append([]string{h.Name}, h.Aliases...) {
			if key := textnorm.Normalize(n); key != "" {
				c.hotelByName[key] = h
			}
		}
	}

	for canonical, aliases := range chains {
		for _, a := range append([]string{canonical}, aliases...) {
			key := textnorm.Normalize(a)
			if prev, ok := c.chainAlias[key]; ok && prev != canonical {
				return nil, fmt.Errorf("chain alias %q maps to both %s and %s", a, prev, canonical)
			}
			c.chainAlias[key] = canonical
			if n := len(strings.Fields(key)); n > c.maxChainWords {
				c.maxChainWords = n
			}
		}
	}

	for code, aliases := range airlines {
		c.airlineCode[code] = true
		for _, a := range aliases {
			c.airline[textnorm.Normalize(a)] = code
		}
	}

	for label, capacity := range roomTypes {
		c.roomTypes[textnorm.Normalize(label)] = capacity
	}

	for code, names := range countries {
		c.countries[strings.ToLower(code)] = code
		for _, n := range names {
			c.countries[textnorm.Normalize(n)] = code
		}
	}

	return c, nil
}

// LocationsByName returns every location whose normalized name or alias
// equals name, ordered by descending population then code.
func (c *Catalog) LocationsByName(name string) []Location {
	matches := c.locByName[textnorm.Normalize(name)]
	out := make([]Location, 0, len(matches))
	for _, m := range matches {
		out = append(out, *m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Population != out[j].Population {
			return out[i].Population > out[j].Population
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// LocationByCode returns the location with the given IATA code.
func (c *Catalog) LocationByCode(code string) (Location, bool) {
	loc, ok := c.locByCode[strings.ToUpper(code)]
	if !ok {
		return Location{}, false
	}
	return *loc, true
}

// HotelByName returns the hotel whose normalized name or alias equals name.
func (c *Catalog) HotelByName(name string) (Hotel, bool) {
	h, ok := c.hotelByName[textnorm.Normalize(name)]
	if !ok {
		return Hotel{}, false
	}
	return *h, true
}

// HotelByCode returns the hotel with the given code.
func (c *Catalog) HotelByCode(code string) (Hotel, bool) {
	h, ok := c.hotelByCode[code]
	if !ok {
		return Hotel{}, false
	}
	return *h, true
}

// CanonicalChain maps a chain or brand name to its canonical chain.
// The longest alias found as a whole-word run inside name wins.
// Returns "" when nothing matches.
func (c *Catalog) CanonicalChain(name string) string {
	words := textnorm.Tokens(name)
	for n := min(c.maxChainWords, len(words)); n > 0; n-- {
		for i := 0; i+n <= len(words); i++ {
			if canonical, ok := c.chainAlias[strings.Join(words[i:i+n], " ")]; ok {
				return canonical
			}
		}
	}
	return ""
}

// ChainByAlias returns the canonical chain for an exact alias.
func (c *Catalog) ChainByAlias(alias string) (string, bool) {
	canonical, ok := c.chainAlias[textnorm.Normalize(alias)]
	return canonical, ok
}

// AirlineByAlias returns the IATA designator for an alias or a designator.
func (c *Catalog) AirlineByAlias(alias string) (string, bool) {
	if up := strings.ToUpper(strings.TrimSpace(alias)); c.airlineCode[up] {
		return up, true
	}
	code, ok := c.airline[textnorm.Normalize(alias)]
	return code, ok
}

// AirlineByName returns the IATA designator for an alias only. Free text
// is scanned with this since two-letter designators collide with words.
func (c *Catalog) AirlineByName(name string) (string, bool) {
	code, ok := c.airline[textnorm.Normalize(name)]
	return code, ok
}

// RoomCapacity infers adult capacity from a room label by looking for a
// known room-type word in it.
func (c *Catalog) RoomCapacity(label string) (int, bool) {
	for _, w := range textnorm.Tokens(label) {
		if capacity, ok := c.roomTypes[w]; ok {
			return capacity, true
		}
	}
	return 0, false
}

// CountryCode returns the ISO code for a country name or code.
func (c *Catalog) CountryCode(name string) (string, bool) {
	code, ok := c.countries[textnorm.Normalize(name)]
	return code, ok
}

// Locations returns a copy of every location.
func (c *Catalog) Locations() []Location {
	out := make([]Location, len(c.locations))
	copy(out, c.locations)
	return out
}
