// Package resolver maps free-text location and hotel names to provider codes.
package resolver

import (
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tjfontaine/travel-gateway/internal/catalog"
	"github.com/tjfontaine/travel-gateway/internal/core/domain"
	"github.com/tjfontaine/travel-gateway/internal/pkg/textnorm"
)

// DefaultCacheSize is used when no cache size is configured.
const DefaultCacheSize = 4096

type entry struct {
	loc catalog.Location
	ok  bool
}

// Resolver resolves names against a catalog. Safe for concurrent use.
type Resolver struct {
	cat    *catalog.Catalog
	cache  *lru.Cache[string, entry]
	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver) error

// WithCacheSize sets the LRU size.
func WithCacheSize(size int) Option {
	return func(r *Resolver) error {
		if size <= 0 {
			size = DefaultCacheSize
		}
		c, err := lru.New[string, entry](size)
		if err != nil {
			return fmt.Errorf("failed to create resolver cache: %w", err)
		}
		r.cache = c
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) error {
		r.logger = logger
		return nil
	}
}

// New creates a Resolver over cat.
func New(cat *catalog.Catalog, opts ...Option) (*Resolver, error) {
	r := &Resolver{cat: cat, logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if r.cache == nil {
		if err := WithCacheSize(DefaultCacheSize)(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Resolve returns the location for name. country, when non-empty, is a
// country name or ISO code restricting the candidates; a ", <country>"
// suffix in name has the same effect. Among remaining candidates the
// most populated wins, ties broken by code.
// Returns an UNRESOLVED_LOCATION APIError when nothing matches.
func (r *Resolver) Resolve(name, country string) (catalog.Location, error) {
	loc, ok := r.Lookup(name, country)
	if !ok {
		r.logger.Debug("location unresolved", slog.String("input", name), slog.String("country", country))
		return catalog.Location{}, domain.ErrUnresolvedLocation(name)
	}
	return loc, nil
}

// Lookup is Resolve without the error value.
func (r *Resolver) Lookup(name, country string) (catalog.Location, bool) {
	base, suffix := splitCountrySuffix(name)
	if country == "" {
		country = suffix
	}

	key := textnorm.Normalize(base)
	if key == "" {
		return catalog.Location{}, false
	}
	countryCode := ""
	if country != "" {
		code, ok := r.cat.CountryCode(country)
		if !ok {
			// an unknown country cannot match anything
			return catalog.Location{}, false
		}
		countryCode = code
	}

	cacheKey := key + "|" + countryCode
	if e, hit := r.cache.Get(cacheKey); hit {
		return e.loc, e.ok
	}

	loc, ok := r.lookup(key, base, countryCode)
	r.cache.Add(cacheKey, entry{loc: loc, ok: ok})
	return loc, ok
}

func (r *Resolver) lookup(key, raw, countryCode string) (catalog.Location, bool) {
	candidates := r.cat.LocationsByName(key)
	if len(candidates) == 0 {
		if trimmed := strings.TrimSpace(raw); len(trimmed) == 3 {
			if loc, ok := r.cat.LocationByCode(trimmed); ok {
				candidates = []catalog.Location{loc}
			}
		}
	}

	for _, c := range candidates {
		if countryCode == "" || c.Country == countryCode {
			return c, true
		}
	}
	return catalog.Location{}, false
}

// LookupName matches name against location names and aliases only, never
// codes, returning the most populated match. Used when scanning free text.
func (r *Resolver) LookupName(name string) (catalog.Location, bool) {
	candidates := r.cat.LocationsByName(name)
	if len(candidates) == 0 {
		return catalog.Location{}, false
	}
	return candidates[0], true
}

// splitCountrySuffix splits "Valencia, Venezuela" into its parts. Input
// without a comma is returned unchanged with an empty suffix.
func splitCountrySuffix(name string) (string, string) {
	i := strings.LastIndex(name, ",")
	if i < 0 {
		return name, ""
	}
	return strings.TrimSpace(name[:i]), strings.TrimSpace(name[i+1:])
}

// ResolveHotel returns the hotel code for a hotel name.
func (r *Resolver) ResolveHotel(name string) (catalog.Hotel, error) {
	h, ok := r.cat.HotelByName(name)
	if !ok {
		return catalog.Hotel{}, domain.ErrUnresolvedLocation(name)
	}
	return h, nil
}

// LocationByCode returns the catalog entry for a code.
func (r *Resolver) LocationByCode(code string) (catalog.Location, bool) {
	return r.cat.LocationByCode(code)
}

// Catalog exposes the underlying tables.
func (r *Resolver) Catalog() *catalog.Catalog {
	return r.cat
}
