package iteration

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/tjfontaine/travel-gateway/internal/catalog"
	"github.com/tjfontaine/travel-gateway/internal/core/domain"
	"github.com/tjfontaine/travel-gateway/internal/pkg/textnorm"
)

const maxLocationWords = 4

var (
	isoDateRe   = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	slashDateRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:/(\d{2}|\d{4}))?$`)
	dayRe       = regexp.MustCompile(`^(\d{1,2})(?:st|nd|rd|th|ro)?$`)
)

// mentions is everything a query explicitly says.
type mentions struct {
	tripType    domain.TripType
	origin      *catalog.Location
	originLoose bool // origin came from "de", which also reads as "in"
	destination *catalog.Location
	hotel       *catalog.Hotel
	dates       []string

	stopsSet bool
	maxStops *int

	airlines []string
	excluded []string
	chain    string
	baggage  domain.BaggageClass
	mealPlan string
	depBand  domain.TimeBand
	arrBand  domain.TimeBand

	adults   int
	children int
	rooms    int

	includeLight bool
	continuity   bool
	additive     bool
}

type extractor struct {
	d     *Detector
	words []string
	text  string // words joined by single spaces, padded with a space on each side
	used  []bool
	now   time.Time
}

func (d *Detector) extract(query string, now time.Time) *mentions {
	words := strings.Fields(textnorm.KeepSlashes(query))
	x := &extractor{
		d:     d,
		words: words,
		text:  " " + strings.Join(words, " ") + " ",
		used:  make([]bool, len(words)),
		now:   now,
	}

	m := &mentions{}
	x.hotel(m)
	x.locations(m)
	x.dates(m)
	x.occupancy(m)
	x.tripType(m)
	x.stops(m)
	x.airlinesAndChains(m)
	x.phrases(m)
	if m.tripType != "" {
		m.originAsDestination(m.tripType)
	}
	return m
}

// originAsDestination reads a lone origin as the destination when the trip
// has no use for an origin: "hoteles de Cancun". With no trip type at all,
// only a place introduced by "de" is moved, and not in a follow-up turn.
func (m *mentions) originAsDestination(trip domain.TripType) {
	if m.origin == nil || m.destination != nil || m.hotel != nil {
		return
	}
	switch {
	case trip == domain.TripHotel:
	case trip == "" && m.originLoose && !m.continuity:
	default:
		return
	}
	m.destination, m.origin, m.originLoose = m.origin, nil, false
}

func (x *extractor) has(phrase string) bool {
	return strings.Contains(x.text, " "+phrase+" ")
}

// phraseAt returns the word index where phrase starts, or -1.
func (x *extractor) phraseAt(phrase string) int {
	i := strings.Index(x.text, " "+phrase+" ")
	if i < 0 {
		return -1
	}
	return strings.Count(x.text[:i+1], " ") - 1
}

func (x *extractor) free(i, n int) bool {
	for j := i; j < i+n; j++ {
		if j >= len(x.used) || x.used[j] {
			return false
		}
	}
	return true
}

func (x *extractor) mark(i, n int) {
	for j := i; j < i+n && j < len(x.used); j++ {
		x.used[j] = true
	}
}

func (x *extractor) span(i, n int) string {
	return strings.Join(x.words[i:i+n], " ")
}

func (x *extractor) hotel(m *mentions) {
	cat := x.d.resolver.Catalog()
	for n := 5; n >= 2; n-- {
		for i := 0; i+n <= len(x.words); i++ {
			if !x.free(i, n) {
				continue
			}
			if h, ok := cat.HotelByName(x.span(i, n)); ok {
				m.hotel = &h
				x.mark(i, n)
				return
			}
		}
	}
}

// matchLocation tries the longest location name starting at i.
func (x *extractor) matchLocation(i int) (*catalog.Location, int) {
	for n := min(maxLocationWords, len(x.words)-i); n > 0; n-- {
		if !x.free(i, n) {
			continue
		}
		if loc, ok := x.d.resolver.LookupName(x.span(i, n)); ok {
			return &loc, n
		}
	}
	return nil, 0
}

func (x *extractor) locations(m *mentions) {
	for i := 0; i < len(x.words)-1; i++ {
		w := x.words[i]
		if x.used[i] || !(destinationPreps[w] || originPreps[w]) {
			continue
		}
		loc, n := x.matchLocation(i + 1)
		if loc == nil {
			continue
		}
		switch {
		case destinationPreps[w] && m.destination == nil:
			m.destination = loc
		case originPreps[w] && m.origin == nil:
			m.origin = loc
			m.originLoose = w == "de"
		default:
			continue
		}
		x.mark(i, n+1)
		i += n
	}

	if m.destination != nil || m.hotel != nil {
		return
	}
	// a bare place name with no preposition is taken as the destination
	for i := 0; i < len(x.words); i++ {
		if loc, n := x.matchLocation(i); loc != nil {
			m.destination = loc
			x.mark(i, n)
			return
		}
	}
}

func (x *extractor) dates(m *mentions) {
	for i := 0; i < len(x.words); i++ {
		if x.used[i] {
			continue
		}
		w := x.words[i]

		if g := isoDateRe.FindStringSubmatch(w); g != nil {
			if d, ok := makeDate(atoi(g[1]), atoi(g[2]), atoi(g[3])); ok {
				m.dates = append(m.dates, d)
				x.mark(i, 1)
			}
			continue
		}

		if g := slashDateRe.FindStringSubmatch(w); g != nil {
			day, month := atoi(g[1]), atoi(g[2])
			var d string
			var ok bool
			if g[3] != "" {
				year := atoi(g[3])
				if year < 100 {
					year += 2000
				}
				d, ok = makeDate(year, month, day)
			} else {
				d, ok = x.nextOccurrence(time.Month(month), day)
			}
			if ok {
				m.dates = append(m.dates, d)
				x.mark(i, 1)
			}
			continue
		}

		if month, ok := months[w]; ok && i+1 < len(x.words) {
			// english order: "march 10"
			if g := dayRe.FindStringSubmatch(x.words[i+1]); g != nil {
				if d, ok := x.nextOccurrence(month, atoi(g[1])); ok {
					m.dates = append(m.dates, d)
					x.mark(i, 2)
					i++
				}
			}
			continue
		}

		g := dayRe.FindStringSubmatch(w)
		if g == nil {
			continue
		}
		days := []int{atoi(g[1])}
		j := i + 1
		// "10 al 20 de marzo"
		if j+1 < len(x.words) && rangeJoiners[x.words[j]] {
			if g2 := dayRe.FindStringSubmatch(x.words[j+1]); g2 != nil {
				days = append(days, atoi(g2[1]))
				j += 2
			}
		}
		if j < len(x.words) && x.words[j] == "de" {
			j++
		}
		if j >= len(x.words) {
			continue
		}
		month, ok := months[x.words[j]]
		if !ok {
			continue
		}
		for _, day := range days {
			if d, ok := x.nextOccurrence(month, day); ok {
				m.dates = append(m.dates, d)
			}
		}
		x.mark(i, j-i+1)
		i = j
	}
}

// nextOccurrence returns the first date on or after today with the given month and day.
func (x *extractor) nextOccurrence(month time.Month, day int) (string, bool) {
	today := time.Date(x.now.Year(), x.now.Month(), x.now.Day(), 0, 0, 0, 0, time.UTC)
	for _, year := range []int{today.Year(), today.Year() + 1} {
		t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		if t.Month() != month || t.Day() != day {
			// Feb 29 outside a leap year
			continue
		}
		if !t.Before(today) {
			return t.Format(domain.DateLayout), true
		}
	}
	return "", false
}

func makeDate(year, month, day int) (string, bool) {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", false
	}
	return t.Format(domain.DateLayout), true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func (x *extractor) number(w string) (int, bool) {
	if n, ok := numberWords[w]; ok {
		return n, true
	}
	if n, err := strconv.Atoi(w); err == nil && n > 0 && n < 20 {
		return n, true
	}
	return 0, false
}

func (x *extractor) occupancy(m *mentions) {
	for i := 0; i+1 < len(x.words); i++ {
		if x.used[i] {
			continue
		}
		n, ok := x.number(x.words[i])
		if !ok {
			continue
		}
		next := x.words[i+1]
		switch {
		case adultWords[next]:
			m.adults = n
		case childWords[next]:
			m.children = n
		case roomWords[next]:
			m.rooms = n
		default:
			continue
		}
		x.mark(i, 2)
		i++
	}
}

func (x *extractor) tripType(m *mentions) {
	flight, hotel := false, false
	for i, w := range x.words {
		if x.used[i] {
			continue
		}
		switch tripTypeWords[w] {
		case domain.TripFlight:
			flight = true
		case domain.TripHotel:
			hotel = true
		case domain.TripPackage:
			flight, hotel = true, true
		}
	}
	switch {
	case flight && hotel:
		m.tripType = domain.TripPackage
	case flight:
		m.tripType = domain.TripFlight
	case hotel:
		m.tripType = domain.TripHotel
	case m.hotel != nil:
		m.tripType = domain.TripHotel
	}
}

func (x *extractor) stops(m *mentions) {
	for _, sp := range stopPhrases {
		if !x.has(sp.phrase) {
			continue
		}
		m.stopsSet = true
		if sp.stops >= 0 {
			v := sp.stops
			m.maxStops = &v
		}
		i := x.phraseAt(sp.phrase)
		x.mark(i, len(strings.Fields(sp.phrase)))
		return
	}
}

func (x *extractor) airlinesAndChains(m *mentions) {
	cat := x.d.resolver.Catalog()
	for i := 0; i < len(x.words); i++ {
		matched := false
		for n := min(3, len(x.words)-i); n > 0 && !matched; n-- {
			if !x.free(i, n) {
				continue
			}
			s := x.span(i, n)
			if code, ok := cat.AirlineByName(s); ok {
				if x.negatedBefore(i) {
					m.excluded = appendUnique(m.excluded, code)
				} else {
					m.airlines = appendUnique(m.airlines, code)
				}
				matched = true
			} else if chain, ok := cat.ChainByAlias(s); ok && m.chain == "" {
				m.chain = chain
				matched = true
			}
			if matched {
				x.mark(i, n)
				i += n - 1
			}
		}
	}
}

// negatedBefore reports whether a negation governs the word at i. The scan
// stays inside the clause and ignores negations that open a baggage or
// fare phrase of their own.
func (x *extractor) negatedBefore(i int) bool {
	for j := i - 1; j >= max(0, i-negationReach); j-- {
		w := x.words[j]
		if clauseBreaks[w] {
			return false
		}
		if negations[w] && !x.used[j] && !x.opensPhrase(j) {
			return true
		}
	}
	return false
}

func (x *extractor) opensPhrase(j int) bool {
	for _, bp := range baggagePhrases {
		if x.phraseStartsAt(j, bp.phrase) {
			return true
		}
	}
	for _, p := range cheapestPhrases {
		if x.phraseStartsAt(j, p) {
			return true
		}
	}
	return false
}

func (x *extractor) phraseStartsAt(j int, phrase string) bool {
	fields := strings.Fields(phrase)
	if j+len(fields) > len(x.words) {
		return false
	}
	return slices.Equal(x.words[j:j+len(fields)], fields)
}

func (x *extractor) phrases(m *mentions) {
	for _, bp := range baggagePhrases {
		if x.has(bp.phrase) {
			m.baggage = bp.class
			break
		}
	}

	for _, mp := range mealPhrases {
		if x.has(mp.phrase) {
			m.mealPlan = mp.plan
			break
		}
	}

	for _, bp := range bandPhrases {
		i := x.phraseAt(bp.phrase)
		if i < 0 {
			continue
		}
		if x.arrivalBefore(i) {
			if m.arrBand == "" {
				m.arrBand = bp.band
			}
		} else if m.depBand == "" {
			m.depBand = bp.band
		}
	}

	for _, p := range cheapestPhrases {
		if x.has(p) {
			m.includeLight = true
			break
		}
	}

	for _, p := range continuityPhrases {
		if x.has(p) {
			m.continuity = true
			break
		}
	}
	for _, w := range x.words {
		if negations[w] {
			m.continuity = true
		}
	}

	for _, p := range additiveWords {
		if x.has(p) {
			m.additive = true
			break
		}
	}
}

// arrivalBefore reports whether an arrival word appears within the three
// words preceding index i.
func (x *extractor) arrivalBefore(i int) bool {
	for j := max(0, i-3); j < i; j++ {
		if arrivalWords[x.words[j]] {
			return true
		}
	}
	return false
}

func appendUnique(list []string, v string) []string {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}
