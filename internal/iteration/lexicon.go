package iteration

import (
	"time"

	"github.com/tjfontaine/travel-gateway/internal/core/domain"
)

// All entries are in normalized form: lower case, no diacritics.

var destinationPreps = map[string]bool{"a": true, "hacia": true, "to": true, "en": true, "in": true}

var originPreps = map[string]bool{"desde": true, "de": true, "from": true}

var tripTypeWords = map[string]domain.TripType{
	"vuelo": domain.TripFlight, "vuelos": domain.TripFlight, "pasaje": domain.TripFlight,
	"pasajes": domain.TripFlight, "volar": domain.TripFlight, "flight": domain.TripFlight,
	"flights": domain.TripFlight, "fly": domain.TripFlight,
	"hotel": domain.TripHotel, "hoteles": domain.TripHotel, "alojamiento": domain.TripHotel,
	"hospedaje": domain.TripHotel, "hotels": domain.TripHotel, "accommodation": domain.TripHotel,
	"paquete": domain.TripPackage, "paquetes": domain.TripPackage, "package": domain.TripPackage,
}

var months = map[string]time.Month{
	"enero": time.January, "febrero": time.February, "marzo": time.March, "abril": time.April,
	"mayo": time.May, "junio": time.June, "julio": time.July, "agosto": time.August,
	"septiembre": time.September, "setiembre": time.September, "octubre": time.October,
	"noviembre": time.November, "diciembre": time.December,
	"january": time.January, "february": time.February, "march": time.March, "april": time.April,
	"may": time.May, "june": time.June, "july": time.July, "august": time.August,
	"september": time.September, "october": time.October, "november": time.November,
	"december": time.December,
}

// rangeJoiners link two day numbers sharing one month: "del 10 al 20 de marzo".
var rangeJoiners = map[string]bool{"al": true, "a": true, "y": true, "to": true, "hasta": true}

type stopPhrase struct {
	phrase string
	stops  int // -1 means any
}

// Ordered: "con o sin escalas" must be tried before "sin escalas".
var stopPhrases = []stopPhrase{
	{"con o sin escalas", -1},
	{"sin escalas", 0}, {"sin escala", 0}, {"vuelo directo", 0}, {"vuelos directos", 0},
	{"directo", 0}, {"directos", 0}, {"nonstop", 0}, {"non stop", 0}, {"direct", 0},
	{"una escala", 1}, {"1 escala", 1}, {"one stop", 1}, {"1 stop", 1},
	{"con escalas", -1}, {"cualquier escala", -1}, {"any stops", -1},
}

var negations = map[string]bool{
	"sin": true, "no": true, "except": true, "excepto": true, "menos": true, "without": true, "not": true,
}

// clauseBreaks end the reach of a negation: "sin escalas y con Iberia".
var clauseBreaks = map[string]bool{
	"y": true, "e": true, "o": true, "pero": true, "and": true, "or": true, "but": true,
}

// negationReach is how many words before an airline a negation may sit:
// "no quiero volar con LATAM".
const negationReach = 4

type baggagePhrase struct {
	phrase string
	class  domain.BaggageClass
}

// Ordered: more specific phrases first so "con equipaje de mano" is carry-on.
var baggagePhrases = []baggagePhrase{
	{"solo mochila", domain.BaggagePersonalItem},
	{"personal item", domain.BaggagePersonalItem},
	{"sin equipaje", domain.BaggagePersonalItem},
	{"sin valija", domain.BaggagePersonalItem},
	{"solo de mano", domain.BaggageCarryOn},
	{"equipaje de mano", domain.BaggageCarryOn},
	{"carry on", domain.BaggageCarryOn},
	{"hand luggage", domain.BaggageCarryOn},
	{"dos valijas", domain.BaggageChecked2Plus},
	{"2 valijas", domain.BaggageChecked2Plus},
	{"two checked bags", domain.BaggageChecked2Plus},
	{"con valija", domain.BaggageChecked1},
	{"con equipaje", domain.BaggageChecked1},
	{"con maleta", domain.BaggageChecked1},
	{"equipaje despachado", domain.BaggageChecked1},
	{"checked bag", domain.BaggageChecked1},
	{"checked baggage", domain.BaggageChecked1},
	{"with luggage", domain.BaggageChecked1},
}

type mealPhrase struct {
	phrase string
	plan   string
}

var mealPhrases = []mealPhrase{
	{"todo incluido", "AI"}, {"all inclusive", "AI"},
	{"media pension", "HB"}, {"half board", "HB"},
	{"pension completa", "FB"}, {"full board", "FB"},
	{"solo alojamiento", "RO"}, {"room only", "RO"},
	{"desayuno", "BB"}, {"breakfast", "BB"},
}

type bandPhrase struct {
	phrase string
	band   domain.TimeBand
}

var bandPhrases = []bandPhrase{
	{"la manana", domain.BandMorning}, {"morning", domain.BandMorning},
	{"la tarde", domain.BandAfternoon}, {"de tarde", domain.BandAfternoon}, {"afternoon", domain.BandAfternoon},
	{"la noche", domain.BandEvening}, {"de noche", domain.BandEvening}, {"evening", domain.BandEvening},
	{"nocturno", domain.BandEvening}, {"nocturnos", domain.BandEvening},
	{"madrugada", domain.BandNight}, {"night", domain.BandNight}, {"red eye", domain.BandNight},
}

var arrivalWords = map[string]bool{
	"llegada": true, "llegando": true, "llegar": true, "arriving": true, "arrival": true, "arrive": true,
}

var adultWords = map[string]bool{
	"adulto": true, "adultos": true, "adult": true, "adults": true, "personas": true,
	"persons": true, "people": true, "pasajeros": true, "passengers": true,
}

var childWords = map[string]bool{
	"nino": true, "ninos": true, "menor": true, "menores": true, "child": true, "children": true, "kids": true,
}

var roomWords = map[string]bool{
	"habitacion": true, "habitaciones": true, "cuarto": true, "cuartos": true, "room": true, "rooms": true,
}

var numberWords = map[string]int{
	"un": 1, "uno": 1, "una": 1, "one": 1, "dos": 2, "two": 2, "tres": 3, "three": 3,
	"cuatro": 4, "four": 4, "cinco": 5, "five": 5, "seis": 6, "six": 6,
}

var cheapestPhrases = []string{
	"lo mas barato posible", "lo mas barato", "sin importar restricciones",
	"sin importar las restricciones", "tarifa light", "tarifas light", "cheapest regardless",
	"cheapest possible", "include light fares", "incluir tarifas light",
}

var continuityPhrases = []string{
	"el mismo", "la misma", "lo mismo", "los mismos", "las mismas", "pero", "ahora", "en cambio",
	"mejor", "tambien", "ademas", "y si", "same", "but", "instead", "also", "now", "what about",
}

// additiveWords turn a new trip-type noun into a package when the prior
// search was of the other kind: "y hotel tambien".
var additiveWords = []string{"tambien", "ademas", "also", "too", "plus"}
