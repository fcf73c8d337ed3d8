// Package textnorm normalizes free text for lookups: case folding,
// diacritic stripping, punctuation removal and whitespace collapsing.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize returns the canonical lookup form of s.
// "  Cancún,  MÉXICO " becomes "cancun mexico".
func Normalize(s string) string {
	// transform.Chain is stateful, build one per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	folded := cases.Fold().String(stripped)

	var b strings.Builder
	b.Grow(len(folded))
	space := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}
	return b.String()
}

// Tokens splits s into normalized words.
func Tokens(s string) []string {
	return strings.Fields(Normalize(s))
}

// KeepSlashes normalizes s but preserves '/' and '-' between digits so date
// forms like 10/03 and 2026-03-10 survive tokenization.
func KeepSlashes(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	folded := []rune(cases.Fold().String(stripped))

	var b strings.Builder
	space := false
	for i, r := range folded {
		keep := unicode.IsLetter(r) || unicode.IsDigit(r)
		if (r == '/' || r == '-') && i > 0 && i+1 < len(folded) &&
			unicode.IsDigit(folded[i-1]) && unicode.IsDigit(folded[i+1]) {
			keep = true
		}
		if !keep {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
