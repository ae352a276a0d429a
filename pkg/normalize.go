package pkg

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// asciiPunctuation is the set removed from phrases before they are used as
// memory keys: !"#$%&'()*+,-./:;<=>?@[\]^_`{|}~
var asciiPunctuation = runes.Predicate(func(r rune) bool {
	switch {
	case r >= '!' && r <= '/',
		r >= ':' && r <= '@',
		r >= '[' && r <= '`',
		r >= '{' && r <= '~':
		return true
	}
	return false
})

// Normalize turns raw text into a phrase key: NFC composed, ASCII
// punctuation removed, surrounding whitespace trimmed and lowercased.
// Non-ASCII punctuation and accents are kept.
//
// Transformers and casers keep internal state, so they are built per call.
func Normalize(text string) string {
	t := transform.Chain(norm.NFC, runes.Remove(asciiPunctuation))
	stripped, _, err := transform.String(t, text)
	if err != nil {
		stripped = stripFallback(text)
	}
	return cases.Lower(language.Portuguese).String(strings.TrimSpace(stripped))
}

func stripFallback(text string) string {
	return strings.Map(func(r rune) rune {
		if asciiPunctuation.Contains(r) {
			return -1
		}
		return r
	}, norm.NFC.String(text))
}
