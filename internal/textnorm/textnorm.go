// Package textnorm holds the string normalizations shared by both pipelines.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold returns s decomposed (NFKD), stripped of every non-ASCII rune and
// lowercased. Accented letters lose their marks: "Librería" -> "libreria".
func Fold(s string) string {
	return strings.ToLower(Strip(s))
}

// Strip is Fold without the lowercasing. Regular expressions go through it so
// that escapes such as \S keep their meaning.
func Strip(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(isNonASCII)))
	stripped, _, err := transform.String(t, s)
	if err != nil {
		return asciiOnly(norm.NFKD.String(s))
	}
	return stripped
}

func isNonASCII(r rune) bool {
	return r > unicode.MaxASCII
}

func asciiOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if isNonASCII(r) {
			return -1
		}
		return r
	}, s)
}

// Key normalizes a join key: surrounding whitespace trimmed, uppercased.
func Key(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Title returns s in Spanish title case, used for map labels.
func Title(s string) string {
	return cases.Title(language.Spanish).String(strings.ToLower(s))
}
