// Package textnorm normalizes free-text labels found in card statements so they
// can be compared regardless of accents, case or spacing.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripAccents removes combining marks, so "Validación" becomes "Validacion".
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// CollapseSpaces trims s and replaces every run of whitespace with one space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Key returns the uppercase, accent-free, space-collapsed form of s.
func Key(s string) string {
	return strings.ToUpper(CollapseSpaces(StripAccents(s)))
}

// Compact is Key without any spaces.
func Compact(s string) string {
	return strings.ReplaceAll(Key(s), " ", "")
}

// Tokens splits the normalized form of s on anything that is not a letter or a digit.
func Tokens(s string) []string {
	return strings.FieldsFunc(Key(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// ContainsAny reports whether the normalized form of s contains any of the
// given uppercase needles.
func ContainsAny(s string, needles ...string) bool {
	k := Key(s)
	for _, n := range needles {
		if strings.Contains(k, n) {
			return true
		}
	}
	return false
}
