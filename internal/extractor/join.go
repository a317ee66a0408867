package extractor

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// JoinStrategy decides how a new text fragment is appended to the text
// already accumulated in a cell. PDF reflow splits logical tokens across
// fragments, and the strategy repairs that.
type JoinStrategy interface {
	Join(acc, next string) string
}

// JoinFunc adapts a function to JoinStrategy.
type JoinFunc func(acc, next string) string

func (f JoinFunc) Join(acc, next string) string { return f(acc, next) }

// SpaceJoin always separates fragments with a single space.
var SpaceJoin = JoinFunc(func(acc, next string) string {
	if acc == "" {
		return next
	}
	if next == "" {
		return acc
	}
	return acc + " " + next
})

var connectors = map[string]bool{
	"DE": true, "DEL": true, "LA": true, "LAS": true, "LOS": true,
	"LO": true, "EL": true, "DA": true, "DO": true, "Y": true, "AL": true,
}

// DefaultJoin glues fragments without a space when the boundary looks like a
// split token: a letter next to '/' or '-', a lowercase continuation of a
// word cut short, or a short uppercase piece that is not a connector word.
// A lowercase fragment following a complete word, as in "Validación" then
// "entrada", keeps its space.
type DefaultJoin struct{}

func (DefaultJoin) Join(acc, next string) string {
	acc = strings.TrimRight(acc, " ")
	next = strings.TrimLeft(next, " ")
	if acc == "" {
		return next
	}
	if next == "" {
		return acc
	}
	if NeedsSpace(acc, next) {
		return acc + " " + next
	}
	return acc + next
}

// NeedsSpace reports whether DefaultJoin separates acc and next with a space.
func NeedsSpace(acc, next string) bool {
	last, _ := utf8.DecodeLastRuneInString(acc)
	first, _ := utf8.DecodeRuneInString(next)

	if unicode.IsLetter(last) && isJoiner(first) {
		return false
	}
	if isJoiner(last) && unicode.IsLetter(first) {
		return false
	}
	if unicode.IsLower(first) {
		return !splitWord(acc, next)
	}

	token := next
	if i := strings.IndexAny(token, " /-"); i >= 0 {
		token = token[:i]
	}
	if isShortUpper(token) && !connectors[token] {
		return false
	}
	return true
}

func isJoiner(r rune) bool {
	return r == '/' || r == '-'
}

func isShortUpper(token string) bool {
	n := utf8.RuneCountInString(token)
	if n == 0 || n > 2 {
		return false
	}
	for _, r := range token {
		if !unicode.IsLetter(r) || !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// maxWordPiece is the longest trailing piece taken as a cut-off word.
const maxWordPiece = 4

// splitWord reports whether next continues the last word of acc. The piece is
// cut off when it is short, or when next carries the written accent that the
// piece lacks ("Valida" then "ción"). Spanish words carry at most one.
func splitWord(acc, next string) bool {
	piece := acc[strings.LastIndexAny(acc, " /-")+1:]
	word := next
	if i := strings.IndexAny(word, " /-"); i >= 0 {
		word = word[:i]
	}
	if utf8.RuneCountInString(piece) <= maxWordPiece {
		return true
	}
	return hasAccent(word) && !hasAccent(piece)
}

func hasAccent(s string) bool {
	return strings.ContainsAny(s, "áéíóúÁÉÍÓÚ")
}
