// Package textnorm normalizes free-text fields from incident sources:
// accent folding, upper-casing, and whitespace collapsing.
package textnorm

import (
	"regexp"
	"strings"

	"github.com/metroviz/crimedash/internal/model"
)

var whitespacePattern = regexp.MustCompile(`\s+`)

// accentFold is a fixed substitution table for the accented vowels and the
// diaeresis, lower and upper case. Deliberately not general Unicode
// normalization: the source vocabulary only ever carries these forms and
// the fixed table keeps behavior deterministic.
var accentFold = strings.NewReplacer(
	"á", "a", "Á", "A",
	"é", "e", "É", "E",
	"í", "i", "Í", "I",
	"ó", "o", "Ó", "O",
	"ú", "u", "Ú", "U",
	"ü", "u", "Ü", "U",
)

// Normalize returns the accent-stripped, upper-cased, whitespace-collapsed
// form of s. Missing values (empty or the source sentinel) pass through
// unchanged. Idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" || s == model.MissingValue {
		return s
	}
	s = accentFold.Replace(s)
	s = strings.ToUpper(s)
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
