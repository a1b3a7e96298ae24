// Package slug derives the stable identifiers used as primary keys for teams
// and players from their display names.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds text to lowercase ASCII with diacritics stripped and
// whitespace runs replaced by a single underscore. Only [a-z0-9_] survives.
// An empty result means the input carries no usable identifier.
func Normalize(text string) string {
	// transform.Chain keeps state, so every call builds its own.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}

	folded = strings.Join(strings.Fields(strings.ToLower(folded)), "_")

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}
