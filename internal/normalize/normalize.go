// Package normalize provides canonicalization for user-supplied tag text.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

// TagText canonicalizes a raw tag string: Unicode case folding, trimming,
// and collapsing internal whitespace runs to single spaces. Tags are
// deduplicated on this canonical form, so "Beach Day" and "beach  day"
// are the same tag.
func TagText(raw string) string {
	folded := foldCaser.String(strings.TrimSpace(raw))
	return strings.Join(strings.Fields(folded), " ")
}

// SplitTagInput splits a comma-separated tag submission into individual
// canonical tag texts, dropping empties. Characters outside letters,
// digits, underscore, and commas are treated as spaces.
func SplitTagInput(raw string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == ',':
			return r
		case r == '_' || r == ' ':
			return r
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9':
			return r
		case r > 127: // keep non-ASCII letters, folded below
			return r
		default:
			return ' '
		}
	}, raw)

	parts := strings.Split(cleaned, ",")
	texts := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := TagText(p); t != "" {
			texts = append(texts, t)
		}
	}
	return texts
}
