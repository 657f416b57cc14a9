// Package sanitize normalizes user-facing catalog strings (usernames,
// novelist names, book titles) so that uniqueness and filtering compare
// canonical forms.
package sanitize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// String applies NFKC normalization, collapses runs of whitespace into a
// single space, lowercases, and strips ASCII punctuation.
func String(input string) string {
	normalized := norm.NFKC.String(input)
	collapsed := strings.Join(strings.Fields(normalized), " ")
	lowered := strings.ToLower(collapsed)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if r < 128 && strings.ContainsRune(punctuation, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
