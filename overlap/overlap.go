// Package overlap measures shared vocabulary between two Greek strings
// after normalization, used to gate semantic-similarity matches against
// lexically unrelated verses.
package overlap

import (
	"strings"

	"github.com/brunobiangulo/quotefind/normalize"
)

// DefaultMinLength is the shortest token length counted toward overlap.
// Greek articles, particles, and conjunctions (ο, η, το, εν, δε, τε, ως,
// εκ, ...) are almost always two characters or shorter; excluding them
// avoids a stopword list per source edition.
const DefaultMinLength = 3

// CountSharedWords normalizes both inputs, tokenizes on whitespace, and
// returns the number of distinct token types of length >= minLen present
// in both. The function is symmetric and deterministic.
func CountSharedWords(a, b string, minLen int) int {
	setA := tokenSet(a, minLen)
	setB := tokenSet(b, minLen)

	shared := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			shared++
		}
	}
	return shared
}

func tokenSet(s string, minLen int) map[string]struct{} {
	normalized := normalize.Normalize(s)
	tokens := strings.Fields(normalized)

	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if len([]rune(tok)) >= minLen {
			set[tok] = struct{}{}
		}
	}
	return set
}
