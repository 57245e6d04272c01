// Package normalize implements canonical normalization of Koine Greek text
// for lexical and semantic comparison.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// finalSigma is U+03C2 (ς), medialSigma is U+03C3 (σ). The spec requires
// final sigma to collapse to medial sigma so that otherwise-identical
// word forms at different positions in a sentence compare equal.
const (
	finalSigma  = 'ς'
	medialSigma = 'σ'
)

var (
	dropCombining = runes.Remove(runes.In(unicode.Mn))
	fold          = cases.Fold()
)

// Normalize maps Greek text to its canonical comparison form:
// NFD-decompose, drop combining marks, fold case, collapse final sigma to
// medial sigma, strip non-letter/non-whitespace code points, and collapse
// whitespace. The result is idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) string {
	decomposed, _, err := transform.String(norm.NFD, text)
	if err != nil {
		decomposed = text
	}

	stripped, _, err := transform.String(dropCombining, decomposed)
	if err != nil {
		stripped = decomposed
	}

	folded, _, err := transform.String(fold, stripped)
	if err != nil {
		folded = stripped
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r == finalSigma {
			r = medialSigma
		}
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
