package normalize

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips accents and lowercases",
			in:   "Μακάριοι οἱ πτωχοὶ τῷ πνεύματι",
			want: "μακαριοι οι πτωχοι τω πνευματι",
		},
		{
			name: "collapses final sigma to medial",
			in:   "λογος",
			want: "λογοσ",
		},
		{
			name: "strips punctuation without introducing whitespace",
			in:   "ἀγάπη, χαρά, εἰρήνη.",
			want: "αγαπη χαρα ειρηνη",
		},
		{
			name: "collapses internal whitespace runs and trims edges",
			in:   "  εν   αρχη   ην  ",
			want: "εν αρχη ην",
		},
		{
			name: "empty input stays empty",
			in:   "",
			want: "",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Normalize(c.in)
			if got != c.want {
				t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"Ἐν ἀρχῇ ἦν ὁ λόγος",
		"καὶ ὁ λόγος ἦν πρὸς τὸν θεόν",
		"ΠΙΣΤΙΣ",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}

func TestNormalizeFinalVsMedialSigmaCollapse(t *testing.T) {
	// "λογος" (final sigma) and a hypothetical "λογοσ" (medial sigma)
	// must normalize identically; the spec requires distinguishing no
	// otherwise-identical strings that differ only in sigma form.
	a := Normalize("λογος")
	b := Normalize("λογοσ")
	if a != b {
		t.Errorf("final/medial sigma forms diverged: %q vs %q", a, b)
	}
}

func TestNormalizeIgnoresCase(t *testing.T) {
	lower := Normalize("θεος")
	upper := Normalize("ΘΕΟΣ")
	if lower != upper {
		t.Errorf("case should not affect normalization: %q vs %q", lower, upper)
	}
}
