// Package eval runs regression scenarios against a detection engine and
// reports aggregate accuracy, mirroring the detection system's own
// end-to-end test table so it can be exercised from a CLI as well as from
// the test suite.
package eval

import "github.com/brunobiangulo/quotefind"

// ScenarioCase is a single regression scenario: an input passage and the
// verdict a correct implementation must reach.
type ScenarioCase struct {
	Name               string
	Input              string
	ExpectedReference  string // empty iff ExpectedQuotation is false
	ExpectedQuotation  bool
	AcceptableTypes    []quotefind.MatchType // any of these match types is acceptable; empty means don't check
	MinConfidence      int
}

// Dataset is a named collection of scenarios.
type Dataset struct {
	Name  string
	Cases []ScenarioCase
}

// CoreScenarios returns the canonical regression set: well-known exact
// quotations, paraphrases, a non-biblical control, and the hospitality
// false-positive regression anchor.
func CoreScenarios() Dataset {
	return Dataset{
		Name: "core detection scenarios",
		Cases: []ScenarioCase{
			{
				Name:               "beatitude",
				Input:              "μακαριοι οι πτωχοι τω πνευματι οτι αυτων εστιν η βασιλεια των ουρανων",
				ExpectedReference:  "Matthew 5:3",
				ExpectedQuotation:  true,
				AcceptableTypes:    []quotefind.MatchType{quotefind.Exact},
				MinConfidence:      90,
			},
			{
				Name:               "johannine prologue",
				Input:              "εν αρχη ην ο λογος και ο λογος ην προς τον θεον",
				ExpectedReference:  "John 1:1",
				ExpectedQuotation:  true,
				AcceptableTypes:    []quotefind.MatchType{quotefind.Exact},
				MinConfidence:      90,
			},
			{
				Name:               "so loved the world",
				Input:              "ουτως γαρ ηγαπησεν ο θεος τον κοσμον",
				ExpectedReference:  "John 3:16",
				ExpectedQuotation:  true,
				AcceptableTypes:    []quotefind.MatchType{quotefind.Exact, quotefind.CloseParaphrase},
				MinConfidence:      80,
			},
			{
				Name:               "our father",
				Input:              "πατερ ημων ο εν τοις ουρανοις",
				ExpectedReference:  "Matthew 6:9",
				ExpectedQuotation:  true,
				AcceptableTypes:    []quotefind.MatchType{quotefind.CloseParaphrase},
				MinConfidence:      70,
			},
			{
				Name:               "abraham believed",
				Input:              "επιστευσεν δε αβρααμ τω θεω και ελογισθη αυτω εις δικαιοσυνην",
				ExpectedReference:  "Galatians 3:6",
				ExpectedQuotation:  true,
				AcceptableTypes:    []quotefind.MatchType{quotefind.Exact, quotefind.CloseParaphrase},
				MinConfidence:      80,
			},
			{
				Name:              "non biblical control",
				Input:             "τουτο ειναι κειμενο που δεν ειναι βιβλικο",
				ExpectedQuotation: false,
			},
			{
				Name:              "hospitality false positive regression",
				Input:             "και το μεγαλοπρεπες της φιλοξενιας υμων ηθος",
				ExpectedQuotation: false,
			},
		},
	}
}
