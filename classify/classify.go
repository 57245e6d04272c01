// Package classify implements the heuristic, non-LLM classification path:
// mapping a ranked candidate list to a verdict using a fixed threshold table
// gated by word overlap.
package classify

import (
	"fmt"

	"github.com/brunobiangulo/quotefind/overlap"
	"github.com/brunobiangulo/quotefind/retrieval"
)

// MatchType is the kind of match a verdict represents.
type MatchType string

const (
	Exact            MatchType = "exact"
	CloseParaphrase  MatchType = "close_paraphrase"
	LooseParaphrase  MatchType = "loose_paraphrase"
	Allusion         MatchType = "allusion"
	NonBiblical      MatchType = "non_biblical"
)

// Verdict is the outcome of classifying a candidate list.
type Verdict struct {
	IsQuotation bool
	MatchType   MatchType
	Confidence  int
	BestMatch   *retrieval.Candidate
	Explanation string
}

// rule is one row of the threshold table: a candidate clears it when its
// similarity score is >= minScore and its word overlap with the input is
// >= minOverlap.
type rule struct {
	minScore   float64
	minOverlap int
	matchType  MatchType
	confidence int
}

// table is checked top to bottom; the first rule whose score threshold is
// met determines the verdict, provided its overlap threshold is also met.
var table = []rule{
	{minScore: 0.95, minOverlap: 5, matchType: Exact, confidence: 95},
	{minScore: 0.90, minOverlap: 3, matchType: CloseParaphrase, confidence: 85},
	{minScore: 0.80, minOverlap: 3, matchType: LooseParaphrase, confidence: 70},
	{minScore: 0.70, minOverlap: 2, matchType: Allusion, confidence: 55},
}

// nonBiblicalConfidence is the confidence assigned when no rule's gates are
// satisfied, including the "score matched but overlap didn't" case.
const nonBiblicalConfidence = 60

// Classify maps candidates (already sorted by descending similarity score by
// the retriever) to a Verdict, gating each threshold row's score range
// against the word overlap between inputText and the candidate's verse text.
func Classify(inputText string, candidates []retrieval.Candidate) Verdict {
	if len(candidates) == 0 {
		return Verdict{
			IsQuotation: false,
			MatchType:   NonBiblical,
			Confidence:  90,
			Explanation: "no candidates",
		}
	}

	top := candidates[0]
	sharedWords := overlap.CountSharedWords(inputText, top.Verse.GreekOriginal, overlap.DefaultMinLength)

	for _, r := range table {
		if top.SimilarityScore < r.minScore {
			continue
		}
		if sharedWords < r.minOverlap {
			return Verdict{
				IsQuotation: false,
				MatchType:   NonBiblical,
				Confidence:  nonBiblicalConfidence,
				Explanation: fmt.Sprintf("score %.2f matched %s threshold but word overlap %d < %d", top.SimilarityScore, r.matchType, sharedWords, r.minOverlap),
			}
		}
		return Verdict{
			IsQuotation: true,
			MatchType:   r.matchType,
			Confidence:  r.confidence,
			BestMatch:   &top,
			Explanation: fmt.Sprintf("score %.2f, word overlap %d", top.SimilarityScore, sharedWords),
		}
	}

	return Verdict{
		IsQuotation: false,
		MatchType:   NonBiblical,
		Confidence:  nonBiblicalConfidence,
		Explanation: fmt.Sprintf("top score %.2f below allusion threshold", top.SimilarityScore),
	}
}
