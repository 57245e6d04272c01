// Package verify implements LLM-backed verification of candidate quotation
// matches: a single completion call asking the model to judge whether the
// input text quotes, paraphrases, or alludes to one of the retrieved verses.
package verify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/brunobiangulo/quotefind/classify"
	"github.com/brunobiangulo/quotefind/llm"
	"github.com/brunobiangulo/quotefind/retrieval"
)

// ErrLLMUnavailable is returned for any transport failure, authentication
// failure, timeout, or unparseable response body. Callers should fall back
// to the heuristic classifier rather than surface this to the end user.
var ErrLLMUnavailable = errors.New("verify: llm unavailable")

// maxCandidates bounds how many candidates are rendered into the prompt.
const maxCandidates = 5

// verifyTemperature is fixed low for deterministic classification.
const verifyTemperature = 0.1

// Verdict is the model's judgment about the input text against the
// candidate list.
type Verdict struct {
	IsQuotation   bool
	MatchType     classify.MatchType
	Confidence    int
	BestReference string
	Explanation   string
}

// Verifier asks a chat-completion model to judge the relationship between
// an input text and its retrieved candidates.
type Verifier struct {
	chat llm.Provider
}

// New creates a Verifier backed by the given chat provider.
func New(chat llm.Provider) *Verifier {
	return &Verifier{chat: chat}
}

// Verify sends text and its top candidates to the model and parses its
// verdict. Any transport, auth, timeout, or parse failure returns
// ErrLLMUnavailable; callers fall back to the heuristic classifier.
func (v *Verifier) Verify(ctx context.Context, text string, candidates []retrieval.Candidate) (Verdict, error) {
	prompt := buildPrompt(text, candidates)

	resp, err := v.chat.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: verifyTemperature,
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrLLMUnavailable, err)
	}

	verdict, ok := parseVerdict(resp.Content)
	if !ok {
		return Verdict{}, fmt.Errorf("%w: response contains no recognized keys", ErrLLMUnavailable)
	}
	return verdict, nil
}

const systemPrompt = `You are an expert in Koine Greek and the Greek New Testament, analyzing whether a
passage of prose quotes, paraphrases, or alludes to a New Testament verse.

Respond with exactly these five keys, one per line, in key: value form:
IS_QUOTATION: true or false
MATCH_TYPE: one of exact, close_paraphrase, loose_paraphrase, allusion, non_biblical
CONFIDENCE: an integer from 0 to 100
BEST_REFERENCE: the matched verse reference, or none
EXPLANATION: one sentence justifying the verdict

Do not include any other text.`

func buildPrompt(text string, candidates []retrieval.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Input text:\n%s\n\nCandidate verses:\n", text)

	n := len(candidates)
	if n > maxCandidates {
		n = maxCandidates
	}
	for i := 0; i < n; i++ {
		c := candidates[i]
		fmt.Fprintf(&b, "%d. %s (score %.3f): %s\n", i+1, c.Verse.Reference, c.SimilarityScore, c.Verse.GreekOriginal)
	}

	return b.String()
}

// parseVerdict splits the response on newlines and then on the first colon
// per line. Unknown keys are ignored; missing keys take the documented
// defaults. Key names are matched case-insensitively and tolerate
// surrounding whitespace. ok is false when no line carries a recognized
// key, i.e. the body is unparseable.
func parseVerdict(raw string) (v Verdict, ok bool) {
	v = Verdict{
		IsQuotation: false,
		MatchType:   classify.NonBiblical,
		Confidence:  50,
		Explanation: "no explanation",
	}

	for _, line := range strings.Split(raw, "\n") {
		key, value, found := splitKeyValue(line)
		if !found {
			continue
		}

		switch strings.ToUpper(key) {
		case "IS_QUOTATION":
			v.IsQuotation = strings.EqualFold(value, "true")
		case "MATCH_TYPE":
			v.MatchType = parseMatchType(value)
		case "CONFIDENCE":
			v.Confidence = clampConfidence(parseConfidence(value))
		case "BEST_REFERENCE":
			if !strings.EqualFold(value, "none") {
				v.BestReference = value
			}
		case "EXPLANATION":
			v.Explanation = value
		default:
			continue
		}
		ok = true
	}

	if v.MatchType == matchTypeUncertain {
		v.MatchType = classify.NonBiblical
		v.Confidence = 0
		v.IsQuotation = false
	}

	return v, ok
}

// matchTypeUncertain is an internal sentinel for a MATCH_TYPE value outside
// the enumerated set; it always collapses to non_biblical/0 before Verify
// returns.
const matchTypeUncertain classify.MatchType = "uncertain"

func splitKeyValue(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	if key == "" {
		return "", "", false
	}
	return key, value, true
}

func parseMatchType(value string) classify.MatchType {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "exact":
		return classify.Exact
	case "close_paraphrase":
		return classify.CloseParaphrase
	case "loose_paraphrase":
		return classify.LooseParaphrase
	case "allusion":
		return classify.Allusion
	case "non_biblical":
		return classify.NonBiblical
	default:
		return matchTypeUncertain
	}
}

func parseConfidence(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 50
	}
	return n
}

func clampConfidence(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
