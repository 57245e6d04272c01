// Package scanner runs quotation detection over documents longer than a
// single passage by sliding a fixed-size word window across the text and
// merging overlapping hits.
package scanner

import (
	"context"
	"fmt"
	"strings"

	"github.com/brunobiangulo/quotefind"
)

// DefaultWindowWords is the default sliding window size, in words. Most NT
// verses normalize to well under this many words, so a window this size
// comfortably covers a single quotation or a short run of adjacent ones.
const DefaultWindowWords = 40

// DefaultStrideWords is the default step between windows. Overlapping by
// half a window means a quotation of up to window-minus-stride words (20 by
// default) that straddles a window boundary is still fully contained in at
// least one window; longer quotations may be split across windows.
const DefaultStrideWords = 20

// Hit is a single detected quotation within a larger document, with the
// word index range [StartWord, EndWord) of the window it was found in.
type Hit struct {
	quotefind.DetectionResult
	StartWord int
	EndWord   int
}

// Options configures a single Scan call.
type Options struct {
	WindowWords int
	StrideWords int
	DetectOpts  quotefind.DetectOptions
}

// Scan slides a word window across text, running Detect on each window, and
// returns the positive hits (is_quotation true) merged so that overlapping
// windows matching the same verse collapse into the single
// highest-confidence hit.
func Scan(ctx context.Context, eng quotefind.Engine, text string, opts Options) ([]Hit, error) {
	windowWords := opts.WindowWords
	if windowWords <= 0 {
		windowWords = DefaultWindowWords
	}
	strideWords := opts.StrideWords
	if strideWords <= 0 {
		strideWords = DefaultStrideWords
	}
	if strideWords > windowWords {
		strideWords = windowWords
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	var hits []Hit
	for start := 0; start < len(words); start += strideWords {
		end := start + windowWords
		if end > len(words) {
			end = len(words)
		}

		window := strings.Join(words[start:end], " ")
		result, err := eng.Detect(ctx, window, opts.DetectOpts)
		if err != nil {
			return nil, fmt.Errorf("scanning window [%d:%d]: %w", start, end, err)
		}

		if result.IsQuotation {
			hits = append(hits, Hit{DetectionResult: *result, StartWord: start, EndWord: end})
		}

		if end == len(words) {
			break
		}
	}

	return mergeByVerse(hits), nil
}

// mergeByVerse keeps, per best-match reference, only the hit with the
// highest confidence. Hits with no best match (shouldn't occur for
// is_quotation=true results, but handled defensively) are kept as-is.
func mergeByVerse(hits []Hit) []Hit {
	best := make(map[string]Hit)
	var unreferenced []Hit

	for _, h := range hits {
		if h.BestMatch == nil {
			unreferenced = append(unreferenced, h)
			continue
		}
		key := h.BestMatch.Reference
		existing, ok := best[key]
		if !ok || h.Confidence > existing.Confidence {
			best[key] = h
		}
	}

	merged := make([]Hit, 0, len(best)+len(unreferenced))
	for _, h := range best {
		merged = append(merged, h)
	}
	merged = append(merged, unreferenced...)
	return merged
}
