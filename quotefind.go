// Package quotefind detects New Testament quotations, paraphrases, and
// allusions inside arbitrary Koine Greek prose.
package quotefind

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brunobiangulo/quotefind/classify"
	"github.com/brunobiangulo/quotefind/llm"
	"github.com/brunobiangulo/quotefind/retrieval"
	"github.com/brunobiangulo/quotefind/store"
	"github.com/brunobiangulo/quotefind/verify"
)

// defaultSourceCount is how many candidates are returned in sources unless
// the caller asks for the full retrieval set.
const defaultSourceCount = 3

// MatchType classifies the relationship between input text and a verse.
type MatchType = classify.MatchType

const (
	Exact           = classify.Exact
	CloseParaphrase = classify.CloseParaphrase
	LooseParaphrase = classify.LooseParaphrase
	Allusion        = classify.Allusion
	NonBiblical     = classify.NonBiblical
)

// Mode selects how candidates are turned into a verdict.
type Mode string

const (
	ModeLLM       Mode = "llm"
	ModeHeuristic Mode = "heuristic"
)

// DetectOptions configures a single detect call.
type DetectOptions struct {
	// Mode selects the verdict path: "llm" (default) or "heuristic".
	Mode Mode
	// MinConfidence forces is_quotation to false when the verdict's
	// confidence falls below this value. Default 50.
	MinConfidence int
	// IncludeAllCandidates returns every retrieved candidate in Sources
	// instead of the top 3.
	IncludeAllCandidates bool
}

// Source is a retrieved verse rendered for the public response, carrying
// just the fields callers need to display or cite a match.
type Source struct {
	Reference       string  `json:"reference"`
	Book            string  `json:"book"`
	Chapter         int     `json:"chapter"`
	Verse           int     `json:"verse"`
	GreekText       string  `json:"greek_text"`
	SimilarityScore float64 `json:"similarity_score"`
	SourceEdition   string  `json:"source_edition"`
}

// DetectionResult is the immutable value returned by Detect.
type DetectionResult struct {
	InputText         string    `json:"input_text"`
	IsQuotation       bool      `json:"is_quotation"`
	Confidence        int       `json:"confidence"`
	MatchType         MatchType `json:"match_type"`
	Sources           []Source  `json:"sources"`
	BestMatch         *Source   `json:"best_match,omitempty"`
	Explanation       string    `json:"explanation"`
	ProcessingTimeMs  int64     `json:"processing_time_ms"`
}

// Engine is the top-level entry point: it retrieves candidate verses for an
// input passage and classifies the match, either heuristically or with an
// LLM verifier that falls back to the heuristic path on failure.
type Engine interface {
	// Detect answers whether text quotes, paraphrases, or alludes to the
	// New Testament, and if so, which verse and with what confidence.
	Detect(ctx context.Context, text string, opts DetectOptions) (*DetectionResult, error)

	// Store returns the underlying verse store for diagnostic and
	// evaluation-harness access.
	Store() *store.Store

	// Close releases the engine's resources.
	Close() error
}

type engine struct {
	cfg       Config
	store     *store.Store
	retriever *retrieval.Engine
	verifier  *verify.Verifier
}

// New creates a detection engine backed by the given configuration. It opens
// (or creates) the verse database and constructs the embedding and
// verification providers named in cfg.
func New(cfg Config) (Engine, error) {
	dbPath := cfg.resolveDBPath()

	if cfg.EmbeddingDim == 0 {
		cfg.EmbeddingDim = 768
	}
	if cfg.TopK == 0 {
		cfg.TopK = retrieval.DefaultK
	}
	if cfg.MinSimilarityFloor == 0 {
		cfg.MinSimilarityFloor = retrieval.DefaultScoreFloor
	}
	if cfg.DefaultMode == "" {
		cfg.DefaultMode = string(ModeLLM)
	}
	if cfg.MaxInputChars == 0 {
		cfg.MaxInputChars = 5000
	}

	s, err := store.New(dbPath, cfg.EmbeddingDim)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	embedProvider, err := llm.NewProvider(llm.Config{
		Provider: cfg.Embedding.Provider,
		Model:    cfg.Embedding.Model,
		BaseURL:  cfg.Embedding.BaseURL,
		APIKey:   cfg.Embedding.APIKey,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating embedding provider: %w", err)
	}

	verifyProvider, err := llm.NewProvider(llm.Config{
		Provider: cfg.Verify.Provider,
		Model:    cfg.Verify.Model,
		BaseURL:  cfg.Verify.BaseURL,
		APIKey:   cfg.Verify.APIKey,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating verify provider: %w", err)
	}

	return &engine{
		cfg:       cfg,
		store:     s,
		retriever: retrieval.New(s, embedProvider),
		verifier:  verify.New(verifyProvider),
	}, nil
}

func (e *engine) Store() *store.Store { return e.store }
func (e *engine) Close() error        { return e.store.Close() }

// Detect runs the full detection pipeline: retrieve candidates, classify
// (via LLM or heuristic), apply the confidence floor, and shape sources.
func (e *engine) Detect(ctx context.Context, text string, opts DetectOptions) (*DetectionResult, error) {
	start := time.Now()

	maxChars := e.cfg.MaxInputChars
	if maxChars <= 0 {
		maxChars = 5000
	}
	if err := validateDetectInput(text, opts, maxChars); err != nil {
		return nil, err
	}

	mode := opts.Mode
	if mode == "" {
		mode = Mode(e.cfg.DefaultMode)
	}
	minConfidence := opts.MinConfidence
	if minConfidence == 0 {
		minConfidence = 50
	}

	candidates, err := e.retriever.Retrieve(ctx, text, e.cfg.TopK, e.cfg.MinSimilarityFloor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	if len(candidates) == 0 {
		return &DetectionResult{
			InputText:        text,
			IsQuotation:      false,
			Confidence:       90,
			MatchType:        NonBiblical,
			Explanation:      "no candidates",
			ProcessingTimeMs: time.Since(start).Milliseconds(),
		}, nil
	}

	verdict := e.classifyCandidates(ctx, mode, text, candidates)

	result, err := assembleResult(text, verdict, candidates, opts.IncludeAllCandidates)
	if err != nil {
		return nil, err
	}

	if result.Confidence < minConfidence {
		result.IsQuotation = false
	}

	result.ProcessingTimeMs = time.Since(start).Milliseconds()

	e.logDetection(ctx, result, mode)

	return result, nil
}

// classifyCandidates dispatches to the requested mode. An LLM failure
// demotes the call to the heuristic path silently; the only thing logged is
// a warning, matching the non-surfaced LLMUnavailable error kind.
func (e *engine) classifyCandidates(ctx context.Context, mode Mode, text string, candidates []retrieval.Candidate) classify.Verdict {
	if mode == ModeHeuristic {
		return classify.Classify(text, candidates)
	}

	v, err := e.verifier.Verify(ctx, text, candidates)
	if err != nil {
		if errors.Is(err, verify.ErrLLMUnavailable) {
			slog.Warn("llm verification unavailable, falling back to heuristic", "error", err)
			return classify.Classify(text, candidates)
		}
		slog.Warn("llm verification failed unexpectedly, falling back to heuristic", "error", err)
		return classify.Classify(text, candidates)
	}

	verdict := classify.Verdict{
		IsQuotation: v.IsQuotation,
		MatchType:   v.MatchType,
		Confidence:  v.Confidence,
		Explanation: v.Explanation,
	}
	if v.IsQuotation {
		for i := range candidates {
			if candidates[i].Verse.Reference == v.BestReference {
				verdict.BestMatch = &candidates[i]
				break
			}
		}
		if verdict.BestMatch == nil {
			verdict.BestMatch = &candidates[0]
		}
	}
	return verdict
}

func validateDetectInput(text string, opts DetectOptions, maxChars int) error {
	if len(text) == 0 {
		return fmt.Errorf("%w: empty text", ErrInvalidInput)
	}
	if len([]rune(text)) > maxChars {
		return fmt.Errorf("%w: text exceeds maximum length of %d characters", ErrInvalidInput, maxChars)
	}
	if opts.Mode != "" && opts.Mode != ModeLLM && opts.Mode != ModeHeuristic {
		return fmt.Errorf("%w: unsupported mode %q", ErrInvalidInput, opts.Mode)
	}
	return nil
}

func assembleResult(text string, v classify.Verdict, candidates []retrieval.Candidate, includeAll bool) (*DetectionResult, error) {
	n := defaultSourceCount
	if includeAll || n > len(candidates) {
		n = len(candidates)
	}

	sources := make([]Source, n)
	for i := 0; i < n; i++ {
		sources[i] = toSource(candidates[i])
	}

	result := &DetectionResult{
		InputText:   text,
		IsQuotation: v.IsQuotation,
		Confidence:  v.Confidence,
		MatchType:   v.MatchType,
		Sources:     sources,
		Explanation: v.Explanation,
	}

	if v.BestMatch != nil {
		if v.MatchType == NonBiblical {
			return nil, fmt.Errorf("%w: non_biblical verdict carries a best_match", ErrInternal)
		}
		s := toSource(*v.BestMatch)
		result.BestMatch = &s
	}

	return result, nil
}

func toSource(c retrieval.Candidate) Source {
	return Source{
		Reference:       c.Verse.Reference,
		Book:            c.Verse.Book,
		Chapter:         c.Verse.Chapter,
		Verse:           c.Verse.Verse,
		GreekText:       c.Verse.GreekOriginal,
		SimilarityScore: c.SimilarityScore,
		SourceEdition:   c.Verse.SourceEdition,
	}
}

func (e *engine) logDetection(ctx context.Context, result *DetectionResult, mode Mode) {
	bestRef := ""
	if result.BestMatch != nil {
		bestRef = result.BestMatch.Reference
	}

	if err := e.store.LogDetection(ctx, store.DetectionLogEntry{
		InputText:        result.InputText,
		IsQuotation:      result.IsQuotation,
		Confidence:       result.Confidence,
		MatchType:        string(result.MatchType),
		BestReference:    bestRef,
		Mode:             string(mode),
		ProcessingTimeMs: int(result.ProcessingTimeMs),
	}); err != nil {
		slog.Warn("logging detection failed", "error", err)
	}
}
