// Package retrieval orchestrates embedding an input passage, querying the
// vector index for similar verses, and hydrating the hits into full verse
// records.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/brunobiangulo/quotefind/llm"
	"github.com/brunobiangulo/quotefind/store"
)

// ErrRetrievalUnavailable is returned when the embedding model or the
// underlying store cannot be reached. The retriever never returns a
// partial candidate list.
var ErrRetrievalUnavailable = errors.New("retrieval: unavailable")

// DefaultK is the default retrieval breadth.
const DefaultK = 10

// DefaultScoreFloor is the default minimum similarity score a candidate
// must clear to be returned.
const DefaultScoreFloor = 0.7

// Candidate is a verse retrieved for a query, ranked by similarity.
type Candidate struct {
	Verse           store.Verse
	SimilarityScore float64
}

// Engine embeds queries and searches the vector index for matching verses.
type Engine struct {
	store    *store.Store
	embedder llm.Provider
}

// New creates a retrieval engine over the given store and embedding provider.
func New(s *store.Store, embedder llm.Provider) *Engine {
	return &Engine{store: s, embedder: embedder}
}

// Retrieve embeds text, queries the vector index for the top k hits scoring
// at or above scoreFloor, and hydrates them into Candidates ordered by
// descending similarity score with ascending verse id breaking ties. Hits
// whose verse cannot be hydrated are dropped. Duplicate verses retrieved
// under multiple source editions are collapsed, keeping the highest-scoring
// instance per (book, chapter, verse).
func (e *Engine) Retrieve(ctx context.Context, text string, k int, scoreFloor float64) ([]Candidate, error) {
	if k <= 0 {
		k = DefaultK
	}

	embeddings, err := e.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("%w: embedding input: %v", ErrRetrievalUnavailable, err)
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, fmt.Errorf("%w: embedder returned no vector", ErrRetrievalUnavailable)
	}

	hits, err := e.store.VectorSearch(ctx, embeddings[0], k)
	if err != nil {
		return nil, fmt.Errorf("%w: vector search: %v", ErrRetrievalUnavailable, err)
	}

	var filtered []store.VectorHit
	for _, h := range hits {
		if h.Score >= scoreFloor {
			filtered = append(filtered, h)
		}
	}
	if len(filtered) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(filtered))
	for i, h := range filtered {
		ids[i] = h.VerseID
	}

	hydrated, err := e.store.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: hydrating candidates: %v", ErrRetrievalUnavailable, err)
	}

	candidates := make([]Candidate, 0, len(filtered))
	for _, h := range filtered {
		v, ok := hydrated[h.VerseID]
		if !ok {
			continue // dropped: could not hydrate
		}
		candidates = append(candidates, Candidate{Verse: v, SimilarityScore: h.Score})
	}

	candidates = dedupeByVerseReference(candidates)

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].SimilarityScore != candidates[j].SimilarityScore {
			return candidates[i].SimilarityScore > candidates[j].SimilarityScore
		}
		return candidates[i].Verse.ID < candidates[j].Verse.ID
	})

	return candidates, nil
}

// dedupeByVerseReference keeps the highest-scoring candidate per
// (book, chapter, verse), dropping the rest when multiple source editions
// retrieved the same underlying verse.
func dedupeByVerseReference(candidates []Candidate) []Candidate {
	type key struct {
		book    string
		chapter int
		verse   int
	}

	best := make(map[key]Candidate, len(candidates))
	for _, c := range candidates {
		k := key{c.Verse.Book, c.Verse.Chapter, c.Verse.Verse}
		existing, ok := best[k]
		if !ok || c.SimilarityScore > existing.SimilarityScore {
			best[k] = c
		}
	}

	deduped := make([]Candidate, 0, len(best))
	for _, c := range best {
		deduped = append(deduped, c)
	}
	return deduped
}
