package quotefind

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/brunobiangulo/quotefind/llm"
	"github.com/brunobiangulo/quotefind/retrieval"
	"github.com/brunobiangulo/quotefind/store"
	"github.com/brunobiangulo/quotefind/verify"
)

// fakeProvider implements llm.Provider with deterministic, canned behavior
// so Detect can be exercised without a real embedding or chat service.
type fakeProvider struct {
	embedding  []float32
	chatReply  string
	embedErr   error
	chatErr    error
}

func (f *fakeProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	return &llm.ChatResponse{Content: f.chatReply}, nil
}

func (f *fakeProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.embedding
	}
	return out, nil
}

func newTestRetriever(s *store.Store, embedding []float32) *retrieval.Engine {
	return retrieval.New(s, &fakeProvider{embedding: embedding})
}

func newTestVerifier(chatErr error) *verify.Verifier {
	return verify.New(&fakeProvider{chatErr: chatErr})
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"), 4)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedVerse(t *testing.T, s *store.Store, reference, book string, chapter, verse int, greek string, vec []float32) int64 {
	t.Helper()
	ctx := context.Background()
	id, err := s.UpsertVerse(ctx, store.Verse{
		Reference:       reference,
		Book:            book,
		Chapter:         chapter,
		Verse:           verse,
		GreekOriginal:   greek,
		GreekNormalized: greek,
		SourceEdition:   "SR",
	})
	if err != nil {
		t.Fatalf("seeding verse: %v", err)
	}
	if err := s.UpsertEmbedding(ctx, id, vec); err != nil {
		t.Fatalf("seeding embedding: %v", err)
	}
	return id
}

func TestDetectHeuristicExactMatch(t *testing.T) {
	s := newTestStore(t)
	greek := "μακαριοι οι πτωχοι τω πνευματι οτι αυτων εστιν η βασιλεια των ουρανων"
	seedVerse(t, s, "Matthew 5:3", "Matthew", 5, 3, greek, []float32{1, 0, 0, 0})

	eng := &engine{
		cfg:       Config{TopK: 10, MinSimilarityFloor: 0.7},
		store:     s,
		retriever: newTestRetriever(s, []float32{1, 0, 0, 0}),
	}

	result, err := eng.Detect(context.Background(), greek, DetectOptions{Mode: ModeHeuristic})
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if !result.IsQuotation || result.MatchType != Exact {
		t.Fatalf("expected exact match, got %+v", result)
	}
	if result.BestMatch == nil || result.BestMatch.Reference != "Matthew 5:3" {
		t.Fatalf("expected best match Matthew 5:3, got %+v", result.BestMatch)
	}
}

func TestDetectEmptyRetrievalIsNonBiblical(t *testing.T) {
	s := newTestStore(t)
	eng := &engine{
		cfg:       Config{TopK: 10, MinSimilarityFloor: 0.7},
		store:     s,
		retriever: newTestRetriever(s, []float32{1, 0, 0, 0}),
	}

	result, err := eng.Detect(context.Background(), "τελειως αλλοτριο κειμενο", DetectOptions{Mode: ModeHeuristic})
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if result.IsQuotation || result.MatchType != NonBiblical || result.Confidence != 90 {
		t.Fatalf("expected non_biblical/90, got %+v", result)
	}
}

func TestDetectRejectsEmptyInput(t *testing.T) {
	s := newTestStore(t)
	eng := &engine{cfg: Config{MaxInputChars: 5000}, store: s, retriever: newTestRetriever(s, nil)}

	_, err := eng.Detect(context.Background(), "", DetectOptions{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDetectRejectsOversizedInput(t *testing.T) {
	s := newTestStore(t)
	eng := &engine{cfg: Config{MaxInputChars: 10}, store: s, retriever: newTestRetriever(s, nil)}

	_, err := eng.Detect(context.Background(), "this text is definitely too long", DetectOptions{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDetectConfidenceFloorForcesNonQuotation(t *testing.T) {
	s := newTestStore(t)
	greek := "πατερ ημων ο εν τοις ουρανοις αγιασθητω το ονομα σου"
	seedVerse(t, s, "Matthew 6:9", "Matthew", 6, 9, greek, []float32{0.72, 0, 0, 0})

	eng := &engine{
		cfg:       Config{TopK: 10, MinSimilarityFloor: 0.5},
		store:     s,
		retriever: newTestRetriever(s, []float32{1, 0, 0, 0}),
	}

	result, err := eng.Detect(context.Background(), greek, DetectOptions{Mode: ModeHeuristic, MinConfidence: 80})
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if result.IsQuotation {
		t.Fatalf("expected is_quotation forced false below min_confidence, got %+v", result)
	}
}

func TestDetectLLMFailureFallsBackToHeuristic(t *testing.T) {
	s := newTestStore(t)
	greek := "μακαριοι οι πτωχοι τω πνευματι οτι αυτων εστιν η βασιλεια των ουρανων"
	seedVerse(t, s, "Matthew 5:3", "Matthew", 5, 3, greek, []float32{1, 0, 0, 0})

	eng := &engine{
		cfg:       Config{TopK: 10, MinSimilarityFloor: 0.7},
		store:     s,
		retriever: newTestRetriever(s, []float32{1, 0, 0, 0}),
		verifier:  newTestVerifier(errors.New("connection refused")),
	}

	result, err := eng.Detect(context.Background(), greek, DetectOptions{Mode: ModeLLM})
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if !result.IsQuotation || result.MatchType != Exact {
		t.Fatalf("expected heuristic fallback to still find exact match, got %+v", result)
	}
}
