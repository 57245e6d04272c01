//go:build integration && cgo

package quotefind

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brunobiangulo/quotefind/llm"
	"github.com/brunobiangulo/quotefind/store"
)

const (
	ollamaURL   = "http://localhost:11434"
	embedModel  = "nomic-embed-text"
	embedDim    = 768
	testTimeout = 5 * time.Minute
)

var shared struct {
	once sync.Once
	eng  Engine
	err  error
}

func ollamaAvailable() bool {
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(ollamaURL + "/api/tags")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// warmEmbedModel sends a tiny embedding request to force the model into memory.
func warmEmbedModel(model string) error {
	body := fmt.Sprintf(`{"model":%q,"input":["test"]}`, model)
	client := &http.Client{Timeout: testTimeout}
	resp, err := client.Post(ollamaURL+"/api/embed", "application/json", strings.NewReader(body))
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// seedNTScenarioVerses loads the handful of verses exercised by the
// end-to-end scenario table directly, bypassing the ingest/ pipeline.
func seedNTScenarioVerses(t *testing.T, eng Engine) {
	t.Helper()
	ctx := context.Background()
	s := eng.Store()

	embedder, err := llm.NewProvider(llm.Config{Provider: "ollama", Model: embedModel, BaseURL: ollamaURL})
	if err != nil {
		t.Fatalf("creating embedder: %v", err)
	}

	verses := []store.Verse{
		{Reference: "Matthew 5:3", Book: "Matthew", Chapter: 5, Verse: 3, SourceEdition: "SR",
			GreekOriginal: "μακάριοι οἱ πτωχοὶ τῷ πνεύματι, ὅτι αὐτῶν ἐστιν ἡ βασιλεία τῶν οὐρανῶν"},
		{Reference: "John 1:1", Book: "John", Chapter: 1, Verse: 1, SourceEdition: "SR",
			GreekOriginal: "Ἐν ἀρχῇ ἦν ὁ λόγος, καὶ ὁ λόγος ἦν πρὸς τὸν θεόν"},
		{Reference: "John 3:16", Book: "John", Chapter: 3, Verse: 16, SourceEdition: "SR",
			GreekOriginal: "οὕτως γὰρ ἠγάπησεν ὁ θεὸς τὸν κόσμον, ὥστε τὸν υἱὸν τὸν μονογενῆ ἔδωκεν"},
		{Reference: "Matthew 6:9", Book: "Matthew", Chapter: 6, Verse: 9, SourceEdition: "SR",
			GreekOriginal: "Πάτερ ἡμῶν ὁ ἐν τοῖς οὐρανοῖς, ἁγιασθήτω τὸ ὄνομά σου"},
		{Reference: "Galatians 3:6", Book: "Galatians", Chapter: 3, Verse: 6, SourceEdition: "SR",
			GreekOriginal: "ἐπίστευσεν δὲ Ἀβραὰμ τῷ θεῷ, καὶ ἐλογίσθη αὐτῷ εἰς δικαιοσύνην"},
	}

	for _, v := range verses {
		v.GreekNormalized = strings.ToLower(v.GreekOriginal)
		id, err := s.UpsertVerse(ctx, v)
		if err != nil {
			t.Fatalf("seeding verse %s: %v", v.Reference, err)
		}

		embedded, err := embedder.Embed(ctx, []string{v.GreekOriginal})
		if err != nil {
			t.Fatalf("embedding verse %s: %v", v.Reference, err)
		}
		if err := s.UpsertEmbedding(ctx, id, embedded[0]); err != nil {
			t.Fatalf("storing embedding for %s: %v", v.Reference, err)
		}
	}
}

func setupShared(t *testing.T) {
	t.Helper()
	shared.once.Do(func() {
		if !ollamaAvailable() {
			shared.err = fmt.Errorf("ollama not available")
			return
		}

		t.Log("warming up embedding model...")
		if err := warmEmbedModel(embedModel); err != nil {
			shared.err = fmt.Errorf("warming embed model: %w", err)
			return
		}

		cfg := DefaultConfig()
		cfg.DBPath = filepath.Join(t.TempDir(), "integration.db")
		cfg.EmbeddingDim = embedDim
		cfg.Embedding.Model = embedModel

		eng, err := New(cfg)
		if err != nil {
			shared.err = fmt.Errorf("creating engine: %w", err)
			return
		}
		shared.eng = eng

		seedNTScenarioVerses(t, eng)
	})

	if shared.err != nil {
		t.Skipf("skipping integration test: %v", shared.err)
	}
}

func TestEndToEndScenarios(t *testing.T) {
	setupShared(t)

	cases := []struct {
		name          string
		input         string
		wantReference string
		minConfidence int
	}{
		{"beatitude", "μακαριοι οι πτωχοι τω πνευματι οτι αυτων εστιν η βασιλεια των ουρανων", "Matthew 5:3", 90},
		{"johannine prologue", "εν αρχη ην ο λογος και ο λογος ην προς τον θεον", "John 1:1", 90},
		{"so loved the world", "ουτως γαρ ηγαπησεν ο θεος τον κοσμον", "John 3:16", 80},
		{"our father", "πατερ ημων ο εν τοις ουρανοις", "Matthew 6:9", 70},
		{"abraham believed", "επιστευσεν δε αβρααμ τω θεω και ελογισθη αυτω εις δικαιοσυνην", "Galatians 3:6", 80},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := shared.eng.Detect(context.Background(), tc.input, DetectOptions{Mode: ModeHeuristic})
			if err != nil {
				t.Fatalf("detect: %v", err)
			}
			if !result.IsQuotation {
				t.Fatalf("expected is_quotation=true, got %+v", result)
			}
			if result.BestMatch == nil || result.BestMatch.Reference != tc.wantReference {
				t.Fatalf("expected best match %s, got %+v", tc.wantReference, result.BestMatch)
			}
			if result.Confidence < tc.minConfidence {
				t.Errorf("expected confidence >= %d, got %d", tc.minConfidence, result.Confidence)
			}
		})
	}

	t.Run("non biblical", func(t *testing.T) {
		result, err := shared.eng.Detect(context.Background(), "τουτο ειναι κειμενο που δεν ειναι βιβλικο", DetectOptions{Mode: ModeHeuristic})
		if err != nil {
			t.Fatalf("detect: %v", err)
		}
		if result.IsQuotation || result.MatchType != NonBiblical {
			t.Fatalf("expected non_biblical, got %+v", result)
		}
	})
}

func TestRegressionHospitalityFalsePositive(t *testing.T) {
	setupShared(t)

	result, err := shared.eng.Detect(context.Background(), "και το μεγαλοπρεπες της φιλοξενιας υμων ηθος", DetectOptions{Mode: ModeHeuristic})
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if result.IsQuotation || result.MatchType != NonBiblical {
		t.Fatalf("expected the hospitality passage to resolve non_biblical despite embedding similarity, got %+v", result)
	}
}
