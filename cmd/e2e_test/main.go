// Command e2e_test is a manual smoke test: it ingests a handful of
// well-known verses into a throwaway database, then runs Detect against a
// passage that quotes one of them, and prints the result as JSON. Useful
// for sanity-checking a provider setup against a throwaway database.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/brunobiangulo/quotefind"
	"github.com/brunobiangulo/quotefind/ingest"
	"github.com/brunobiangulo/quotefind/llm"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	baseURL := os.Getenv("QUOTEFIND_OLLAMA_URL")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	tmpDir, _ := os.MkdirTemp("", "quotefind-e2e-*")
	defer os.RemoveAll(tmpDir)
	dbPath := tmpDir + "/test.db"

	cfg := quotefind.DefaultConfig()
	cfg.DBPath = dbPath
	cfg.Embedding = quotefind.LLMConfig{Provider: "ollama", Model: "nomic-embed-text", BaseURL: baseURL}
	cfg.Verify = quotefind.LLMConfig{Provider: "ollama", Model: "llama3.1:8b", BaseURL: baseURL}

	engine, err := quotefind.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	embedder, err := llm.NewProvider(llm.Config{Provider: "ollama", Model: "nomic-embed-text", BaseURL: baseURL})
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating embedding provider: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintln(os.Stderr, "\n=== INGESTING seed verses ===")
	loader := ingest.New(engine.Store(), embedder, "SR")
	loaded, skipped, err := loader.LoadLines(ctx, []string{
		"Matthew 5:3 μακαριοι οι πτωχοι τω πνευματι οτι αυτων εστιν η βασιλεια των ουρανων",
		"John 1:1 εν αρχη ην ο λογος και ο λογος ην προς τον θεον και θεος ην ο λογος",
		"John 3:16 ουτως γαρ ηγαπησεν ο θεος τον κοσμον ωστε τον υιον τον μονογενη εδωκεν",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading verses: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Loaded %d verses, skipped %d\n", loaded, skipped)

	passage := "μακαριοι οι πτωχοι τω πνευματι οτι αυτων εστιν η βασιλεια των ουρανων"
	fmt.Fprintf(os.Stderr, "\n=== DETECTING: %s ===\n", passage)
	result, err := engine.Detect(ctx, passage, quotefind.DetectOptions{Mode: quotefind.ModeHeuristic})
	if err != nil {
		fmt.Fprintf(os.Stderr, "detect error: %v\n", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
}
