// Command quotefind-eval runs the core detection regression scenarios
// against a live engine and reports pass/fail per scenario.
//
//	go run ./cmd/quotefind-eval \
//	  --db ./quotefind.db \
//	  --embed-provider ollama --embed-model nomic-embed-text \
//	  --verify-provider ollama --verify-model llama3.1:8b \
//	  --mode llm
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/brunobiangulo/quotefind"
	"github.com/brunobiangulo/quotefind/eval"
)

func main() {
	var (
		dbPath        = flag.String("db", "", "Path to SQLite verse database (required)")
		embedProvider = flag.String("embed-provider", "ollama", "Embedding provider")
		embedModel    = flag.String("embed-model", "nomic-embed-text", "Embedding model name")
		embedBaseURL  = flag.String("embed-base-url", "http://localhost:11434", "Embedding provider base URL")
		embedAPIKey   = flag.String("embed-api-key", "", "Embedding provider API key")
		verifyProvider = flag.String("verify-provider", "ollama", "Verification provider")
		verifyModel    = flag.String("verify-model", "llama3.1:8b", "Verification model name")
		verifyBaseURL  = flag.String("verify-base-url", "http://localhost:11434", "Verification provider base URL")
		verifyAPIKey   = flag.String("verify-api-key", "", "Verification provider API key")
		mode          = flag.String("mode", "heuristic", "Detection mode: llm or heuristic")
		embedDim      = flag.Int("embed-dim", 768, "Embedding dimension")
		outputFile    = flag.String("output", "", "Path to write JSON report (default: none)")
	)
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("--db is required")
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	cfg := quotefind.DefaultConfig()
	cfg.DBPath = *dbPath
	cfg.EmbeddingDim = *embedDim
	cfg.Embedding = quotefind.LLMConfig{Provider: *embedProvider, Model: *embedModel, BaseURL: *embedBaseURL, APIKey: *embedAPIKey}
	cfg.Verify = quotefind.LLMConfig{Provider: *verifyProvider, Model: *verifyModel, BaseURL: *verifyBaseURL, APIKey: *verifyAPIKey}

	engine, err := quotefind.New(cfg)
	if err != nil {
		log.Fatalf("creating engine: %v", err)
	}
	defer engine.Close()

	evaluator := eval.NewEvaluator(engine)
	evaluator.SetMode(quotefind.Mode(*mode))

	ctx := context.Background()
	report, err := evaluator.Run(ctx, eval.CoreScenarios())
	if err != nil {
		log.Fatalf("running scenarios: %v", err)
	}

	fmt.Println(eval.FormatReport(report))

	if *outputFile != "" {
		writeJSON(*outputFile, report)
		fmt.Fprintf(os.Stderr, "JSON report written to: %s\n", *outputFile)
	}

	if report.Failed > 0 {
		os.Exit(1)
	}
}

func writeJSON(path string, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("marshaling JSON for %s: %v", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil && filepath.Dir(path) != "." {
		log.Fatalf("creating output directory: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Fatalf("writing %s: %v", path, err)
	}
}
