// Command ingest loads a New Testament verse catalog (critical-edition PDF
// or spreadsheet interchange file) into the verse store used by quotefind.
//
//	go run ./cmd/ingest \
//	  --db ./quotefind.db \
//	  --file ./data/sr-gnt.pdf \
//	  --edition SR \
//	  --embed-provider ollama --embed-model nomic-embed-text
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/brunobiangulo/quotefind/ingest"
	"github.com/brunobiangulo/quotefind/llm"
	"github.com/brunobiangulo/quotefind/store"
)

func main() {
	var (
		dbPath       = flag.String("db", "", "Path to SQLite verse database (required)")
		filePath     = flag.String("file", "", "Path to verse catalog file: .pdf or .xlsx (required)")
		edition      = flag.String("edition", "SR", "Source edition tag stored with each verse (e.g. SR, NA28, TR)")
		embedProvider = flag.String("embed-provider", "ollama", "Embedding provider")
		embedModel    = flag.String("embed-model", "nomic-embed-text", "Embedding model name")
		embedBaseURL  = flag.String("embed-base-url", "http://localhost:11434", "Embedding provider base URL")
		embedAPIKey   = flag.String("embed-api-key", "", "Embedding provider API key")
		embedDim      = flag.Int("embed-dim", 768, "Embedding dimension")
	)
	flag.Parse()

	if *dbPath == "" || *filePath == "" {
		log.Fatal("--db and --file are required")
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	var lines []string
	var err error
	switch strings.ToLower(filepath.Ext(*filePath)) {
	case ".pdf":
		lines, err = ingest.ExtractPDFLines(*filePath)
	case ".xlsx":
		lines, err = ingest.ExtractXLSXLines(*filePath)
	default:
		log.Fatalf("unsupported file type %q (use .pdf or .xlsx)", filepath.Ext(*filePath))
	}
	if err != nil {
		log.Fatalf("extracting lines: %v", err)
	}
	fmt.Fprintf(os.Stderr, "Extracted %d lines from %s\n", len(lines), filepath.Base(*filePath))

	s, err := store.New(*dbPath, *embedDim)
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}
	defer s.Close()

	embedder, err := llm.NewProvider(llm.Config{
		Provider: *embedProvider,
		Model:    *embedModel,
		BaseURL:  *embedBaseURL,
		APIKey:   *embedAPIKey,
	})
	if err != nil {
		log.Fatalf("creating embedding provider: %v", err)
	}

	loader := ingest.New(s, embedder, *edition)

	loaded, skipped, err := loader.LoadLines(context.Background(), lines)
	if err != nil {
		log.Fatalf("loading verses: %v", err)
	}

	fmt.Fprintf(os.Stderr, "Loaded %d verses, skipped %d unparsed lines\n", loaded, skipped)
}
