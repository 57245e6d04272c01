// Command quotefind runs the detection engine directly against a single
// input passage and prints the result as JSON. There is no HTTP surface:
// the engine is a library, and this binary is a thin CLI wrapper around it,
// the way cmd/e2e_test wraps the engine for manual smoke testing.
//
//	go run ./cmd/quotefind \
//	  --config ./quotefind.yaml \
//	  --text "μακαριοι οι πτωχοι τω πνευματι οτι αυτων εστιν η βασιλεια των ουρανων"
//
// With no --text, the passage is read from stdin.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/brunobiangulo/quotefind"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML)")
	text := flag.String("text", "", "Greek passage to check (reads stdin if omitted)")
	mode := flag.String("mode", "", "Detection mode override: llm or heuristic")
	minConfidence := flag.Int("min-confidence", 0, "Minimum confidence for is_quotation=true")
	allCandidates := flag.Bool("all-candidates", false, "Include every retrieved candidate in sources")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	cfg := quotefind.DefaultConfig()
	if *configPath != "" {
		loaded, err := quotefind.LoadConfigYAML(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	applyEnvOverrides(&cfg)

	input := *text
	if input == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reading stdin: %v\n", err)
			os.Exit(1)
		}
		input = strings.TrimSpace(string(data))
	}

	engine, err := quotefind.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := engine.Detect(ctx, input, quotefind.DetectOptions{
		Mode:                 quotefind.Mode(*mode),
		MinConfidence:        *minConfidence,
		IncludeAllCandidates: *allCandidates,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "detect: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshaling result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

// applyEnvOverrides mirrors the teacher's environment-variable override
// convention, renamed from GOREASON_* to QUOTEFIND_*.
func applyEnvOverrides(cfg *quotefind.Config) {
	if v := os.Getenv("QUOTEFIND_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("QUOTEFIND_EMBED_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("QUOTEFIND_VERIFY_BASE_URL"); v != "" {
		cfg.Verify.BaseURL = v
	}
	if v := os.Getenv("QUOTEFIND_EMBED_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("QUOTEFIND_VERIFY_API_KEY"); v != "" {
		cfg.Verify.APIKey = v
	}
	if v := os.Getenv("QUOTEFIND_EMBED_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("QUOTEFIND_VERIFY_MODEL"); v != "" {
		cfg.Verify.Model = v
	}
	if v := os.Getenv("QUOTEFIND_EMBED_PROVIDER"); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := os.Getenv("QUOTEFIND_VERIFY_PROVIDER"); v != "" {
		cfg.Verify.Provider = v
	}

	if cfg.Embedding.APIKey == "" {
		switch cfg.Embedding.Provider {
		case "openai":
			cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
		case "groq":
			cfg.Embedding.APIKey = os.Getenv("GROQ_API_KEY")
		}
	}
	if cfg.Verify.APIKey == "" {
		switch cfg.Verify.Provider {
		case "openai":
			cfg.Verify.APIKey = os.Getenv("OPENAI_API_KEY")
		case "groq":
			cfg.Verify.APIKey = os.Getenv("GROQ_API_KEY")
		}
	}
}
