package quotefind

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the detection engine.
type Config struct {
	// DBPath is the full path to the SQLite verse database.
	// If empty, defaults to ~/.quotefind/<DBName>.db
	DBPath string `json:"db_path" yaml:"db_path"`

	// DBName is the name for the database (used when DBPath is empty).
	DBName string `json:"db_name" yaml:"db_name"`

	// StorageDir controls where the database is created when DBPath is not
	// explicitly set. "home" (default) uses ~/.quotefind/, "local" uses cwd.
	StorageDir string `json:"storage_dir" yaml:"storage_dir"`

	// LLM providers used for embedding and verification.
	Embedding LLMConfig `json:"embedding" yaml:"embedding"`
	Verify    LLMConfig `json:"verify" yaml:"verify"`

	// EmbeddingDim must match the embedding model in use.
	EmbeddingDim int `json:"embedding_dim" yaml:"embedding_dim"`

	// TopK is the retrieval breadth: how many nearest neighbors the vector
	// index returns before score-floor filtering.
	TopK int `json:"top_k" yaml:"top_k"`

	// MinSimilarityFloor is the score below which candidates are discarded
	// before classification.
	MinSimilarityFloor float64 `json:"min_similarity_floor" yaml:"min_similarity_floor"`

	// DefaultMode is the detection mode used when a request doesn't specify
	// one: "llm" or "heuristic".
	DefaultMode string `json:"default_mode" yaml:"default_mode"`

	// MaxInputChars bounds how much text a single detect call will accept.
	MaxInputChars int `json:"max_input_chars" yaml:"max_input_chars"`
}

// LLMConfig configures a single LLM provider endpoint.
type LLMConfig struct {
	Provider string `json:"provider" yaml:"provider"`
	Model    string `json:"model" yaml:"model"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	APIKey   string `json:"api_key" yaml:"api_key"`
}

// DefaultConfig returns a Config with sensible defaults for local inference.
// The database is stored in ~/.quotefind/quotefind.db by default.
func DefaultConfig() Config {
	return Config{
		DBName:     "quotefind",
		StorageDir: "home",
		Embedding: LLMConfig{
			Provider: "ollama",
			Model:    "nomic-embed-text",
			BaseURL:  "http://localhost:11434",
		},
		Verify: LLMConfig{
			Provider: "ollama",
			Model:    "llama3.1:8b",
			BaseURL:  "http://localhost:11434",
		},
		EmbeddingDim:       768,
		TopK:               10,
		MinSimilarityFloor: 0.7,
		DefaultMode:        "llm",
		MaxInputChars:      5000,
	}
}

// LoadConfigYAML reads a YAML configuration file, starting from
// DefaultConfig and overriding only the fields present in the file.
func LoadConfigYAML(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing yaml config: %w", err)
	}

	return cfg, nil
}

// resolveDBPath computes the final database path from config fields.
func (c *Config) resolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}

	name := c.DBName
	if name == "" {
		name = "quotefind"
	}

	switch c.StorageDir {
	case "local", "cwd":
		return name + ".db"
	default: // "home" or empty
		home, err := os.UserHomeDir()
		if err != nil {
			return name + ".db"
		}
		dir := filepath.Join(home, ".quotefind")
		return filepath.Join(dir, name+".db")
	}
}
