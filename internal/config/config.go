// Package config loads the TOML configuration file.
//
// Configuration lives in ~/.normsearch/config.toml by default. Every field
// has a working default, so a missing file is not an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/normsearch/normsearch-cli/internal/chunker"
	"github.com/normsearch/normsearch-cli/internal/core/domain"
)

// Embedding providers.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Config is the full application configuration.
type Config struct {
	Embedding EmbeddingConfig `toml:"embedding"`
	Answer    AnswerConfig    `toml:"answer"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Index     IndexConfig     `toml:"index"`
	Retrieval RetrievalConfig `toml:"retrieval"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	// Provider is "ollama" or "openai".
	Provider string `toml:"provider"`

	// Model is the embedding model name. Empty uses the provider default.
	Model string `toml:"model"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `toml:"base_url"`

	// APIKeyEnv names the environment variable holding the API key for
	// remote providers. The key itself never lives in the file.
	APIKeyEnv string `toml:"api_key_env"`
}

// AnswerConfig configures the optional answer generator.
type AnswerConfig struct {
	// Enabled turns answer generation on. Off, queries return context only.
	Enabled bool `toml:"enabled"`

	// Model is the generation model name. Empty uses the provider default.
	Model string `toml:"model"`

	// BaseURL overrides the Ollama endpoint used for generation.
	BaseURL string `toml:"base_url"`
}

// ChunkingConfig configures text segmentation.
type ChunkingConfig struct {
	Size             int     `toml:"size"`
	Overlap          int     `toml:"overlap"`
	Method           string  `toml:"method"`
	BoundaryFraction float64 `toml:"boundary_fraction"`
}

// IndexConfig configures snapshot storage.
type IndexConfig struct {
	// Dir is where snapshot metadata and vector index files live.
	Dir string `toml:"dir"`
}

// RetrievalConfig configures query defaults.
type RetrievalConfig struct {
	TopK int `toml:"top_k"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Provider:  ProviderOllama,
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Chunking: ChunkingConfig{
			Size:             chunker.DefaultChunkSize,
			Overlap:          chunker.DefaultChunkOverlap,
			Method:           chunker.MethodCharacter,
			BoundaryFraction: chunker.DefaultBoundaryFraction,
		},
		Retrieval: RetrievalConfig{
			TopK: 5,
		},
	}
}

// DefaultPath returns ~/.normsearch/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".normsearch", "config.toml"), nil
}

// DefaultIndexDir returns ~/.normsearch/index.
func DefaultIndexDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".normsearch", "index"), nil
}

// Load reads the configuration at path, applying defaults for anything the
// file leaves unset. A missing file yields the defaults. path may be empty,
// meaning the default location.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that TOML parsing cannot.
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidConfig, c.Embedding.Provider)
	}
	// Chunking limits are validated by chunker.New; checking here reports
	// the problem before any file is touched.
	if _, err := chunker.New(chunker.Config{
		ChunkSize:        c.Chunking.Size,
		Overlap:          c.Chunking.Overlap,
		Method:           c.Chunking.Method,
		BoundaryFraction: c.Chunking.BoundaryFraction,
	}); err != nil {
		return err
	}
	if c.Retrieval.TopK < 0 {
		return fmt.Errorf("%w: top_k %d must not be negative", domain.ErrInvalidConfig, c.Retrieval.TopK)
	}
	return nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
