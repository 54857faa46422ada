// Package cli implements the command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	answerollama "github.com/normsearch/normsearch-cli/internal/adapters/driven/answer/ollama"
	embedollama "github.com/normsearch/normsearch-cli/internal/adapters/driven/embedding/ollama"
	embedopenai "github.com/normsearch/normsearch-cli/internal/adapters/driven/embedding/openai"
	"github.com/normsearch/normsearch-cli/internal/adapters/driven/storage/sqlite"
	"github.com/normsearch/normsearch-cli/internal/chunker"
	"github.com/normsearch/normsearch-cli/internal/config"
	"github.com/normsearch/normsearch-cli/internal/core/ports/driven"
	"github.com/normsearch/normsearch-cli/internal/core/services"
	"github.com/normsearch/normsearch-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	flagConfig   string
	flagIndexDir string
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "normsearch",
	Short: "Local retrieval over a directory of text files",
	Long: `Normsearch builds a searchable corpus from plain text files:
it normalises and chunks the text, embeds each chunk, and answers
questions by exact similarity search over the embeddings.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.normsearch/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagIndexDir, "index-dir", "", "snapshot directory (default ~/.normsearch/index)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles the wired services for a single command invocation.
type app struct {
	cfg       *config.Config
	store     *sqlite.Store
	embedder  driven.EmbeddingService
	retrieval *services.RetrievalService
	ingest    *services.IngestService
	indexDir  string
}

// newApp loads configuration, applies any overrides, and wires the adapters
// and services. The caller must Close it.
func newApp(overrides ...func(*config.Config)) (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	for _, override := range overrides {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	indexDir := flagIndexDir
	if indexDir == "" {
		indexDir = cfg.Index.Dir
	}
	if indexDir == "" {
		indexDir, err = config.DefaultIndexDir()
		if err != nil {
			return nil, err
		}
	}

	store, err := sqlite.NewStore(indexDir)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot store: %w", err)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	var answerer driven.AnswerGenerator
	if cfg.Answer.Enabled {
		answerer = answerollama.New(answerollama.Config{
			BaseURL: cfg.Answer.BaseURL,
			Model:   cfg.Answer.Model,
		})
	}

	ck, err := chunker.New(chunker.Config{
		ChunkSize:        cfg.Chunking.Size,
		Overlap:          cfg.Chunking.Overlap,
		Method:           cfg.Chunking.Method,
		BoundaryFraction: cfg.Chunking.BoundaryFraction,
	})
	if err != nil {
		store.Close()
		embedder.Close()
		return nil, err
	}

	return &app{
		cfg:       cfg,
		store:     store,
		embedder:  embedder,
		retrieval: services.NewRetrievalService(store, embedder, answerer, indexDir),
		ingest:    services.NewIngestService(store, embedder, ck, indexDir),
		indexDir:  indexDir,
	}, nil
}

// newEmbedder builds the configured embedding provider.
func newEmbedder(cfg *config.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case config.ProviderOllama:
		return embedollama.NewEmbeddingService(embedollama.Config{
			BaseURL: cfg.Embedding.BaseURL,
			Model:   cfg.Embedding.Model,
		}), nil
	case config.ProviderOpenAI:
		key := os.Getenv(cfg.Embedding.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("embedding provider openai requires %s to be set", cfg.Embedding.APIKeyEnv)
		}
		return embedopenai.NewEmbeddingService(embedopenai.Config{
			APIKey: key,
			Model:  cfg.Embedding.Model,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

// Close releases the app's resources.
func (a *app) Close() {
	if err := a.embedder.Close(); err != nil {
		logger.Debug("Closing embedder: %v", err)
	}
	if err := a.store.Close(); err != nil {
		logger.Debug("Closing store: %v", err)
	}
}
