package cmd

import (
	"fmt"
	"os"

	"github.com/nabokov/clipd/internal/config"
	"github.com/nabokov/clipd/internal/db"
	"github.com/nabokov/clipd/internal/kv"
	"github.com/nabokov/clipd/internal/llm"
	"github.com/nabokov/clipd/internal/search"
)

// openStore opens the daemon's key-value store in the configured data
// directory, creating it on first run.
func openStore(cfg *config.Config) (kv.Store, func(), error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating data dir %s: %w", cfg.DataDir, err)
	}

	database, err := db.Open(cfg.DataDir + "/clipd.db")
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return kv.NewSQLiteStore(database), func() { database.Close() }, nil
}

// buildProvider creates the LLM provider the config names.
func buildProvider(cfg *config.Config) (llm.Provider, error) {
	return llm.NewProvider(string(cfg.Provider), cfg.Model)
}

// buildIndex creates the semantic search index, or returns nil when no
// embedding provider is configured.
func buildIndex(cfg *config.Config) (*search.Index, error) {
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	if embedder == nil {
		return nil, nil
	}
	return search.NewIndex(embedder)
}

// buildEmbedder creates the configured embedder, or nil when semantic
// search is disabled.
func buildEmbedder(cfg *config.Config) (search.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case "":
		return nil, nil
	case config.ProviderOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return search.NewOpenAIEmbedder(apiKey, search.OpenAIModel(cfg.EmbeddingModel)), nil
	case config.ProviderOllama:
		return search.NewOllamaEmbedder(cfg.EmbeddingModel, 768, os.Getenv("OLLAMA_HOST")), nil
	default:
		return nil, fmt.Errorf("embedding provider %q does not support embeddings", cfg.EmbeddingProvider)
	}
}
