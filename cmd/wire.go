package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/viper"

	"ragtutor/src/core/conversation"
	"ragtutor/src/core/document"
	"ragtutor/src/core/prompt"
	"ragtutor/src/core/rag"
	"ragtutor/src/core/vectorindex"
	"ragtutor/src/fsutil"
	"ragtutor/src/infrastructure/integrations/ollama"
	"ragtutor/src/infrastructure/integrations/openai"
)

// buildProviders constructs the embedding and generation providers selected
// by llm.provider. An unknown provider name is a configuration error.
func buildProviders() (rag.EmbeddingProvider, rag.GenerationProvider, error) {
	switch provider := viper.GetString("llm.provider"); provider {
	case "ollama":
		client := ollama.NewClient(viper.GetString("ollama.url"), &http.Client{
			Timeout: 120 * time.Second,
		})
		p := ollama.NewProvider(client, viper.GetString("llm.model"), viper.GetString("embedding.model"))
		return p, p, nil
	case "openai":
		p, err := openai.NewProvider(
			viper.GetString("openai.api_key"),
			viper.GetString("llm.model"),
			viper.GetString("embedding.model"),
		)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", rag.ErrUnsupportedProvider, provider)
	}
}

// buildChunker constructs the chunker selected by chunking.strategy
func buildChunker() document.Chunker {
	size := viper.GetInt("chunking.size")
	overlap := viper.GetInt("chunking.overlap")

	if viper.GetString("chunking.strategy") == "semantic" {
		return document.NewSemanticChunker(size, overlap)
	}
	return document.NewOverlapChunker(size, overlap, viper.GetString("chunking.separator"))
}

// buildService wires the full query pipeline from configuration
func buildService(index *vectorindex.Index, fs fsutil.FileStore) (*rag.Service, error) {
	embedder, llm, err := buildProviders()
	if err != nil {
		return nil, err
	}

	conversations := conversation.NewStore(
		viper.GetInt("memory.max_history_length"),
		viper.GetInt("memory.summarization_threshold"),
	)
	assembler := prompt.NewAssembler(viper.GetInt("memory.context_token_budget"))

	return rag.NewService(
		index,
		embedder,
		llm,
		conversations,
		assembler,
		buildChunker(),
		document.NewLoader(fs),
		rag.Config{
			TopK:               viper.GetInt("retrieval.top_k"),
			ContextTokenBudget: viper.GetInt("memory.context_token_budget"),
			CacheEnabled:       viper.GetBool("cache.enabled"),
			CacheTTL:           viper.GetDuration("cache.ttl"),
			CacheMaxSize:       viper.GetInt("cache.max_size"),
		},
	), nil
}
