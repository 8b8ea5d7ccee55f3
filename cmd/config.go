package cmd

import "github.com/spf13/viper"

func settingDefaultConfig() {
	// Enable automatic environment variable binding
	viper.AutomaticEnv()

	// Map environment variables to Viper keys for chunking
	viper.BindEnv("chunking.size", "CHUNK_SIZE")
	viper.BindEnv("chunking.overlap", "CHUNK_OVERLAP")
	viper.BindEnv("chunking.separator", "CHUNK_SEPARATOR")
	viper.BindEnv("chunking.strategy", "CHUNK_STRATEGY")

	// Map environment variables to Viper keys for embedding and retrieval
	viper.BindEnv("embedding.dimension", "EMBEDDING_DIMENSION")
	viper.BindEnv("embedding.model", "EMBEDDING_MODEL")
	viper.BindEnv("retrieval.top_k", "RETRIEVAL_TOP_K")

	// Map environment variables to Viper keys for the LLM provider
	viper.BindEnv("llm.provider", "LLM_PROVIDER")
	viper.BindEnv("llm.model", "LLM_MODEL")
	viper.BindEnv("openai.api_key", "OPENAI_API_KEY")
	viper.BindEnv("ollama.url", "OLLAMA_URL")

	// Map environment variables to Viper keys for memory and cache
	viper.BindEnv("memory.max_history_length", "MAX_HISTORY_LENGTH")
	viper.BindEnv("memory.summarization_threshold", "SUMMARIZATION_THRESHOLD")
	viper.BindEnv("memory.context_token_budget", "CONTEXT_TOKEN_BUDGET")
	viper.BindEnv("cache.enabled", "CACHE_ENABLED")
	viper.BindEnv("cache.ttl", "CACHE_TTL")
	viper.BindEnv("cache.max_size", "CACHE_MAX_SIZE")

	// Map environment variables to Viper keys for paths and server
	viper.BindEnv("index.path", "INDEX_PATH")
	viper.BindEnv("documents.path", "DOCUMENTS_PATH")
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.shutdown_timeout", "SERVER_SHUTDOWN_TIMEOUT")

	// Set default values for chunking
	viper.SetDefault("chunking.size", 800)
	viper.SetDefault("chunking.overlap", 200)
	viper.SetDefault("chunking.separator", "\n\n")
	viper.SetDefault("chunking.strategy", "overlap")

	// Set default values for embedding and retrieval
	viper.SetDefault("embedding.dimension", 768)
	viper.SetDefault("embedding.model", "nomic-embed-text")
	viper.SetDefault("retrieval.top_k", 10)

	// Set default values for the LLM provider
	viper.SetDefault("llm.provider", "ollama")
	viper.SetDefault("llm.model", "llama3")
	viper.SetDefault("ollama.url", "http://localhost:11434/api")

	// Set default values for memory and cache
	viper.SetDefault("memory.max_history_length", 10)
	viper.SetDefault("memory.summarization_threshold", 20)
	viper.SetDefault("memory.context_token_budget", 2000)
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.ttl", "1h")
	viper.SetDefault("cache.max_size", 1000)

	// Set default values for paths and server
	viper.SetDefault("index.path", "./data/vector_store")
	viper.SetDefault("documents.path", "./documents")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.shutdown_timeout", "5s")
}
