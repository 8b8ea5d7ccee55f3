package ollama

import (
	"context"
	"fmt"

	"ragtutor/src/core/rag"
)

const (
	DefaultGenerateModel  = "llama3"
	DefaultEmbeddingModel = "nomic-embed-text"
)

// Provider adapts the Ollama client to the embedding and generation
// interfaces the orchestrator consumes.
type Provider struct {
	client         *Client
	generateModel  string
	embeddingModel string
}

func NewProvider(client *Client, generateModel, embeddingModel string) *Provider {
	if generateModel == "" {
		generateModel = DefaultGenerateModel
	}
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}
	return &Provider{
		client:         client,
		generateModel:  generateModel,
		embeddingModel: embeddingModel,
	}
}

func (p *Provider) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := p.client.GetEmbedding(ctx, p.embeddingModel, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed text %d: %w", i, err)
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (p *Provider) EncodeSingle(ctx context.Context, text string) ([]float32, error) {
	return p.client.GetEmbedding(ctx, p.embeddingModel, text)
}

func (p *Provider) Generate(ctx context.Context, prompt, system string, opts *rag.GenerateOptions) (string, error) {
	return p.client.Generate(ctx, p.generateModel, system, prompt, buildOptions(opts), nil)
}

func (p *Provider) GenerateStream(ctx context.Context, prompt, system string, fn func(chunk string) error) error {
	_, err := p.client.Generate(ctx, p.generateModel, system, prompt, nil, fn)
	return err
}

func buildOptions(opts *rag.GenerateOptions) map[string]interface{} {
	if opts == nil {
		return nil
	}

	options := make(map[string]interface{})
	if opts.Temperature != nil {
		options["temperature"] = *opts.Temperature
	}
	if opts.MaxTokens != nil {
		options["num_predict"] = *opts.MaxTokens
	}
	if len(opts.StopSequences) > 0 {
		options["stop"] = opts.StopSequences
	}
	if len(options) == 0 {
		return nil
	}
	return options
}
