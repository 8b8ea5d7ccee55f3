package openai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"ragtutor/src/core/rag"
)

const (
	DefaultModel          = "gpt-4"
	DefaultEmbeddingModel = "text-embedding-3-small"
)

// Provider adapts the OpenAI chat and embeddings APIs to the orchestrator's
// provider interfaces.
type Provider struct {
	llm *openai.LLM
}

func NewProvider(apiKey, model, embeddingModel string) (*Provider, error) {
	if model == "" {
		model = DefaultModel
	}
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}

	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(model),
		openai.WithEmbeddingModel(embeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}

	return &Provider{llm: llm}, nil
}

func (p *Provider) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := p.llm.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}

func (p *Provider) EncodeSingle(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.Encode(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (p *Provider) Generate(ctx context.Context, prompt, system string, opts *rag.GenerateOptions) (string, error) {
	resp, err := p.llm.GenerateContent(ctx, buildMessages(prompt, system), buildCallOptions(opts)...)
	if err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Content, nil
}

func (p *Provider) GenerateStream(ctx context.Context, prompt, system string, fn func(chunk string) error) error {
	_, err := p.llm.GenerateContent(ctx, buildMessages(prompt, system),
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			return fn(string(chunk))
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to stream completion: %w", err)
	}
	return nil
}

func buildMessages(prompt, system string) []llms.MessageContent {
	var messages []llms.MessageContent
	if system != "" {
		messages = append(messages, llms.TextParts(schema.ChatMessageTypeSystem, system))
	}
	messages = append(messages, llms.TextParts(schema.ChatMessageTypeHuman, prompt))
	return messages
}

func buildCallOptions(opts *rag.GenerateOptions) []llms.CallOption {
	if opts == nil {
		return nil
	}

	var options []llms.CallOption
	if opts.Temperature != nil {
		options = append(options, llms.WithTemperature(*opts.Temperature))
	}
	if opts.MaxTokens != nil {
		options = append(options, llms.WithMaxTokens(*opts.MaxTokens))
	}
	if len(opts.StopSequences) > 0 {
		options = append(options, llms.WithStopWords(opts.StopSequences))
	}
	return options
}
