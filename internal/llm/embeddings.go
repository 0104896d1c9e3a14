package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
)

// EmbeddingsClient is a client for an OpenAI-compatible embeddings API.
type EmbeddingsClient struct {
	BaseURL      string
	Model        string
	ExpectedSize int // Expected vector size for validation
	api          *openai.Client
	opts         Options
}

// NewEmbeddingsClient creates a new embeddings client.
// expectedSize is the expected vector size (from QDRANT_VECTOR_SIZE config).
// All embeddings returned by EmbedTexts will be validated against this size.
func NewEmbeddingsClient(baseURL, apiKey, model string, expectedSize int, opts Options) *EmbeddingsClient {
	return &EmbeddingsClient{
		BaseURL:      baseURL,
		Model:        model,
		ExpectedSize: expectedSize,
		api:          NewOpenAIClient(baseURL, apiKey, opts.HTTPClient),
		opts:         opts,
	}
}

// Embed generates the embedding for a single text.
func (c *EmbeddingsClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedTexts generates embeddings for the given texts.
// Returns one vector per input text, in input order.
// Validates that all returned vectors match the expected size.
func (c *EmbeddingsClient) EmbedTexts(ctx context.Context, texts []string) (result [][]float32, err error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	started := time.Now()
	defer func() {
		c.opts.Metrics.LLMRequest("embed", started, err)
	}()

	callCtx, cancel, err := c.opts.Throttle.Acquire(ctx)
	defer cancel()
	if err != nil {
		return nil, err
	}

	resp, err := c.api.CreateEmbeddings(callCtx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.Model),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	result = make([][]float32, len(texts))
	for i, data := range resp.Data {
		idx := data.Index
		if idx < 0 || idx >= len(texts) || result[idx] != nil {
			idx = i
		}
		if len(data.Embedding) != c.ExpectedSize {
			return nil, fmt.Errorf("embedding %d has size %d, expected %d", idx, len(data.Embedding), c.ExpectedSize)
		}
		result[idx] = data.Embedding
	}

	return result, nil
}
