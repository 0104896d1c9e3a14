package llm

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"dreamweaver-ai/internal/contextutil"
)

// OllamaClient generates text through a native Ollama server.
type OllamaClient struct {
	ServerURL string
	Model     string
	llm       *ollama.LLM
	opts      Options
}

// NewOllamaClient creates a client for the Ollama server at serverURL.
// A trailing /v1 (the OpenAI-compatible prefix) is removed.
func NewOllamaClient(serverURL, model string, opts Options) (*OllamaClient, error) {
	serverURL = ollamaServerURL(serverURL)
	if _, err := url.Parse(serverURL); err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	ollamaOpts := []ollama.Option{
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
	}
	if opts.HTTPClient != nil {
		ollamaOpts = append(ollamaOpts, ollama.WithHTTPClient(opts.HTTPClient))
	}

	llm, err := ollama.New(ollamaOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}

	return &OllamaClient{
		ServerURL: serverURL,
		Model:     model,
		llm:       llm,
		opts:      opts,
	}, nil
}

func ollamaServerURL(raw string) string {
	raw = strings.TrimRight(raw, "/")
	return strings.TrimSuffix(raw, "/v1")
}

// Generate sends prompt to the model and returns the trimmed reply.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (reply string, err error) {
	logger := contextutil.LoggerFromContext(ctx)

	started := time.Now()
	defer func() {
		c.opts.Metrics.LLMRequest("generate", started, err)
	}()

	callCtx, cancel, err := c.opts.Throttle.Acquire(ctx)
	defer cancel()
	if err != nil {
		return "", err
	}

	out, err := llms.GenerateFromSinglePrompt(callCtx, c.llm, prompt)
	if err != nil {
		logger.DebugContext(ctx, "ollama generation failed", "model", c.Model, "error", err)
		return "", fmt.Errorf("failed to generate with ollama: %w", err)
	}
	return strings.TrimSpace(out), nil
}
