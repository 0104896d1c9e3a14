package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"dreamweaver-ai/internal/contextutil"
	"dreamweaver-ai/internal/metrics"
)

// Options carries the cross-cutting settings shared by every backend client.
type Options struct {
	Throttle   *Throttle
	Metrics    *metrics.Metrics
	HTTPClient *http.Client
}

// NewOpenAIClient builds a go-openai client for any OpenAI-compatible server.
// baseURL must include the API version prefix, e.g. http://localhost:11434/v1.
func NewOpenAIClient(baseURL, apiKey string, httpClient *http.Client) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return openai.NewClientWithConfig(cfg)
}

// Client generates text through an OpenAI-compatible chat completions API.
type Client struct {
	BaseURL string
	Model   string
	api     *openai.Client
	opts    Options
}

// NewClient creates a new LLM client.
func NewClient(baseURL, apiKey, model string, opts Options) *Client {
	return &Client{
		BaseURL: baseURL,
		Model:   model,
		api:     NewOpenAIClient(baseURL, apiKey, opts.HTTPClient),
		opts:    opts,
	}
}

// Generate sends prompt as a single user message and returns the trimmed reply.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.ChatWithMessages(ctx, []Message{{Role: openai.ChatMessageRoleUser, Content: prompt}}, ChatParams{})
}

// ChatWithMessages sends a full conversation and returns the trimmed reply.
func (c *Client) ChatWithMessages(ctx context.Context, messages []Message, params ChatParams) (reply string, err error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(messages) == 0 {
		return "", fmt.Errorf("no messages to send")
	}

	started := time.Now()
	defer func() {
		c.opts.Metrics.LLMRequest("generate", started, err)
	}()

	callCtx, cancel, err := c.opts.Throttle.Acquire(ctx)
	defer cancel()
	if err != nil {
		return "", err
	}

	model := params.Model
	if model == "" {
		model = c.Model
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.api.CreateChatCompletion(callCtx, req)
	if err != nil {
		logger.DebugContext(ctx, "chat completion failed", "model", model, "error", err)
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
