package media

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"dreamweaver-ai/internal/contextutil"
	"dreamweaver-ai/internal/llm"
)

// WhisperTranscriber transcribes audio through an OpenAI-compatible /audio/transcriptions endpoint.
type WhisperTranscriber struct {
	Model string
	api   *openai.Client
	opts  llm.Options
}

// NewWhisperTranscriber creates a transcriber for the server at baseURL.
func NewWhisperTranscriber(baseURL, apiKey, model string, opts llm.Options) *WhisperTranscriber {
	return &WhisperTranscriber{
		Model: model,
		api:   llm.NewOpenAIClient(baseURL, apiKey, opts.HTTPClient),
		opts:  opts,
	}
}

// Transcribe uploads the audio file and returns the trimmed transcript.
func (w *WhisperTranscriber) Transcribe(ctx context.Context, path string) (text string, err error) {
	logger := contextutil.LoggerFromContext(ctx)

	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("failed to open audio file: %w", err)
	}

	started := time.Now()
	defer func() {
		w.opts.Metrics.LLMRequest("transcribe", started, err)
	}()

	callCtx, cancel, err := w.opts.Throttle.Acquire(ctx)
	defer cancel()
	if err != nil {
		return "", err
	}

	resp, err := w.api.CreateTranscription(callCtx, openai.AudioRequest{
		Model:    w.Model,
		FilePath: path,
	})
	if err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}

	text = strings.TrimSpace(resp.Text)
	logger.DebugContext(ctx, "audio transcribed", "path", path, "chars", len(text))
	return text, nil
}
