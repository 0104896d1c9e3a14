package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"dreamweaver-ai/internal/contextutil"
	"dreamweaver-ai/internal/llm"
)

const ocrPrompt = "Transcribe all handwritten or printed text in this image exactly as written. " +
	"Return only the text, with no commentary. If there is no text, return nothing."

// VisionOCR extracts text from images with a vision-capable chat model.
type VisionOCR struct {
	Model string
	api   *openai.Client
	opts  llm.Options
}

// NewVisionOCR creates an extractor for the server at baseURL.
func NewVisionOCR(baseURL, apiKey, model string, opts llm.Options) *VisionOCR {
	return &VisionOCR{
		Model: model,
		api:   llm.NewOpenAIClient(baseURL, apiKey, opts.HTTPClient),
		opts:  opts,
	}
}

// ExtractText sends the image as a data URL and returns the transcribed text.
func (v *VisionOCR) ExtractText(ctx context.Context, path string) (text string, err error) {
	logger := contextutil.LoggerFromContext(ctx)

	dataURL, err := imageDataURL(path)
	if err != nil {
		return "", err
	}

	started := time.Now()
	defer func() {
		v.opts.Metrics.LLMRequest("ocr", started, err)
	}()

	callCtx, cancel, err := v.opts.Throttle.Acquire(ctx)
	defer cancel()
	if err != nil {
		return "", err
	}

	resp, err := v.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: v.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: ocrPrompt},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
						URL:    dataURL,
						Detail: openai.ImageURLDetailHigh,
					}},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to extract text from image: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}

	text = strings.TrimSpace(resp.Choices[0].Message.Content)
	logger.DebugContext(ctx, "image text extracted", "path", path, "chars", len(text))
	return text, nil
}

// imageDataURL reads the file and encodes it as a base64 data URL.
func imageDataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image file: %w", err)
	}

	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" || !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(data)
	}
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}

	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
