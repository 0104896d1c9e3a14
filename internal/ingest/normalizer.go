package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dreamweaver-ai/internal/contextutil"
	"dreamweaver-ai/internal/llm"
	"dreamweaver-ai/internal/storage"
)

// DefaultCleanMaxTokens bounds the raw text sent to the model in one cleanup prompt.
const DefaultCleanMaxTokens = 1024

// Normalized is a unit's canonical text and attributed date.
type Normalized struct {
	Text   string
	Date   time.Time
	Source storage.SourceType
}

// Normalizer turns raw content units into cleaned text with an attributed date.
type Normalizer struct {
	llm       llm.Generator
	maxTokens int
	now       func() time.Time
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithClock replaces time.Now as the source of today's date.
func WithClock(now func() time.Time) NormalizerOption {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// NewNormalizer creates a Normalizer. maxTokens below 1 uses DefaultCleanMaxTokens.
func NewNormalizer(gen llm.Generator, maxTokens int, opts ...NormalizerOption) *Normalizer {
	if maxTokens < 1 {
		maxTokens = DefaultCleanMaxTokens
	}
	n := &Normalizer{
		llm:       gen,
		maxTokens: maxTokens,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Today returns the current calendar date.
func (n *Normalizer) Today() time.Time {
	return storage.TruncateDate(n.now())
}

// NormalizeRecord normalizes one JSON record.
// Well-formed records keep their trimmed text; a malformed date falls back to today.
// Raw records are cleaned by the model and attributed to today.
func (n *Normalizer) NormalizeRecord(ctx context.Context, rec Record) (Normalized, error) {
	switch r := rec.(type) {
	case WellFormedRecord:
		date, err := storage.ParseDate(r.Date)
		if err != nil {
			contextutil.LoggerFromContext(ctx).DebugContext(ctx, "record date malformed, using today", "date", r.Date)
			date = n.Today()
		}
		return Normalized{Text: strings.TrimSpace(r.Text), Date: date, Source: storage.SourceText}, nil

	case RawRecord:
		today := n.Today()
		fallback := r.FallbackDate
		if fallback == "" {
			fallback = today.Format(storage.DateLayout)
		}
		cleaned, err := n.clean(ctx, RecordCleanupPrompt(fallback, string(r.Blob)))
		if err != nil {
			return Normalized{}, err
		}
		return Normalized{Text: cleaned, Date: today, Source: storage.SourceText}, nil

	default:
		return Normalized{}, fmt.Errorf("unknown record type %T", rec)
	}
}

// NormalizeRaw cleans free text from a file, a transcription or OCR and attributes it to today.
// Text longer than the token budget is cleaned chunk by chunk and the results are joined
// with blank lines. Blank input is ErrBlankInput.
func (n *Normalizer) NormalizeRaw(ctx context.Context, raw string, source storage.SourceType) (Normalized, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Normalized{}, ErrBlankInput
	}

	today := n.Today()
	stamp := today.Format(storage.DateLayout)

	chunks := Split(raw, n.maxTokens)
	if len(chunks) == 1 {
		chunks[0] = raw
	}

	cleaned := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		text, err := n.clean(ctx, TextCleanupPrompt(stamp, chunk))
		if err != nil {
			return Normalized{}, fmt.Errorf("chunk %d of %d: %w", i+1, len(chunks), err)
		}
		cleaned = append(cleaned, text)
	}

	return Normalized{Text: strings.Join(cleaned, "\n\n"), Date: today, Source: source}, nil
}

func (n *Normalizer) clean(ctx context.Context, prompt string) (string, error) {
	reply, err := n.llm.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to clean entry: %w", err)
	}
	text := PlainText(reply)
	if text == "" {
		// Markup the renderer could not turn into prose is kept verbatim.
		text = strings.TrimSpace(reply)
	}
	if text == "" {
		return "", ErrEmptyCleanup
	}
	return text, nil
}
