// Package rag answers questions over the journal with retrieval-augmented generation.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"dreamweaver-ai/internal/contextutil"
	"dreamweaver-ai/internal/llm"
	"dreamweaver-ai/internal/storage"
	"dreamweaver-ai/internal/vectorstore"
)

const (
	// DefaultK is the number of entries retrieved when a request does not say.
	DefaultK = 3
	// MaxK caps the number of retrieved entries.
	MaxK = 20
	// NoContextAnswer is returned without calling the model when nothing relevant is stored.
	NoContextAnswer = "No relevant context found."
)

// ErrEmptyQuestion is returned for blank questions.
var ErrEmptyQuestion = errors.New("question is empty")

// Engine provides retrieval-augmented answers and reflections over stored entries.
type Engine struct {
	embedder    llm.Embedder
	vectorStore vectorstore.VectorStore
	collection  string
	entries     storage.EntryStore
	llm         llm.Generator
	logger      *slog.Logger
}

// NewEngine creates a new RAG engine.
func NewEngine(
	embedder llm.Embedder,
	vectorStore vectorstore.VectorStore,
	collection string,
	entries storage.EntryStore,
	gen llm.Generator,
) *Engine {
	return &Engine{
		embedder:    embedder,
		vectorStore: vectorStore,
		collection:  collection,
		entries:     entries,
		llm:         gen,
		logger:      slog.Default(),
	}
}

// getLogger extracts logger from context or returns the engine logger.
func (e *Engine) getLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(contextutil.LoggerKey()).(*slog.Logger); ok {
		return l
	}
	return e.logger
}

// ClampK applies the default and the upper bound to a requested K.
func ClampK(k int) int {
	if k <= 0 {
		return DefaultK
	}
	if k > MaxK {
		return MaxK
	}
	return k
}

// Ask answers a question from the entries most similar to it.
func (e *Engine) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := e.getLogger(ctx)

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return AskResponse{}, ErrEmptyQuestion
	}
	k := ClampK(req.K)
	filters := req.Filters.payloadFilters()

	logger.InfoContext(ctx, "RAG query started", "question_length", len(question), "k", k, "filters", filters)

	queryVector, err := e.embedder.Embed(ctx, question)
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed question", "error", err)
		return AskResponse{}, fmt.Errorf("failed to embed question: %w", err)
	}

	results, err := e.vectorStore.Search(ctx, e.collection, queryVector, k, filters)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search vector store", "error", err)
		return AskResponse{}, fmt.Errorf("failed to search vector store: %w", err)
	}

	hits := make([]hit, 0, len(results))
	for _, result := range results {
		text, _ := result.Meta["text"].(string)
		if strings.TrimSpace(text) == "" {
			continue
		}
		tags, _ := result.Meta["tags"].(string)
		date, _ := result.Meta["date"].(string)
		mood, _ := result.Meta["mood"].(string)
		hits = append(hits, hit{
			text:        text,
			tags:        tags,
			vectorScore: result.Score,
			ref: Reference{
				EntryID: payloadInt(result.Meta["entry_id"]),
				Date:    date,
				Mood:    mood,
				Tags:    tags,
			},
		})
	}

	logger.InfoContext(ctx, "vector search completed", "results_count", len(results), "with_text", len(hits))

	if len(hits) == 0 {
		return AskResponse{Answer: NoContextAnswer, References: []Reference{}}, nil
	}

	rerank(question, hits)

	texts := make([]string, len(hits))
	references := make([]Reference, len(hits))
	for i, h := range hits {
		texts[i] = h.text
		references[i] = h.ref
	}
	contextString := strings.Join(texts, "\n\n")
	logger.DebugContext(ctx, "context formatted for LLM", "context_length", len(contextString), "entries", len(hits))

	answer, err := e.llm.Generate(ctx, QAPrompt(contextString, question))
	if err != nil {
		logger.ErrorContext(ctx, "failed to get LLM response", "error", err)
		return AskResponse{}, fmt.Errorf("failed to get LLM response: %w", err)
	}

	logger.InfoContext(ctx, "RAG query completed", "entries_used", len(hits), "answer_length", len(answer))
	return AskResponse{Answer: answer, References: references}, nil
}

// Reflect produces a short reflection on a stored entry.
// Returns storage.ErrNotFound when the entry does not exist.
func (e *Engine) Reflect(ctx context.Context, entryID int64) (ReflectResponse, error) {
	entry, err := e.entries.GetByID(ctx, entryID)
	if err != nil {
		return ReflectResponse{}, fmt.Errorf("failed to load entry %d: %w", entryID, err)
	}

	reflection, err := e.llm.Generate(ctx, ReflectionPrompt(entry.Text))
	if err != nil {
		e.getLogger(ctx).ErrorContext(ctx, "failed to generate reflection", "entry_id", entryID, "error", err)
		return ReflectResponse{}, fmt.Errorf("failed to generate reflection: %w", err)
	}
	return ReflectResponse{EntryID: entry.ID, Reflection: reflection}, nil
}

// payloadFilters converts non-empty filters to exact-match payload conditions.
func (f Filters) payloadFilters() map[string]string {
	filters := make(map[string]string, 3)
	if v := strings.TrimSpace(f.Date); v != "" {
		filters["date"] = v
	}
	if v := strings.ToLower(strings.TrimSpace(f.Mood)); v != "" {
		filters["mood"] = v
	}
	if v := strings.ToLower(strings.TrimSpace(f.Source)); v != "" {
		filters["source"] = v
	}
	if len(filters) == 0 {
		return nil
	}
	return filters
}

// payloadInt reads an integer payload value, which may arrive as any numeric type.
func payloadInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
