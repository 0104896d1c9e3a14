package handlers

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_asker.go -package=mocks dreamweaver-ai/internal/handlers Asker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"dreamweaver-ai/internal/contextutil"
	"dreamweaver-ai/internal/rag"
	"dreamweaver-ai/internal/storage"
)

// Asker answers questions and reflects on entries.
type Asker interface {
	Ask(ctx context.Context, req rag.AskRequest) (rag.AskResponse, error)
	Reflect(ctx context.Context, entryID int64) (rag.ReflectResponse, error)
}

// AskHandler handles HTTP requests for RAG queries.
type AskHandler struct {
	asker Asker
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(asker Asker) *AskHandler {
	return &AskHandler{asker: asker}
}

// AskRequest represents the HTTP request payload for RAG queries.
//
// swagger:model AskRequest
type AskRequest struct {
	Question string `json:"question"`
	// Number of entries to retrieve, 3 when omitted, at most 20
	K int `json:"k,omitempty"`
	// Exact-match filters on entry date (YYYY-MM-DD), mood and source type
	Date   string `json:"date,omitempty"`
	Mood   string `json:"mood,omitempty"`
	Source string `json:"source,omitempty"`
}

// AskResponse represents the HTTP response payload for RAG queries.
//
// swagger:model AskResponse
type AskResponse struct {
	// The generated answer
	Answer string `json:"answer"`

	// Entries used as context, best match first
	References []ReferenceResponse `json:"references"`
}

// ReferenceResponse represents a reference in the HTTP response.
//
// swagger:model ReferenceResponse
type ReferenceResponse struct {
	EntryID int64   `json:"entry_id"`
	Date    string  `json:"date"`
	Mood    string  `json:"mood,omitempty"`
	Tags    string  `json:"tags,omitempty"`
	Score   float32 `json:"score"`
}

// ServeHTTP handles HTTP requests for RAG queries.
//
// swagger:route POST /api/ask ask askQuestion
//
// # Ask a question about the journal
//
// Retrieves the entries most similar to the question and answers from them.
//
// responses:
//
//	'200':
//	  description: Answer with references
//	  schema:
//	    "$ref": "#/definitions/AskResponse"
//	'400':
//	  description: Missing question
//	'502':
//	  description: Model server or vector store unavailable
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ragResp, err := h.asker.Ask(ctx, rag.AskRequest{
		Question: req.Question,
		K:        req.K,
		Filters: rag.Filters{
			Date:   req.Date,
			Mood:   req.Mood,
			Source: req.Source,
		},
	})
	if err != nil {
		if errors.Is(err, rag.ErrEmptyQuestion) {
			writeError(w, http.StatusBadRequest, "Question is required")
			return
		}
		logger.ErrorContext(ctx, "RAG engine error", "error", err)
		writeError(w, http.StatusBadGateway, "External service error")
		return
	}

	references := make([]ReferenceResponse, len(ragResp.References))
	for i, ref := range ragResp.References {
		references[i] = ReferenceResponse{
			EntryID: ref.EntryID,
			Date:    ref.Date,
			Mood:    ref.Mood,
			Tags:    ref.Tags,
			Score:   ref.Score,
		}
	}

	writeJSON(ctx, w, http.StatusOK, AskResponse{
		Answer:     ragResp.Answer,
		References: references,
	})
}

// ReflectHandler handles HTTP requests for entry reflections.
type ReflectHandler struct {
	asker Asker
}

// NewReflectHandler creates a new ReflectHandler.
func NewReflectHandler(asker Asker) *ReflectHandler {
	return &ReflectHandler{asker: asker}
}

// ReflectRequest represents the HTTP request payload for reflections.
//
// swagger:model ReflectRequest
type ReflectRequest struct {
	EntryID int64 `json:"entry_id"`
}

// ReflectResponse represents the HTTP response payload for reflections.
//
// swagger:model ReflectResponse
type ReflectResponse struct {
	EntryID    int64  `json:"entry_id"`
	Reflection string `json:"reflection"`
}

// ServeHTTP handles HTTP requests for reflections.
//
// swagger:route POST /api/reflect reflect reflectOnEntry
//
// # Reflect on a stored entry
//
// responses:
//
//	'200':
//	  schema:
//	    "$ref": "#/definitions/ReflectResponse"
//	'404':
//	  description: Entry not found
func (h *ReflectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req ReflectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.EntryID <= 0 {
		writeError(w, http.StatusBadRequest, "entry_id is required")
		return
	}

	resp, err := h.asker.Reflect(ctx, req.EntryID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Entry not found")
			return
		}
		logger.ErrorContext(ctx, "reflection failed", "entry_id", req.EntryID, "error", err)
		writeError(w, http.StatusBadGateway, "External service error")
		return
	}

	writeJSON(ctx, w, http.StatusOK, ReflectResponse{EntryID: resp.EntryID, Reflection: resp.Reflection})
}
