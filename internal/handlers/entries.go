package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"dreamweaver-ai/internal/contextutil"
	"dreamweaver-ai/internal/ingest"
	"dreamweaver-ai/internal/service"
	"dreamweaver-ai/internal/storage"
)

// EntryService is the entry browsing and maintenance API consumed by the handlers.
type EntryService interface {
	Create(ctx context.Context, req service.CreateEntryRequest) (ingest.Outcome, error)
	List(ctx context.Context) ([]storage.JournalEntry, error)
	Get(ctx context.Context, id int64) (*storage.JournalEntry, error)
	ListByDate(ctx context.Context, date string) ([]storage.JournalEntry, error)
	Tags(ctx context.Context) ([]string, error)
	FilterByTag(ctx context.Context, tag string) ([]storage.JournalEntry, error)
	Insights(ctx context.Context) (service.Insights, error)
	Reset(ctx context.Context) error
}

// EntryResponse is the JSON form of a journal entry.
//
// swagger:model EntryResponse
type EntryResponse struct {
	ID         int64  `json:"id"`
	Date       string `json:"date"`
	Text       string `json:"text"`
	SourceType string `json:"source_type"`
	Tags       string `json:"tags"`
	MoodLabel  string `json:"mood_label"`
}

func toEntryResponse(e storage.JournalEntry) EntryResponse {
	return EntryResponse{
		ID:         e.ID,
		Date:       e.DateString(),
		Text:       e.Text,
		SourceType: string(e.SourceType),
		Tags:       e.Tags,
		MoodLabel:  e.MoodLabel,
	}
}

func toEntryResponses(entries []storage.JournalEntry) []EntryResponse {
	out := make([]EntryResponse, len(entries))
	for i, e := range entries {
		out[i] = toEntryResponse(e)
	}
	return out
}

// CreateEntryRequest represents the HTTP request payload for a new entry.
//
// swagger:model CreateEntryRequest
type CreateEntryRequest struct {
	Text string `json:"text"`
	// YYYY-MM-DD
	Date       string `json:"date"`
	Tags       string `json:"tags,omitempty"`
	MoodLabel  string `json:"mood_label,omitempty"`
	SourceType string `json:"source_type,omitempty"`
}

// CreateEntryResponse reports whether an entry was stored.
//
// swagger:model CreateEntryResponse
type CreateEntryResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	EntryID   int64  `json:"entry_id,omitempty"`
	Tags      string `json:"tags,omitempty"`
	MoodLabel string `json:"mood_label,omitempty"`
}

// EntriesHandler serves the entry endpoints.
type EntriesHandler struct {
	entries EntryService
}

// NewEntriesHandler creates a new EntriesHandler.
func NewEntriesHandler(entries EntryService) *EntriesHandler {
	return &EntriesHandler{entries: entries}
}

// Create handles POST /api/entries.
// A duplicate is answered with 409 and the existing entry's id.
func (h *EntriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	outcome, err := h.entries.Create(ctx, service.CreateEntryRequest{
		Text:   req.Text,
		Date:   req.Date,
		Tags:   req.Tags,
		Mood:   req.MoodLabel,
		Source: req.SourceType,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to create entry")
		return
	}

	if outcome.Status == ingest.StatusDuplicate {
		writeJSON(ctx, w, http.StatusConflict, CreateEntryResponse{
			Message: "Duplicate entry already exists for " + outcome.Date + ".",
			EntryID: outcome.EntryID,
		})
		return
	}

	writeJSON(ctx, w, http.StatusCreated, CreateEntryResponse{
		Success:   true,
		Message:   "Entry created successfully.",
		EntryID:   outcome.EntryID,
		Tags:      outcome.Tags,
		MoodLabel: outcome.Mood,
	})
}

// List handles GET /api/entries, optionally narrowed by ?tag= or ?date=.
func (h *EntriesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	var (
		entries []storage.JournalEntry
		err     error
	)
	switch {
	case strings.TrimSpace(query.Get("tag")) != "":
		entries, err = h.entries.FilterByTag(ctx, query.Get("tag"))
	case strings.TrimSpace(query.Get("date")) != "":
		entries, err = h.entries.ListByDate(ctx, query.Get("date"))
	default:
		entries, err = h.entries.List(ctx)
	}
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list entries")
		return
	}

	writeJSON(ctx, w, http.StatusOK, toEntryResponses(entries))
}

// Get handles GET /api/entries/{id}.
func (h *EntriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid entry id")
		return
	}

	entry, err := h.entries.Get(ctx, id)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to get entry")
		return
	}

	writeJSON(ctx, w, http.StatusOK, toEntryResponse(*entry))
}

// Tags handles GET /api/tags.
func (h *EntriesHandler) Tags(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tags, err := h.entries.Tags(ctx)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list tags")
		return
	}

	writeJSON(ctx, w, http.StatusOK, tags)
}

// Insights handles GET /api/insights.
func (h *EntriesHandler) Insights(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	insights, err := h.entries.Insights(ctx)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to compute insights")
		return
	}

	writeJSON(ctx, w, http.StatusOK, insights)
}

// MessageResponse carries a human-readable result.
//
// swagger:model MessageResponse
type MessageResponse struct {
	Message string `json:"message"`
}

// Reset handles POST /api/reset. It empties both stores.
func (h *EntriesHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.entries.Reset(ctx); err != nil {
		handleServiceError(w, ctx, err, "Reset failed")
		return
	}

	writeJSON(ctx, w, http.StatusOK, MessageResponse{Message: "All data reset (SQLite & Qdrant)."})
}
