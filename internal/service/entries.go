package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_entry_creator.go -package=mocks dreamweaver-ai/internal/service EntryCreator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/samber/lo"

	"dreamweaver-ai/internal/contextutil"
	"dreamweaver-ai/internal/ingest"
	"dreamweaver-ai/internal/storage"
	"dreamweaver-ai/internal/vectorstore"
)

// EntryCreator stores directly created entries in both stores.
type EntryCreator interface {
	AddEntry(ctx context.Context, c ingest.Candidate) (ingest.Outcome, error)
}

// EntryRepository is the relational store as seen by the service layer.
type EntryRepository interface {
	storage.EntryStore
	// Reset empties the store and restarts identifiers.
	Reset(ctx context.Context) error
}

// CreateEntryRequest represents a direct entry submission.
type CreateEntryRequest struct {
	Text   string `validate:"required"`
	Date   string `validate:"required"` // YYYY-MM-DD
	Tags   string // generated when blank
	Mood   string // "reflective" when blank
	Source string // "text" when blank
}

// EntryService provides journal entry browsing, creation and maintenance.
type EntryService struct {
	entries    EntryRepository
	creator    EntryCreator
	vectors    vectorstore.VectorStore
	collection string
	vectorSize int
	logger     *slog.Logger
}

// NewEntryService creates a new EntryService.
// collection and vectorSize identify the vector index recreated by Reset.
func NewEntryService(entries EntryRepository, creator EntryCreator, vectors vectorstore.VectorStore, collection string, vectorSize int) *EntryService {
	return &EntryService{
		entries:    entries,
		creator:    creator,
		vectors:    vectors,
		collection: collection,
		vectorSize: vectorSize,
		logger:     slog.Default(),
	}
}

func (s *EntryService) getLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(contextutil.LoggerKey()).(*slog.Logger); ok {
		return l
	}
	return s.logger
}

// Create validates and stores a new entry. Duplicates are reported through the
// returned outcome's status rather than as an error.
func (s *EntryService) Create(ctx context.Context, req CreateEntryRequest) (ingest.Outcome, error) {
	logger := s.getLogger(ctx)

	if strings.TrimSpace(req.Text) == "" {
		return ingest.Outcome{}, &ValidationError{Field: "text", Message: "cannot be empty"}
	}
	date, err := storage.ParseDate(req.Date)
	if err != nil {
		return ingest.Outcome{}, &ValidationError{Field: "date", Message: "invalid date format, use YYYY-MM-DD"}
	}
	source := storage.SourceType(strings.ToLower(strings.TrimSpace(req.Source)))
	if source != "" && !source.Valid() {
		return ingest.Outcome{}, &ValidationError{Field: "source_type", Message: "must be text, audio or image"}
	}

	outcome, err := s.creator.AddEntry(ctx, ingest.Candidate{
		Date:   date,
		Text:   req.Text,
		Tags:   req.Tags,
		Mood:   req.Mood,
		Source: source,
	})
	if err != nil {
		if errors.Is(err, ingest.ErrBlankInput) {
			return outcome, &ValidationError{Field: "text", Message: "cannot be empty"}
		}
		logger.ErrorContext(ctx, "failed to create entry", "error", err)
		return outcome, fmt.Errorf("%w: %w", ErrExternalService, err)
	}

	logger.InfoContext(ctx, "entry created", "entry_id", outcome.EntryID, "status", outcome.Status)
	return outcome, nil
}

// List returns every entry ordered by date.
func (s *EntryService) List(ctx context.Context) ([]storage.JournalEntry, error) {
	entries, err := s.entries.ListAll(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to list entries")
	}
	return entries, nil
}

// Get returns one entry. Returns ErrNotFound when it does not exist.
func (s *EntryService) Get(ctx context.Context, id int64) (*storage.JournalEntry, error) {
	entry, err := s.entries.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("entry %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, WrapError(err, "failed to get entry")
	}
	return entry, nil
}

// ListByDate returns the entries attributed to a YYYY-MM-DD day.
func (s *EntryService) ListByDate(ctx context.Context, date string) ([]storage.JournalEntry, error) {
	day, err := storage.ParseDate(date)
	if err != nil {
		return nil, &ValidationError{Field: "date", Message: "invalid date format, use YYYY-MM-DD"}
	}
	entries, err := s.entries.ListByDate(ctx, day)
	if err != nil {
		return nil, WrapError(err, "failed to list entries by date")
	}
	return entries, nil
}

// Tags returns every distinct tag, lower-cased and sorted.
func (s *EntryService) Tags(ctx context.Context) ([]string, error) {
	entries, err := s.entries.ListAll(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to list entries")
	}

	var all []string
	for _, entry := range entries {
		all = append(all, lo.Map(entry.TagList(), func(t string, _ int) string {
			return strings.ToLower(t)
		})...)
	}
	tags := lo.Uniq(all)
	slices.Sort(tags)
	return tags, nil
}

// FilterByTag returns the entries carrying tag, compared case-insensitively.
// Returns ErrNotFound when no entry matches.
func (s *EntryService) FilterByTag(ctx context.Context, tag string) ([]storage.JournalEntry, error) {
	if strings.TrimSpace(tag) == "" {
		return nil, &ValidationError{Field: "tag", Message: "cannot be empty"}
	}
	entries, err := s.entries.ListAll(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to list entries")
	}

	matching := lo.Filter(entries, func(e storage.JournalEntry, _ int) bool {
		return e.HasTag(tag)
	})
	if len(matching) == 0 {
		return nil, fmt.Errorf("no entries found with tag %q: %w", tag, ErrNotFound)
	}
	return matching, nil
}

// Reset empties the relational store and recreates the vector collection.
// Both stores are reset even if the first fails; the errors are joined.
func (s *EntryService) Reset(ctx context.Context) error {
	logger := s.getLogger(ctx)

	var errs []error
	if err := s.entries.Reset(ctx); err != nil {
		logger.ErrorContext(ctx, "relational reset failed", "error", err)
		errs = append(errs, fmt.Errorf("relational reset failed: %w", err))
	}
	if err := s.vectors.Reset(ctx, s.collection, s.vectorSize); err != nil {
		logger.ErrorContext(ctx, "vector reset failed", "error", err)
		errs = append(errs, fmt.Errorf("%w: vector reset failed: %w", ErrExternalService, err))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	logger.WarnContext(ctx, "all journal data reset", "collection", s.collection)
	return nil
}
