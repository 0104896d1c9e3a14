package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"dreamweaver-ai/internal/ingest"
	"dreamweaver-ai/internal/service"
	"dreamweaver-ai/internal/service/mocks"
	"dreamweaver-ai/internal/storage"
	vsmocks "dreamweaver-ai/internal/vectorstore/mocks"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type harness struct {
	svc     *service.EntryService
	repo    *storage.EntryRepo
	creator *mocks.MockEntryCreator
	vectors *vsmocks.MockVectorStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	require.NoError(t, storage.Migrate(db))

	ctrl := gomock.NewController(t)
	h := &harness{
		repo:    storage.NewEntryRepo(db),
		creator: mocks.NewMockEntryCreator(ctrl),
		vectors: vsmocks.NewMockVectorStore(ctrl),
	}
	h.svc = service.NewEntryService(h.repo, h.creator, h.vectors, "journal", 3)
	return h
}

func (h *harness) seed(t *testing.T, date, text, tags, mood string) *storage.JournalEntry {
	t.Helper()
	day, err := storage.ParseDate(date)
	require.NoError(t, err)
	entry := &storage.JournalEntry{Date: day, Text: text, Tags: tags, MoodLabel: mood}
	require.NoError(t, h.repo.Insert(context.Background(), entry))
	return entry
}

func TestEntryService_Create(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.creator.EXPECT().
		AddEntry(gomock.Any(), ingest.Candidate{
			Date:   time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
			Text:   "Planted tomatoes.",
			Mood:   "Calm",
			Source: storage.SourceText,
		}).
		Return(ingest.Outcome{Status: ingest.StatusImported, EntryID: 7, Tags: "Garden", Mood: "calm"}, nil)

	outcome, err := h.svc.Create(ctx, service.CreateEntryRequest{
		Text:   "Planted tomatoes.",
		Date:   "2024-08-01",
		Mood:   "Calm",
		Source: "Text",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), outcome.EntryID)
	assert.Equal(t, ingest.StatusImported, outcome.Status)
}

func TestEntryService_CreateValidation(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name      string
		req       service.CreateEntryRequest
		wantField string
	}{
		{name: "blank text", req: service.CreateEntryRequest{Text: "  ", Date: "2024-08-01"}, wantField: "text"},
		{name: "missing date", req: service.CreateEntryRequest{Text: "hi"}, wantField: "date"},
		{name: "bad date", req: service.CreateEntryRequest{Text: "hi", Date: "08/01/2024"}, wantField: "date"},
		{name: "bad source", req: service.CreateEntryRequest{Text: "hi", Date: "2024-08-01", Source: "video"}, wantField: "source_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.Create(context.Background(), tt.req)
			var validationErr *service.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.wantField, validationErr.Field)
			assert.ErrorIs(t, err, service.ErrInvalidInput)
		})
	}
}

func TestEntryService_CreateFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := service.CreateEntryRequest{Text: "Rainy day.", Date: "2024-08-02"}

	h.creator.EXPECT().AddEntry(gomock.Any(), gomock.Any()).Return(ingest.Outcome{}, ingest.ErrStoreUnavailable)
	_, err := h.svc.Create(ctx, req)
	assert.ErrorIs(t, err, service.ErrExternalService)
	assert.ErrorIs(t, err, ingest.ErrStoreUnavailable)

	h.creator.EXPECT().AddEntry(gomock.Any(), gomock.Any()).Return(ingest.Outcome{}, ingest.ErrBlankInput)
	_, err = h.svc.Create(ctx, req)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestEntryService_GetAndList(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	second := h.seed(t, "2024-03-02", "Second", "", "")
	first := h.seed(t, "2024-03-01", "First", "", "")

	got, err := h.svc.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "Second", got.Text)

	_, err = h.svc.Get(ctx, 999)
	assert.ErrorIs(t, err, service.ErrNotFound)

	all, err := h.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)

	byDate, err := h.svc.ListByDate(ctx, "2024-03-01")
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, "First", byDate[0].Text)

	_, err = h.svc.ListByDate(ctx, "March 1")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestEntryService_TagsAndFilter(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tags, err := h.svc.Tags(ctx)
	require.NoError(t, err)
	assert.Empty(t, tags)

	h.seed(t, "2024-03-01", "Run", "Running, Health", "")
	h.seed(t, "2024-03-02", "Swim", "health, Water", "")
	h.seed(t, "2024-03-03", "Nothing", "", "")

	tags, err = h.svc.Tags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"health", "running", "water"}, tags)

	matching, err := h.svc.FilterByTag(ctx, "HEALTH")
	require.NoError(t, err)
	assert.Len(t, matching, 2)

	_, err = h.svc.FilterByTag(ctx, "travel")
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = h.svc.FilterByTag(ctx, " ")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestEntryService_Reset(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed(t, "2024-03-01", "one", "", "")
	h.seed(t, "2024-03-02", "two", "", "")

	h.vectors.EXPECT().Reset(gomock.Any(), "journal", 3).Return(nil)
	require.NoError(t, h.svc.Reset(ctx))

	count, err := h.repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	entry := h.seed(t, "2024-03-03", "fresh", "", "")
	assert.Equal(t, int64(1), entry.ID)
}

func TestEntryService_ResetVectorFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed(t, "2024-03-01", "one", "", "")

	boom := errors.New("qdrant down")
	h.vectors.EXPECT().Reset(gomock.Any(), "journal", 3).Return(boom)

	err := h.svc.Reset(ctx)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, service.ErrExternalService)

	count, err := h.repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "relational store is reset even when the vector store fails")
}

func TestEntryService_Insights(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "2024-01-01", "Hello world", "Work", "calm")

	insights, err := h.svc.Insights(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, insights.TotalEntries)
	assert.Equal(t, 2, insights.AverageWordCount)
}
