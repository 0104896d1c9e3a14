package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"dreamweaver-ai/internal/connectivity"
	"dreamweaver-ai/internal/enrich"
	"dreamweaver-ai/internal/storage"
	"dreamweaver-ai/internal/vectorstore"
	"dreamweaver-ai/internal/vectorstore/mocks"
)

const testCollection = "journal"

type fakeEmbedder struct {
	err error
}

func (f fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeMedia struct {
	text string
	err  error
}

func (f fakeMedia) Transcribe(context.Context, string) (string, error)  { return f.text, f.err }
func (f fakeMedia) ExtractText(context.Context, string) (string, error) { return f.text, f.err }

type harness struct {
	t        *testing.T
	dir      string
	llm      *recordingLLM
	embedder fakeEmbedder
	repo     *storage.EntryRepo
	vectors  *mocks.MockVectorStore

	mu     sync.Mutex
	points []vectorstore.Point
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()

	db, err := storage.New(filepath.Join(dir, "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	require.NoError(t, storage.Migrate(db))

	vectors := mocks.NewMockVectorStore(gomock.NewController(t))
	vectors.EXPECT().EnsureCollection(gomock.Any(), testCollection, 3).Return(nil).AnyTimes()

	return &harness{
		t:       t,
		dir:     dir,
		llm:     &recordingLLM{tags: "happy, grateful", mood: "joy"},
		repo:    storage.NewEntryRepo(db),
		vectors: vectors,
	}
}

func (h *harness) pipeline(cfg Config, opts ...Option) *Pipeline {
	h.t.Helper()
	cfg.Collection = testCollection
	cfg.VectorSize = 3
	p, err := NewPipeline(
		h.repo,
		newTestNormalizer(h.llm, 0),
		enrich.NewTagGenerator(h.llm),
		enrich.NewMoodLabeler(h.llm),
		h.embedder,
		h.vectors,
		cfg,
		opts...,
	)
	require.NoError(h.t, err)
	h.t.Cleanup(p.Release)
	return p
}

func (h *harness) acceptUpserts() {
	h.vectors.EXPECT().Upsert(gomock.Any(), testCollection, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, points []vectorstore.Point) error {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.points = append(h.points, points...)
			return nil
		}).AnyTimes()
}

func (h *harness) file(name, content string) string {
	h.t.Helper()
	path := filepath.Join(h.dir, name)
	require.NoError(h.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (h *harness) entries() []storage.JournalEntry {
	h.t.Helper()
	entries, err := h.repo.ListAll(context.Background())
	require.NoError(h.t, err)
	return entries
}

func TestImport_WellFormedRecord(t *testing.T) {
	h := newHarness(t)
	h.acceptUpserts()
	p := h.pipeline(Config{})

	report, err := p.Import(context.Background(), h.file("entries.json", `[{"date":"2024-03-01","text":"Felt great today"}]`))
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, StatusImported, report.Outcomes[0].Status)

	entries := h.entries()
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, "2024-03-01", entry.DateString())
	assert.Equal(t, "Felt great today", entry.Text)
	assert.True(t, entry.HasTag("happy"))
	assert.True(t, entry.HasTag("grateful"))
	assert.Equal(t, "joy", entry.MoodLabel)
	assert.Equal(t, storage.SourceText, entry.SourceType)

	require.Len(t, h.points, 1)
	meta := h.points[0].Meta
	assert.Equal(t, "2024-03-01", meta[PayloadDate])
	assert.Equal(t, "Felt great today", meta[PayloadText])
	assert.Equal(t, "joy", meta[PayloadMood])
	assert.Equal(t, entry.Tags, meta[PayloadTags])
	assert.Equal(t, entry.ID, meta[PayloadEntryID])
	assert.NotEmpty(t, h.points[0].ID)

	assert.Empty(t, h.llm.promptsWithPrefix("Clean this journal entry"), "well-formed records are stored verbatim")
}

func TestImport_DuplicateSuppressed(t *testing.T) {
	h := newHarness(t)
	h.acceptUpserts()
	p := h.pipeline(Config{})
	path := h.file("entries.json", `[{"date":"2024-03-01","text":"Same words"},{"date":"2024-03-01","text":"Same words"}]`)

	first, err := p.Import(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, first.Outcomes, 2)
	assert.Equal(t, StatusImported, first.Outcomes[0].Status)
	assert.Equal(t, StatusDuplicate, first.Outcomes[1].Status)
	assert.Equal(t, first.Outcomes[0].EntryID, first.Outcomes[1].EntryID)

	second, err := p.Import(context.Background(), path)
	require.NoError(t, err)
	for _, o := range second.Outcomes {
		assert.Equal(t, StatusDuplicate, o.Status)
		assert.Equal(t, first.Outcomes[0].EntryID, o.EntryID)
	}

	assert.Len(t, h.entries(), 1)
	assert.Len(t, h.points, 1)
}

func TestImport_SameTextDifferentDateIsNotDuplicate(t *testing.T) {
	h := newHarness(t)
	h.acceptUpserts()
	p := h.pipeline(Config{})

	report, err := p.Import(context.Background(), h.file("entries.json",
		`[{"date":"2024-03-01","text":"Ran 5k"},{"date":"2024-03-02","text":"Ran 5k"}]`))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Count(StatusImported))
	assert.Len(t, h.entries(), 2)
}

func TestImport_RecordMissingDateIsCleaned(t *testing.T) {
	h := newHarness(t)
	h.acceptUpserts()
	p := h.pipeline(Config{})

	report, err := p.Import(context.Background(), h.file("entries.json", `[{"text":"no date here"}]`))
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, StatusImported, report.Outcomes[0].Status)
	assert.Equal(t, today, report.Outcomes[0].Date)

	recordPrompts := h.llm.promptsWithPrefix("Clean this journal entry and add context if needed.")
	require.Len(t, recordPrompts, 1)
	assert.Contains(t, recordPrompts[0], `{"text":"no date here"}`)
	assert.Empty(t, h.llm.promptsWithPrefix("Clean this journal entry and output a readable reflection"))

	entries := h.entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "A cleaned reflection.", entries[0].Text)
	assert.Equal(t, today, entries[0].DateString())
}

func TestImport_MalformedDateFallsBackToToday(t *testing.T) {
	h := newHarness(t)
	h.acceptUpserts()
	p := h.pipeline(Config{})

	_, err := p.Import(context.Background(), h.file("entries.json", `[{"date":"03/01/2024","text":"Odd date"}]`))
	require.NoError(t, err)

	entries := h.entries()
	require.Len(t, entries, 1)
	assert.Equal(t, today, entries[0].DateString())
	assert.Equal(t, "Odd date", entries[0].Text)
}

func TestImport_BlankTextFile(t *testing.T) {
	h := newHarness(t)
	p := h.pipeline(Config{})

	report, err := p.Import(context.Background(), h.file("blank.txt", "  \n\t \n"))
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, StatusSkipped, report.Outcomes[0].Status)
	assert.Empty(t, h.entries())
	assert.Empty(t, h.llm.prompts)
}

func TestImport_TextFile(t *testing.T) {
	h := newHarness(t)
	h.acceptUpserts()
	h.llm.clean = func(string) (string, error) { return "**Today** I finally rested.", nil }
	p := h.pipeline(Config{})

	report, err := p.Import(context.Background(), h.file("notes.TXT", "today rested finally"))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported())

	entries := h.entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Today I finally rested.", entries[0].Text)
	assert.Equal(t, today, entries[0].DateString())
	assert.Equal(t, storage.SourceText, entries[0].SourceType)
	assert.Equal(t, "text", h.points[0].Meta[PayloadSource])
}

func TestImport_EnrichmentFailuresDegrade(t *testing.T) {
	h := newHarness(t)
	h.acceptUpserts()
	h.llm.tagErr = errors.New("tagger offline")
	h.llm.mood = "I cannot tell"
	p := h.pipeline(Config{})

	report, err := p.Import(context.Background(), h.file("entries.json", `[{"date":"2024-05-05","text":"Quiet day"}]`))
	require.NoError(t, err)
	assert.Equal(t, StatusImported, report.Outcomes[0].Status)

	entries := h.entries()
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Tags)
	assert.Equal(t, enrich.FallbackMood, entries[0].MoodLabel)
}

func TestImport_UnitFailuresDoNotAbortFile(t *testing.T) {
	h := newHarness(t)
	h.acceptUpserts()
	h.llm.clean = func(prompt string) (string, error) {
		if strings.Contains(prompt, "broken") {
			return "", errors.New("model crashed")
		}
		return "Recovered entry.", nil
	}
	p := h.pipeline(Config{})

	report, err := p.Import(context.Background(), h.file("entries.json",
		`[{"text":"broken"},{"date":"2024-01-01","text":"Fine entry"},{"text":"fixable"}]`))
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 3)
	assert.Equal(t, StatusFailed, report.Outcomes[0].Status)
	assert.Contains(t, report.Outcomes[0].Error, "model crashed")
	assert.Equal(t, StatusImported, report.Outcomes[1].Status)
	assert.Equal(t, StatusImported, report.Outcomes[2].Status)
	assert.Len(t, h.entries(), 2)
}

func TestImport_EmbeddingFailureStoresNothing(t *testing.T) {
	h := newHarness(t)
	h.embedder = fakeEmbedder{err: errors.New("embedder down")}
	p := h.pipeline(Config{})

	report, err := p.Import(context.Background(), h.file("entries.json", `[{"date":"2024-01-01","text":"Lost"}]`))
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, report.Outcomes[0].Status)
	assert.Empty(t, h.entries())
}

func TestImport_VectorOutageStopsImport(t *testing.T) {
	h := newHarness(t)
	h.vectors.EXPECT().Upsert(gomock.Any(), testCollection, gomock.Any()).
		Return(errors.New("qdrant unreachable")).Times(1)
	p := h.pipeline(Config{})

	report, err := p.Import(context.Background(), h.file("entries.json",
		`[{"date":"2024-01-01","text":"First"},{"date":"2024-01-02","text":"Second"}]`))
	require.ErrorIs(t, err, ErrStoreUnavailable)
	require.NotNil(t, report)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, StatusDiverged, report.Outcomes[0].Status)
	assert.NotZero(t, report.Outcomes[0].EntryID)

	entries := h.entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "First", entries[0].Text)
}

func TestImport_EnsureCollectionFailure(t *testing.T) {
	h := newHarness(t)
	vectors := mocks.NewMockVectorStore(gomock.NewController(t))
	vectors.EXPECT().EnsureCollection(gomock.Any(), testCollection, 3).Return(errors.New("refused"))
	h.vectors = vectors
	p := h.pipeline(Config{})

	_, err := p.Import(context.Background(), h.file("entries.json", `[{"date":"2024-01-01","text":"x"}]`))
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Empty(t, h.entries())
}

func TestImport_InputErrors(t *testing.T) {
	h := newHarness(t)
	p := h.pipeline(Config{})

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "unsupported extension", path: h.file("report.pdf", "x"), wantErr: ErrUnsupportedExtension},
		{name: "missing file", path: filepath.Join(h.dir, "missing.json"), wantErr: ErrUnreadableFile},
		{name: "missing audio", path: filepath.Join(h.dir, "missing.mp3"), wantErr: ErrUnreadableFile},
		{name: "malformed json", path: h.file("bad.json", `{"date":"2024-01-01"}`), wantErr: ErrMalformedJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Import(context.Background(), tt.path)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, h.llm.prompts)
}

func TestImport_Media(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		media      fakeMedia
		wantStatus Status
		wantSource storage.SourceType
	}{
		{name: "audio", file: "memo.wav", media: fakeMedia{text: "went for a run"}, wantStatus: StatusImported, wantSource: storage.SourceAudio},
		{name: "image", file: "page.png", media: fakeMedia{text: "dear diary"}, wantStatus: StatusImported, wantSource: storage.SourceImage},
		{name: "silent audio", file: "silence.mp3", media: fakeMedia{text: "   "}, wantStatus: StatusSkipped},
		{name: "ocr failure", file: "blurry.jpg", media: fakeMedia{err: errors.New("unreadable image")}, wantStatus: StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.acceptUpserts()
			p := h.pipeline(Config{}, WithTranscriber(tt.media), WithTextExtractor(tt.media))

			report, err := p.Import(context.Background(), h.file(tt.file, "binary"))
			require.NoError(t, err)
			require.Len(t, report.Outcomes, 1)
			assert.Equal(t, tt.wantStatus, report.Outcomes[0].Status)

			entries := h.entries()
			if tt.wantStatus != StatusImported {
				assert.Empty(t, entries)
				return
			}
			require.Len(t, entries, 1)
			assert.Equal(t, tt.wantSource, entries[0].SourceType)
			assert.Equal(t, today, entries[0].DateString())
		})
	}
}

func TestImport_Connectivity(t *testing.T) {
	h := newHarness(t)
	h.acceptUpserts()
	offline := h.pipeline(Config{MediaRequiresNetwork: true},
		WithProbe(connectivity.Static(false)),
		WithTranscriber(fakeMedia{text: "memo"}))

	report, err := offline.Import(context.Background(), h.file("memo.m4a", "binary"))
	require.ErrorIs(t, err, ErrOffline)
	require.NotNil(t, report.Online)
	assert.False(t, *report.Online)

	report, err = offline.Import(context.Background(), h.file("entries.json", `[{"date":"2024-01-01","text":"Offline is fine"}]`))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(StatusImported))

	lenient := h.pipeline(Config{MediaRequiresNetwork: false},
		WithProbe(connectivity.Static(false)),
		WithTranscriber(fakeMedia{text: "memo"}))
	report, err = lenient.Import(context.Background(), h.file("memo2.m4a", "binary"))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(StatusImported))
}

func TestImport_WorkerPool(t *testing.T) {
	h := newHarness(t)
	h.acceptUpserts()
	p := h.pipeline(Config{Workers: 4})

	var records []string
	for i := 0; i < 12; i++ {
		records = append(records, fmt.Sprintf(`{"date":"2024-02-%02d","text":"Entry %d"}`, i%3+1, i))
	}
	records = append(records, `{"date":"2024-02-01","text":"Entry 0"}`)
	path := h.file("many.json", "["+strings.Join(records, ",")+"]")

	report, err := p.Import(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 13)
	for i, o := range report.Outcomes {
		assert.Equal(t, i, o.Index)
	}
	assert.Equal(t, 12, report.Count(StatusImported))
	assert.Equal(t, 1, report.Count(StatusDuplicate))
	assert.Len(t, h.entries(), 12)
	assert.Len(t, h.points, 12)
}

func TestAddEntry(t *testing.T) {
	h := newHarness(t)
	h.acceptUpserts()
	p := h.pipeline(Config{})
	date := fixedNow

	outcome, err := p.AddEntry(context.Background(), Candidate{Date: date, Text: "  Long day at work ", Tags: "work, WORK ,  family"})
	require.NoError(t, err)
	assert.Equal(t, StatusImported, outcome.Status)
	assert.Equal(t, "Work, Family", outcome.Tags)
	assert.Equal(t, enrich.DefaultMood, outcome.Mood)
	assert.Equal(t, today, outcome.Date)

	again, err := p.AddEntry(context.Background(), Candidate{Date: date, Text: "Long day at work"})
	require.NoError(t, err)
	assert.Equal(t, StatusDuplicate, again.Status)
	assert.Equal(t, outcome.EntryID, again.EntryID)

	generated, err := p.AddEntry(context.Background(), Candidate{Date: date, Text: "Beach trip", Mood: "Excited"})
	require.NoError(t, err)
	assert.Equal(t, "Happy, Grateful", generated.Tags)
	assert.Equal(t, "excited", generated.Mood)

	assert.Len(t, h.entries(), 2)
	assert.Len(t, h.points, 2)
}

func TestAddEntry_Errors(t *testing.T) {
	h := newHarness(t)
	h.llm.tagErr = errors.New("tagger offline")
	p := h.pipeline(Config{})

	_, err := p.AddEntry(context.Background(), Candidate{Date: fixedNow, Text: "  "})
	assert.ErrorIs(t, err, ErrBlankInput)

	_, err = p.AddEntry(context.Background(), Candidate{Date: fixedNow, Text: "Needs tags"})
	var genErr *enrich.GenerationError
	assert.ErrorAs(t, err, &genErr)
	assert.Empty(t, h.entries())
}
