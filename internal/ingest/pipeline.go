// Package ingest turns uploaded files into stored journal entries.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"dreamweaver-ai/internal/connectivity"
	"dreamweaver-ai/internal/contextutil"
	"dreamweaver-ai/internal/enrich"
	"dreamweaver-ai/internal/llm"
	"dreamweaver-ai/internal/media"
	"dreamweaver-ai/internal/metrics"
	"dreamweaver-ai/internal/storage"
	"dreamweaver-ai/internal/vectorstore"
)

var tracer = otel.Tracer("dreamweaver-ai/internal/ingest")

// Tagger produces comma-separated tags for cleaned text.
type Tagger interface {
	Generate(ctx context.Context, text string) (string, error)
}

// MoodDetector labels cleaned text with a single mood word. It never fails.
type MoodDetector interface {
	Detect(ctx context.Context, text string) string
}

// Config holds the pipeline settings taken from the application config.
type Config struct {
	Collection string
	VectorSize int
	// Workers above 1 processes the records of one JSON file concurrently.
	Workers int
	// MediaRequiresNetwork rejects audio and image files while the probe reports offline.
	MediaRequiresNetwork bool
}

// Pipeline orchestrates ingestion of files into SQLite and Qdrant.
type Pipeline struct {
	sessions    storage.SessionProvider
	normalizer  *Normalizer
	tagger      Tagger
	mood        MoodDetector
	embedder    llm.Embedder
	vectors     vectorstore.VectorStore
	cfg         Config
	transcriber media.Transcriber
	ocr         media.TextExtractor
	probe       connectivity.Checker
	metrics     *metrics.Metrics
	pool        *ants.Pool
	persistMu   sync.Mutex
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTranscriber sets the backend used for audio files.
func WithTranscriber(t media.Transcriber) Option {
	return func(p *Pipeline) { p.transcriber = t }
}

// WithTextExtractor sets the backend used for image files.
func WithTextExtractor(e media.TextExtractor) Option {
	return func(p *Pipeline) { p.ocr = e }
}

// WithProbe sets the connectivity check run at the start of every import.
func WithProbe(c connectivity.Checker) Option {
	return func(p *Pipeline) { p.probe = c }
}

// WithMetrics sets the collectors updated per unit and per import.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithLogger sets the logger used when the context carries none.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	sessions storage.SessionProvider,
	normalizer *Normalizer,
	tagger Tagger,
	mood MoodDetector,
	embedder llm.Embedder,
	vectors vectorstore.VectorStore,
	cfg Config,
	opts ...Option,
) (*Pipeline, error) {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	p := &Pipeline{
		sessions:   sessions,
		normalizer: normalizer,
		tagger:     tagger,
		mood:       mood,
		embedder:   embedder,
		vectors:    vectors,
		cfg:        cfg,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if cfg.Workers > 1 {
		pool, err := ants.NewPool(cfg.Workers)
		if err != nil {
			return nil, fmt.Errorf("failed to create worker pool: %w", err)
		}
		p.pool = pool
	}
	return p, nil
}

// Release stops the worker pool, if any.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// loggerFor extracts logger from context or returns the pipeline logger.
func (p *Pipeline) loggerFor(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(contextutil.LoggerKey()).(*slog.Logger); ok {
		return l
	}
	return p.logger
}

// unit is one piece of content awaiting normalization.
type unit struct {
	index  int
	source storage.SourceType
	record Record // set for JSON records
	raw    string // set for text, audio and image files
	err    error  // extraction failure
}

// Import ingests one file and reports the outcome of every unit in it.
// Bad units are reported and skipped. Unsupported extensions, unreadable files, malformed
// JSON, offline media and store outages fail the whole call; units processed before a
// store outage keep their outcomes in the returned report.
func (p *Pipeline) Import(ctx context.Context, path string) (*Report, error) {
	kind, err := KindOf(path)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "ingest.Import", trace.WithAttributes(
		attribute.String("file", filepath.Base(path)),
		attribute.String("kind", string(kind)),
	))
	defer span.End()

	timer := p.metrics.ImportTimer(string(kind))
	defer timer.ObserveDuration()

	logger := p.loggerFor(ctx).With("file", filepath.Base(path), "source", string(kind))
	ctx = contextutil.WithLogger(ctx, logger)

	report := &Report{File: path, Kind: kind, Outcomes: []Outcome{}}

	if p.probe != nil {
		online := p.probe.Online(ctx)
		report.Online = &online
		if !online && kind.NeedsNetwork() && p.cfg.MediaRequiresNetwork {
			return report, spanError(span, fmt.Errorf("%w: cannot process %s file", ErrOffline, kind))
		}
	}

	units, err := p.loadUnits(ctx, path, kind)
	if err != nil {
		return report, spanError(span, err)
	}

	if err := p.vectors.EnsureCollection(ctx, p.cfg.Collection, p.cfg.VectorSize); err != nil {
		return report, spanError(span, fmt.Errorf("%w: failed to ensure collection: %w", ErrStoreUnavailable, err))
	}

	session, err := p.sessions.Session(ctx)
	if err != nil {
		return report, spanError(span, fmt.Errorf("%w: %w", ErrStoreUnavailable, err))
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.WarnContext(ctx, "failed to release connection", "error", err)
		}
	}()

	logger.InfoContext(ctx, "starting import", "units", len(units))

	outcomes, err := p.processUnits(ctx, session, units)
	report.Outcomes = outcomes

	logger.InfoContext(ctx, "import finished",
		"units", len(units),
		"imported", report.Count(StatusImported),
		"duplicates", report.Count(StatusDuplicate),
		"skipped", report.Count(StatusSkipped),
		"failed", report.Count(StatusFailed),
		"diverged", report.Count(StatusDiverged),
	)

	if err != nil {
		return report, spanError(span, err)
	}
	return report, nil
}

// loadUnits reads the file and extracts its content units.
func (p *Pipeline) loadUnits(ctx context.Context, path string, kind Kind) ([]unit, error) {
	switch kind {
	case KindJSON:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnreadableFile, err)
		}
		records, err := ParseRecords(data)
		if err != nil {
			return nil, err
		}
		units := make([]unit, len(records))
		for i, rec := range records {
			units[i] = unit{index: i, source: storage.SourceText, record: rec}
		}
		return units, nil

	case KindText:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnreadableFile, err)
		}
		return []unit{{source: storage.SourceText, raw: string(data)}}, nil

	case KindAudio, KindImage:
		if err := checkReadable(path); err != nil {
			return nil, err
		}
		raw, err := p.extract(ctx, path, kind)
		return []unit{{source: kind.SourceType(), raw: raw, err: err}}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedExtension, kind)
}

// extract runs transcription or OCR. Failures belong to the unit, not the import.
func (p *Pipeline) extract(ctx context.Context, path string, kind Kind) (text string, err error) {
	ctx, span := tracer.Start(ctx, "ingest.extract", trace.WithAttributes(attribute.String("kind", string(kind))))
	defer func() {
		spanError(span, err)
		span.End()
	}()

	switch kind {
	case KindAudio:
		if p.transcriber == nil {
			return "", errors.New("no transcriber configured")
		}
		text, err = p.transcriber.Transcribe(ctx, path)
		if err != nil {
			return "", fmt.Errorf("failed to transcribe audio: %w", err)
		}
	case KindImage:
		if p.ocr == nil {
			return "", errors.New("no text extractor configured")
		}
		text, err = p.ocr.ExtractText(ctx, path)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from image: %w", err)
		}
	}
	return text, nil
}

func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnreadableFile, err)
	}
	_ = f.Close()
	return nil
}

// processUnits runs every unit in order, or on the worker pool when one is configured.
// The first store outage stops the remaining units.
func (p *Pipeline) processUnits(ctx context.Context, store storage.EntryStore, units []unit) ([]Outcome, error) {
	if p.pool == nil || len(units) < 2 {
		outcomes := make([]Outcome, 0, len(units))
		for _, u := range units {
			if err := ctx.Err(); err != nil {
				return outcomes, err
			}
			outcome, err := p.processUnit(ctx, store, u)
			outcomes = append(outcomes, outcome)
			if err != nil {
				return outcomes, err
			}
		}
		return outcomes, nil
	}
	return p.processConcurrently(ctx, store, units)
}

func (p *Pipeline) processConcurrently(ctx context.Context, store storage.EntryStore, units []unit) ([]Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg    sync.WaitGroup
		once  sync.Once
		fatal error
	)
	outcomes := make([]Outcome, len(units))

	for i, u := range units {
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				outcomes[i] = Outcome{Index: u.index, Status: StatusFailed, Error: err.Error()}
				return
			}
			outcome, err := p.processUnit(ctx, store, u)
			outcomes[i] = outcome
			if err != nil {
				once.Do(func() {
					fatal = err
					cancel()
				})
			}
		})
		if err != nil {
			wg.Done()
			outcomes[i] = Outcome{Index: u.index, Status: StatusFailed, Error: err.Error()}
		}
	}
	wg.Wait()
	return outcomes, fatal
}

// processUnit takes one unit through normalize, tag, mood, duplicate check, embed,
// relational insert and vector upsert. Only store outages are returned as errors.
func (p *Pipeline) processUnit(ctx context.Context, store storage.EntryStore, u unit) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "ingest.unit", trace.WithAttributes(attribute.Int("unit", u.index)))
	defer span.End()

	logger := p.loggerFor(ctx).With("unit", u.index)
	ctx = contextutil.WithLogger(ctx, logger)

	outcome := Outcome{Index: u.index}
	finish := func(status Status, err error) Outcome {
		outcome.Status = status
		if err != nil {
			outcome.Error = err.Error()
		}
		p.metrics.UnitProcessed(string(u.source), string(status))
		return outcome
	}

	if u.err != nil {
		logger.WarnContext(ctx, "unit failed", "stage", "extract", "error", u.err)
		spanError(span, u.err)
		return finish(StatusFailed, u.err), nil
	}

	norm, err := p.normalize(ctx, u)
	if err != nil {
		if errors.Is(err, ErrBlankInput) || errors.Is(err, ErrEmptyCleanup) {
			logger.InfoContext(ctx, "unit skipped", "reason", err)
			return finish(StatusSkipped, err), nil
		}
		logger.WarnContext(ctx, "unit failed", "stage", "normalize", "error", err)
		spanError(span, err)
		return finish(StatusFailed, err), nil
	}

	tags, mood := p.annotate(ctx, norm.Text)

	entry := &storage.JournalEntry{
		Date:       norm.Date,
		Text:       norm.Text,
		SourceType: norm.Source,
		Tags:       tags,
		MoodLabel:  mood,
	}
	outcome.Date = entry.DateString()
	outcome.Tags = tags
	outcome.Mood = mood

	status, err := p.persist(ctx, store, entry)
	outcome.EntryID = entry.ID
	switch status {
	case StatusImported:
		logger.InfoContext(ctx, "imported entry", "entry_id", entry.ID, "date", outcome.Date, "tags", tags, "mood", mood)
	case StatusDuplicate:
		logger.InfoContext(ctx, "duplicate entry", "entry_id", entry.ID, "date", outcome.Date)
	}
	if err != nil {
		spanError(span, err)
		if errors.Is(err, ErrStoreUnavailable) {
			return finish(status, err), err
		}
		logger.WarnContext(ctx, "unit failed", "stage", "persist", "error", err)
	}
	return finish(status, err), nil
}

func (p *Pipeline) normalize(ctx context.Context, u unit) (Normalized, error) {
	ctx, span := tracer.Start(ctx, "ingest.normalize")
	defer span.End()

	var (
		norm Normalized
		err  error
	)
	if u.record != nil {
		norm, err = p.normalizer.NormalizeRecord(ctx, u.record)
	} else {
		norm, err = p.normalizer.NormalizeRaw(ctx, u.raw, u.source)
	}
	if err == nil && strings.TrimSpace(norm.Text) == "" {
		err = ErrEmptyCleanup
	}
	return norm, spanError(span, err)
}

// annotate derives tags and mood. A tagging failure leaves the entry untagged.
func (p *Pipeline) annotate(ctx context.Context, text string) (tags, mood string) {
	ctx, span := tracer.Start(ctx, "ingest.annotate")
	defer span.End()

	tags, err := p.tagger.Generate(ctx, text)
	if err != nil {
		p.loggerFor(ctx).WarnContext(ctx, "tag generation failed, storing without tags", "error", err)
		tags = ""
	}
	return tags, p.mood.Detect(ctx, text)
}

// persist applies the duplicate guard and writes the entry to both stores.
// Errors wrapping ErrStoreUnavailable mean no further writes should be attempted.
func (p *Pipeline) persist(ctx context.Context, store storage.EntryStore, entry *storage.JournalEntry) (status Status, err error) {
	ctx, span := tracer.Start(ctx, "ingest.persist")
	defer func() {
		span.SetAttributes(attribute.String("status", string(status)))
		spanError(span, err)
		span.End()
	}()

	p.persistMu.Lock()
	defer p.persistMu.Unlock()

	existing, err := store.FindByTextAndDate(ctx, entry.Text, entry.Date)
	switch {
	case err == nil:
		entry.ID = existing.ID
		return StatusDuplicate, nil
	case !errors.Is(err, storage.ErrNotFound):
		return StatusFailed, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	vector, err := p.embedder.Embed(ctx, entry.Text)
	if err != nil {
		return StatusFailed, fmt.Errorf("failed to embed entry: %w", err)
	}

	if err := store.Insert(ctx, entry); err != nil {
		return StatusFailed, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if err := p.vectors.Upsert(ctx, p.cfg.Collection, []vectorstore.Point{BuildPoint(entry, vector)}); err != nil {
		p.metrics.DivergenceInc()
		p.loggerFor(ctx).ErrorContext(ctx, "entry stored without vector", "entry_id", entry.ID, "error", err)
		return StatusDiverged, fmt.Errorf("%w: failed to upsert vector for entry %d: %w", ErrStoreUnavailable, entry.ID, err)
	}
	return StatusImported, nil
}

// Candidate is an entry created directly rather than imported from a file.
type Candidate struct {
	Date   time.Time
	Text   string
	Tags   string             // generated when blank
	Mood   string             // enrich.DefaultMood when blank
	Source storage.SourceType // storage.SourceText when blank
}

// AddEntry stores a directly created entry in both stores.
// Caller-supplied tags go through the same normalization as generated ones.
// A duplicate is reported through the outcome, not as an error. Tag generation
// failures are returned to the caller.
func (p *Pipeline) AddEntry(ctx context.Context, c Candidate) (Outcome, error) {
	text := strings.TrimSpace(c.Text)
	if text == "" {
		return Outcome{}, ErrBlankInput
	}

	ctx, span := tracer.Start(ctx, "ingest.AddEntry")
	defer span.End()

	tags := enrich.JoinTags(enrich.NormalizeTags(c.Tags))
	if tags == "" {
		generated, err := p.tagger.Generate(ctx, text)
		if err != nil {
			return Outcome{}, spanError(span, fmt.Errorf("failed to generate tags: %w", err))
		}
		tags = generated
	}

	mood := strings.ToLower(strings.TrimSpace(c.Mood))
	if mood == "" {
		mood = enrich.DefaultMood
	}
	source := c.Source
	if source == "" {
		source = storage.SourceText
	}

	entry := &storage.JournalEntry{
		Date:       storage.TruncateDate(c.Date),
		Text:       text,
		SourceType: source,
		Tags:       tags,
		MoodLabel:  mood,
	}
	outcome := Outcome{Date: entry.DateString(), Tags: tags, Mood: mood}

	if err := p.vectors.EnsureCollection(ctx, p.cfg.Collection, p.cfg.VectorSize); err != nil {
		return outcome, spanError(span, fmt.Errorf("%w: failed to ensure collection: %w", ErrStoreUnavailable, err))
	}

	session, err := p.sessions.Session(ctx)
	if err != nil {
		return outcome, spanError(span, fmt.Errorf("%w: %w", ErrStoreUnavailable, err))
	}
	defer func() {
		_ = session.Close()
	}()

	status, err := p.persist(ctx, session, entry)
	outcome.Status = status
	outcome.EntryID = entry.ID
	p.metrics.UnitProcessed(string(source), string(status))
	if err != nil {
		outcome.Error = err.Error()
		return outcome, spanError(span, err)
	}

	p.loggerFor(ctx).InfoContext(ctx, "entry added", "entry_id", entry.ID, "status", status)
	return outcome, nil
}

// spanError records err on span and returns it unchanged.
func spanError(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
