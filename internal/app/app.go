// Package app wires configuration into the stores, model clients and services
// shared by the API server and the CLI.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"dreamweaver-ai/internal/config"
	"dreamweaver-ai/internal/connectivity"
	"dreamweaver-ai/internal/enrich"
	apihttp "dreamweaver-ai/internal/http"
	"dreamweaver-ai/internal/ingest"
	"dreamweaver-ai/internal/llm"
	"dreamweaver-ai/internal/media"
	"dreamweaver-ai/internal/metrics"
	"dreamweaver-ai/internal/rag"
	"dreamweaver-ai/internal/service"
	"dreamweaver-ai/internal/storage"
	"dreamweaver-ai/internal/vectorstore"
)

// App holds the wired components.
type App struct {
	Config   *config.Config
	DB       *sql.DB
	Entries  *storage.EntryRepo
	Vectors  vectorstore.VectorStore
	Embedder llm.Embedder
	Probe    connectivity.Checker
	Metrics  *metrics.Metrics
	Pipeline *ingest.Pipeline
	Engine   *rag.Engine
	Service  *service.EntryService

	closers []io.Closer
}

// Option customizes New.
type Option func(*options)

type options struct {
	vectors vectorstore.VectorStore
	metrics *metrics.Metrics
	probe   connectivity.Checker
}

// WithVectorStore uses vs instead of dialing QDRANT_URL.
func WithVectorStore(vs vectorstore.VectorStore) Option {
	return func(o *options) {
		o.vectors = vs
	}
}

// WithMetrics records metrics into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithProbe replaces the connectivity probe built from PROBE_URL.
func WithProbe(c connectivity.Checker) Option {
	return func(o *options) {
		o.probe = c
	}
}

// New opens the database, runs migrations and builds every component from cfg.
// Close releases what New acquired.
func New(cfg *config.Config, opts ...Option) (a *App, err error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a = &App{Config: cfg, Metrics: o.metrics}
	defer func() {
		if err != nil {
			_ = a.Close()
			a = nil
		}
	}()

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, db)

	if err := storage.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)
	a.Entries = storage.NewEntryRepo(db)

	a.Vectors = o.vectors
	if a.Vectors == nil {
		qdrantStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
		}
		a.Vectors = qdrantStore
		a.closers = append(a.closers, qdrantStore)
	}

	llmOpts := llm.Options{
		Throttle: llm.NewThrottle(cfg.LLMRateLimit, cfg.LLMTimeout),
		Metrics:  a.Metrics,
	}
	generator, err := llm.NewGenerator(cfg, llmOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	a.Embedder = llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize, llmOpts)

	a.Probe = o.probe
	if a.Probe == nil {
		a.Probe = connectivity.NewProbe(cfg.ProbeURL, cfg.ProbeTimeout)
	}

	a.Pipeline, err = ingest.NewPipeline(
		a.Entries,
		ingest.NewNormalizer(generator, cfg.CleanMaxTokens),
		enrich.NewTagGenerator(generator),
		enrich.NewMoodLabeler(generator),
		a.Embedder,
		a.Vectors,
		ingest.Config{
			Collection:           cfg.QdrantCollection,
			VectorSize:           cfg.QdrantVectorSize,
			Workers:              cfg.IngestWorkers,
			MediaRequiresNetwork: cfg.MediaRequiresNetwork,
		},
		ingest.WithTranscriber(media.NewWhisperTranscriber(cfg.TranscriptionBaseURL, cfg.LLMAPIKey, cfg.TranscriptionModel, llmOpts)),
		ingest.WithTextExtractor(media.NewVisionOCR(cfg.OCRBaseURL, cfg.LLMAPIKey, cfg.OCRModel, llmOpts)),
		ingest.WithProbe(a.Probe),
		ingest.WithMetrics(a.Metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}

	a.Engine = rag.NewEngine(a.Embedder, a.Vectors, cfg.QdrantCollection, a.Entries, generator)
	a.Service = service.NewEntryService(a.Entries, a.Pipeline, a.Vectors, cfg.QdrantCollection, cfg.QdrantVectorSize)

	slog.Debug("LLM configuration", "provider", cfg.LLMProvider, "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	return a, nil
}

// ValidateEmbedder embeds a probe string and checks the vector size against the collection.
func (a *App) ValidateEmbedder(ctx context.Context) error {
	vec, err := a.Embedder.Embed(ctx, "test")
	if err != nil {
		return fmt.Errorf("failed to validate embedding client: %w", err)
	}
	if len(vec) != a.Config.QdrantVectorSize {
		return fmt.Errorf("embedding vector size mismatch: expected %d, got %d", a.Config.QdrantVectorSize, len(vec))
	}
	return nil
}

// Router builds the HTTP API over the wired components.
func (a *App) Router() http.Handler {
	return apihttp.NewRouter(&apihttp.Deps{
		Entries:     a.Service,
		Asker:       a.Engine,
		Importer:    a.Pipeline,
		UploadDir:   a.Config.UploadDir,
		DB:          a.DB,
		VectorStore: a.Vectors,
		Collection:  a.Config.QdrantCollection,
		Probe:       a.Probe,
		Metrics:     a.Metrics,
	})
}

// Close releases the worker pool, the vector store client and the database.
func (a *App) Close() error {
	if a.Pipeline != nil {
		a.Pipeline.Release()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
