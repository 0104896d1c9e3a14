package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"dreamweaver-ai/internal/app"
	"dreamweaver-ai/internal/config"
	"dreamweaver-ai/internal/logging"
	"dreamweaver-ai/internal/metrics"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API ingests journal files, stores cleaned and tagged entries, and answers
// questions about them with retrieval-augmented generation.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Dreamweaver AI API
//   description: |
//     Journaling assistant API. Upload text, JSON, audio or image journals, browse entries,
//     ask questions and get reflections grounded in what you wrote.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	_, logCloser := logging.Setup(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	defer func() {
		_ = logCloser.Close()
	}()
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat, "file", cfg.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg, app.WithMetrics(metrics.New()))
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer func() {
		_ = a.Close()
	}()

	// Ensure collection exists with correct vector size
	if err := a.Vectors.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	// Validate embedding client vector size (fail-fast)
	if err := a.ValidateEmbedder(ctx); err != nil {
		log.Fatalf("Embedding client check failed: %v", err)
	}
	slog.Info("Embedding client validated", "vector_size", cfg.QdrantVectorSize)

	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("Shutting down API server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("API server shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting API server", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		log.Fatalf("API server failed to start: %v", err)
	}
}
