package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"dreamweaver-ai/internal/connectivity"
	"dreamweaver-ai/internal/contextutil"
	"dreamweaver-ai/internal/vectorstore"
)

// Pinger reports whether the relational store is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	db                 Pinger
	vectorStore        vectorstore.VectorStore
	probe              connectivity.Checker
	collectionName     string
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. probe may be nil.
func NewHealthHandler(db Pinger, vectorStore vectorstore.VectorStore, probe connectivity.Checker, collectionName string) *HealthHandler {
	return &HealthHandler{
		db:                 db,
		vectorStore:        vectorStore,
		probe:              probe,
		collectionName:     collectionName,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy" or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// Returns 200 OK if both stores are reachable, 503 Service Unavailable otherwise.
// Network reachability is reported but does not affect the status.
//
// swagger:route GET /api/health healthCheck
//
// responses:
//
//	'200':
//	  description: System is healthy
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
//	'503':
//	  description: A store is unreachable
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string

	if err := h.db.PingContext(checkCtx); err != nil {
		logger.WarnContext(ctx, "database health check failed", "error", err)
		checks["database"] = "error"
		issues = append(issues, "database_unavailable")
	} else {
		checks["database"] = "ok"
	}

	switch h.checkVectorStore(checkCtx, logger) {
	case vectorOK:
		checks["vector_store"] = "ok"
	case vectorNoCollection:
		// Created on the first import.
		checks["vector_store"] = "ok"
		checks["collection"] = "absent"
	default:
		checks["vector_store"] = "error"
		issues = append(issues, "vector_store_unavailable")
	}

	if h.probe != nil {
		if h.probe.Online(checkCtx) {
			checks["network"] = "online"
		} else {
			checks["network"] = "offline"
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(ctx, w, httpStatus, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	})
}

type vectorState int

const (
	vectorOK vectorState = iota
	vectorNoCollection
	vectorError
)

// checkVectorStore checks if the vector store is accessible.
func (h *HealthHandler) checkVectorStore(ctx context.Context, logger *slog.Logger) vectorState {
	exists, err := h.vectorStore.CollectionExists(ctx, h.collectionName)
	if err != nil {
		logger.WarnContext(ctx, "vector store health check failed", "error", err)
		return vectorError
	}
	if !exists {
		logger.InfoContext(ctx, "vector store collection does not exist yet", "collection", h.collectionName)
		return vectorNoCollection
	}
	return vectorOK
}
