package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"dreamweaver-ai/internal/connectivity"
	"dreamweaver-ai/internal/handlers"
	"dreamweaver-ai/internal/metrics"
	"dreamweaver-ai/internal/vectorstore"
)

// ServiceName names the server in traces.
const ServiceName = "dreamweaver-api"

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Entries     handlers.EntryService
	Asker       handlers.Asker
	Importer    handlers.Importer
	UploadDir   string
	DB          handlers.Pinger
	VectorStore vectorstore.VectorStore
	Collection  string
	Probe       connectivity.Checker // optional
	Metrics     *metrics.Metrics     // optional, serves /metrics when set
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	entries := handlers.NewEntriesHandler(deps.Entries)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/upload", handlers.NewUploadHandler(deps.Importer, deps.UploadDir))

		r.Post("/entries", entries.Create)
		r.Get("/entries", entries.List)
		r.Get("/entries/{id}", entries.Get)
		r.Get("/tags", entries.Tags)
		r.Get("/insights", entries.Insights)
		r.Post("/reset", entries.Reset)

		r.Method(http.MethodPost, "/ask", handlers.NewAskHandler(deps.Asker))
		r.Method(http.MethodPost, "/reflect", handlers.NewReflectHandler(deps.Asker))

		r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.DB, deps.VectorStore, deps.Probe, deps.Collection))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	return otelhttp.NewHandler(r, ServiceName)
}
