package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"dreamweaver-ai/internal/handlers/mocks"
	"dreamweaver-ai/internal/ingest"
	"dreamweaver-ai/internal/metrics"
	"dreamweaver-ai/internal/service"
	"dreamweaver-ai/internal/storage"
	vsmocks "dreamweaver-ai/internal/vectorstore/mocks"
)

type stubEntries struct{}

func (stubEntries) Create(context.Context, service.CreateEntryRequest) (ingest.Outcome, error) {
	return ingest.Outcome{}, &service.ValidationError{Field: "text", Message: "cannot be empty"}
}
func (stubEntries) List(context.Context) ([]storage.JournalEntry, error) { return nil, nil }
func (stubEntries) Get(context.Context, int64) (*storage.JournalEntry, error) {
	return nil, service.ErrNotFound
}
func (stubEntries) ListByDate(context.Context, string) ([]storage.JournalEntry, error) {
	return nil, nil
}
func (stubEntries) Tags(context.Context) ([]string, error) { return []string{}, nil }
func (stubEntries) FilterByTag(context.Context, string) ([]storage.JournalEntry, error) {
	return nil, service.ErrNotFound
}
func (stubEntries) Insights(context.Context) (service.Insights, error) {
	return service.ComputeInsights(nil), nil
}
func (stubEntries) Reset(context.Context) error { return nil }

type stubImporter struct{}

func (stubImporter) Import(context.Context, string) (*ingest.Report, error) {
	return &ingest.Report{}, nil
}

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	ctrl := gomock.NewController(t)
	vectors := vsmocks.NewMockVectorStore(ctrl)
	vectors.EXPECT().CollectionExists(gomock.Any(), "journal").Return(true, nil).AnyTimes()

	return NewRouter(&Deps{
		Entries:     stubEntries{},
		Asker:       mocks.NewMockAsker(ctrl),
		Importer:    stubImporter{},
		UploadDir:   t.TempDir(),
		DB:          okPinger{},
		VectorStore: vectors,
		Collection:  "journal",
		Metrics:     metrics.New(),
	})
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{name: "health", method: http.MethodGet, path: "/api/health", wantStatus: http.StatusOK},
		{name: "metrics", method: http.MethodGet, path: "/metrics", wantStatus: http.StatusOK},
		{name: "list entries", method: http.MethodGet, path: "/api/entries", wantStatus: http.StatusOK},
		{name: "get entry", method: http.MethodGet, path: "/api/entries/7", wantStatus: http.StatusNotFound},
		{name: "create entry", method: http.MethodPost, path: "/api/entries", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "tags", method: http.MethodGet, path: "/api/tags", wantStatus: http.StatusOK},
		{name: "insights", method: http.MethodGet, path: "/api/insights", wantStatus: http.StatusOK},
		{name: "reset", method: http.MethodPost, path: "/api/reset", wantStatus: http.StatusOK},
		// Bad request due to invalid body, but the route exists
		{name: "ask", method: http.MethodPost, path: "/api/ask", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "reflect", method: http.MethodPost, path: "/api/reflect", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "upload without file", method: http.MethodPost, path: "/api/upload", wantStatus: http.StatusBadRequest},
		{name: "wrong method", method: http.MethodGet, path: "/api/ask", wantStatus: http.StatusMethodNotAllowed},
		{name: "unknown route", method: http.MethodGet, path: "/api/unknown", wantStatus: http.StatusNotFound},
		{name: "preflight", method: http.MethodOptions, path: "/api/ask", wantStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("%s %s status = %v, want %v", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_MetricsExposeIngestCounters(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if !strings.Contains(w.Body.String(), "dreamweaver_") {
		t.Errorf("/metrics body does not contain dreamweaver metrics:\n%s", w.Body.String())
	}
}
