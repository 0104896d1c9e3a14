package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.UnitProcessed("text", "imported")
	m.UnitProcessed("text", "imported")
	m.UnitProcessed("audio", "failed")
	m.DivergenceInc()
	m.LLMRequest("generate", time.Now(), nil)
	m.LLMRequest("generate", time.Now(), errors.New("boom"))

	if got := testutil.ToFloat64(m.ingestUnits.WithLabelValues("text", "imported")); got != 2 {
		t.Errorf("units{text,imported} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ingestUnits.WithLabelValues("audio", "failed")); got != 1 {
		t.Errorf("units{audio,failed} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.divergence); got != 1 {
		t.Errorf("divergence = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.llmRequests.WithLabelValues("generate", "error")); got != 1 {
		t.Errorf("llm{generate,error} = %v, want 1", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	m.UnitProcessed("text", "imported")
	m.DivergenceInc()
	m.LLMRequest("embed", time.Now(), nil)
	m.ImportTimer("json").ObserveDuration()
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.UnitProcessed("json", "duplicate")
	m.ImportTimer("json").ObserveDuration()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`dreamweaver_ingest_units_total{source="json",status="duplicate"} 1`,
		"dreamweaver_ingest_import_seconds_count",
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
