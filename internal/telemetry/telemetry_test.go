package telemetry

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mohammad-safakhou/briefer/config"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDisabledMetricsAreNoops(t *testing.T) {
	m := New(config.TelemetryConfig{})
	if m != nil {
		t.Fatalf("expected nil metrics when disabled")
	}
	m.Item("news", StageFetched)
	m.ToolCall("crawl_news", nil)
	m.ObserveRun("news", time.Second)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCountersAndHandler(t *testing.T) {
	m := New(config.TelemetryConfig{Enabled: true})
	m.Item("news", StageFetched)
	m.Items("news", StageFetched, 2)
	m.ToolCall("crawl_blog", errors.New("x"))
	m.Briefing(nil)

	if got := testutil.ToFloat64(m.items.WithLabelValues("news", StageFetched)); got != 3 {
		t.Fatalf("items = %v", got)
	}
	if got := testutil.ToFloat64(m.toolCalls.WithLabelValues("crawl_blog", "error")); got != 1 {
		t.Fatalf("tool calls = %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "briefer_briefings_total") {
		t.Fatalf("metrics output missing counter:\n%s", rec.Body.String())
	}
}
