package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/HowestAILab/AIUPD8-Website/internal/platform/requestctx"
)

func TestParseCloudTraceContext(t *testing.T) {
	info, sc, ok := parseCloudTraceContext("105445aa7843bc8bf206b12000100000/1;o=1")
	if !ok {
		t.Fatalf("expected header to parse")
	}
	if info.TraceID != "105445aa7843bc8bf206b12000100000" {
		t.Errorf("unexpected trace id %s", info.TraceID)
	}
	if info.SpanID != "0000000000000001" {
		t.Errorf("unexpected span id %s", info.SpanID)
	}
	if !info.Sampled || !sc.IsSampled() || !sc.IsRemote() {
		t.Errorf("expected sampled remote span context")
	}

	for _, bad := range []string{"", "abc/1", "105445aa7843bc8bf206b12000100000", "105445aa7843bc8bf206b12000100000/zz"} {
		if _, _, ok := parseCloudTraceContext(bad); ok {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}

func TestParseSpanIDDecimal(t *testing.T) {
	id, ok := parseSpanID("18446744073709551615")
	if !ok || id.String() != "ffffffffffffffff" {
		t.Fatalf("unexpected span id %s %v", id, ok)
	}
}

func TestFormatCloudTraceHeader(t *testing.T) {
	got := formatCloudTraceHeader(requestctx.TraceInfo{TraceID: "a", SpanID: "b", Sampled: true})
	if got != "a/b;o=1" {
		t.Fatalf("unexpected header %q", got)
	}
	if formatCloudTraceHeader(requestctx.TraceInfo{}) != "" {
		t.Fatalf("expected empty header")
	}
}

func TestRequestLoggerRecordsRouteAndMetrics(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	metrics := NewMetrics()

	r := chi.NewRouter()
	r.Use(InjectLoggerMiddleware(zap.New(core)), RequestLoggerMiddleware(metrics))
	r.Get("/tools/{title}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "missing")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tools/ChatGPT", nil))

	entries := logs.FilterMessage("request completed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["route"] != "/tools/{title}" {
		t.Errorf("unexpected route %v", fields["route"])
	}
	if fields["status"] != int64(http.StatusNotFound) {
		t.Errorf("unexpected status %v", fields["status"])
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Errorf("expected warn level, got %s", entries[0].Level)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, `aiupd8_http_requests_total{method="GET",route="/tools/{title}",status="404"} 1`) {
		t.Errorf("request counter missing from scrape:\n%s", body)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	handler := RecoveryMiddleware(zap.New(core), nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if logs.FilterMessage("panic recovered").Len() != 1 {
		t.Fatalf("expected panic to be logged")
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveFetch("tools", "ok", 0)
	m.CacheLookup("tools", true)
	m.Translation("ok")
	m.FavoriteToggled("general", true)
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}
