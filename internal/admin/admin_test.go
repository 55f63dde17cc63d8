package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kestrel-systems/respool/pool"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type fakePoolStats struct {
	stats pool.Stats
}

func (f fakePoolStats) Stats() pool.Stats { return f.stats }

func TestCoreMiddlewareSetsRequestID(t *testing.T) {
	handler := CoreMiddleware(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}
}

func TestCoreMiddlewareRecoversPanic(t *testing.T) {
	handler := CoreMiddleware(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 after recovered panic, got %d", w.Code)
	}
}

func TestCompressionMiddlewareCompressesEligibleResponse(t *testing.T) {
	body := strings.Repeat("<p>paragraph</p>\n", 200)
	handler := CompressionMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(body))
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Error("expected gzip content-encoding for large html response")
	}
}

func TestHealthLiveness(t *testing.T) {
	h := NewHealthHandler(fakePoolStats{})
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestHealthReadinessReflectsLiveCount(t *testing.T) {
	h := NewHealthHandler(fakePoolStats{stats: pool.Stats{PoolSize: 4, LiveCount: 0}})
	req := httptest.NewRequest("GET", "/ready", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when live_count is 0, got %d", w.Code)
	}

	h2 := NewHealthHandler(fakePoolStats{stats: pool.Stats{PoolSize: 4, LiveCount: 2}})
	w2 := httptest.NewRecorder()
	h2.ServeHTTP(w2, httptest.NewRequest("GET", "/readyz", nil))
	if w2.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when live_count is below pool_size, got %d", w2.Code)
	}

	h3 := NewHealthHandler(fakePoolStats{stats: pool.Stats{PoolSize: 4, LiveCount: 4}})
	w3 := httptest.NewRecorder()
	h3.ServeHTTP(w3, httptest.NewRequest("GET", "/readyz", nil))
	if w3.Code != http.StatusOK {
		t.Errorf("expected 200 when live_count == pool_size, got %d", w3.Code)
	}
}

func TestMetricsObserveCountsEvents(t *testing.T) {
	m := NewMetrics(fakePoolStats{stats: pool.Stats{PoolSize: 2, LiveCount: 2}})
	m.Observe(pool.Event{Kind: pool.EventCheckout, LiveCount: 2})
	m.Observe(pool.Event{Kind: pool.EventCheckout, LiveCount: 2})

	w := httptest.NewRecorder()
	m.serveMetrics(w)

	body := w.Body.String()
	if !strings.Contains(body, `respool_pool_events_total{kind="checkout"} 2`) {
		t.Errorf("expected checkout event count of 2 in metrics output, got:\n%s", body)
	}
}

func TestMetricsMiddlewareServesMetricsPath(t *testing.T) {
	m := NewMetrics(fakePoolStats{stats: pool.Stats{PoolSize: 1, LiveCount: 1}})
	handler := m.Middleware("/metrics")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("inner handler should not be called for the metrics path")
	}))

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "respool_pool_size") {
		t.Error("expected pool_size gauge in metrics output")
	}
}

func TestDashboardHandlerServesEmbeddedPage(t *testing.T) {
	h := NewDashboardHandler()
	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "respool") {
		t.Error("expected dashboard HTML to mention respool")
	}
}
