package admin

import (
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kestrel-systems/respool/pool"
)

// Metrics collects Prometheus-compatible metrics for the admin HTTP surface
// and doubles as a pool.Observer, counting lifecycle events as they occur.
type Metrics struct {
	totalRequests  sync.Map // "method:status" -> *atomic.Int64
	activeRequests atomic.Int32
	totalBytes     atomic.Int64

	durationBuckets []float64
	durationCounts  sync.Map // bucket key -> *atomic.Int64
	durationSum     atomic.Int64
	durationCount   atomic.Int64

	eventCounts sync.Map // pool.EventKind.String() -> *atomic.Int64

	pool PoolStatter
}

// NewMetrics creates a new metrics collector bound to p. p may be nil if
// the pool doesn't exist yet (e.g. Metrics is being attached as a
// pool.Observer before pool.New returns); set it later with SetPool.
func NewMetrics(p PoolStatter) *Metrics {
	return &Metrics{
		pool:            p,
		durationBuckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
	}
}

// SetPool attaches the pool whose stats /metrics should report, for callers
// that construct Metrics before the pool they'll observe exists.
func (m *Metrics) SetPool(p PoolStatter) {
	m.pool = p
}

// Observe implements pool.Observer, counting each lifecycle event by kind.
func (m *Metrics) Observe(e pool.Event) {
	c, _ := m.eventCounts.LoadOrStore(e.Kind.String(), &atomic.Int64{})
	c.(*atomic.Int64).Add(1)
}

// Middleware returns a middleware that records request metrics and serves
// the metrics endpoint at metricsPath.
func (m *Metrics) Middleware(metricsPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == metricsPath {
				m.serveMetrics(w)
				return
			}

			start := time.Now()
			m.activeRequests.Add(1)
			defer m.activeRequests.Add(-1)

			rw := &metricsResponseWriter{ResponseWriter: w, statusCode: 200}
			next.ServeHTTP(rw, r)

			duration := time.Since(start)

			key := fmt.Sprintf("%s:%d", r.Method, rw.statusCode)
			counter, _ := m.totalRequests.LoadOrStore(key, &atomic.Int64{})
			counter.(*atomic.Int64).Add(1)

			m.totalBytes.Add(int64(rw.bytesWritten))

			m.durationSum.Add(int64(duration))
			m.durationCount.Add(1)
			durationSec := duration.Seconds()
			for _, bucket := range m.durationBuckets {
				if durationSec <= bucket {
					bkey := fmt.Sprintf("%.3f", bucket)
					bc, _ := m.durationCounts.LoadOrStore(bkey, &atomic.Int64{})
					bc.(*atomic.Int64).Add(1)
				}
			}
		})
	}
}

func (m *Metrics) serveMetrics(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	var b strings.Builder

	b.WriteString("# HELP respool_http_requests_total Total number of HTTP requests to the admin server.\n")
	b.WriteString("# TYPE respool_http_requests_total counter\n")
	m.totalRequests.Range(func(key, value interface{}) bool {
		parts := strings.SplitN(key.(string), ":", 2)
		method, status := parts[0], parts[1]
		count := value.(*atomic.Int64).Load()
		fmt.Fprintf(&b, "respool_http_requests_total{method=\"%s\",status=\"%s\"} %d\n", method, status, count)
		return true
	})

	b.WriteString("# HELP respool_http_requests_active Current number of active HTTP requests.\n")
	b.WriteString("# TYPE respool_http_requests_active gauge\n")
	fmt.Fprintf(&b, "respool_http_requests_active %d\n", m.activeRequests.Load())

	b.WriteString("# HELP respool_http_response_bytes_total Total bytes sent in HTTP responses.\n")
	b.WriteString("# TYPE respool_http_response_bytes_total counter\n")
	fmt.Fprintf(&b, "respool_http_response_bytes_total %d\n", m.totalBytes.Load())

	b.WriteString("# HELP respool_http_request_duration_seconds HTTP request duration in seconds.\n")
	b.WriteString("# TYPE respool_http_request_duration_seconds histogram\n")
	cumulative := int64(0)
	totalCount := m.durationCount.Load()
	for _, bucket := range m.durationBuckets {
		bkey := fmt.Sprintf("%.3f", bucket)
		if bc, ok := m.durationCounts.Load(bkey); ok {
			cumulative += bc.(*atomic.Int64).Load()
		}
		fmt.Fprintf(&b, "respool_http_request_duration_seconds_bucket{le=\"%.3f\"} %d\n", bucket, cumulative)
	}
	fmt.Fprintf(&b, "respool_http_request_duration_seconds_bucket{le=\"+Inf\"} %d\n", totalCount)
	fmt.Fprintf(&b, "respool_http_request_duration_seconds_sum %.6f\n", float64(m.durationSum.Load())/float64(time.Second))
	fmt.Fprintf(&b, "respool_http_request_duration_seconds_count %d\n", totalCount)

	if m.pool != nil {
		stats := m.pool.Stats()
		b.WriteString("# HELP respool_pool_size Configured pool size.\n")
		b.WriteString("# TYPE respool_pool_size gauge\n")
		fmt.Fprintf(&b, "respool_pool_size %d\n", stats.PoolSize)

		b.WriteString("# HELP respool_pool_live Live resources currently tracked by the pool.\n")
		b.WriteString("# TYPE respool_pool_live gauge\n")
		fmt.Fprintf(&b, "respool_pool_live %d\n", stats.LiveCount)

		b.WriteString("# HELP respool_pool_ready Idle resources sitting in the ready queue.\n")
		b.WriteString("# TYPE respool_pool_ready gauge\n")
		fmt.Fprintf(&b, "respool_pool_ready %d\n", stats.ReadyCount)

		b.WriteString("# HELP respool_scheduler_depth Pending jobs on the pool's scheduler.\n")
		b.WriteString("# TYPE respool_scheduler_depth gauge\n")
		fmt.Fprintf(&b, "respool_scheduler_depth %d\n", stats.SchedulerDepth)
	}

	b.WriteString("# HELP respool_pool_events_total Pool lifecycle events observed, by kind.\n")
	b.WriteString("# TYPE respool_pool_events_total counter\n")
	m.eventCounts.Range(func(key, value interface{}) bool {
		fmt.Fprintf(&b, "respool_pool_events_total{kind=\"%s\"} %d\n", key.(string), value.(*atomic.Int64).Load())
		return true
	})

	b.WriteString("# HELP respool_go_goroutines Number of goroutines.\n")
	b.WriteString("# TYPE respool_go_goroutines gauge\n")
	fmt.Fprintf(&b, "respool_go_goroutines %d\n", runtime.NumGoroutine())

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	b.WriteString("# HELP respool_go_memstats_alloc_bytes Number of bytes allocated.\n")
	b.WriteString("# TYPE respool_go_memstats_alloc_bytes gauge\n")
	fmt.Fprintf(&b, "respool_go_memstats_alloc_bytes %d\n", mem.Alloc)

	w.Write([]byte(b.String()))
}

type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *metricsResponseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}
