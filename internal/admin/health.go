package admin

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/kestrel-systems/respool/pool"
)

var startTime = time.Now()

// HealthHandler serves liveness and readiness endpoints for the demo pool.
type HealthHandler struct {
	pool PoolStatter
}

// PoolStatter is the subset of *pool.Pool[C] the admin server needs; kept
// as an interface so health/metrics code isn't parameterized by C.
type PoolStatter interface {
	Stats() pool.Stats
}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler(p PoolStatter) *HealthHandler {
	return &HealthHandler{pool: p}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/ready", "/readyz":
		h.readiness(w)
	default:
		h.liveness(w)
	}
}

func (h *HealthHandler) liveness(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(startTime).String(),
	})
}

// readiness reports not-ready until the pool has reached its configured
// steady-state size: LiveCount stays below PoolSize while any Connect
// attempts are still outstanding, and after a failed Connect, which the
// pool does not retry.
func (h *HealthHandler) readiness(w http.ResponseWriter) {
	stats := h.pool.Stats()

	ready := stats.LiveCount >= stats.PoolSize && stats.PoolSize > 0
	status := http.StatusOK
	statusStr := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		statusStr = "not_ready"
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":         statusStr,
		"uptime":         time.Since(startTime).String(),
		"uptime_seconds": time.Since(startTime).Seconds(),
		"pool": map[string]interface{}{
			"pool_size":       stats.PoolSize,
			"live_count":      stats.LiveCount,
			"ready_count":     stats.ReadyCount,
			"scheduler_depth": stats.SchedulerDepth,
		},
		"memory": map[string]interface{}{
			"alloc_mb":  mem.Alloc / 1024 / 1024,
			"sys_mb":    mem.Sys / 1024 / 1024,
			"gc_cycles": mem.NumGC,
		},
		"go_version": runtime.Version(),
		"goroutines": runtime.NumGoroutine(),
	})
}
