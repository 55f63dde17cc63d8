package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/kestrel-systems/respool/internal/wsrelay"
)

// Router dispatches admin HTTP requests: health checks, the dashboard
// websocket, the embedded dashboard page, and the JSON stats snapshot.
type Router struct {
	logger        *slog.Logger
	healthHandler *HealthHandler
	wsHandler     *wsrelay.Handler
	dashboard     *DashboardHandler
	poolStats     PoolStatter
}

// NewRouter creates a new admin request router.
func NewRouter(p PoolStatter, wsManager *wsrelay.Manager, logger *slog.Logger) *Router {
	return &Router{
		logger:        logger,
		healthHandler: NewHealthHandler(p),
		wsHandler:     wsrelay.NewHandler(wsManager, logger),
		dashboard:     NewDashboardHandler(),
		poolStats:     p,
	}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	switch req.URL.Path {
	case "/health", "/healthz", "/ready", "/readyz":
		r.healthHandler.ServeHTTP(w, req)
		return
	case "/ws":
		r.wsHandler.ServeHTTP(w, req)
		return
	case "/stats":
		r.serveStats(w)
		return
	case "/", "/index.html":
		r.dashboard.ServeHTTP(w, req)
		return
	}

	http.NotFound(w, req)
}

func (r *Router) serveStats(w http.ResponseWriter) {
	stats := r.poolStats.Stats()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
