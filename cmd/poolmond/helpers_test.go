package main

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/kestrel-systems/respool/internal/admin"
	"github.com/kestrel-systems/respool/internal/config"
	"github.com/kestrel-systems/respool/internal/wsrelay"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestWSManager() *wsrelay.Manager {
	return wsrelay.NewManager(testLogger())
}

func newTestMetrics() *admin.Metrics {
	return admin.NewMetrics(nil)
}

// testConfig returns a config pointed at a target that refuses connections
// fast, so pool.New's background Connect attempts fail quickly instead of
// hanging the test.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Pool.PoolSize = 2
	cfg.Pool.HelperThreads = 2
	cfg.Demo.Target = "127.0.0.1:1"
	cfg.Demo.DialTimeout = config.Duration(50 * time.Millisecond)
	return cfg
}
