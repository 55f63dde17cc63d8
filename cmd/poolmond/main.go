package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kestrel-systems/respool/internal/admin"
	"github.com/kestrel-systems/respool/internal/config"
	"github.com/kestrel-systems/respool/internal/tcpmanager"
	"github.com/kestrel-systems/respool/internal/wsrelay"
	"github.com/kestrel-systems/respool/pool"
)

var version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve", "start":
		serve()
	case "version":
		fmt.Printf("poolmond v%s\n", version)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func serve() {
	cfgPath := "poolmond.yaml"
	if len(os.Args) > 2 {
		cfgPath = os.Args[2]
	}

	logger, startupCloser := setupLogger("info", "json", "stdout")
	if startupCloser != nil {
		defer startupCloser.Close()
	}
	logger.Info("poolmond starting", "version", version)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "path", cfgPath, "error", err)
		os.Exit(1)
	}

	if startupCloser != nil {
		_ = startupCloser.Close()
		startupCloser = nil
	}
	logger, logCloser := setupLogger(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if logCloser != nil {
		defer logCloser.Close()
	}

	wsManager := wsrelay.NewManager(logger)
	metrics := admin.NewMetrics(nil)

	p, err := newPool(cfg, wsManager, metrics, logger)
	if err != nil {
		logger.Error("failed to start pool", "error", err)
		os.Exit(1)
	}

	srv := admin.New(cfg, p, wsManager, metrics, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	dump := make(chan os.Signal, 1)
	signal.Notify(dump, syscall.SIGUSR1)
	go func() {
		for range dump {
			stats := p.Stats()
			logger.Info("pool stats dump",
				"pool_size", stats.PoolSize,
				"live_count", stats.LiveCount,
				"ready_count", stats.ReadyCount,
				"scheduler_depth", stats.SchedulerDepth,
				"dashboards", wsManager.Stats().TotalConnections,
			)
		}
	}()

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("admin server error", "error", err)
			quit <- syscall.SIGTERM
		}
	}()

	logger.Info("poolmond ready", "address", cfg.Server.Address, "pool_size", cfg.Pool.PoolSize, "target", cfg.Demo.Target)

	<-quit
	logger.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		logger.Error("admin server shutdown error", "error", err)
	}

	if err := p.Close(); err != nil {
		logger.Error("pool shutdown error", "error", err)
	}

	logger.Info("poolmond stopped")
}

// newPool builds the demo pool.Pool wired to a tcpmanager.Manager, with
// lifecycle events fanned out to the Prometheus counters, the dashboard's
// live event feed, and a debug-level log line.
func newPool(cfg *config.Config, wsManager *wsrelay.Manager, metrics *admin.Metrics, logger *slog.Logger) (*pool.Pool[*tcpmanager.Conn], error) {
	manager := tcpmanager.New(cfg.Demo.Target, cfg.Demo.DialTimeout.Duration(), logger)
	sink := pool.LoggingErrorSink{Logger: logger}

	poolCfg := pool.Config{
		PoolSize:       cfg.Pool.PoolSize,
		HelperThreads:  cfg.Pool.HelperThreads,
		TestOnCheckOut: cfg.Pool.TestOnCheckOut,
	}

	broadcaster := admin.NewEventBroadcaster(wsManager, logger)
	debugLog := pool.ObserverFunc(func(e pool.Event) {
		logger.Debug("pool event", "kind", e.Kind, "live_count", e.LiveCount)
	})

	p, err := pool.New[*tcpmanager.Conn](poolCfg, manager, sink,
		pool.WithObserver[*tcpmanager.Conn](pool.NewMultiObserver(metrics, broadcaster, debugLog)),
	)
	if err != nil {
		return nil, fmt.Errorf("constructing pool: %w", err)
	}

	return p, nil
}

func setupLogger(level, format, output string) (*slog.Logger, io.Closer) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	writer, closer := resolveLogOutput(output)
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(writer, opts)
	} else {
		handler = slog.NewJSONHandler(writer, opts)
	}

	return slog.New(handler), closer
}

func resolveLogOutput(output string) (io.Writer, io.Closer) {
	switch output {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return os.Stdout, nil
		}
		return f, f
	}
}

func printUsage() {
	fmt.Println(`poolmond - generic bounded connection pool with an admin/demo server

Usage:
  poolmond <command> [options]

Commands:
  serve [config]   Start the server (default config: poolmond.yaml)
  start [config]   Alias for serve
  version          Show version
  help             Show this help

Signals:
  SIGUSR1          Dump current pool stats to the log
  SIGINT/SIGTERM   Graceful shutdown

Examples:
  poolmond serve
  poolmond serve /etc/poolmond/poolmond.yaml
  poolmond version
  kill -USR1 $(pidof poolmond)   # Dump pool stats`)
}
