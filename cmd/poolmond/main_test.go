package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveLogOutputStdout(t *testing.T) {
	w, c := resolveLogOutput("stdout")
	if w != os.Stdout {
		t.Fatalf("expected stdout writer")
	}
	if c != nil {
		t.Fatalf("expected nil closer for stdout")
	}
}

func TestResolveLogOutputStderr(t *testing.T) {
	w, c := resolveLogOutput("stderr")
	if w != os.Stderr {
		t.Fatalf("expected stderr writer")
	}
	if c != nil {
		t.Fatalf("expected nil closer for stderr")
	}
}

func TestResolveLogOutputFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "poolmond.log")

	w, c := resolveLogOutput(logPath)
	if w == nil {
		t.Fatalf("expected writer for file output")
	}
	if c == nil {
		t.Fatalf("expected closer for file output")
	}
	defer c.Close()

	f, ok := w.(*os.File)
	if !ok {
		t.Fatalf("expected *os.File writer, got %T", w)
	}

	_, err := io.WriteString(f, "test log\n")
	if err != nil {
		t.Fatalf("write log file: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if string(data) == "" {
		t.Fatalf("expected log file content")
	}
}

func TestSetupLoggerLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "unknown"} {
		logger, closer := setupLogger(level, "json", "stdout")
		if logger == nil {
			t.Fatalf("setupLogger(%q): expected non-nil logger", level)
		}
		if closer != nil {
			t.Fatalf("setupLogger(%q): expected nil closer for stdout", level)
		}
	}
}

func TestNewPoolConstructsAgainstUnreachableTarget(t *testing.T) {
	cfg := testConfig(t)

	wsManager := newTestWSManager()
	metrics := newTestMetrics()

	p, err := newPool(cfg, wsManager, metrics, testLogger())
	if err != nil {
		t.Fatalf("newPool: %v", err)
	}
	defer p.Close()

	stats := p.Stats()
	if stats.PoolSize != cfg.Pool.PoolSize {
		t.Errorf("expected pool size %d, got %d", cfg.Pool.PoolSize, stats.PoolSize)
	}
}
