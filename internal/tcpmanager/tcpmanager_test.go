package tcpmanager

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startEchoListener(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go io.Copy(io.Discard, c)
		}
	}()

	return ln.Addr().String()
}

func TestConnectDialsTarget(t *testing.T) {
	addr := startEchoListener(t)
	m := New(addr, time.Second, testLogger())

	conn, err := m.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Close()

	if conn.target != addr {
		t.Errorf("expected target %s, got %s", addr, conn.target)
	}
}

func TestConnectFailsOnUnreachableTarget(t *testing.T) {
	m := New("127.0.0.1:1", 100*time.Millisecond, testLogger())

	if _, err := m.Connect(context.Background()); err == nil {
		t.Error("expected Connect to fail against an unreachable target")
	}
}

func TestValidateSucceedsOnLiveConnection(t *testing.T) {
	addr := startEchoListener(t)
	m := New(addr, time.Second, testLogger())

	conn, err := m.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Close()

	if err := m.Validate(context.Background(), conn); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidateFailsOnceMarkedBroken(t *testing.T) {
	addr := startEchoListener(t)
	m := New(addr, time.Second, testLogger())

	conn, err := m.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Close()

	conn.MarkBroken()

	if err := m.Validate(context.Background(), conn); err == nil {
		t.Error("expected Validate to fail on a connection marked broken")
	}
}

func TestHasBrokenReflectsMarkBroken(t *testing.T) {
	addr := startEchoListener(t)
	m := New(addr, time.Second, testLogger())

	conn, err := m.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Close()

	if m.HasBroken(conn) {
		t.Error("expected freshly connected conn to not be broken")
	}

	conn.MarkBroken()

	if !m.HasBroken(conn) {
		t.Error("expected HasBroken to reflect MarkBroken")
	}
}
