// Package tcpmanager is the demo pool.Manager implementation shipped with
// poolmond: it pools plain TCP connections to a configured target address,
// so the admin dashboard and metrics have something real to show without
// requiring a database driver to be wired in.
package tcpmanager

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"
)

// Conn wraps a net.Conn with the bookkeeping the Manager needs to cheaply
// detect breakage without a blocking round trip on every return.
type Conn struct {
	net.Conn
	target string
	broken atomic.Bool
}

// Manager dials plain TCP connections to a fixed target address.
type Manager struct {
	target      string
	dialTimeout time.Duration
	logger      *slog.Logger
}

// New creates a Manager that dials target (host:port) with the given
// per-attempt timeout.
func New(target string, dialTimeout time.Duration, logger *slog.Logger) *Manager {
	return &Manager{target: target, dialTimeout: dialTimeout, logger: logger}
}

// Connect dials a fresh TCP connection to the configured target.
func (m *Manager) Connect(ctx context.Context) (*Conn, error) {
	dialer := &net.Dialer{Timeout: m.dialTimeout}

	nc, err := dialer.DialContext(ctx, "tcp", m.target)
	if err != nil {
		return nil, fmt.Errorf("tcpmanager: dial %s: %w", m.target, err)
	}

	m.logger.Debug("connection established", "target", m.target)
	return &Conn{Conn: nc, target: m.target}, nil
}

// Validate checks liveness with a zero-byte write, which on a TCP socket
// fails immediately if the peer has reset the connection. It does not
// guarantee the peer is still healthy, only that the local socket hasn't
// already torn down.
func (m *Manager) Validate(ctx context.Context, conn *Conn) error {
	if conn.broken.Load() {
		return fmt.Errorf("tcpmanager: connection to %s already marked broken", conn.target)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(m.dialTimeout)
	}
	if err := conn.SetWriteDeadline(deadline); err != nil {
		conn.broken.Store(true)
		return fmt.Errorf("tcpmanager: set write deadline: %w", err)
	}
	defer conn.SetWriteDeadline(time.Time{})

	if _, err := conn.Write(nil); err != nil {
		conn.broken.Store(true)
		return fmt.Errorf("tcpmanager: validate %s: %w", conn.target, err)
	}
	return nil
}

// HasBroken reports the cached broken flag. Never blocks, never touches the
// network, as required by pool.Manager.
func (m *Manager) HasBroken(conn *Conn) bool {
	return conn.broken.Load()
}

// MarkBroken lets a caller flag a connection as unusable after observing an
// I/O error on it directly (outside of Validate), so the pool replaces it
// on return instead of handing it out again.
func (c *Conn) MarkBroken() {
	c.broken.Store(true)
}
