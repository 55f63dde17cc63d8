// Package wsrelay fans out pool lifecycle events and stats snapshots to
// dashboard clients connected over a websocket.
package wsrelay

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// Client represents a single dashboard websocket connection.
type Client struct {
	ID         string
	Conn       *websocket.Conn
	RemoteAddr string
	mu         sync.Mutex
}

// Send writes a binary message to this client.
func (c *Client) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(websocket.BinaryMessage, data)
}

// Manager tracks connected dashboard clients and broadcasts to all of them.
// There are no rooms: every connected dashboard watches the same pool.
type Manager struct {
	clients map[string]*Client
	mu      sync.RWMutex
	logger  *slog.Logger
}

// NewManager creates a new dashboard connection manager.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// AddConnection registers a new dashboard connection.
func (m *Manager) AddConnection(conn *websocket.Conn, remoteAddr string) *Client {
	client := &Client{
		ID:         generateConnID(),
		Conn:       conn,
		RemoteAddr: remoteAddr,
	}

	m.mu.Lock()
	m.clients[client.ID] = client
	m.mu.Unlock()

	return client
}

// RemoveConnection unregisters a dashboard connection.
func (m *Manager) RemoveConnection(id string) {
	m.mu.Lock()
	delete(m.clients, id)
	m.mu.Unlock()
}

// Broadcast sends a frame to every connected dashboard client.
func (m *Manager) Broadcast(data []byte) {
	m.mu.RLock()
	clients := make([]*Client, 0, len(m.clients))
	for _, c := range m.clients {
		clients = append(clients, c)
	}
	m.mu.RUnlock()

	for _, c := range clients {
		if err := c.Send(data); err != nil {
			m.logger.Warn("broadcast send failed", "conn_id", c.ID, "error", err)
		}
	}
}

// Stats reports how many dashboards are currently connected.
func (m *Manager) Stats() ManagerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ManagerStats{TotalConnections: len(m.clients)}
}

// ManagerStats holds websocket manager metrics.
type ManagerStats struct {
	TotalConnections int `json:"total_connections"`
}

func generateConnID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
