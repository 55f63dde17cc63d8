package wsrelay

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboard is same-origin in the common deployment; CORS is the operator's call
	},
}

// Handler upgrades HTTP requests to dashboard websocket connections.
type Handler struct {
	manager *Manager
	logger  *slog.Logger
}

// NewHandler creates a new dashboard websocket handler.
func NewHandler(manager *Manager, logger *slog.Logger) *Handler {
	return &Handler{manager: manager, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("dashboard websocket upgrade failed", "error", err)
		return
	}

	client := h.manager.AddConnection(conn, r.RemoteAddr)
	h.logger.Debug("dashboard connected", "conn_id", client.ID)

	go h.readPump(client)
}

// readPump drains client messages (the dashboard is a pure consumer — any
// incoming frame is discarded, and the pump only detects disconnection).
func (h *Handler) readPump(client *Client) {
	defer func() {
		h.manager.RemoveConnection(client.ID)
		client.Conn.Close()
		h.logger.Debug("dashboard disconnected", "conn_id", client.ID)
	}()

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("dashboard read error", "conn_id", client.ID, "error", err)
			}
			break
		}
	}
}
