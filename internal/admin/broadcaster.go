package admin

import (
	"bytes"
	"log/slog"
	"time"

	"github.com/kestrel-systems/respool/internal/events"
	"github.com/kestrel-systems/respool/internal/wsrelay"
	"github.com/kestrel-systems/respool/pool"
)

// EventBroadcaster adapts a wsrelay.Manager into a pool.Observer: every
// lifecycle event is encoded as an events.Frame and pushed to every
// connected dashboard.
type EventBroadcaster struct {
	ws     *wsrelay.Manager
	logger *slog.Logger
}

// NewEventBroadcaster creates a pool.Observer that streams events to ws.
func NewEventBroadcaster(ws *wsrelay.Manager, logger *slog.Logger) *EventBroadcaster {
	return &EventBroadcaster{ws: ws, logger: logger}
}

// Observe implements pool.Observer.
func (b *EventBroadcaster) Observe(e pool.Event) {
	rec := events.NewRecord(e, time.Now())
	frame, err := events.EncodeEvent(rec)
	if err != nil {
		b.logger.Warn("encoding pool event", "error", err)
		return
	}

	var buf bytes.Buffer
	if err := events.WriteFrame(&buf, frame); err != nil {
		b.logger.Warn("writing pool event frame", "error", err)
		return
	}

	b.ws.Broadcast(buf.Bytes())
}
