package ws

import (
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Event is the envelope written to websocket clients.
type Event struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Notify broadcasts payload under the given event name.
func (h *Hub) Notify(event string, payload any) {
	if h == nil {
		return
	}
	event = strings.TrimSpace(event)
	if event == "" {
		return
	}

	b, err := json.Marshal(Event{
		Type:      event,
		Data:      payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		h.logger.Warn("[WS] event encode failed", zap.String("event", event), zap.Error(err))
		return
	}
	h.Broadcast(b)
}
