package handlers

import (
	"net/http"
	"time"

	"store-service/internal/events"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	eventsWriteWait  = 10 * time.Second
	eventsPongWait   = 60 * time.Second
	eventsPingPeriod = (eventsPongWait * 9) / 10
)

// EventsHandler streams ledger events to websocket subscribers
type EventsHandler struct {
	hub    *events.Hub
	logger *zap.Logger
}

func NewEventsHandler(hub *events.Hub, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{hub: hub, logger: logger}
}

func (h *EventsHandler) Stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.String("handler", "events_stream"), zap.Error(err))
		return
	}
	defer conn.Close()

	client := h.hub.Register()
	defer h.hub.Unregister(client.ID)
	logger := h.logger.With(zap.String("handler", "events_stream"), zap.String("client_id", client.ID))

	// the read side only watches for close frames and pongs
	closed := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(eventsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(eventsPongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(eventsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(eventsWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				logger.Warn("Error writing event", zap.Error(err))
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(eventsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			logger.Debug("Subscriber disconnected")
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}

// Clients reports how many subscribers are connected
func (h *EventsHandler) Clients(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "✅ Event subscribers",
		"data":    gin.H{"clients": h.hub.ClientCount()},
	})
}
