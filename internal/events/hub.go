package events

import (
	"sync"

	"store-service/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client is one live subscriber. Events is closed on Unregister.
type Client struct {
	ID     string
	Events chan models.LedgerEvent
}

// Hub fans ledger events out to connected clients. A client whose buffer is
// full misses the event instead of blocking the publisher.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*Client
	bufferSize int
	logger     *zap.Logger
}

func NewHub(bufferSize int, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		bufferSize: bufferSize,
		logger:     logger,
	}
}

// Register creates and adds a new client
func (h *Hub) Register() *Client {
	client := &Client{
		ID:     uuid.NewString(),
		Events: make(chan models.LedgerEvent, h.bufferSize),
	}

	h.mu.Lock()
	h.clients[client.ID] = client
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("Event client registered", zap.String("client_id", client.ID), zap.Int("total", total))
	return client
}

func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Info("Event client unregistered", zap.String("client_id", clientID), zap.Int("total", len(h.clients)))
	}
}

// Publish broadcasts event to every client
func (h *Hub) Publish(event models.LedgerEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.Events <- event:
		default:
			h.logger.Warn("Event client buffer full, skipping event",
				zap.String("client_id", client.ID),
				zap.String("event", string(event.Type)))
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
