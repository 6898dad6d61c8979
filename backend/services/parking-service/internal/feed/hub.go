package feed

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"vehicleparking/backend/services/parking-service/internal/models"
)

const updateBuffer = 64

const (
	messageSnapshot = "snapshot"
	messageUpdate   = "update"
)

// message is the frame written to subscribers.
type message struct {
	Type string                      `json:"type"`
	Lots []models.AvailabilityUpdate `json:"lots"`
}

func encode(kind string, lots []models.AvailabilityUpdate) ([]byte, error) {
	if lots == nil {
		lots = []models.AvailabilityUpdate{}
	}
	return json.Marshal(message{Type: kind, Lots: lots})
}

// Hub fans availability updates out to connected subscribers.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
	updates chan models.AvailabilityUpdate
	logger  *zap.Logger
}

// NewHub builds an empty hub. Call Run to start delivery.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		updates: make(chan models.AvailabilityUpdate, updateBuffer),
		logger:  logger,
	}
}

// Publish queues an update for broadcast. It never blocks the caller; when the
// queue is full the update is dropped.
func (h *Hub) Publish(update models.AvailabilityUpdate) {
	select {
	case h.updates <- update:
	default:
		h.logger.Warn("availability queue full, dropping update", zap.Int64("lot_id", update.LotID))
	}
}

// Run delivers queued updates until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return nil
		case update := <-h.updates:
			payload, err := encode(messageUpdate, []models.AvailabilityUpdate{update})
			if err != nil {
				h.logger.Error("failed to encode availability update", zap.Error(err))
				continue
			}
			h.broadcast(payload)
		}
	}
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

// activate queues the snapshot first, then the updates broadcast while the client
// was pending, and switches the client to live delivery.
func (h *Hub) activate(c *Client, snapshot []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	pending := c.pending
	c.pending = nil
	c.live = true
	if !h.enqueueLocked(c, snapshot) {
		return false
	}
	for _, payload := range pending {
		if !h.enqueueLocked(c, payload) {
			return false
		}
	}
	return true
}

func (h *Hub) broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.enqueueLocked(c, payload)
	}
}

func (h *Hub) enqueueLocked(c *Client, payload []byte) bool {
	if !c.live {
		if len(c.pending) < clientBuffer {
			c.pending = append(c.pending, payload)
			return true
		}
		h.logger.Warn("dropping subscriber with full pending queue", zap.String("remote_addr", c.remoteAddr))
		h.dropLocked(c)
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		h.logger.Warn("dropping slow subscriber", zap.String("remote_addr", c.remoteAddr))
		h.dropLocked(c)
		return false
	}
}

// dropLocked closes the send queue; the write pump then closes the socket.
func (h *Hub) dropLocked(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	c.pending = nil
	close(c.send)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.dropLocked(c)
	}
}
