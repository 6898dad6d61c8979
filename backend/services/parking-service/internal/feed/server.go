package feed

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"vehicleparking/backend/services/parking-service/internal/models"
)

// SnapshotFunc returns the current availability of every lot.
type SnapshotFunc func(ctx context.Context) ([]models.AvailabilityUpdate, error)

// Server upgrades HTTP requests to availability feed sockets.
type Server struct {
	hub          *Hub
	snapshot     SnapshotFunc
	logger       *zap.Logger
	writeTimeout time.Duration
	pingInterval time.Duration
	upgrader     websocket.Upgrader
}

// NewServer builds the feed endpoint. Each new subscriber first receives a snapshot
// message covering every lot, then one update message per committed change.
func NewServer(hub *Hub, snapshot SnapshotFunc, writeTimeout, pingInterval time.Duration, logger *zap.Logger) *Server {
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Server{
		hub:          hub,
		snapshot:     snapshot,
		logger:       logger,
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWS is HTTP handler for /ws/availability endpoint.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	// The client joins before the snapshot is read so no committed change falls
	// between them; updates broadcast meanwhile wait until the snapshot is queued.
	client := newClient(s.hub, conn, s.writeTimeout, s.pingInterval, s.logger)
	s.hub.add(client)
	go client.writePump()
	go client.readPump()
	s.logger.Info("subscriber connected", zap.String("remote_addr", client.remoteAddr))

	var updates []models.AvailabilityUpdate
	if s.snapshot != nil {
		updates, err = s.snapshot(r.Context())
		if err != nil {
			s.logger.Error("failed to load availability snapshot", zap.Error(err))
			s.hub.remove(client)
			return
		}
	}
	payload, err := encode(messageSnapshot, updates)
	if err != nil {
		s.logger.Error("failed to encode availability snapshot", zap.Error(err))
		s.hub.remove(client)
		return
	}
	s.hub.activate(client, payload)
}
