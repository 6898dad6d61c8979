package feed

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	clientBuffer = 16
	readLimit    = 512
)

// Client is one subscriber socket. Until its snapshot is queued the client is
// not live and broadcasts collect in pending; both fields are guarded by the hub lock.
type Client struct {
	hub          *Hub
	ws           *websocket.Conn
	send         chan []byte
	pending      [][]byte
	live         bool
	remoteAddr   string
	writeTimeout time.Duration
	pingInterval time.Duration
	logger       *zap.Logger
}

func newClient(hub *Hub, ws *websocket.Conn, writeTimeout, pingInterval time.Duration, logger *zap.Logger) *Client {
	return &Client{
		hub:          hub,
		ws:           ws,
		send:         make(chan []byte, clientBuffer),
		remoteAddr:   ws.RemoteAddr().String(),
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		logger:       logger,
	}
}

// readPump discards inbound frames and keeps the read deadline alive through pongs.
// It unregisters the client once the peer goes away.
func (c *Client) readPump() {
	defer c.hub.remove(c)

	pongWait := c.pingInterval * 2
	c.ws.SetReadLimit(readLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info("subscriber read closed", zap.String("remote_addr", c.remoteAddr), zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.write(websocket.TextMessage, msg); err != nil {
				c.hub.remove(c)
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.hub.remove(c)
				return
			}
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(messageType, data)
}
