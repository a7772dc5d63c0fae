package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	spectatorWriteWait = 10 * time.Second
	spectatorPongWait  = 60 * time.Second
	spectatorPing      = spectatorPongWait * 9 / 10
	spectatorReadLimit = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type spectator struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
}

// Hub fans match snapshots out to read-only WebSocket spectators. New
// spectators immediately receive the latest snapshot.
type Hub struct {
	logger     *zap.Logger
	clients    map[*spectator]bool
	broadcast  chan []byte
	register   chan *spectator
	unregister chan *spectator
	latest     []byte
	done       chan struct{}
}

// NewHub creates a hub; Run must be started before it is served.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:     logger,
		clients:    make(map[*spectator]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *spectator),
		unregister: make(chan *spectator),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for c := range h.clients {
			close(c.send)
			delete(h.clients, c)
		}
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.clients[c] = true
			if h.latest != nil {
				c.send <- h.latest
			}
			h.logger.Debug("spectator registered",
				zap.String("spectator_id", c.id.String()),
				zap.Int("spectators", len(h.clients)),
			)

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.logger.Debug("spectator unregistered", zap.String("spectator_id", c.id.String()))
			}

		case message := <-h.broadcast:
			h.latest = message
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					close(c.send)
					delete(h.clients, c)
				}
			}
		}
	}
}

// Publish queues a snapshot for every spectator. It never blocks; snapshots
// published while the hub is saturated are dropped.
func (h *Hub) Publish(matchID string, snapshot any) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		h.logger.Warn("failed to encode spectator snapshot", zap.String("match_id", matchID), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- payload:
	case <-h.done:
	default:
		h.logger.Warn("spectator hub saturated, dropping snapshot", zap.String("match_id", matchID))
	}
}

// Close is a no-op; the hub stops with the context given to Run.
func (h *Hub) Close() error {
	return nil
}

// ServeHTTP upgrades the request and registers a spectator.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &spectator{
		id:   uuid.New(),
		conn: conn,
		send: make(chan []byte, 16),
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump(h)
}

// readPump only watches for the peer going away; spectators cannot act.
func (c *spectator) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(spectatorReadLimit)
	c.conn.SetReadDeadline(time.Now().Add(spectatorPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(spectatorPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *spectator) writePump() {
	ticker := time.NewTicker(spectatorPing)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(spectatorWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(spectatorWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
