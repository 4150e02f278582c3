package ws

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

// sendBuffer is how many messages a slow client may lag behind before
// messages to it are dropped.
const sendBuffer = 64

// Client represents a connected WebSocket client.
type Client struct {
	conn   *websocket.Conn
	remote string
	// types limits delivery to these message types; empty means all.
	types  map[MessageType]bool
	send   chan Message
	logger *zap.Logger
}

func newClient(conn *websocket.Conn, remote string, types []MessageType, logger *zap.Logger) *Client {
	c := &Client{
		conn:   conn,
		remote: remote,
		send:   make(chan Message, sendBuffer),
		logger: logger,
	}
	if len(types) > 0 {
		c.types = make(map[MessageType]bool, len(types))
		for _, t := range types {
			c.types[t] = true
		}
	}
	return c
}

func (c *Client) wants(t MessageType) bool {
	return c.types == nil || c.types[t]
}

// Hub manages active WebSocket connections and broadcasts messages.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *zap.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	clientsConnected.Inc()
	h.logger.Debug("websocket client connected", zap.String("remote", c.remote))
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	if ok {
		clientsConnected.Dec()
		h.logger.Debug("websocket client disconnected", zap.String("remote", c.remote))
	}
}

// Broadcast sends a message to every client subscribed to its type.
// Clients whose buffer is full miss the message.
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !c.wants(msg.Type) {
			continue
		}
		select {
		case c.send <- msg:
		default:
			messagesDropped.Inc()
			h.logger.Warn("client send buffer full, dropping message",
				zap.String("remote", c.remote),
				zap.String("type", string(msg.Type)))
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// writePump sends messages from the client's send channel to the WebSocket.
func (c *Client) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				// Channel closed by hub (unregister).
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, c.conn, msg)
			cancel()
			if err != nil {
				c.logger.Debug("websocket write error", zap.Error(err))
				return
			}
		}
	}
}

// readPump reads from the WebSocket to detect client disconnect.
// Clients are not expected to send anything, so reads are drained.
func (c *Client) readPump(ctx context.Context) {
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return
		}
	}
}
