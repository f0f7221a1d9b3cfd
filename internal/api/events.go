package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zafiri/cms-core/internal/auth"
	"github.com/zafiri/cms-core/internal/infrastructure/config"
	"github.com/zafiri/cms-core/internal/infrastructure/logging"
)

// eventSendBufferSize is the per-client outbound message buffer size.
const eventSendBufferSize = 64

// ContentEvent announces a mutation in a collection to connected consoles,
// so open panels can re-list without polling.
type ContentEvent struct {
	Collection string `json:"collection"`
	Action     string `json:"action"` // created, updated, deleted
	ID         string `json:"id"`
	Timestamp  string `json:"timestamp"`
}

// Hub manages WebSocket connections and broadcasts content-change events.
type Hub struct {
	cfg     config.EventsConfig
	logger  *logging.Logger
	clients map[*eventClient]struct{}
	mu      sync.RWMutex
}

type eventClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// upgrader configures the WebSocket upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origin checking is handled by CORS middleware
		return true
	},
}

// NewHub creates a new event hub.
func NewHub(cfg config.EventsConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*eventClient]struct{}),
	}
}

// Run blocks until the context is cancelled, then disconnects all clients.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Broadcast announces a content mutation to every connected client.
func (h *Hub) Broadcast(collection, action, id string) {
	if h == nil {
		return
	}

	event := ContentEvent{
		Collection: collection,
		Action:     action,
		ID:         id,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal content event", "error", err)
		return
	}

	// Snapshot client list under hub lock, then release before sending.
	h.mu.RLock()
	clients := make([]*eventClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.trySend(data)
	}

	if len(clients) > 0 {
		h.logger.Debug("content event sent",
			"collection", collection, "action", action, "recipients", len(clients))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(client *eventClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("event client connected", "clients", h.ClientCount())
}

// unregister removes a client. Only the goroutine that successfully removes
// the client from the map closes the send channel, preventing double-close
// panics during shutdown.
func (h *Hub) unregister(client *eventClient) {
	h.mu.Lock()
	_, existed := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if existed {
		close(client.send)
	}
	h.logger.Debug("event client disconnected", "clients", h.ClientCount())
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		if client.conn != nil {
			client.conn.Close()
		}
		delete(h.clients, client)
	}
}

// handleEvents upgrades the HTTP connection to a WebSocket connection.
// The access token arrives as a query parameter (browsers cannot set
// headers on WebSocket dials) or a bearer header.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = bearerToken(r)
	}
	if token == "" {
		writeUnauthorized(w, "token is required")
		return
	}
	if _, err := auth.ParseToken(token, s.secCfg.JWT.Secret); err != nil {
		writeUnauthorized(w, "invalid or expired token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &eventClient{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, eventSendBufferSize),
	}
	s.hub.register(client)

	go client.writePump(s.evCfg)
	go client.readPump(s.evCfg)
}

// readPump drains the connection. Consoles do not send application
// messages; reads only service pong frames and detect disconnects.
func (c *eventClient) readPump(cfg config.EventsConfig) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	pongWait := time.Duration(cfg.PongTimeout) * time.Second
	//nolint:errcheck // Best-effort deadline on connection setup
	c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			} else {
				c.hub.logger.Debug("websocket closed", "error", err)
			}
			return
		}
		// Any client message resets the read deadline.
		//nolint:errcheck // Best-effort deadline reset
		c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	}
}

// writePump writes queued events and protocol pings to the connection.
func (c *eventClient) writePump(cfg config.EventsConfig) {
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	pongWait := time.Duration(cfg.PongTimeout) * time.Second

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Hub closed the channel
				//nolint:errcheck // Best-effort close message
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			//nolint:errcheck // Best-effort deadline; write error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// trySend attempts to queue data for the client, skipping slow consumers
// and absorbing sends on channels closed during shutdown.
func (c *eventClient) trySend(data []byte) {
	defer func() {
		recover() //nolint:errcheck // Absorb send-on-closed-channel panic
	}()

	select {
	case c.send <- data:
	default:
		// Client buffer full, skip
	}
}
