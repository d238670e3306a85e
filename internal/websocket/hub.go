// Package websocket implements the development live-reload hub. A single
// goroutine owns the client set; HTTP handlers register upgraded
// connections and the file watcher broadcasts reload messages to every
// connected page.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/Bishwas-py/fymo/internal/logging"
	"github.com/Bishwas-py/fymo/internal/validation"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Message is one hub-to-client notification. Type "full_reload" makes the
// page reload itself; Target optionally names the component that changed.
type Message struct {
	Type      string    `json:"type"`
	Target    string    `json:"target,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans reload messages out to connected clients. Run owns the client
// set; ServeHTTP and Broadcast communicate with it over channels only.
type Hub struct {
	logger         logging.Logger
	allowedOrigins []string

	mu         sync.RWMutex
	clients    map[*websocket.Conn]*client
	register   chan *client
	unregister chan *websocket.Conn
	broadcast  chan []byte
	done       chan struct{}
}

// NewHub creates a hub accepting connections from the given origins.
func NewHub(allowedOrigins []string, logger logging.Logger) *Hub {
	if logger == nil {
		logger = logging.NewLogger(logging.DefaultConfig())
	}
	return &Hub{
		logger:         logger.WithComponent("websocket"),
		allowedOrigins: allowedOrigins,
		clients:        make(map[*websocket.Conn]*client),
		register:       make(chan *client),
		unregister:     make(chan *websocket.Conn),
		broadcast:      make(chan []byte, 16),
		done:           make(chan struct{}),
	}
}

// Run processes registration and broadcast events until the context ends,
// then closes every remaining connection. Run is called at most once per
// hub.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.conn] = c
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug(ctx, "Reload client connected", "clients", count)

		case conn := <-h.unregister:
			h.mu.Lock()
			if c, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				close(c.send)
				conn.Close(websocket.StatusNormalClosure, "")
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug(ctx, "Reload client disconnected", "clients", count)

		case message := <-h.broadcast:
			h.mu.RLock()
			var stalled []*websocket.Conn
			for conn, c := range h.clients {
				select {
				case c.send <- message:
				default:
					// Send buffer full; drop the client.
					stalled = append(stalled, conn)
				}
			}
			h.mu.RUnlock()

			h.mu.Lock()
			for _, conn := range stalled {
				if c, ok := h.clients[conn]; ok {
					delete(h.clients, conn)
					close(c.send)
					conn.Close(websocket.StatusNormalClosure, "")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues a message for every connected client. When the hub is
// saturated the message is dropped; a later change will trigger the next
// reload anyway.
func (h *Hub) Broadcast(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn(context.Background(), err, "Dropping unencodable broadcast", "type", msg.Type)
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn(context.Background(), nil, "Broadcast queue full, dropping message", "type", msg.Type)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and hands the connection to the hub.
// Connections without an allowed Origin are rejected before the upgrade.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := validation.ValidateOrigin(r.Header.Get("Origin"), h.allowedOrigins); err != nil {
		h.logger.Warn(r.Context(), err, "Rejected reload connection", "remote", r.RemoteAddr)
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), err, "Upgrade failed", "remote", r.RemoteAddr)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 256)}
	go h.writePump(c)
	go h.readPump(c)
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, c := range h.clients {
		delete(h.clients, conn)
		close(c.send)
		conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

// readPump drains the connection until the peer goes away, then
// unregisters it. Clients never send anything the hub acts on; the read
// loop exists to notice closure.
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c.conn:
		case <-h.done:
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	for {
		ctx, cancel := context.WithTimeout(context.Background(), pongWait)
		_, _, err := c.conn.Read(ctx)
		cancel()
		if err != nil {
			return
		}
	}
}

// writePump forwards queued messages and keeps the connection alive with
// pings.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
