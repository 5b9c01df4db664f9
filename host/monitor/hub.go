// Package monitor fans gantry status lines out to websocket clients, so a
// dashboard can watch moves, limits and calibration without holding the
// serial port.
package monitor

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"gantry/core"
)

const clientQueueSize = 64

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Hub tracks connected clients and broadcasts status lines to them. Slow
// clients are dropped rather than allowed to stall the rest.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	conn *websocket.Conn
	send chan string
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Reporter returns a core.Reporter that broadcasts into the hub, suitable
// for fanning the firmware's status stream to dashboards.
func (h *Hub) Reporter() core.Reporter {
	return h.Publish
}

// Publish broadcasts one status line to every connected client.
func (h *Hub) Publish(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- line:
		default:
			// Client is not keeping up; cut it loose.
			h.dropLocked(c)
		}
	}
}

// ServeHTTP upgrades the request and streams status lines until the client
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("monitor: websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan string, clientQueueSize)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	log.WithField("clients", n).Info("monitor: client connected")

	go h.writePump(c)
	h.readPump(c)
}

// readPump discards inbound frames; the monitor stream is one-way. It
// returns when the client goes away.
func (h *Hub) readPump(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
	h.mu.Lock()
	h.dropLocked(c)
	h.mu.Unlock()
}

func (h *Hub) writePump(c *client) {
	for line := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			break
		}
	}
	c.conn.Close()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.dropLocked(c)
	}
}

// dropLocked removes a client. Caller holds h.mu.
func (h *Hub) dropLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}
