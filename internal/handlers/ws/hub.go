package ws

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

// PresenceSetter flips a user's online flag when their first connection
// opens and their last one closes. A nil setter disables presence.
type PresenceSetter interface {
	SetOnline(ctx context.Context, userID string, online bool) error
}

// client wraps one WebSocket connection with its keepalive state.
type client struct {
	userID     string
	conn       *websocket.Conn
	lastPong   time.Time
	pingTicker *time.Ticker
	closeChan  chan struct{}
}

// Hub tracks the live push connections. A user may hold several at once,
// one per observed stream, so presence follows the first-open and
// last-close transitions rather than individual connections.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*websocket.Conn]*client
	online   map[string]int
	presence PresenceSetter

	pingInterval time.Duration
	pongTimeout  time.Duration
}

// NewHub creates a hub. presence may be nil when the backend has no
// profile store to flip.
func NewHub(presence PresenceSetter) *Hub {
	hub := &Hub{
		clients:      make(map[*websocket.Conn]*client),
		online:       make(map[string]int),
		presence:     presence,
		pingInterval: 30 * time.Second,
		pongTimeout:  90 * time.Second,
	}
	go hub.healthChecker()
	return hub
}

// Register adds a connection and starts its keepalive.
func (h *Hub) Register(userID string, conn *websocket.Conn) {
	cl := &client{
		userID:     userID,
		conn:       conn,
		lastPong:   time.Now(),
		pingTicker: time.NewTicker(h.pingInterval),
		closeChan:  make(chan struct{}),
	}

	conn.SetPongHandler(func(string) error {
		h.mu.Lock()
		if c, ok := h.clients[conn]; ok {
			c.lastPong = time.Now()
		}
		h.mu.Unlock()
		return conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
	})
	_ = conn.SetReadDeadline(time.Now().Add(h.pongTimeout))

	h.mu.Lock()
	h.clients[conn] = cl
	h.online[userID]++
	first := h.online[userID] == 1
	total := len(h.clients)
	h.mu.Unlock()

	go h.pingRoutine(cl)

	if first {
		h.setPresence(userID, true)
	}
	log.Printf("User %s connected to hub (connections: %d)", userID, total)
}

// Unregister removes a connection. Idempotent; dropping the user's last
// connection flips them offline.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	cl, ok := h.clients[conn]
	if !ok {
		h.mu.Unlock()
		return
	}
	cl.pingTicker.Stop()
	close(cl.closeChan)
	delete(h.clients, conn)
	h.online[cl.userID]--
	last := h.online[cl.userID] == 0
	if last {
		delete(h.online, cl.userID)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if last {
		h.setPresence(cl.userID, false)
	}
	log.Printf("User %s disconnected from hub (connections: %d)", cl.userID, total)
}

// Count returns the number of live connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll closes every connection. The owning handlers observe the close
// on their read loops and tear their subscriptions down. Used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()
	}
}

// setPresence is best effort: a failed flip is logged, never surfaced to
// the connection.
func (h *Hub) setPresence(userID string, online bool) {
	if h.presence == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.presence.SetOnline(ctx, userID, online); err != nil {
			log.Printf("Failed to set user %s online=%v: %v", userID, online, err)
		}
	}()
}

// pingRoutine sends periodic pings until the connection unregisters. A
// failed ping closes the socket so the owning handler's read loop ends.
func (h *Hub) pingRoutine(cl *client) {
	for {
		select {
		case <-cl.closeChan:
			return
		case <-cl.pingTicker.C:
			deadline := time.Now().Add(10 * time.Second)
			if err := cl.conn.WriteControl(websocket.PingMessage, []byte{}, deadline); err != nil {
				log.Printf("Ping failed for user %s: %v", cl.userID, err)
				_ = cl.conn.Close()
				return
			}
		}
	}
}

// healthChecker closes connections that stopped answering pings.
func (h *Hub) healthChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		h.mu.RLock()
		dead := make([]*client, 0)
		now := time.Now()
		for _, cl := range h.clients {
			if now.Sub(cl.lastPong) > h.pongTimeout {
				dead = append(dead, cl)
			}
		}
		h.mu.RUnlock()

		for _, cl := range dead {
			log.Printf("Closing dead connection for user %s (no pong received)", cl.userID)
			_ = cl.conn.Close()
		}
	}
}
