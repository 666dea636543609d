package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"lostfound-backend/internal/observability"
)

// client pairs a websocket connection with a write mutex: gorilla/websocket
// allows only one concurrent writer per connection, and both the hub fan-out
// and the relay's error frames target the same socket.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *client) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub is the process-wide registry of live websocket connections, at most
// one per user. Access is mutex-guarded; the hub holds no persistent state.
type Hub struct {
	clients map[int]*client
	info    map[int]ConnInfo
	mu      sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[int]*client),
		info:    make(map[int]ConnInfo),
	}
}

// Register associates the user with conn, replacing any previous connection
// for that user. Only the newest connection per user is kept. The returned
// client serializes all writes to the connection.
func (h *Hub) Register(userID int, conn *websocket.Conn, info ConnInfo) *client {
	h.mu.Lock()
	defer h.mu.Unlock()
	cl := &client{conn: conn}
	h.clients[userID] = cl
	h.info[userID] = info
	return cl
}

// Unregister removes the user's entry, but only if it still points at conn:
// the close of a replaced connection must not evict its successor.
// Idempotent when the entry is already gone.
func (h *Hub) Unregister(userID int, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.clients[userID]; ok && current.conn == conn {
		delete(h.clients, userID)
		delete(h.info, userID)
	}
}

// Lookup returns the live connection for the user, if any.
func (h *Hub) Lookup(userID int) (*websocket.Conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	cl, ok := h.clients[userID]
	if !ok {
		return nil, false
	}
	return cl.conn, true
}

func (h *Hub) lookupClient(userID int) (*client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	cl, ok := h.clients[userID]
	return cl, ok
}

// SendToUser pushes an event to the user's live connection, if present.
// Delivery is best-effort: an absent connection is not an error, and a
// failed write closes and evicts the connection.
func (h *Hub) SendToUser(userID int, event interface{}) bool {
	cl, ok := h.lookupClient(userID)
	if !ok {
		return false
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return false
	}

	if err := cl.write(payload); err != nil {
		log.Printf("websocket write error for user %d: %v", userID, err)
		cl.conn.Close()
		h.Unregister(userID, cl.conn)
		observability.IncWSEvent("ws_error")
		return false
	}
	return true
}
