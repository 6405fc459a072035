package realtime

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/craftlink-lk/craftlink-api/models"
)

// Frame types exchanged over the socket
const (
	FrameJoin       = "join"
	FrameNewMessage = "new_message"
)

// CloseUnauthorized is sent when a join is rejected; clients must not
// auto-reconnect after receiving it.
const CloseUnauthorized = 4001

// ClientFrame is a client-to-server frame
type ClientFrame struct {
	Type           string `json:"type"`
	ConversationID uint   `json:"conversation_id"`
}

// ServerFrame is a server-to-client frame
type ServerFrame struct {
	Type           string          `json:"type"`
	ConversationID uint            `json:"conversation_id"`
	Message        *models.Message `json:"message,omitempty"`
}

// Conn is the subset of *websocket.Conn the hub writes to, split out so
// tests can observe published frames without a real socket.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Client is one open browser tab. A user may hold several concurrently.
type Client struct {
	conn   Conn
	userID uint

	mu      sync.Mutex
	open    bool
	pending []uint // joins requested before the connection finished opening
}

// NewClient wraps an accepted connection for hub registration
func NewClient(conn Conn, userID uint) *Client {
	return &Client{conn: conn, userID: userID}
}

// UserID returns the authenticated user behind the connection
func (c *Client) UserID() uint { return c.userID }

func (c *Client) write(frame ServerFrame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(frame)
}

// Hub maintains per-conversation subscriber sets. Delivery is at-most-once:
// a connection not currently subscribed misses the push and reconciles via
// history backfill on its next fetch.
type Hub struct {
	mu      sync.RWMutex
	subs    map[uint]map[*Client]struct{} // conversationID -> subscribers
	clients map[*Client]map[uint]struct{} // client -> joined conversations
}

// NewHub creates an empty broadcaster registry
func NewHub() *Hub {
	return &Hub{
		subs:    make(map[uint]map[*Client]struct{}),
		clients: make(map[*Client]map[uint]struct{}),
	}
}

// Register adds a connection to the hub before any joins
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.clients[c] = make(map[uint]struct{})
	}
	h.mu.Unlock()
}

// Join subscribes the client to a conversation. If the connection has not
// finished opening the join is queued and flushed by MarkOpen, so joins
// sent during the handshake are never dropped.
func (h *Hub) Join(c *Client, conversationID uint) {
	c.mu.Lock()
	if !c.open {
		c.pending = append(c.pending, conversationID)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	h.add(c, conversationID)
}

// MarkOpen flushes queued joins once the connection is fully established
func (h *Hub) MarkOpen(c *Client) {
	c.mu.Lock()
	c.open = true
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, id := range pending {
		h.add(c, id)
	}
}

func (h *Hub) add(c *Client, conversationID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[conversationID]; !ok {
		h.subs[conversationID] = make(map[*Client]struct{})
	}
	h.subs[conversationID][c] = struct{}{}
	if _, ok := h.clients[c]; !ok {
		h.clients[c] = make(map[uint]struct{})
	}
	h.clients[c][conversationID] = struct{}{}
}

// Leave unsubscribes the client from one conversation
func (h *Hub) Leave(c *Client, conversationID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[conversationID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, conversationID)
		}
	}
	if convs, ok := h.clients[c]; ok {
		delete(convs, conversationID)
	}
}

// Remove drops the connection from every conversation and closes it.
// Closing a socket has no effect on in-flight workflow transitions.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	if convs, ok := h.clients[c]; ok {
		for id := range convs {
			if set, ok := h.subs[id]; ok {
				delete(set, c)
				if len(set) == 0 {
					delete(h.subs, id)
				}
			}
		}
		delete(h.clients, c)
	}
	h.mu.Unlock()
	_ = c.conn.Close()
}

// Publish fans a new message out to every current subscriber of the
// conversation. Fire-and-forget: write failures evict the connection and
// are logged, never retried, and never affect the caller.
func (h *Hub) Publish(conversationID uint, message *models.Message) {
	frame := ServerFrame{
		Type:           FrameNewMessage,
		ConversationID: conversationID,
		Message:        message,
	}

	h.mu.RLock()
	subscribers := make([]*Client, 0, len(h.subs[conversationID]))
	for c := range h.subs[conversationID] {
		subscribers = append(subscribers, c)
	}
	h.mu.RUnlock()

	for _, c := range subscribers {
		if err := c.write(frame); err != nil {
			log.Printf("ws publish to user %d failed, dropping connection: %v", c.userID, err)
			h.Remove(c)
		}
	}
}

// SubscriberCount reports how many connections are joined to a conversation
func (h *Hub) SubscriberCount(conversationID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[conversationID])
}

// Heartbeat pings all connections on an interval to keep intermediaries
// from idling them out. Blocks; run in its own goroutine.
func (h *Hub) Heartbeat(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		h.mu.RLock()
		clients := make([]*Client, 0, len(h.clients))
		for c := range h.clients {
			clients = append(clients, c)
		}
		h.mu.RUnlock()

		for _, c := range clients {
			if ws, ok := c.conn.(*websocket.Conn); ok {
				if err := ws.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second)); err != nil {
					h.Remove(c)
				}
			}
		}
	}
}
