package bridge

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/nabokov/clipd/internal/kv"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The daemon binds to localhost; the extension and canvas connect
	// from arbitrary page origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// sendBuffer bounds each client's outbound queue. A client that stops
// reading gets disconnected instead of stalling the broadcast.
const sendBuffer = 32

// Hub owns the websocket clients and pushes storage changes to them.
type Hub struct {
	router *Router
	store  kv.Store

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan Message
}

// NewHub creates a hub that dispatches inbound messages through router
// and broadcasts changes from store.
func NewHub(router *Router, store kv.Store) *Hub {
	return &Hub{
		router:  router,
		store:   store,
		clients: make(map[*client]struct{}),
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Hub) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWS)
}

// Run watches the store and broadcasts every change as a CHANGE message
// until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	changes, cancel := h.store.Watch()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			payload, err := json.Marshal(change)
			if err != nil {
				log.Printf("bridge: marshaling change for %s: %v", change.Key, err)
				continue
			}
			h.broadcast(Message{Type: TypeChange, Payload: payload})
		}
	}
}

func (h *Hub) broadcast(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// Client fell too far behind; drop it.
			delete(h.clients, c)
			close(c.send)
		}
	}
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("bridge: websocket upgrade: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan Message, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go c.writeLoop()
	h.readLoop(r.Context(), c)
}

func (h *Hub) readLoop(ctx context.Context, c *client) {
	defer func() {
		h.mu.Lock()
		if _, ok := h.clients[c]; ok {
			delete(h.clients, c)
			close(c.send)
		}
		h.mu.Unlock()
		c.conn.Close()
	}()

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("bridge: websocket read: %v", err)
			}
			return
		}

		if reply := h.router.DispatchWithRetry(ctx, msg); reply != nil {
			select {
			case c.send <- *reply:
			default:
			}
		}
	}
}

func (c *client) writeLoop() {
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			c.conn.Close()
			return
		}
	}
	c.conn.Close()
}
