// Package bridge is the message bus between the daemon and its clients:
// the browser extension, the canvas UI and any open side panels. Clients
// exchange typed JSON messages over a websocket; storage changes fan out
// to every connected client so all surfaces stay in sync.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Well-known message types.
const (
	TypeChange = "CHANGE"
	TypeError  = "ERROR"
)

// Message is one typed envelope on the bus. ID, when set, is echoed back
// on the response so callers can correlate replies.
type Message struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Handler processes one inbound message and optionally returns a reply.
type Handler func(ctx context.Context, msg Message) (*Message, error)

// Router dispatches messages to handlers by type. Registration is
// idempotent: registering a type twice replaces the previous handler
// rather than erroring, so wiring code can run more than once.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{handlers: make(map[string]Handler)}
}

// Register installs the handler for a message type, replacing any
// previous registration.
func (r *Router) Register(msgType string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[msgType] = h
}

// Handles reports whether a handler is registered for the type.
func (r *Router) Handles(msgType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[msgType]
	return ok
}

// Dispatch routes a message to its handler. An unknown type or a handler
// failure comes back as an ERROR reply rather than an error return, so
// transport loops never die on bad input.
func (r *Router) Dispatch(ctx context.Context, msg Message) *Message {
	r.mu.RLock()
	h, ok := r.handlers[msg.Type]
	r.mu.RUnlock()

	if !ok {
		return errorReply(msg, fmt.Sprintf("unknown message type %q", msg.Type))
	}

	reply, err := h(ctx, msg)
	if err != nil {
		return errorReply(msg, err.Error())
	}
	if reply == nil {
		return nil
	}
	reply.ID = msg.ID
	return reply
}

// DispatchWithRetry dispatches and, when the handler fails, retries
// exactly once. Transient storage races resolve on the second attempt;
// anything persistent fails the same way twice.
func (r *Router) DispatchWithRetry(ctx context.Context, msg Message) *Message {
	reply := r.Dispatch(ctx, msg)
	if reply != nil && reply.Type == TypeError {
		if retry := r.Dispatch(ctx, msg); retry != nil {
			return retry
		}
		return nil
	}
	return reply
}

type errorPayload struct {
	Error string `json:"error"`
}

func errorReply(msg Message, text string) *Message {
	payload, _ := json.Marshal(errorPayload{Error: text})
	return &Message{ID: msg.ID, Type: TypeError, Payload: payload}
}
