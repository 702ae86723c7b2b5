package kv

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// Storage keys for the clipper's logical collections. Each key holds one
// serialized JSON value (a flat array or object), matching the layout the
// extension used in chrome.storage.local.
const (
	KeyCards           = "cards"
	KeyConnections     = "nabokov_connections"
	KeyExpandableLinks = "expandable_links"
	KeySettings        = "nabokov_settings"
	KeyFontSize        = "nabokov_font_size"
	KeyWindows         = "nabokov_windows"
)

// ErrRevisionMismatch is returned by CompareAndSwap when the key was
// modified since the caller read it.
var ErrRevisionMismatch = errors.New("kv: revision mismatch")

// Change describes a single key mutation, delivered to Watch subscribers.
// OldValue is nil for newly created keys; NewValue is nil for removals.
type Change struct {
	Key      string          `json:"key"`
	OldValue json.RawMessage `json:"oldValue,omitempty"`
	NewValue json.RawMessage `json:"newValue,omitempty"`
	Revision int64           `json:"revision"`
}

// Store is the shared key-value namespace behind every clipd collection.
// Implementations must deliver change notifications for every successful
// mutation so open UI surfaces can stay in sync without polling.
type Store interface {
	// Get returns the value and revision for key. A missing key is not an
	// error: it returns (nil, 0, nil).
	Get(ctx context.Context, key string) (json.RawMessage, int64, error)
	// Set writes the value unconditionally, bumping the revision.
	Set(ctx context.Context, key string, value json.RawMessage) error
	// CompareAndSwap writes the value only if the key's current revision
	// equals expect (0 for "key must not exist"). Returns
	// ErrRevisionMismatch otherwise.
	CompareAndSwap(ctx context.Context, key string, value json.RawMessage, expect int64) error
	// Remove deletes the key. Removing a missing key is a no-op.
	Remove(ctx context.Context, key string) error
	// Watch subscribes to change notifications. The returned cancel func
	// must be called to release the subscription.
	Watch() (<-chan Change, func())
}

// watchBuffer bounds each subscriber channel. A slow subscriber drops
// events rather than blocking writers.
const watchBuffer = 64

// notifier implements Watch fan-out for Store implementations.
type notifier struct {
	mu   sync.Mutex
	subs map[int]chan Change
	next int
}

func (n *notifier) Watch() (<-chan Change, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]chan Change)
	}
	id := n.next
	n.next++
	ch := make(chan Change, watchBuffer)
	n.subs[id] = ch
	return ch, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if c, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(c)
		}
	}
}

func (n *notifier) notify(c Change) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- c:
		default:
		}
	}
}
