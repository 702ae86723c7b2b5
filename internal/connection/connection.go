package connection

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nabokov/clipd/internal/card"
	"github.com/nabokov/clipd/internal/kv"
)

// Type classifies the relation an edge records between two cards.
type Type string

const (
	TypeGeneratedFrom Type = "generated-from"
	TypeReferences    Type = "references"
	TypeRelated       Type = "related"
	TypeContradicts   Type = "contradicts"
	TypeCustom        Type = "custom"
)

// Metadata carries provenance for an edge.
type Metadata struct {
	CreatedAt int64  `json:"createdAt"`
	CreatedBy string `json:"createdBy,omitempty"` // "user" or "ai"
	Note      string `json:"note,omitempty"`
}

// Connection is a directed, typed edge between two cards. Multiple edges
// between the same pair are permitted.
type Connection struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	Target   string    `json:"target"`
	Type     Type      `json:"type"`
	Label    string    `json:"label,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// Store manages the persisted connection collection under
// kv.KeyConnections.
type Store struct {
	kv kv.Store
}

// NewStore creates a connection store over the given key-value namespace.
func NewStore(store kv.Store) *Store {
	return &Store{kv: store}
}

// All returns every connection; a missing collection is an empty result.
func (s *Store) All(ctx context.Context) ([]Connection, error) {
	var conns []Connection
	if _, err := kv.GetJSON(ctx, s.kv, kv.KeyConnections, &conns); err != nil {
		return nil, fmt.Errorf("loading connections: %w", err)
	}
	return conns, nil
}

// Add appends a connection. A connection without an id is assigned one;
// missing metadata gets a created-at stamp.
func (s *Store) Add(ctx context.Context, c Connection) (*Connection, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Metadata == nil {
		c.Metadata = &Metadata{CreatedAt: card.NowMillis(), CreatedBy: "user"}
	}

	err := kv.UpdateJSON(ctx, s.kv, kv.KeyConnections, func(conns []Connection) ([]Connection, error) {
		return append(conns, c), nil
	})
	if err != nil {
		return nil, fmt.Errorf("adding connection %s: %w", c.ID, err)
	}
	return &c, nil
}

// Remove deletes a connection by id.
func (s *Store) Remove(ctx context.Context, id string) error {
	err := kv.UpdateJSON(ctx, s.kv, kv.KeyConnections, func(conns []Connection) ([]Connection, error) {
		filtered := conns[:0]
		for _, c := range conns {
			if c.ID != id {
				filtered = append(filtered, c)
			}
		}
		return filtered, nil
	})
	if err != nil {
		return fmt.Errorf("removing connection %s: %w", id, err)
	}
	return nil
}

// RemoveForCard deletes every connection touching the given card on
// either endpoint. Called by the card-deletion cascade.
func (s *Store) RemoveForCard(ctx context.Context, cardID string) error {
	err := kv.UpdateJSON(ctx, s.kv, kv.KeyConnections, func(conns []Connection) ([]Connection, error) {
		filtered := conns[:0]
		for _, c := range conns {
			if c.Source != cardID && c.Target != cardID {
				filtered = append(filtered, c)
			}
		}
		return filtered, nil
	})
	if err != nil {
		return fmt.Errorf("removing connections for card %s: %w", cardID, err)
	}
	return nil
}

// ForCard returns the connections touching the given card on either
// endpoint.
func (s *Store) ForCard(ctx context.Context, cardID string) ([]Connection, error) {
	conns, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []Connection
	for _, c := range conns {
		if c.Source == cardID || c.Target == cardID {
			out = append(out, c)
		}
	}
	return out, nil
}
