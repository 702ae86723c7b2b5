package card

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nabokov/clipd/internal/kv"
)

// Store manages the persisted card collection. The whole collection lives
// as one JSON array under kv.KeyCards; every mutation is a
// read-modify-write cycle guarded by the kv layer's revision check.
type Store struct {
	kv kv.Store
}

// NewStore creates a card store over the given key-value namespace.
func NewStore(store kv.Store) *Store {
	return &Store{kv: store}
}

// All returns every card. A missing collection is an empty result, never
// an error.
func (s *Store) All(ctx context.Context) ([]Card, error) {
	var cards []Card
	if _, err := kv.GetJSON(ctx, s.kv, kv.KeyCards, &cards); err != nil {
		return nil, fmt.Errorf("loading cards: %w", err)
	}
	return cards, nil
}

// Get returns the card with the given id, or nil if it does not exist.
func (s *Store) Get(ctx context.Context, id string) (*Card, error) {
	cards, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range cards {
		if cards[i].ID == id {
			return &cards[i], nil
		}
	}
	return nil, nil
}

// Save upserts a card by id. A card without an id is assigned one.
// CreatedAt is set on first save; UpdatedAt is refreshed on every save.
func (s *Store) Save(ctx context.Context, c Card) (*Card, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := NowMillis()
	if c.CreatedAt == 0 {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	if c.Tags == nil {
		c.Tags = []string{}
	}

	err := kv.UpdateJSON(ctx, s.kv, kv.KeyCards, func(cards []Card) ([]Card, error) {
		for i := range cards {
			if cards[i].ID == c.ID {
				cards[i] = c
				return cards, nil
			}
		}
		return append(cards, c), nil
	})
	if err != nil {
		return nil, fmt.Errorf("saving card %s: %w", c.ID, err)
	}
	return &c, nil
}

// Delete removes the card with the given id. Dependent connections and
// expandable links are NOT removed here; the caller owns that cascade.
func (s *Store) Delete(ctx context.Context, id string) error {
	err := kv.UpdateJSON(ctx, s.kv, kv.KeyCards, func(cards []Card) ([]Card, error) {
		filtered := cards[:0]
		for _, c := range cards {
			if c.ID != id {
				filtered = append(filtered, c)
			}
		}
		return filtered, nil
	})
	if err != nil {
		return fmt.Errorf("deleting card %s: %w", id, err)
	}
	return nil
}
