// Package windows tracks floating window state: which cards are open in
// detached windows, where they sit, and their stacking order.
package windows

import (
	"context"
	"fmt"

	"github.com/nabokov/clipd/internal/card"
	"github.com/nabokov/clipd/internal/kv"
)

// State is the persisted geometry of one floating card window.
type State struct {
	CardID    string         `json:"cardId"`
	Position  card.Position  `json:"position"`
	Size      card.Size      `json:"size"`
	Minimized bool           `json:"minimized"`
	ZIndex    int            `json:"zIndex"`
	UpdatedAt int64          `json:"updatedAt"`
}

// Store keeps at most one window state per card under kv.KeyWindows.
type Store struct {
	kv kv.Store
}

// NewStore creates a window-state store over the given key-value namespace.
func NewStore(store kv.Store) *Store {
	return &Store{kv: store}
}

// All returns every open window's state.
func (s *Store) All(ctx context.Context) ([]State, error) {
	var all []State
	if _, err := kv.GetJSON(ctx, s.kv, kv.KeyWindows, &all); err != nil {
		return nil, fmt.Errorf("loading window state: %w", err)
	}
	return all, nil
}

// Get returns the window state for a card, or nil when the card has no
// open window.
func (s *Store) Get(ctx context.Context, cardID string) (*State, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].CardID == cardID {
			return &all[i], nil
		}
	}
	return nil, nil
}

// Save upserts a card's window state. A saved window lands on top of the
// stack: its z-index becomes one past the current maximum.
func (s *Store) Save(ctx context.Context, st State) (*State, error) {
	if st.CardID == "" {
		return nil, fmt.Errorf("saving window state: card id is required")
	}
	st.UpdatedAt = card.NowMillis()

	err := kv.UpdateJSON(ctx, s.kv, kv.KeyWindows, func(all []State) ([]State, error) {
		maxZ := 0
		idx := -1
		for i, w := range all {
			if w.ZIndex > maxZ {
				maxZ = w.ZIndex
			}
			if w.CardID == st.CardID {
				idx = i
			}
		}
		if st.ZIndex == 0 {
			st.ZIndex = maxZ + 1
		}
		if idx >= 0 {
			all[idx] = st
			return all, nil
		}
		return append(all, st), nil
	})
	if err != nil {
		return nil, fmt.Errorf("saving window state for %s: %w", st.CardID, err)
	}
	return &st, nil
}

// Remove closes a card's window. Removing a card with no window is a
// no-op, like closing an already-closed window.
func (s *Store) Remove(ctx context.Context, cardID string) error {
	err := kv.UpdateJSON(ctx, s.kv, kv.KeyWindows, func(all []State) ([]State, error) {
		filtered := all[:0]
		for _, w := range all {
			if w.CardID != cardID {
				filtered = append(filtered, w)
			}
		}
		return filtered, nil
	})
	if err != nil {
		return fmt.Errorf("removing window state for %s: %w", cardID, err)
	}
	return nil
}
