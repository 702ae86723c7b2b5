// Package links manages expandable links: inline anchors inside a card's
// content that point at a child card on the canvas.
package links

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/nabokov/clipd/internal/card"
	"github.com/nabokov/clipd/internal/kv"
)

// Link records one inline anchor inside a parent card's content.
type Link struct {
	ID           string `json:"id"`
	ParentCardID string `json:"parentCardId"`
	ChildCardID  string `json:"childCardId"`
	AnchorText   string `json:"anchorText"`
	StartOffset  int    `json:"startOffset"`
	EndOffset    int    `json:"endOffset"`
	CreatedAt    int64  `json:"createdAt"`
}

// Store manages the flat link list under kv.KeyExpandableLinks.
type Store struct {
	kv kv.Store
}

// NewStore creates a link store over the given key-value namespace.
func NewStore(store kv.Store) *Store {
	return &Store{kv: store}
}

// All returns every link; a missing collection is an empty result.
func (s *Store) All(ctx context.Context) ([]Link, error) {
	var all []Link
	if _, err := kv.GetJSON(ctx, s.kv, kv.KeyExpandableLinks, &all); err != nil {
		return nil, fmt.Errorf("loading links: %w", err)
	}
	return all, nil
}

// ForCard returns the links whose parent is the given card.
func (s *Store) ForCard(ctx context.Context, parentCardID string) ([]Link, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []Link
	for _, l := range all {
		if l.ParentCardID == parentCardID {
			out = append(out, l)
		}
	}
	return out, nil
}

// Create appends a link, assigning an id and creation time if unset.
func (s *Store) Create(ctx context.Context, l Link) (*Link, error) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.CreatedAt == 0 {
		l.CreatedAt = card.NowMillis()
	}

	err := kv.UpdateJSON(ctx, s.kv, kv.KeyExpandableLinks, func(all []Link) ([]Link, error) {
		return append(all, l), nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating link %s: %w", l.ID, err)
	}
	return &l, nil
}

// Delete removes a link by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	err := kv.UpdateJSON(ctx, s.kv, kv.KeyExpandableLinks, func(all []Link) ([]Link, error) {
		filtered := all[:0]
		for _, l := range all {
			if l.ID != id {
				filtered = append(filtered, l)
			}
		}
		return filtered, nil
	})
	if err != nil {
		return fmt.Errorf("deleting link %s: %w", id, err)
	}
	return nil
}

// DeleteForCard removes every link whose parent or child is the given
// card. Called by the card-deletion cascade.
func (s *Store) DeleteForCard(ctx context.Context, cardID string) error {
	err := kv.UpdateJSON(ctx, s.kv, kv.KeyExpandableLinks, func(all []Link) ([]Link, error) {
		filtered := all[:0]
		for _, l := range all {
			if l.ParentCardID != cardID && l.ChildCardID != cardID {
				filtered = append(filtered, l)
			}
		}
		return filtered, nil
	})
	if err != nil {
		return fmt.Errorf("deleting links for card %s: %w", cardID, err)
	}
	return nil
}

// InjectLinksIntoContent wraps each link's anchor text in the card content
// with anchor markup. Links are processed in descending start-offset order
// so earlier offsets stay valid while injected markup grows the string;
// this ordering is a correctness requirement, not a style choice.
func InjectLinksIntoContent(content string, all []Link) string {
	if content == "" || len(all) == 0 {
		return content
	}

	sorted := make([]Link, len(all))
	copy(sorted, all)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartOffset > sorted[j].StartOffset
	})

	for _, l := range sorted {
		if l.AnchorText == "" {
			continue
		}
		anchor := fmt.Sprintf(
			`<a href="#" class="nabokov-expandable-link" data-link-id="%s" data-child-card-id="%s" title="Click to focus child card">%s</a>`,
			html.EscapeString(l.ID), html.EscapeString(l.ChildCardID), l.AnchorText,
		)
		// Replace the occurrence nearest the recorded offset; repeated
		// anchor text earlier in the content must stay untouched.
		content = replaceAtOrAfter(content, l.AnchorText, anchor, l.StartOffset)
	}

	return content
}

// replaceAtOrAfter replaces the first occurrence of old at or after offset,
// falling back to the first occurrence anywhere if the offset overshoots.
func replaceAtOrAfter(s, old, repl string, offset int) string {
	if offset < 0 || offset > len(s) {
		offset = 0
	}
	idx := strings.Index(s[offset:], old)
	if idx >= 0 {
		idx += offset
	} else {
		idx = strings.Index(s, old)
	}
	if idx < 0 {
		return s
	}
	return s[:idx] + repl + s[idx+len(old):]
}
