package kv

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore is an in-memory Store used by tests and by surfaces that
// don't need durability.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	notifier
}

type memoryEntry struct {
	value    json.RawMessage
	revision int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (json.RawMessage, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, 0, nil
	}
	return e.value, e.revision, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value json.RawMessage) error {
	s.mu.Lock()
	old := s.entries[key]
	e := memoryEntry{value: value, revision: old.revision + 1}
	s.entries[key] = e
	s.mu.Unlock()

	s.notify(Change{Key: key, OldValue: old.value, NewValue: value, Revision: e.revision})
	return nil
}

func (s *MemoryStore) CompareAndSwap(ctx context.Context, key string, value json.RawMessage, expect int64) error {
	s.mu.Lock()
	old := s.entries[key]
	if old.revision != expect {
		s.mu.Unlock()
		return ErrRevisionMismatch
	}
	e := memoryEntry{value: value, revision: old.revision + 1}
	s.entries[key] = e
	s.mu.Unlock()

	s.notify(Change{Key: key, OldValue: old.value, NewValue: value, Revision: e.revision})
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	old, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.entries, key)
	s.mu.Unlock()

	s.notify(Change{Key: key, OldValue: old.value, Revision: old.revision + 1})
	return nil
}
