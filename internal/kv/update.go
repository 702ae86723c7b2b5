package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// maxUpdateRetries bounds optimistic-concurrency retries. Two surfaces
// racing on the same collection resolve within a retry or two; anything
// beyond that indicates a stuck writer and should surface as an error.
const maxUpdateRetries = 5

// GetJSON reads and decodes the value under key into out. A missing key
// leaves out at its zero value and returns false.
func GetJSON[T any](ctx context.Context, s Store, key string, out *T) (bool, error) {
	raw, _, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decoding key %q: %w", key, err)
	}
	return true, nil
}

// UpdateJSON runs a read-modify-write cycle on the value under key with
// compare-and-swap semantics, retrying on conflicting concurrent writes.
// fn receives the current value (zero value if the key is absent) and
// returns the replacement.
func UpdateJSON[T any](ctx context.Context, s Store, key string, fn func(cur T) (T, error)) error {
	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		raw, revision, err := s.Get(ctx, key)
		if err != nil {
			return err
		}

		var cur T
		if raw != nil {
			if err := json.Unmarshal(raw, &cur); err != nil {
				return fmt.Errorf("decoding key %q: %w", key, err)
			}
		}

		next, err := fn(cur)
		if err != nil {
			return err
		}

		encoded, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encoding key %q: %w", key, err)
		}

		err = s.CompareAndSwap(ctx, key, encoded, revision)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrRevisionMismatch) {
			return err
		}
	}
	return fmt.Errorf("updating key %q: %w", key, ErrRevisionMismatch)
}
