package kv

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nabokov/clipd/internal/db"
)

// SQLiteStore persists the key-value namespace in the clipd database.
type SQLiteStore struct {
	db *db.DB
	notifier
}

// NewSQLiteStore creates a store backed by the given database.
func NewSQLiteStore(database *db.DB) *SQLiteStore {
	return &SQLiteStore{db: database}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (json.RawMessage, int64, error) {
	var value string
	var revision int64
	err := s.db.QueryRowContext(ctx,
		`SELECT value, revision FROM kv_entries WHERE key = ?`, key,
	).Scan(&value, &revision)
	if err == sql.ErrNoRows {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("reading key %q: %w", key, err)
	}
	return json.RawMessage(value), revision, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value json.RawMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning write: %w", err)
	}
	defer tx.Rollback()

	old, revision, err := currentTx(ctx, tx, key)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO kv_entries (key, value, revision, updated_at) VALUES (?, ?, 1, datetime('now'))
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, revision = kv_entries.revision + 1, updated_at = datetime('now')`,
		key, string(value),
	); err != nil {
		return fmt.Errorf("writing key %q: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing write: %w", err)
	}

	s.notify(Change{Key: key, OldValue: old, NewValue: value, Revision: revision + 1})
	return nil
}

func (s *SQLiteStore) CompareAndSwap(ctx context.Context, key string, value json.RawMessage, expect int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning write: %w", err)
	}
	defer tx.Rollback()

	old, revision, err := currentTx(ctx, tx, key)
	if err != nil {
		return err
	}
	if revision != expect {
		return ErrRevisionMismatch
	}

	if revision == 0 {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO kv_entries (key, value, revision, updated_at) VALUES (?, ?, 1, datetime('now'))`,
			key, string(value),
		)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE kv_entries SET value = ?, revision = revision + 1, updated_at = datetime('now') WHERE key = ? AND revision = ?`,
			string(value), key, expect,
		)
	}
	if err != nil {
		return fmt.Errorf("writing key %q: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing write: %w", err)
	}

	s.notify(Change{Key: key, OldValue: old, NewValue: value, Revision: revision + 1})
	return nil
}

func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning remove: %w", err)
	}
	defer tx.Rollback()

	old, revision, err := currentTx(ctx, tx, key)
	if err != nil {
		return err
	}
	if revision == 0 {
		return nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("removing key %q: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing remove: %w", err)
	}

	s.notify(Change{Key: key, OldValue: old, Revision: revision + 1})
	return nil
}

func currentTx(ctx context.Context, tx *sql.Tx, key string) (json.RawMessage, int64, error) {
	var value string
	var revision int64
	err := tx.QueryRowContext(ctx, `SELECT value, revision FROM kv_entries WHERE key = ?`, key).Scan(&value, &revision)
	if err == sql.ErrNoRows {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("reading key %q: %w", key, err)
	}
	return json.RawMessage(value), revision, nil
}
