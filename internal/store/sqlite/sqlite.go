// Package sqlite stores documents in a single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/longkidkoolstar/jsonviewer/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at TEXT NOT NULL
);`

const (
	selectValue = "SELECT value FROM documents WHERE key = ?"
	upsertValue = `
		INSERT INTO documents (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
)

// Store implements store.Store on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path. Use ":memory:" for an
// in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	// Immediate transactions take the write lock up front, so an Update
	// never reads a value another process is about to replace.
	db, err := sql.Open("sqlite", path+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// One connection: ":memory:" is per-connection and writers serialise anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Load(ctx context.Context, key string, dst any) (bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, selectValue, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, store.ReadError(key, err)
	}
	if err := json.Unmarshal(value, dst); err != nil {
		return true, store.ReadError(key, err)
	}
	return true, nil
}

func (s *Store) Save(ctx context.Context, key string, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return store.WriteError(key, err)
	}
	if _, err := s.db.ExecContext(ctx, upsertValue, key, value, timestamp()); err != nil {
		return store.WriteError(key, err)
	}
	return nil
}

// Update runs fn inside one immediate transaction.
func (s *Store) Update(ctx context.Context, key string, fn store.UpdateFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.WriteError(key, err)
	}
	defer func() { _ = tx.Rollback() }()

	load := func(dst any) (bool, error) {
		var value []byte
		err := tx.QueryRowContext(ctx, selectValue, key).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, store.ReadError(key, err)
		}
		if err := json.Unmarshal(value, dst); err != nil {
			return true, store.ReadError(key, err)
		}
		return true, nil
	}
	v, err := fn(load)
	if err != nil || v == nil {
		return err
	}

	value, err := json.Marshal(v)
	if err != nil {
		return store.WriteError(key, err)
	}
	if _, err := tx.ExecContext(ctx, upsertValue, key, value, timestamp()); err != nil {
		return store.WriteError(key, err)
	}
	if err := tx.Commit(); err != nil {
		return store.WriteError(key, err)
	}
	return nil
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
