// package store provides an opaque JSON key-value store backed by SQLite.
//
// The queue engine persists its membership and provenance state here so it
// survives restarts. Values are marshaled as JSON; set-like collections must
// be serialized as arrays and rehydrated by the caller.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// KV is a SQLite-backed key-value store with JSON values.
type KV struct {
	db *sql.DB
}

// Open opens (and initializes) a key-value store at the given path.
// The path can be ":memory:" for an in-memory store.
func Open(path string) (*KV, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &KV{db: db}, nil
}

// Configure sets connection pool settings for the underlying database.
func (s *KV) Configure(maxOpenConns, maxIdleConns int) {
	s.db.SetMaxOpenConns(maxOpenConns)
	s.db.SetMaxIdleConns(maxIdleConns)
}

// Close closes the underlying database.
func (s *KV) Close() error {
	return s.db.Close()
}

// Get unmarshals the value stored under key into the target.
// Returns false with no error when the key is absent.
func (s *KV) Get(key string, into any) (bool, error) {
	var raw string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read key %q: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), into); err != nil {
		return false, fmt.Errorf("failed to unmarshal key %q: %w", key, err)
	}

	return true, nil
}

// Set stores the JSON serialization of value under key, replacing any
// previous value.
func (s *KV) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal key %q: %w", key, err)
	}

	_, err = s.db.Exec(
		"INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",
		key, string(raw), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}

	return nil
}

// Remove deletes a key. Removing an absent key is not an error.
func (s *KV) Remove(key string) error {
	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}
