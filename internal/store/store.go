// Package store provides SQLite-backed key-value persistence for the
// application collections. Each key holds one JSON-serialized collection and
// every mutation rewrites the whole value (read-modify-write, last-write-wins).
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// Fixed store keys. Each one maps to an ordered JSON collection, except the
// session pointer which holds a single record or nothing.
const (
	KeyUsers       = "users"
	KeyCurrentUser = "current_user"
	KeyDownloads   = "downloads"
	KeyLocalFiles  = "local_files"
)

// Store wraps the SQLite database connection
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
}

// New creates a new store and initializes the schema
func New(dbPath string) (*Store, error) {
	// Add connection parameters to help with concurrent access
	connString := dbPath
	if dbPath != ":memory:" {
		connString = dbPath + "?_busy_timeout=30000&_journal_mode=WAL&_synchronous=NORMAL"
	}

	conn, err := sql.Open("sqlite", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't handle concurrent writes well
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	s := &Store{conn: conn, logger: slog.Default()}

	if err := s.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

// initSchema creates the key-value table
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`

	_, err := s.conn.Exec(schema)
	return err
}

// Get reads the JSON value stored under key into v. A missing key leaves v
// at its zero value. A corrupted value is treated the same way: the caller
// gets an empty collection and the next Set re-seeds the key, rather than
// the corruption propagating to the renderer.
func (s *Store) Get(key string, v any) error {
	var raw []byte
	err := s.conn.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return fmt.Errorf("failed to read key %q: %w", key, err)
	}

	if err := json.Unmarshal(raw, v); err != nil {
		s.logger.Warn("Discarding corrupted store value", "key", key, "error", err)
		return nil
	}

	return nil
}

// Set serializes v as JSON and writes it under key, replacing any previous
// value
func (s *Store) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize value for key %q: %w", key, err)
	}

	query := `
	INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	if _, err := s.conn.Exec(query, key, raw, time.Now()); err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}

	return nil
}

// Delete removes the value stored under key. Deleting a missing key is not
// an error.
func (s *Store) Delete(key string) error {
	if _, err := s.conn.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}

	return nil
}
