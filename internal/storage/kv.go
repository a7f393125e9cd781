// Package storage provides the durable key-value store backing annotation
// persistence. One record per context key; values are opaque payloads owned
// by the caller.
package storage

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// KV is a durable key-value store.
type KV interface {
	// Get returns the payload for key, and whether the key exists.
	Get(key string) ([]byte, bool, error)
	// Put stores the payload for key, replacing any existing value.
	Put(key string, payload []byte) error
	// Delete removes the key. Deleting an absent key is not an error.
	Delete(key string) error
	Close() error
}

// MemKV is an in-memory KV used in tests and when durable storage is
// unavailable.
type MemKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemKV creates an empty in-memory store.
func NewMemKV() *MemKV {
	return &MemKV{data: make(map[string][]byte)}
}

func (m *MemKV) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payload, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	return cp, true, nil
}

func (m *MemKV) Put(key string, payload []byte) error {
	cp := make([]byte, len(payload))
	copy(cp, payload)
	m.mu.Lock()
	m.data[key] = cp
	m.mu.Unlock()
	return nil
}

func (m *MemKV) Delete(key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *MemKV) Close() error {
	return nil
}

// SQLiteKV stores payloads in a single annotation_sets table.
type SQLiteKV struct {
	db  *sql.DB
	log zerolog.Logger
}

// OpenSQLite opens (creating if needed) the store at dbPath.
func OpenSQLite(dbPath string, log zerolog.Logger) (*SQLiteKV, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", dbPath, err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS annotation_sets (
			context_key TEXT PRIMARY KEY,
			payload     BLOB NOT NULL,
			updated_at  TEXT NOT NULL
		)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create annotation_sets table: %w", err)
	}

	return &SQLiteKV{
		db:  db,
		log: log.With().Str("component", "storage").Logger(),
	}, nil
}

func (s *SQLiteKV) Get(key string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRow(
		"SELECT payload FROM annotation_sets WHERE context_key = ?", key,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return payload, true, nil
}

func (s *SQLiteKV) Put(key string, payload []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO annotation_sets (context_key, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(context_key) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		key, payload, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteKV) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM annotation_sets WHERE context_key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteKV) Close() error {
	return s.db.Close()
}
