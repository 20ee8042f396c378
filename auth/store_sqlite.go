package auth

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultKeyPrefix namespaces rows written by this library so a shared
// database file never collides with other tenants of the table.
const DefaultKeyPrefix = "irx_auth_"

const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyVerifier     = "verifier"
)

// SQLiteStore is a durable [TokenStore] and [VerifierStore] backed by a
// key-value table in SQLite. Every row key carries the store's prefix;
// Clear touches only the session keys under that prefix.
type SQLiteStore struct {
	db     *sql.DB
	prefix string
}

// NewSQLiteStore creates the backing table when absent and returns a store
// scoped to the given key prefix. An empty prefix selects
// [DefaultKeyPrefix]. The caller owns the database handle.
func NewSQLiteStore(db *sql.DB, prefix string) (*SQLiteStore, error) {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}

	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS auth_tokens (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth_tokens table: %w", err)
	}

	return &SQLiteStore{db: db, prefix: prefix}, nil
}

func (s *SQLiteStore) get(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM auth_tokens WHERE key = ?", s.prefix+key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) set(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO auth_tokens (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		s.prefix+key, value)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) delete(keys ...string) error {
	for _, key := range keys {
		if _, err := s.db.Exec("DELETE FROM auth_tokens WHERE key = ?", s.prefix+key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}
	return nil
}

func (s *SQLiteStore) AccessToken() (string, error) { return s.get(keyAccessToken) }

func (s *SQLiteStore) SetAccessToken(token string) error { return s.set(keyAccessToken, token) }

func (s *SQLiteStore) RefreshToken() (string, error) { return s.get(keyRefreshToken) }

func (s *SQLiteStore) SetRefreshToken(token string) error { return s.set(keyRefreshToken, token) }

// Clear removes the session tokens. A pending attempt verifier, if any,
// survives so an in-flight authorization can still complete.
func (s *SQLiteStore) Clear() error { return s.delete(keyAccessToken, keyRefreshToken) }

func (s *SQLiteStore) Verifier() (string, error) { return s.get(keyVerifier) }

func (s *SQLiteStore) SetVerifier(verifier string) error { return s.set(keyVerifier, verifier) }

func (s *SQLiteStore) ClearVerifier() error { return s.delete(keyVerifier) }
