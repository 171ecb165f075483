package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	tokenKey = "auth_token"

	// TokenTTL matches the lifetime of the web client's auth cookie
	TokenTTL = 7 * 24 * time.Hour
)

// TokenStore keeps the auth token in the credentials table
type TokenStore struct {
	db  *DB
	now func() time.Time
}

// NewTokenStore creates a token store backed by db
func NewTokenStore(db *DB) *TokenStore {
	return &TokenStore{db: db, now: time.Now}
}

// Token returns the stored token, or "" when none is stored or it expired
func (s *TokenStore) Token() (string, error) {
	var value string
	var expiresAt int64
	err := s.db.QueryRow(`SELECT value, expires_at FROM credentials WHERE key = ?`, tokenKey).
		Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}

	if s.now().Unix() >= expiresAt {
		if err := s.ClearToken(); err != nil {
			return "", err
		}
		return "", nil
	}
	return value, nil
}

// SetToken stores token and restarts its expiry
func (s *TokenStore) SetToken(token string) error {
	if token == "" {
		return s.ClearToken()
	}
	expiresAt := s.now().Add(TokenTTL).Unix()
	_, err := s.db.Exec(`
		INSERT INTO credentials (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		tokenKey, token, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// ClearToken removes the stored token
func (s *TokenStore) ClearToken() error {
	if _, err := s.db.Exec(`DELETE FROM credentials WHERE key = ?`, tokenKey); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}
