// Package session owns the authentication token lifecycle and the identity
// it unlocks. No other package reads or writes the persisted token.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TokenStore persists the session token in a single file on disk. The file
// is read once at startup (Load) and written only by login/logout, so there
// are no concurrent writers.
type TokenStore struct {
	path  string
	token string
}

// DefaultTokenPath returns the per-user token location.
func DefaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("session: resolve config dir: %w", err)
	}
	return filepath.Join(dir, "raido", "token"), nil
}

// NewTokenStore creates a store backed by the file at path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Load reads the persisted token into memory. A missing file means an
// anonymous session and is not an error.
func (s *TokenStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.token = ""
			return nil
		}
		return fmt.Errorf("session: read token: %w", err)
	}
	s.token = strings.TrimSpace(string(data))
	return nil
}

// Token returns the in-memory token; empty means anonymous.
func (s *TokenStore) Token() string { return s.token }

// Save persists the token and caches it.
func (s *TokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("session: create token dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("session: write token: %w", err)
	}
	s.token = token
	return nil
}

// Clear removes the persisted token. Idempotent.
func (s *TokenStore) Clear() error {
	s.token = ""
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("session: remove token: %w", err)
	}
	return nil
}
