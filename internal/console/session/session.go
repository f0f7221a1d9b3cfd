// Package session provides durable storage for the admin console's
// authentication state: token pair plus a cached user profile, persisted
// as a JSON file.
//
// The store is the sole owner of persisted session state. Other console
// components read snapshots via Load and never touch the file directly.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Profile is the cached user identity, kept for display purposes only.
// The backend remains authoritative.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Picture  string `json:"picture,omitempty"`
}

// Session holds the console's authentication state.
type Session struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	User         *Profile `json:"user,omitempty"`
}

// IsEmpty reports whether the session carries no usable credentials.
func (s Session) IsEmpty() bool {
	return s.AccessToken == "" && s.RefreshToken == ""
}

// Store persists a Session as a JSON file. Safe for concurrent use: the
// refresh path mutates tokens while panels read them.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store persisting at the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Save persists the session, overwriting any prior values. The file is
// written 0600: it holds live credentials.
func (s *Store) Save(sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(sess)
}

// Load returns the persisted session. A missing or malformed file yields
// the zero session, never an error: expected absence is not exceptional.
func (s *Store) Load() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Clear removes all persisted session state.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// UpdateTokens replaces the stored token pair, leaving the cached profile
// untouched. An empty refresh argument keeps the existing refresh token
// (refresh responses may or may not rotate it).
func (s *Store) UpdateTokens(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.read()
	sess.AccessToken = access
	if refresh != "" {
		sess.RefreshToken = refresh
	}
	return s.write(sess)
}

func (s *Store) read() Session {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Session{}
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}
	}
	return sess
}

func (s *Store) write(sess Session) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating session directory: %w", err)
		}
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}
