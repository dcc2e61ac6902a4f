// internal/session/store.go
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store holds the current API credential. It is the single gate for all
// data access: the request pipeline reads from it on every call.
// Set and Clear persist to disk before updating the in-memory value, so
// a process restart observes the same state.
type Store struct {
	path     string
	fallback string

	mu  sync.RWMutex
	key string
}

// credentialFile is the on-disk shape of the persisted session.
type credentialFile struct {
	APIKey string `json:"api_key"`
}

// NewStore creates a credential store persisted under dataDir. fallback
// is the build-time/config default key used when nothing is persisted.
func NewStore(dataDir, fallback string) *Store {
	return &Store{
		path:     filepath.Join(dataDir, "session.json"),
		fallback: fallback,
	}
}

// Path returns the file path used by this store.
func (s *Store) Path() string {
	return s.path
}

// Load seeds the in-memory credential from disk, falling back to the
// configured default when no session file exists. Call once at startup.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.key = s.fallback
			return nil
		}
		return fmt.Errorf("read session: %w", err)
	}
	var f credentialFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse session: %w", err)
	}
	s.key = f.APIKey
	return nil
}

// Get returns the current credential and whether one is present.
func (s *Store) Get() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key, s.key != ""
}

// Set persists the credential, then updates the in-memory value.
func (s *Store) Set(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(key); err != nil {
		return err
	}
	s.key = key
	return nil
}

// Clear removes the persisted credential, then the in-memory value.
// The configured fallback is intentionally not restored: logout means
// logged out until the next explicit login or restart.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session: %w", err)
	}
	s.key = ""
	return nil
}

// write stores the credential atomically. 0600: the file holds a secret.
func (s *Store) write(key string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.MarshalIndent(credentialFile{APIKey: key}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	data = append(data, '\n')
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename session: %w", err)
	}
	return nil
}
