package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store holds the single bearer credential for the client. Implementations
// return errors so storage failures stay observable, but callers in the
// session layer treat any failure as "no credential" rather than crashing.
type Store interface {
	Set(token string) error
	Get() (string, error)
	Clear() error
}

// FileStore keeps the token in one file, shared by every process of the
// operator, which makes logout from another terminal visible here.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path exposes the token location for change watching.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Set(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

func (s *FileStore) Get() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

// MemoryStore is an in-process Store for tests.
type MemoryStore struct {
	mu    sync.RWMutex
	token string

	// Err, when non-nil, is returned by every operation to simulate
	// unavailable storage.
	Err error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Set(token string) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryStore) Get() (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

func (s *MemoryStore) Clear() error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
