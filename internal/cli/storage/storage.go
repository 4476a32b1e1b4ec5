package storage

import (
	"errors"
	"sync"
)

// Keys written by the session manager
const (
	KeyToken        = "token"
	KeyUser         = "user"
	KeyClerkSession = "clerk_session"
)

// Keys left behind by older releases. They are only ever read, by diagnostics.
const (
	LegacyKeyToken = "travel_agency_token"
	LegacyKeyUser  = "travel_agency_user"
)

// ErrNotFound is returned by Get when the key has no value
var ErrNotFound = errors.New("key not found")

// Store is the client-side key/value persistence used for the session.
// This allows us to swap the file, keyring and in-memory backends.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Memory is an in-process Store, used by tests and one-shot commands
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemory returns an empty in-memory store
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

// Has reports whether key is present in s
func Has(s Store, key string) bool {
	_, err := s.Get(key)
	return err == nil
}
