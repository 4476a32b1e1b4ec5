package storage

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const service = "wanderlust-cli"

// Keyring keeps secrets (the session and provider tokens) in the OS keychain
// and delegates every other key to a fallback store.
type Keyring struct {
	server   string
	fallback Store
}

// NewKeyring returns a keyring-backed Store scoped to one API server
func NewKeyring(server string, fallback Store) *Keyring {
	return &Keyring{server: server, fallback: fallback}
}

func isSecret(key string) bool {
	return key == KeyToken || key == KeyClerkSession
}

// keyringKey returns a unique account name per server and key
func (k *Keyring) keyringKey(key string) string {
	return fmt.Sprintf("%s-%s", key, k.server)
}

func (k *Keyring) Get(key string) (string, error) {
	if !isSecret(key) {
		return k.fallback.Get(key)
	}

	value, err := keyring.Get(service, k.keyringKey(key))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to load %s from keyring: %w", key, err)
	}
	return value, nil
}

func (k *Keyring) Set(key, value string) error {
	if !isSecret(key) {
		return k.fallback.Set(key, value)
	}

	if err := keyring.Set(service, k.keyringKey(key), value); err != nil {
		return fmt.Errorf("failed to save %s to keyring: %w", key, err)
	}
	return nil
}

func (k *Keyring) Delete(key string) error {
	if !isSecret(key) {
		return k.fallback.Delete(key)
	}

	if err := keyring.Delete(service, k.keyringKey(key)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", key, err)
	}
	return nil
}
