package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const keyringService = "healthmap-cli"

// keyringBackend keeps entries in the OS keychain/credential manager
type keyringBackend struct {
	service string
}

// NewKeyringStore returns a Store backed by the OS keychain, scoped by scope
func NewKeyringStore(scope string) Store {
	return newKVStore(&keyringBackend{service: keyringService}, scope)
}

func (k *keyringBackend) load(key string) (string, bool, error) {
	value, err := keyring.Get(k.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("keyring get: %w", err)
	}
	return value, true, nil
}

func (k *keyringBackend) save(key, value string) error {
	if err := keyring.Set(k.service, key, value); err != nil {
		return fmt.Errorf("keyring set: %w", err)
	}
	return nil
}

func (k *keyringBackend) remove(key string) error {
	if err := keyring.Delete(k.service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("keyring delete: %w", err)
	}
	return nil
}
