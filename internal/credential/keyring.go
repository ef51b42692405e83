// Package credential keeps server secrets (JWT signing key, SMTP
// password) in the OS keyring so they never land in the config file.
package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "collabtodo"

// ErrNotFound is returned when no secret is stored under a key.
var ErrNotFound = keyring.ErrKeyNotFound

// Vault reads and writes secrets in a keyring.
type Vault struct {
	ring keyring.Keyring
}

// NewVault wraps an already opened keyring.
func NewVault(ring keyring.Keyring) *Vault {
	return &Vault{ring: ring}
}

// Open returns a Vault backed by the OS keyring, falling back to an
// encrypted file under ~/.config/collabtodo/credentials.
func Open() (*Vault, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/collabtodo/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("collabtodo-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewVault(ring), nil
}

// Get retrieves a secret by key.
func (v *Vault) Get(key string) (string, error) {
	item, err := v.ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	if len(item.Data) == 0 {
		return "", fmt.Errorf("credential %q: %w", key, ErrNotFound)
	}
	return string(item.Data), nil
}

// Set stores a secret by key.
func (v *Vault) Set(key string, value string) error {
	err := v.ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: serviceName + " " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes a secret by key. Deleting a missing key is not an error.
func (v *Vault) Delete(key string) error {
	err := v.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

// Lookup resolves key for config loading. A missing key yields an empty
// secret rather than an error.
func (v *Vault) Lookup(key string) (string, error) {
	value, err := v.Get(key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return value, err
}
