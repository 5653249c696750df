package creds

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringBackend stores entries in the platform secret vault (Windows
// Credential Manager, macOS Keychain, Secret Service on Linux).
type KeyringBackend struct {
	service string
}

var _ Backend = (*KeyringBackend)(nil)

func NewKeyringBackend() *KeyringBackend {
	return &KeyringBackend{service: Service}
}

func (k *KeyringBackend) Get(entry string) (string, error) {
	v, err := keyring.Get(k.service, entry)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (k *KeyringBackend) Set(entry, value string) error {
	return keyring.Set(k.service, entry, value)
}

func (k *KeyringBackend) Delete(entry string) error {
	err := keyring.Delete(k.service, entry)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// EnvBackend reads entries from environment variables, mapping an entry name
// to an uppercase, underscore-joined variable with an ETRADE_ prefix
// (consumer_key -> ETRADE_CONSUMER_KEY). Writes are rejected: the
// environment is supplied by the operator, not managed by us.
type EnvBackend struct{}

var _ Backend = (*EnvBackend)(nil)

func NewEnvBackend() *EnvBackend { return &EnvBackend{} }

// EnvVar returns the environment variable name for a vault entry.
func EnvVar(entry string) string {
	return "ETRADE_" + strings.ToUpper(entry)
}

func (e *EnvBackend) Get(entry string) (string, error) {
	if v := os.Getenv(EnvVar(entry)); v != "" {
		return v, nil
	}
	return "", ErrNotFound
}

func (e *EnvBackend) Set(entry, value string) error {
	return errors.New("env credential backend is read-only")
}

func (e *EnvBackend) Delete(entry string) error {
	return errors.New("env credential backend is read-only")
}

// MemoryBackend keeps entries in a map. Used in tests and available as an
// explicit opt-out of persistence.
type MemoryBackend struct {
	values map[string]string
}

var _ Backend = (*MemoryBackend)(nil)

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

func (m *MemoryBackend) Get(entry string) (string, error) {
	v, ok := m.values[entry]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryBackend) Set(entry, value string) error {
	m.values[entry] = value
	return nil
}

func (m *MemoryBackend) Delete(entry string) error {
	if _, ok := m.values[entry]; !ok {
		return ErrNotFound
	}
	delete(m.values, entry)
	return nil
}
