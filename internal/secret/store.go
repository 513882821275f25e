package secret

import (
	"os"
	"strings"
	"sync"
)

// SecretStore provides a pluggable interface for storing sensitive data
// such as document store passwords. The default implementation uses the
// macOS Keychain, but can be swapped for env vars, Secret Manager, etc.
type SecretStore interface {
	// Set stores a secret value under the given key.
	Set(key string, value []byte) error

	// Get retrieves the secret value for the given key.
	// Returns empty slice and nil error if key does not exist.
	Get(key string) ([]byte, error)

	// Delete removes the secret for the given key.
	Delete(key string) error
}

// EnvStore reads secrets from environment variables named
// PAGEBUILDER_SECRET_<KEY>, with the key upper-cased and '-', '/' and '.'
// turned into '_'. Set and Delete only affect the in-process overrides.
type EnvStore struct {
	mu        sync.RWMutex
	overrides map[string][]byte
	lookup    func(string) (string, bool)
}

func NewEnvStore() *EnvStore {
	return &EnvStore{overrides: map[string][]byte{}, lookup: os.LookupEnv}
}

// NewMapStore returns an EnvStore backed by a fixed map instead of the
// process environment. Keys are the raw secret names.
func NewMapStore(values map[string]string) *EnvStore {
	s := &EnvStore{overrides: map[string][]byte{}, lookup: func(string) (string, bool) { return "", false }}
	for k, v := range values {
		s.overrides[k] = []byte(v)
	}
	return s
}

// EnvKey returns the variable name EnvStore consults for key.
func EnvKey(key string) string {
	r := strings.NewReplacer("-", "_", "/", "_", ".", "_")
	return "PAGEBUILDER_SECRET_" + strings.ToUpper(r.Replace(key))
}

func (s *EnvStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[key] = append([]byte(nil), value...)
	return nil
}

func (s *EnvStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	v, ok := s.overrides[key]
	s.mu.RUnlock()
	if ok {
		return append([]byte(nil), v...), nil
	}
	if val, ok := s.lookup(EnvKey(key)); ok {
		return []byte(val), nil
	}
	return nil, nil
}

func (s *EnvStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.overrides, key)
	return nil
}
