package credentials

import (
	"context"
	"sync"

	"paysign/internal/signing"
)

// MemoryStore keeps credentials in a map. Secrets are held in plaintext, so
// it is meant for tests, the CLI and single-tenant webhook receivers.
type MemoryStore struct {
	mu      sync.RWMutex
	secrets map[string]string
}

// NewMemoryStore returns a store seeded with creds.
func NewMemoryStore(creds ...signing.Credentials) *MemoryStore {
	s := &MemoryStore{secrets: make(map[string]string, len(creds))}
	for _, c := range creds {
		s.secrets[c.APIKey] = c.SecretKey
	}
	return s
}

func (s *MemoryStore) Lookup(_ context.Context, apiKey string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	secret, ok := s.secrets[apiKey]
	if !ok {
		return "", ErrNotFound
	}
	return secret, nil
}

func (s *MemoryStore) Put(_ context.Context, creds signing.Credentials) error {
	if err := validate(creds); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[creds.APIKey] = creds.SecretKey
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, apiKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.secrets[apiKey]; !ok {
		return ErrNotFound
	}
	delete(s.secrets, apiKey)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
