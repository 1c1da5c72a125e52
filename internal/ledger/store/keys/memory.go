package keys

import (
	"context"
	"maps"
	"sync"

	"tallyman/pkg/platform/sentinel"
)

// InMemoryStore keeps the key registry in process memory.
type InMemoryStore struct {
	mu   sync.RWMutex
	keys map[string]string
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{keys: make(map[string]string)}
}

func (s *InMemoryStore) Save(_ context.Context, party, publicKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[party] = publicKey
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, party string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.keys[party]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return key, nil
}

// All returns a snapshot of the registry.
func (s *InMemoryStore) All(_ context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.keys), nil
}
