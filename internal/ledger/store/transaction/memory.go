package transaction

import (
	"context"
	"sync"

	"tallyman/internal/ledger/models"
)

// InMemoryStore keeps the ledger in process memory. IDs start at 1.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []models.Transaction
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{}
}

// List returns a copy of the ledger in append order.
func (s *InMemoryStore) List(_ context.Context) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Transaction, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Append assigns the next ID and stores tx.
func (s *InMemoryStore) Append(_ context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx.ID = int64(len(s.records)) + 1
	s.records = append(s.records, *tx)
	return nil
}

// Replace swaps the stored record with the same ID. It exists so tests can
// simulate tampering with the backing storage; the service never calls it.
func (s *InMemoryStore) Replace(_ context.Context, tx models.Transaction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID == tx.ID {
			s.records[i] = tx
			return true
		}
	}
	return false
}

// Delete removes the record with id. Test-only, like Replace.
func (s *InMemoryStore) Delete(_ context.Context, id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return true
		}
	}
	return false
}
