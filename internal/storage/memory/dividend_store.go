package memory

import (
	"context"
	"sort"
	"sync"

	"solana-pool-engine/internal/domain"
	"solana-pool-engine/internal/storage"
)

// DividendStore is an in-memory implementation of storage.DividendStore.
type DividendStore struct {
	mu   sync.RWMutex
	data []*domain.Dividend
}

// NewDividendStore creates a new in-memory dividend store.
func NewDividendStore() *DividendStore {
	return &DividendStore{}
}

// Insert adds a distribution record.
func (s *DividendStore) Insert(_ context.Context, d *domain.Dividend) error {
	if d == nil || d.PoolID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	divCopy := *d
	s.data = append(s.data, &divCopy)
	return nil
}

// GetByPool retrieves all distributions for a pool, ordered by
// distributed_at ASC.
func (s *DividendStore) GetByPool(_ context.Context, poolID string) ([]*domain.Dividend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Dividend
	for _, d := range s.data {
		if d.PoolID == poolID {
			divCopy := *d
			result = append(result, &divCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DistributedAt < result[j].DistributedAt
	})
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.DividendStore = (*DividendStore)(nil)
