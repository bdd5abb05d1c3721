package memory

import (
	"context"
	"sort"
	"sync"

	"solana-pool-engine/internal/domain"
	"solana-pool-engine/internal/storage"
)

// PoolStore is an in-memory implementation of storage.PoolStore.
type PoolStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PoolRecord // keyed by pool_id
}

// NewPoolStore creates a new in-memory pool store.
func NewPoolStore() *PoolStore {
	return &PoolStore{
		data: make(map[string]*domain.PoolRecord),
	}
}

// copyPool deep-copies a record so callers cannot mutate stored state.
func copyPool(p *domain.PoolRecord) *domain.PoolRecord {
	poolCopy := *p
	poolCopy.Assets = make([]domain.AssetBinding, len(p.Assets))
	copy(poolCopy.Assets, p.Assets)
	return &poolCopy
}

// Insert adds a new pool record. Returns ErrDuplicateKey if pool_id exists.
func (s *PoolStore) Insert(_ context.Context, p *domain.PoolRecord) error {
	if p == nil || p.PoolID == "" || p.LedgerReference == "" {
		// A pool record with no ledger reference must not exist.
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.PoolID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[p.PoolID] = copyPool(p)
	return nil
}

// GetByID retrieves a pool by its ID. Returns ErrNotFound if not exists.
func (s *PoolStore) GetByID(_ context.Context, poolID string) (*domain.PoolRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[poolID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyPool(p), nil
}

// Update replaces an existing pool record. Returns ErrNotFound if not exists.
func (s *PoolStore) Update(_ context.Context, p *domain.PoolRecord) error {
	if p == nil || p.PoolID == "" || p.LedgerReference == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.PoolID]; !exists {
		return storage.ErrNotFound
	}
	s.data[p.PoolID] = copyPool(p)
	return nil
}

// Delete removes a pool record. Returns ErrNotFound if not exists.
func (s *PoolStore) Delete(_ context.Context, poolID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[poolID]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, poolID)
	return nil
}

// DeleteBatch removes a set of pool records, skipping missing IDs.
func (s *PoolStore) DeleteBatch(_ context.Context, poolIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range poolIDs {
		delete(s.data, id)
	}
	return nil
}

// List retrieves all pool records, ordered by created_at ASC.
func (s *PoolStore) List(_ context.Context) ([]*domain.PoolRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.PoolRecord, 0, len(s.data))
	for _, p := range s.data {
		result = append(result, copyPool(p))
	}
	sortPools(result)
	return result, nil
}

// ListWithLedgerReference retrieves all records with a non-empty ledger
// reference, ordered by created_at ASC.
func (s *PoolStore) ListWithLedgerReference(_ context.Context) ([]*domain.PoolRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PoolRecord
	for _, p := range s.data {
		if p.LedgerReference != "" {
			result = append(result, copyPool(p))
		}
	}
	sortPools(result)
	return result, nil
}

// GetByAsset retrieves all pools holding a binding for the asset.
func (s *PoolStore) GetByAsset(_ context.Context, assetID string) ([]*domain.PoolRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PoolRecord
	for _, p := range s.data {
		for _, b := range p.Assets {
			if b.AssetID == assetID {
				result = append(result, copyPool(p))
				break
			}
		}
	}
	sortPools(result)
	return result, nil
}

func sortPools(pools []*domain.PoolRecord) {
	sort.Slice(pools, func(i, j int) bool {
		if pools[i].CreatedAt != pools[j].CreatedAt {
			return pools[i].CreatedAt < pools[j].CreatedAt
		}
		return pools[i].PoolID < pools[j].PoolID
	})
}

// Verify interface compliance at compile time.
var _ storage.PoolStore = (*PoolStore)(nil)
