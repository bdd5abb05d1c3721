package memory

import (
	"context"
	"sort"
	"sync"

	"solana-pool-engine/internal/domain"
	"solana-pool-engine/internal/storage"
)

// InvestmentStore is an in-memory implementation of storage.InvestmentStore.
type InvestmentStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Investment // keyed by pool_id|investor_address
}

// NewInvestmentStore creates a new in-memory investment store.
func NewInvestmentStore() *InvestmentStore {
	return &InvestmentStore{
		data: make(map[string]*domain.Investment),
	}
}

func investmentKey(poolID, investor string) string {
	return poolID + "|" + investor
}

// Insert adds a new position. Returns ErrDuplicateKey if it exists.
func (s *InvestmentStore) Insert(_ context.Context, inv *domain.Investment) error {
	if inv == nil || inv.PoolID == "" || inv.InvestorAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := investmentKey(inv.PoolID, inv.InvestorAddress)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}
	invCopy := *inv
	s.data[key] = &invCopy
	return nil
}

// Get retrieves one position. Returns ErrNotFound if not exists.
func (s *InvestmentStore) Get(_ context.Context, poolID, investorAddress string) (*domain.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, exists := s.data[investmentKey(poolID, investorAddress)]
	if !exists {
		return nil, storage.ErrNotFound
	}
	invCopy := *inv
	return &invCopy, nil
}

// Update replaces an existing position. Returns ErrNotFound if not exists.
func (s *InvestmentStore) Update(_ context.Context, inv *domain.Investment) error {
	if inv == nil || inv.PoolID == "" || inv.InvestorAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := investmentKey(inv.PoolID, inv.InvestorAddress)
	if _, exists := s.data[key]; !exists {
		return storage.ErrNotFound
	}
	invCopy := *inv
	s.data[key] = &invCopy
	return nil
}

// GetByPool retrieves all positions in a pool, ordered by invested_at ASC.
func (s *InvestmentStore) GetByPool(_ context.Context, poolID string) ([]*domain.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Investment
	for _, inv := range s.data {
		if inv.PoolID == poolID {
			invCopy := *inv
			result = append(result, &invCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].InvestedAt < result[j].InvestedAt
	})
	return result, nil
}

// GetByInvestor retrieves all positions of an investor.
func (s *InvestmentStore) GetByInvestor(_ context.Context, investorAddress string) ([]*domain.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Investment
	for _, inv := range s.data {
		if inv.InvestorAddress == investorAddress {
			invCopy := *inv
			result = append(result, &invCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].InvestedAt < result[j].InvestedAt
	})
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.InvestmentStore = (*InvestmentStore)(nil)
