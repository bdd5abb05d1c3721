package memory

import (
	"context"
	"sort"
	"sync"

	"solana-pool-engine/internal/domain"
	"solana-pool-engine/internal/storage"
)

// AuditEventStore is an in-memory implementation of storage.AuditEventStore.
type AuditEventStore struct {
	mu   sync.RWMutex
	data []*domain.AuditEvent
}

// NewAuditEventStore creates a new in-memory audit event store.
func NewAuditEventStore() *AuditEventStore {
	return &AuditEventStore{}
}

// Insert adds one audit event.
func (s *AuditEventStore) Insert(_ context.Context, e *domain.AuditEvent) error {
	if e == nil || e.Kind == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	eventCopy := *e
	s.data = append(s.data, &eventCopy)
	return nil
}

// InsertBulk adds multiple audit events.
func (s *AuditEventStore) InsertBulk(ctx context.Context, events []*domain.AuditEvent) error {
	for _, e := range events {
		if err := s.Insert(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// GetRecent retrieves the most recent events, newest first.
func (s *AuditEventStore) GetRecent(_ context.Context, limit int) ([]*domain.AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.AuditEvent, 0, len(s.data))
	for _, e := range s.data {
		eventCopy := *e
		result = append(result, &eventCopy)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ObservedAt > result[j].ObservedAt
	})
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.AuditEventStore = (*AuditEventStore)(nil)
