package clickhouse

import (
	"context"
	"fmt"

	"solana-pool-engine/internal/domain"
	"solana-pool-engine/internal/storage"
)

// AuditEventStore implements storage.AuditEventStore using ClickHouse.
// Audit events are high-volume, append-only, and queried by recency,
// which is what the MergeTree layout is ordered for.
type AuditEventStore struct {
	conn *Conn
}

// NewAuditEventStore creates a new AuditEventStore.
func NewAuditEventStore(conn *Conn) *AuditEventStore {
	return &AuditEventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.AuditEventStore = (*AuditEventStore)(nil)

// Insert adds one audit event.
func (s *AuditEventStore) Insert(ctx context.Context, e *domain.AuditEvent) error {
	if e == nil || e.Kind == "" {
		return storage.ErrInvalidInput
	}

	err := s.conn.Exec(ctx, `
		INSERT INTO audit_events (kind, pool_id, subject, detail, observed_at)
		VALUES (?, ?, ?, ?, ?)
	`, string(e.Kind), e.PoolID, e.Subject, e.Detail, e.ObservedAt)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// InsertBulk adds multiple audit events in one batch.
func (s *AuditEventStore) InsertBulk(ctx context.Context, events []*domain.AuditEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO audit_events (kind, pool_id, subject, detail, observed_at)
	`)
	if err != nil {
		return fmt.Errorf("prepare audit batch: %w", err)
	}

	for _, e := range events {
		if e == nil || e.Kind == "" {
			return storage.ErrInvalidInput
		}
		if err := batch.Append(string(e.Kind), e.PoolID, e.Subject, e.Detail, e.ObservedAt); err != nil {
			return fmt.Errorf("append audit event: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send audit batch: %w", err)
	}
	return nil
}

// GetRecent retrieves the most recent events, newest first.
func (s *AuditEventStore) GetRecent(ctx context.Context, limit int) ([]*domain.AuditEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.conn.Query(ctx, `
		SELECT kind, pool_id, subject, detail, observed_at
		FROM audit_events
		ORDER BY observed_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var result []*domain.AuditEvent
	for rows.Next() {
		var e domain.AuditEvent
		var kind string
		if err := rows.Scan(&kind, &e.PoolID, &e.Subject, &e.Detail, &e.ObservedAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Kind = domain.AuditKind(kind)
		result = append(result, &e)
	}
	return result, rows.Err()
}
