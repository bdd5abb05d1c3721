package storage

import (
	"context"

	"solana-pool-engine/internal/domain"
)

// PoolStore provides access to the pools index. The index is a cache of
// ledger state and is never authoritative; deletion happens only through
// reconciliation, never through ordinary business operations.
type PoolStore interface {
	// Insert adds a new pool record. Returns ErrDuplicateKey if pool_id exists.
	Insert(ctx context.Context, p *domain.PoolRecord) error

	// GetByID retrieves a pool by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, poolID string) (*domain.PoolRecord, error)

	// Update replaces an existing pool record. Returns ErrNotFound if not exists.
	Update(ctx context.Context, p *domain.PoolRecord) error

	// Delete removes a pool record. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, poolID string) error

	// DeleteBatch removes a set of pool records. Missing IDs are skipped so
	// repeated pruning of the same set is a no-op.
	DeleteBatch(ctx context.Context, poolIDs []string) error

	// List retrieves all pool records, ordered by created_at ASC.
	List(ctx context.Context) ([]*domain.PoolRecord, error)

	// ListWithLedgerReference retrieves all records carrying a non-empty
	// ledger reference, ordered by created_at ASC. The reconciler's scan.
	ListWithLedgerReference(ctx context.Context) ([]*domain.PoolRecord, error)

	// GetByAsset retrieves all pools holding a binding for the asset.
	GetByAsset(ctx context.Context, assetID string) ([]*domain.PoolRecord, error)
}

// InvestmentStore provides access to investor positions, keyed by
// (pool_id, investor_address). Positions are never deleted.
type InvestmentStore interface {
	// Insert adds a new position. Returns ErrDuplicateKey if it exists.
	Insert(ctx context.Context, inv *domain.Investment) error

	// Get retrieves one position. Returns ErrNotFound if not exists.
	Get(ctx context.Context, poolID, investorAddress string) (*domain.Investment, error)

	// Update replaces an existing position. Returns ErrNotFound if not exists.
	Update(ctx context.Context, inv *domain.Investment) error

	// GetByPool retrieves all positions in a pool, ordered by invested_at ASC.
	GetByPool(ctx context.Context, poolID string) ([]*domain.Investment, error)

	// GetByInvestor retrieves all positions of an investor.
	GetByInvestor(ctx context.Context, investorAddress string) ([]*domain.Investment, error)
}

// DividendStore provides access to dividend distributions. Append-only.
type DividendStore interface {
	// Insert adds a distribution record.
	Insert(ctx context.Context, d *domain.Dividend) error

	// GetByPool retrieves all distributions for a pool, ordered by
	// distributed_at ASC.
	GetByPool(ctx context.Context, poolID string) ([]*domain.Dividend, error)
}

// AuditEventStore records reconciliation and decode observability events.
// Append-only.
type AuditEventStore interface {
	// Insert adds one audit event.
	Insert(ctx context.Context, e *domain.AuditEvent) error

	// InsertBulk adds multiple audit events.
	InsertBulk(ctx context.Context, events []*domain.AuditEvent) error

	// GetRecent retrieves the most recent events, newest first.
	GetRecent(ctx context.Context, limit int) ([]*domain.AuditEvent, error)
}
