package postgres

import (
	"context"
	"fmt"

	"solana-pool-engine/internal/domain"
	"solana-pool-engine/internal/storage"
)

// DividendStore implements storage.DividendStore using PostgreSQL.
// Append-only.
type DividendStore struct {
	pool *Pool
}

// NewDividendStore creates a new DividendStore.
func NewDividendStore(pool *Pool) *DividendStore {
	return &DividendStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DividendStore = (*DividendStore)(nil)

// Insert adds a distribution record.
func (s *DividendStore) Insert(ctx context.Context, d *domain.Dividend) error {
	if d == nil || d.PoolID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO dividends (pool_id, amount, per_token, distributed_at, ledger_tx_sig)
		VALUES ($1, $2, $3, $4, $5)
	`, d.PoolID, d.Amount, d.PerToken, d.DistributedAt, d.LedgerTxSig)
	if err != nil {
		return fmt.Errorf("insert dividend: %w", err)
	}
	return nil
}

// GetByPool retrieves all distributions for a pool, ordered by
// distributed_at ASC.
func (s *DividendStore) GetByPool(ctx context.Context, poolID string) ([]*domain.Dividend, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT pool_id, amount, per_token, distributed_at, ledger_tx_sig
		FROM dividends
		WHERE pool_id = $1
		ORDER BY distributed_at ASC, id ASC
	`, poolID)
	if err != nil {
		return nil, fmt.Errorf("query dividends: %w", err)
	}
	defer rows.Close()

	var result []*domain.Dividend
	for rows.Next() {
		var d domain.Dividend
		if err := rows.Scan(&d.PoolID, &d.Amount, &d.PerToken, &d.DistributedAt, &d.LedgerTxSig); err != nil {
			return nil, fmt.Errorf("scan dividend: %w", err)
		}
		result = append(result, &d)
	}
	return result, rows.Err()
}
