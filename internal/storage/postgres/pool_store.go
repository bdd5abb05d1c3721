package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-pool-engine/internal/domain"
	"solana-pool-engine/internal/storage"
)

// PoolStore implements storage.PoolStore using PostgreSQL. Pool rows and
// their asset bindings live in separate tables and are written in one
// transaction.
type PoolStore struct {
	pool *Pool
}

// NewPoolStore creates a new PoolStore.
func NewPoolStore(pool *Pool) *PoolStore {
	return &PoolStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PoolStore = (*PoolStore)(nil)

const poolColumns = `
	pool_id, name, description, total_value, token_supply, token_price,
	minimum_investment, expected_yield_rate, maturity_date, status,
	ledger_reference, created_at, updated_at
`

// Insert adds a new pool record. Returns ErrDuplicateKey if pool_id exists.
func (s *PoolStore) Insert(ctx context.Context, p *domain.PoolRecord) error {
	if p == nil || p.PoolID == "" || p.LedgerReference == "" {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin insert pool: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO pools (`+poolColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		p.PoolID, p.Name, p.Description, p.TotalValue, p.TokenSupply, p.TokenPrice,
		p.MinimumInvestment, p.ExpectedYieldRate, p.MaturityDate, string(p.Status),
		p.LedgerReference, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert pool: %w", err)
	}

	if err := insertBindings(ctx, tx, p.PoolID, p.Assets); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func insertBindings(ctx context.Context, tx pgx.Tx, poolID string, bindings []domain.AssetBinding) error {
	for _, b := range bindings {
		_, err := tx.Exec(ctx, `
			INSERT INTO pool_assets (pool_id, asset_id, name, value, percentage)
			VALUES ($1, $2, $3, $4, $5)
		`, poolID, b.AssetID, b.Name, b.Value, b.Percentage)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert pool asset: %w", err)
		}
	}
	return nil
}

// GetByID retrieves a pool by its ID. Returns ErrNotFound if not exists.
func (s *PoolStore) GetByID(ctx context.Context, poolID string) (*domain.PoolRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+poolColumns+` FROM pools WHERE pool_id = $1`, poolID)

	p, err := scanPool(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get pool by id: %w", err)
	}

	if err := s.loadBindings(ctx, []*domain.PoolRecord{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces an existing pool record. Returns ErrNotFound if not exists.
func (s *PoolStore) Update(ctx context.Context, p *domain.PoolRecord) error {
	if p == nil || p.PoolID == "" || p.LedgerReference == "" {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update pool: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE pools SET
			name = $2, description = $3, total_value = $4, token_supply = $5,
			token_price = $6, minimum_investment = $7, expected_yield_rate = $8,
			maturity_date = $9, status = $10, ledger_reference = $11, updated_at = $12
		WHERE pool_id = $1
	`,
		p.PoolID, p.Name, p.Description, p.TotalValue, p.TokenSupply,
		p.TokenPrice, p.MinimumInvestment, p.ExpectedYieldRate,
		p.MaturityDate, string(p.Status), p.LedgerReference, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update pool: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM pool_assets WHERE pool_id = $1`, p.PoolID); err != nil {
		return fmt.Errorf("replace pool assets: %w", err)
	}
	if err := insertBindings(ctx, tx, p.PoolID, p.Assets); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Delete removes a pool record. Returns ErrNotFound if not exists.
func (s *PoolStore) Delete(ctx context.Context, poolID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM pools WHERE pool_id = $1`, poolID)
	if err != nil {
		return fmt.Errorf("delete pool: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteBatch removes a set of pool records, skipping missing IDs.
func (s *PoolStore) DeleteBatch(ctx context.Context, poolIDs []string) error {
	if len(poolIDs) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM pools WHERE pool_id = ANY($1)`, poolIDs)
	if err != nil {
		return fmt.Errorf("delete pools: %w", err)
	}
	return nil
}

// List retrieves all pool records, ordered by created_at ASC.
func (s *PoolStore) List(ctx context.Context) ([]*domain.PoolRecord, error) {
	return s.query(ctx, `SELECT `+poolColumns+` FROM pools ORDER BY created_at ASC, pool_id ASC`)
}

// ListWithLedgerReference retrieves all records with a non-empty ledger
// reference, ordered by created_at ASC.
func (s *PoolStore) ListWithLedgerReference(ctx context.Context) ([]*domain.PoolRecord, error) {
	return s.query(ctx, `
		SELECT `+poolColumns+` FROM pools
		WHERE ledger_reference <> ''
		ORDER BY created_at ASC, pool_id ASC
	`)
}

// GetByAsset retrieves all pools holding a binding for the asset.
func (s *PoolStore) GetByAsset(ctx context.Context, assetID string) ([]*domain.PoolRecord, error) {
	return s.query(ctx, `
		SELECT `+poolColumns+` FROM pools
		WHERE pool_id IN (SELECT pool_id FROM pool_assets WHERE asset_id = $1)
		ORDER BY created_at ASC, pool_id ASC
	`, assetID)
}

func (s *PoolStore) query(ctx context.Context, sql string, args ...any) ([]*domain.PoolRecord, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query pools: %w", err)
	}
	defer rows.Close()

	var result []*domain.PoolRecord
	for rows.Next() {
		p, err := scanPool(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pool: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pools: %w", err)
	}

	if err := s.loadBindings(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// loadBindings fills the Assets slice of each record.
func (s *PoolStore) loadBindings(ctx context.Context, pools []*domain.PoolRecord) error {
	if len(pools) == 0 {
		return nil
	}

	ids := make([]string, len(pools))
	byID := make(map[string]*domain.PoolRecord, len(pools))
	for i, p := range pools {
		ids[i] = p.PoolID
		byID[p.PoolID] = p
	}

	rows, err := s.pool.Query(ctx, `
		SELECT pool_id, asset_id, name, value, percentage
		FROM pool_assets
		WHERE pool_id = ANY($1)
		ORDER BY pool_id ASC, asset_id ASC
	`, ids)
	if err != nil {
		return fmt.Errorf("query pool assets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var poolID string
		var b domain.AssetBinding
		if err := rows.Scan(&poolID, &b.AssetID, &b.Name, &b.Value, &b.Percentage); err != nil {
			return fmt.Errorf("scan pool asset: %w", err)
		}
		if p, ok := byID[poolID]; ok {
			p.Assets = append(p.Assets, b)
		}
	}
	return rows.Err()
}

func scanPool(row pgx.Row) (*domain.PoolRecord, error) {
	var p domain.PoolRecord
	var status string
	err := row.Scan(
		&p.PoolID, &p.Name, &p.Description, &p.TotalValue, &p.TokenSupply,
		&p.TokenPrice, &p.MinimumInvestment, &p.ExpectedYieldRate,
		&p.MaturityDate, &status, &p.LedgerReference, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Status = domain.PoolStatus(status)
	return &p, nil
}
