package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-pool-engine/internal/domain"
	"solana-pool-engine/internal/storage"
)

// InvestmentStore implements storage.InvestmentStore using PostgreSQL.
type InvestmentStore struct {
	pool *Pool
}

// NewInvestmentStore creates a new InvestmentStore.
func NewInvestmentStore(pool *Pool) *InvestmentStore {
	return &InvestmentStore{pool: pool}
}

// Compile-time interface check.
var _ storage.InvestmentStore = (*InvestmentStore)(nil)

const investmentColumns = `
	pool_id, investor_address, amount, tokens, token_price,
	invested_at, dividends_received, is_active
`

// Insert adds a new position. Returns ErrDuplicateKey if it exists.
func (s *InvestmentStore) Insert(ctx context.Context, inv *domain.Investment) error {
	if inv == nil || inv.PoolID == "" || inv.InvestorAddress == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO investments (`+investmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		inv.PoolID, inv.InvestorAddress, inv.Amount, inv.Tokens, inv.TokenPrice,
		inv.InvestedAt, inv.DividendsReceived, inv.IsActive,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert investment: %w", err)
	}
	return nil
}

// Get retrieves one position. Returns ErrNotFound if not exists.
func (s *InvestmentStore) Get(ctx context.Context, poolID, investorAddress string) (*domain.Investment, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+investmentColumns+` FROM investments
		WHERE pool_id = $1 AND investor_address = $2
	`, poolID, investorAddress)

	inv, err := scanInvestment(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get investment: %w", err)
	}
	return inv, nil
}

// Update replaces an existing position. Returns ErrNotFound if not exists.
func (s *InvestmentStore) Update(ctx context.Context, inv *domain.Investment) error {
	if inv == nil || inv.PoolID == "" || inv.InvestorAddress == "" {
		return storage.ErrInvalidInput
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE investments SET
			amount = $3, tokens = $4, token_price = $5,
			invested_at = $6, dividends_received = $7, is_active = $8
		WHERE pool_id = $1 AND investor_address = $2
	`,
		inv.PoolID, inv.InvestorAddress, inv.Amount, inv.Tokens, inv.TokenPrice,
		inv.InvestedAt, inv.DividendsReceived, inv.IsActive,
	)
	if err != nil {
		return fmt.Errorf("update investment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByPool retrieves all positions in a pool, ordered by invested_at ASC.
func (s *InvestmentStore) GetByPool(ctx context.Context, poolID string) ([]*domain.Investment, error) {
	return s.query(ctx, `
		SELECT `+investmentColumns+` FROM investments
		WHERE pool_id = $1
		ORDER BY invested_at ASC, investor_address ASC
	`, poolID)
}

// GetByInvestor retrieves all positions of an investor.
func (s *InvestmentStore) GetByInvestor(ctx context.Context, investorAddress string) ([]*domain.Investment, error) {
	return s.query(ctx, `
		SELECT `+investmentColumns+` FROM investments
		WHERE investor_address = $1
		ORDER BY invested_at ASC, pool_id ASC
	`, investorAddress)
}

func (s *InvestmentStore) query(ctx context.Context, sql string, args ...any) ([]*domain.Investment, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query investments: %w", err)
	}
	defer rows.Close()

	var result []*domain.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan investment: %w", err)
		}
		result = append(result, inv)
	}
	return result, rows.Err()
}

func scanInvestment(row pgx.Row) (*domain.Investment, error) {
	var inv domain.Investment
	err := row.Scan(
		&inv.PoolID, &inv.InvestorAddress, &inv.Amount, &inv.Tokens,
		&inv.TokenPrice, &inv.InvestedAt, &inv.DividendsReceived, &inv.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
