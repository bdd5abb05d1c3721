// Package service is the exposed surface of the engine. External layers
// (HTTP routing, auth, notification delivery) sit on top of it; nothing in
// here knows about transports.
//
// Reads reconcile before they return: a pool the ledger no longer attests
// to is never served, even if its deletion is still queued.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"solana-pool-engine/internal/domain"
	"solana-pool-engine/internal/orchestrator"
	"solana-pool-engine/internal/reconcile"
	"solana-pool-engine/internal/storage"
)

var (
	// ErrPoolClosed rejects investment into a closed pool.
	ErrPoolClosed = errors.New("pool is closed")
	// ErrBelowMinimum rejects an investment under the pool's minimum.
	ErrBelowMinimum = errors.New("investment below pool minimum")
	// ErrAlreadyClosed rejects a second close.
	ErrAlreadyClosed = errors.New("pool already closed")
	// ErrNoTokenSupply rejects dividend distribution over a zero supply.
	ErrNoTokenSupply = errors.New("pool has no token supply")
)

// Options for creating a Service.
type Options struct {
	Orchestrator *orchestrator.Orchestrator
	Reconciler   *reconcile.Reconciler
	Pruner       *reconcile.Pruner
	Pools        storage.PoolStore
	Investments  storage.InvestmentStore
	Dividends    storage.DividendStore
	Logger       *zap.Logger
}

// Service exposes pool admission, reads, investments and dividends.
type Service struct {
	orch        *orchestrator.Orchestrator
	reconciler  *reconcile.Reconciler
	pruner      *reconcile.Pruner
	pools       storage.PoolStore
	investments storage.InvestmentStore
	dividends   storage.DividendStore
	logger      *zap.Logger

	nowMs func() int64
}

// New creates a Service.
func New(opts Options) (*Service, error) {
	if opts.Orchestrator == nil || opts.Reconciler == nil || opts.Pools == nil {
		return nil, errors.New("service: orchestrator, reconciler and pool store are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		orch:        opts.Orchestrator,
		reconciler:  opts.Reconciler,
		pruner:      opts.Pruner,
		pools:       opts.Pools,
		investments: opts.Investments,
		dividends:   opts.Dividends,
		logger:      logger,
		nowMs:       func() int64 { return time.Now().UnixMilli() },
	}, nil
}

// CreatePool runs the admission workflow.
func (s *Service) CreatePool(ctx context.Context, req orchestrator.Request) (*orchestrator.Result, error) {
	return s.orch.CreatePool(ctx, req)
}

// GetPool returns one indexed pool after reconciling it against the
// ledger. A pruned pool reads as not found.
func (s *Service) GetPool(ctx context.Context, poolID string) (*domain.PoolRecord, error) {
	rec, err := s.pools.GetByID(ctx, poolID)
	if err != nil {
		return nil, err
	}

	if s.reconciler.VerifyOne(ctx, rec) == reconcile.OutcomePruned {
		if s.pruner != nil {
			s.pruner.Enqueue([]string{rec.PoolID})
		}
		return nil, storage.ErrNotFound
	}
	return rec, nil
}

// ListPools returns all indexed pools the ledger still attests to.
// Ambiguous entries are included; only a confirmed negative hides a pool.
func (s *Service) ListPools(ctx context.Context) ([]*domain.PoolRecord, error) {
	records, err := s.pools.ListWithLedgerReference(ctx)
	if err != nil {
		return nil, err
	}

	report := s.reconciler.VerifyAll(ctx, records)
	if len(report.Pruned) == 0 {
		return records, nil
	}

	pruned := make(map[string]struct{}, len(report.Pruned))
	for _, id := range report.Pruned {
		pruned[id] = struct{}{}
	}

	kept := records[:0]
	for _, rec := range records {
		if _, gone := pruned[rec.PoolID]; !gone {
			kept = append(kept, rec)
		}
	}
	return kept, nil
}

// Invest buys tokens in a pool at the current token price. Repeat
// investment by the same address accumulates; positions are never deleted.
func (s *Service) Invest(ctx context.Context, poolID, investorAddress string, amount float64) (*domain.Investment, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("investment amount must be positive")
	}

	pool, err := s.GetPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if pool.Status == domain.PoolStatusClosed {
		return nil, ErrPoolClosed
	}
	if amount < pool.MinimumInvestment {
		return nil, fmt.Errorf("%w: %f < %f", ErrBelowMinimum, amount, pool.MinimumInvestment)
	}

	tokens := amount / pool.TokenPrice
	now := s.nowMs()

	existing, err := s.investments.Get(ctx, poolID, investorAddress)
	switch {
	case err == nil:
		existing.Amount += amount
		existing.Tokens += tokens
		existing.TokenPrice = pool.TokenPrice
		existing.IsActive = true
		if err := s.investments.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("update investment: %w", err)
		}
		return existing, nil

	case errors.Is(err, storage.ErrNotFound):
		inv := &domain.Investment{
			PoolID:          poolID,
			InvestorAddress: investorAddress,
			Amount:          amount,
			Tokens:          tokens,
			TokenPrice:      pool.TokenPrice,
			InvestedAt:      now,
			IsActive:        true,
		}
		if err := s.investments.Insert(ctx, inv); err != nil {
			return nil, fmt.Errorf("insert investment: %w", err)
		}
		return inv, nil

	default:
		return nil, fmt.Errorf("read investment: %w", err)
	}
}

// DistributeDividend credits amount pro rata across active positions and
// records the distribution. The per-token rate is computed over the pool's
// full token supply, not over sold tokens.
func (s *Service) DistributeDividend(ctx context.Context, poolID string, amount float64, ledgerTxSig string) (*domain.Dividend, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("dividend amount must be positive")
	}

	pool, err := s.pools.GetByID(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if pool.TokenSupply <= 0 {
		return nil, ErrNoTokenSupply
	}

	perToken := amount / pool.TokenSupply

	positions, err := s.investments.GetByPool(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	for _, inv := range positions {
		if !inv.IsActive {
			continue
		}
		inv.DividendsReceived += perToken * inv.Tokens
		if err := s.investments.Update(ctx, inv); err != nil {
			return nil, fmt.Errorf("credit %s: %w", inv.InvestorAddress, err)
		}
	}

	div := &domain.Dividend{
		PoolID:        poolID,
		Amount:        amount,
		PerToken:      perToken,
		DistributedAt: s.nowMs(),
		LedgerTxSig:   ledgerTxSig,
	}
	if err := s.dividends.Insert(ctx, div); err != nil {
		return nil, fmt.Errorf("record dividend: %w", err)
	}

	s.logger.Info("dividend distributed",
		zap.String("pool_id", poolID),
		zap.Float64("amount", amount),
		zap.Float64("per_token", perToken),
		zap.Int("positions", len(positions)))
	return div, nil
}

// ClosePool transitions a pool from ACTIVE to CLOSED. Closed pools stay in
// the index and are still reconciled.
func (s *Service) ClosePool(ctx context.Context, poolID string) error {
	pool, err := s.pools.GetByID(ctx, poolID)
	if err != nil {
		return err
	}
	if pool.Status == domain.PoolStatusClosed {
		return ErrAlreadyClosed
	}

	pool.Status = domain.PoolStatusClosed
	pool.UpdatedAt = s.nowMs()
	if err := s.pools.Update(ctx, pool); err != nil {
		return fmt.Errorf("close pool %s: %w", poolID, err)
	}

	s.logger.Info("pool closed", zap.String("pool_id", poolID))
	return nil
}
