// Package eligibility decides whether an asset may be admitted into a new
// pool. The validator is read-only: it consults the ledger and the local
// index but never mutates either.
package eligibility

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"solana-pool-engine/internal/domain"
	"solana-pool-engine/internal/ledger"
	"solana-pool-engine/internal/observability"
	"solana-pool-engine/internal/storage"
)

// DefaultMaxInvestablePct applies when neither the ledger record nor the
// cache carries a ceiling for the asset.
const DefaultMaxInvestablePct = 100.0

// Options configures a Validator.
type Options struct {
	Ledger ledger.Reader
	Pools  storage.PoolStore
	// ProgramID is the current pool program deployment.
	ProgramID string
	// HistoricalProgramIDs are retired deployments, newest first.
	HistoricalProgramIDs []string
	Logger               *zap.Logger
}

// Validator checks asset admission rules against the ledger and the index.
type Validator struct {
	ledger     ledger.Reader
	pools      storage.PoolStore
	programID  string
	historical []string
	logger     *zap.Logger

	// limitCache holds the last ceiling observed on the ledger per asset,
	// used when a later read omits the field.
	limitMu    sync.RWMutex
	limitCache map[string]float64
}

// New creates a Validator.
func New(opts Options) (*Validator, error) {
	if opts.Ledger == nil {
		return nil, fmt.Errorf("eligibility: ledger reader is required")
	}
	if opts.Pools == nil {
		return nil, fmt.Errorf("eligibility: pool store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		ledger:     opts.Ledger,
		pools:      opts.Pools,
		programID:  opts.ProgramID,
		historical: opts.HistoricalProgramIDs,
		logger:     logger,
		limitCache: make(map[string]float64),
	}, nil
}

// Validate checks whether requestedValue of the asset may be tokenized into
// a new pool. On success it returns the resolved eligibility inputs; on a
// rule violation it returns one of the typed errors from this package.
// Ledger transport failures and undecodable records propagate unchanged.
func (v *Validator) Validate(ctx context.Context, assetID string, requestedValue float64) (*domain.AssetEligibility, error) {
	rec, err := v.ledger.GetAsset(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("read asset %s: %w", assetID, err)
	}

	status := domain.AssetStatus(rec.Status)
	if !status.Eligible() {
		observability.RecordValidationFailure("status")
		return nil, &NotEligibleError{AssetID: assetID, CurrentStatus: status}
	}

	limit := v.resolveLimit(assetID, rec.MaxInvestablePct)

	tokenized, err := v.tokenizedPct(ctx, assetID, requestedValue, rec.TotalValue)
	if err != nil {
		return nil, err
	}
	if tokenized > limit {
		observability.RecordValidationFailure("limit")
		return nil, &LimitExceededError{AssetID: assetID, Tokenized: tokenized, Limit: limit}
	}

	assignment, err := v.resolveAssignment(ctx, assetID)
	if err != nil {
		return nil, err
	}
	switch assignment.Kind {
	case domain.AssignmentActivePool:
		observability.RecordValidationFailure("already_pooled")
		return nil, &AlreadyPooledError{AssetID: assetID, PoolID: assignment.PoolID, ProgramID: v.programID}
	case domain.AssignmentRetiredProgram:
		observability.RecordValidationFailure("already_pooled_retired")
		return nil, &AlreadyPooledError{AssetID: assetID, PoolID: assignment.PoolID, ProgramID: assignment.ProgramID, Retired: true}
	case domain.AssignmentOrphaned:
		observability.RecordValidationFailure("orphaned_mapping")
		return nil, &OrphanedMappingError{AssetID: assetID, PoolID: assignment.PoolID}
	}

	return &domain.AssetEligibility{
		AssetID:                 assetID,
		LedgerStatus:            status,
		MaxInvestablePercentage: limit,
		CurrentPoolAssignment:   domain.PoolAssignment{Kind: domain.AssignmentNone},
	}, nil
}

// resolveLimit picks the ceiling: ledger value, else the last ledger value
// seen for this asset, else the default. A fresh ledger value refreshes the
// cache.
func (v *Validator) resolveLimit(assetID string, fromLedger *float64) float64 {
	if fromLedger != nil {
		v.limitMu.Lock()
		v.limitCache[assetID] = *fromLedger
		v.limitMu.Unlock()
		return *fromLedger
	}

	v.limitMu.RLock()
	cached, ok := v.limitCache[assetID]
	v.limitMu.RUnlock()
	if ok {
		v.logger.Debug("investable ceiling from cache",
			zap.String("asset_id", assetID),
			zap.Float64("limit", cached))
		return cached
	}
	return DefaultMaxInvestablePct
}

// tokenizedPct computes the asset share that would be tokenized after this
// request, counting value already bound into indexed pools.
func (v *Validator) tokenizedPct(ctx context.Context, assetID string, requestedValue, totalValue float64) (float64, error) {
	if totalValue <= 0 {
		return 0, fmt.Errorf("asset %s has non-positive total value %f", assetID, totalValue)
	}

	prior := 0.0
	pools, err := v.pools.GetByAsset(ctx, assetID)
	if err != nil {
		return 0, fmt.Errorf("read prior tokenization of %s: %w", assetID, err)
	}
	for _, p := range pools {
		for _, b := range p.Assets {
			if b.AssetID == assetID {
				prior += b.Value
			}
		}
	}

	return (requestedValue + prior) / totalValue * 100, nil
}

// assignment is the resolved mapping with the program that owns the pool,
// when one does.
type assignment struct {
	Kind      domain.AssignmentKind
	PoolID    string
	ProgramID string
}

// resolveAssignment classifies the asset's pool mapping. A mapped pool is
// looked up on the current program first, then each retired deployment; a
// pool found nowhere is an orphaned pointer, not a live binding.
func (v *Validator) resolveAssignment(ctx context.Context, assetID string) (assignment, error) {
	poolID, err := v.ledger.GetAssetPoolMapping(ctx, assetID)
	if err != nil {
		return assignment{}, fmt.Errorf("read mapping of %s: %w", assetID, err)
	}
	if poolID == "" {
		return assignment{Kind: domain.AssignmentNone}, nil
	}

	programs := append([]string{v.programID}, v.historical...)
	for i, programID := range programs {
		_, err := v.ledger.GetPool(ctx, programID, poolID)
		if err == nil {
			kind := domain.AssignmentActivePool
			if i > 0 {
				kind = domain.AssignmentRetiredProgram
			}
			return assignment{Kind: kind, PoolID: poolID, ProgramID: programID}, nil
		}
		if errors.Is(err, ledger.ErrNotFound) {
			continue
		}
		// Transport or undecodable: we cannot classify, so fail the
		// validation rather than guess.
		return assignment{}, fmt.Errorf("resolve pool %s on program %s: %w", poolID, programID, err)
	}

	v.logger.Warn("asset mapping points at unresolvable pool",
		zap.String("asset_id", assetID),
		zap.String("pool_id", poolID))
	return assignment{Kind: domain.AssignmentOrphaned, PoolID: poolID}, nil
}
