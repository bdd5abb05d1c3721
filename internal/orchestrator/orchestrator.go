// Package orchestrator runs the pool admission workflow.
// Flow: validate all assets → ledger CreatePool → bind assets → persist.
//
// The ordering is the whole point: nothing is written to the ledger until
// every requested asset has passed validation, and nothing is written to
// the index until the ledger write chain has succeeded for at least one
// asset. Ledger writes are never rolled back.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"solana-pool-engine/internal/domain"
	"solana-pool-engine/internal/eligibility"
	"solana-pool-engine/internal/ledger"
	"solana-pool-engine/internal/observability"
	"solana-pool-engine/internal/storage"
)

// Validator is the admission check consumed per requested asset.
type Validator interface {
	Validate(ctx context.Context, assetID string, requestedValue float64) (*domain.AssetEligibility, error)
}

var _ Validator = (*eligibility.Validator)(nil)

// Options for creating an Orchestrator.
type Options struct {
	Validator Validator
	Ledger    ledger.Writer
	Pools     storage.PoolStore
	Audit     storage.AuditEventStore // optional
	Signer    ledger.Signer
	Logger    *zap.Logger
}

// Orchestrator coordinates pool admission.
type Orchestrator struct {
	validator Validator
	ledger    ledger.Writer
	pools     storage.PoolStore
	audit     storage.AuditEventStore
	signer    ledger.Signer
	logger    *zap.Logger

	nowMs func() int64
}

// New creates a new Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Validator == nil || opts.Ledger == nil || opts.Pools == nil {
		return nil, fmt.Errorf("orchestrator: validator, ledger and pool store are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		validator: opts.Validator,
		ledger:    opts.Ledger,
		pools:     opts.Pools,
		audit:     opts.Audit,
		signer:    opts.Signer,
		logger:    logger,
		nowMs:     func() int64 { return time.Now().UnixMilli() },
	}, nil
}

// AssetRequest is one asset proposed for the new pool.
type AssetRequest struct {
	AssetID string
	Name    string
	Value   float64 // asset value to tokenize into the pool
}

// Request carries the pool parameters.
type Request struct {
	Name              string
	Description       string
	Assets            []AssetRequest
	TokenPrice        float64
	MinimumInvestment float64
	ExpectedYieldRate float64
	MaturityDate      int64 // unix ms
}

// Result is the outcome of a successful admission. Warning is non-nil when
// only a subset of the requested assets was bound.
type Result struct {
	Pool    *domain.PoolRecord
	Warning *BindingWarning
}

// CreatePool runs the admission workflow.
func (o *Orchestrator) CreatePool(ctx context.Context, req Request) (*Result, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	// Phase 1: every asset must pass before anything touches the ledger.
	o.logger.Info("admission: validating assets",
		zap.String("pool_name", req.Name),
		zap.Int("assets", len(req.Assets)))
	for _, a := range req.Assets {
		if _, err := o.validator.Validate(ctx, a.AssetID, a.Value); err != nil {
			return nil, &ValidationFailedError{AssetID: a.AssetID, Err: err}
		}
	}

	// Phase 2: create the on-chain pool. Failure here leaves no trace.
	receipt, err := o.ledger.CreatePool(ctx, ledger.PoolSpec{
		Name:              req.Name,
		TokenSupply:       requestTotal(req.Assets) / req.TokenPrice,
		TokenPrice:        req.TokenPrice,
		MinimumInvestment: req.MinimumInvestment,
		ExpectedYieldRate: req.ExpectedYieldRate,
		MaturityDate:      req.MaturityDate,
	}, o.signer)
	if err != nil {
		return nil, fmt.Errorf("create ledger pool: %w", err)
	}
	o.logger.Info("admission: ledger pool created",
		zap.String("pool_id", receipt.PoolID),
		zap.String("signature", receipt.Signature))

	// Phase 3: bind each asset independently. One failure must not stop
	// the others.
	var bound []AssetRequest
	var failures []BindFailure
	for _, a := range req.Assets {
		if _, err := o.ledger.BindAsset(ctx, receipt.PoolID, a.AssetID, o.signer); err != nil {
			o.logger.Warn("admission: asset binding failed",
				zap.String("pool_id", receipt.PoolID),
				zap.String("asset_id", a.AssetID),
				zap.Error(err))
			failures = append(failures, BindFailure{AssetID: a.AssetID, Err: err})
			continue
		}
		bound = append(bound, a)
	}

	// Phase 4: decide what the index gets to see.
	if len(bound) == 0 {
		o.recordOrphanedPool(ctx, receipt, failures)
		return nil, &NoAssetsBoundError{LedgerPoolID: receipt.PoolID, Failures: failures}
	}

	pool := o.buildRecord(req, receipt, bound)
	if err := o.pools.Insert(ctx, pool); err != nil {
		return nil, fmt.Errorf("persist pool %s: %w", pool.PoolID, err)
	}
	observability.DefaultMetrics.PoolsCreated.Inc()
	observability.DefaultMetrics.AssetsBound.Add(float64(len(bound)))

	result := &Result{Pool: pool}
	if len(failures) > 0 {
		observability.DefaultMetrics.PoolsPartiallyBound.Inc()
		result.Warning = &BindingWarning{Failures: failures}
		o.logger.Warn("admission: pool persisted with partial bindings",
			zap.String("pool_id", pool.PoolID),
			zap.Int("bound", len(bound)),
			zap.Int("failed", len(failures)))
	} else {
		o.logger.Info("admission: pool persisted",
			zap.String("pool_id", pool.PoolID),
			zap.Int("assets", len(bound)))
	}
	return result, nil
}

// buildRecord assembles the index record over the bound subset. Percentages
// and totals are recomputed so they describe what was actually bound, not
// what was requested.
func (o *Orchestrator) buildRecord(req Request, receipt *ledger.TxReceipt, bound []AssetRequest) *domain.PoolRecord {
	total := requestTotal(bound)

	bindings := make([]domain.AssetBinding, len(bound))
	for i, a := range bound {
		bindings[i] = domain.AssetBinding{
			AssetID:    a.AssetID,
			Name:       a.Name,
			Value:      a.Value,
			Percentage: a.Value / total * 100,
		}
	}

	now := o.nowMs()
	return &domain.PoolRecord{
		PoolID:            receipt.PoolID,
		Name:              req.Name,
		Description:       req.Description,
		Assets:            bindings,
		TotalValue:        total,
		TokenSupply:       total / req.TokenPrice,
		TokenPrice:        req.TokenPrice,
		MinimumInvestment: req.MinimumInvestment,
		ExpectedYieldRate: req.ExpectedYieldRate,
		MaturityDate:      req.MaturityDate,
		Status:            domain.PoolStatusActive,
		LedgerReference:   receipt.PoolID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// recordOrphanedPool leaves an audit trail for a ledger pool the index will
// never reference.
func (o *Orchestrator) recordOrphanedPool(ctx context.Context, receipt *ledger.TxReceipt, failures []BindFailure) {
	observability.DefaultMetrics.PoolsOrphaned.Inc()
	o.logger.Error("admission: ledger pool orphaned, no assets bound",
		zap.String("pool_id", receipt.PoolID),
		zap.String("signature", receipt.Signature),
		zap.Int("failures", len(failures)))

	if o.audit == nil {
		return
	}
	detail := (&BindingWarning{Failures: failures}).String()
	if err := o.audit.Insert(ctx, &domain.AuditEvent{
		Kind:       domain.AuditOrphanedPool,
		Subject:    receipt.PoolID,
		Detail:     detail,
		ObservedAt: o.nowMs(),
	}); err != nil {
		o.logger.Warn("admission: audit insert failed", zap.Error(err))
	}
}

func checkRequest(req Request) error {
	if req.Name == "" {
		return fmt.Errorf("pool name is required")
	}
	if len(req.Assets) == 0 {
		return fmt.Errorf("at least one asset is required")
	}
	if req.TokenPrice <= 0 {
		return fmt.Errorf("token price must be positive")
	}
	seen := make(map[string]struct{}, len(req.Assets))
	for _, a := range req.Assets {
		if a.AssetID == "" {
			return fmt.Errorf("asset id is required")
		}
		if a.Value <= 0 {
			return fmt.Errorf("asset %s value must be positive", a.AssetID)
		}
		if _, dup := seen[a.AssetID]; dup {
			return fmt.Errorf("asset %s requested twice", a.AssetID)
		}
		seen[a.AssetID] = struct{}{}
	}
	return nil
}

func requestTotal(assets []AssetRequest) float64 {
	var total float64
	for _, a := range assets {
		total += a.Value
	}
	return total
}
