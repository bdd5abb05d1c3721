// Package reconcile verifies indexed pools against the ledger and prunes
// entries the ledger no longer attests to.
//
// Classification is deliberately conservative: only a well-formed negative
// answer from the ledger (ErrNotFound) marks an entry for pruning. A
// transport failure or an undecodable record proves nothing about the
// pool's existence, so the entry is kept and the run records it as
// ambiguous. Re-running against an unchanged ledger yields the same sets.
package reconcile

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"solana-pool-engine/internal/domain"
	"solana-pool-engine/internal/ledger"
	"solana-pool-engine/internal/storage"
)

// Outcome classifies one indexed pool after a ledger check.
type Outcome int

const (
	// OutcomeVerified: the ledger still attests to the pool.
	OutcomeVerified Outcome = iota
	// OutcomePruned: the ledger gave a well-formed negative answer.
	OutcomePruned
	// OutcomeAmbiguous: the ledger could not be consulted conclusively.
	OutcomeAmbiguous
)

func (o Outcome) String() string {
	switch o {
	case OutcomeVerified:
		return "verified"
	case OutcomePruned:
		return "pruned"
	case OutcomeAmbiguous:
		return "ambiguous"
	}
	return "unknown"
}

// Report is the outcome of one reconciliation run.
type Report struct {
	Verified  []string // pool IDs the ledger attests to
	Pruned    []string // pool IDs queued for deletion
	Ambiguous []string // pool IDs kept because the check was inconclusive
}

// Options for creating a Reconciler.
type Options struct {
	Ledger ledger.Reader
	// ProgramID is the program deployment indexed pools live under.
	ProgramID string
	Pruner    *Pruner
	Audit     storage.AuditEventStore // optional
	Logger    *zap.Logger
}

// Reconciler checks indexed pools against the ledger.
type Reconciler struct {
	ledger    ledger.Reader
	programID string
	pruner    *Pruner
	audit     storage.AuditEventStore
	logger    *zap.Logger

	nowMs func() int64
}

// New creates a Reconciler.
func New(opts Options) (*Reconciler, error) {
	if opts.Ledger == nil {
		return nil, errors.New("reconcile: ledger reader is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		ledger:    opts.Ledger,
		programID: opts.ProgramID,
		pruner:    opts.Pruner,
		audit:     opts.Audit,
		logger:    logger,
		nowMs:     func() int64 { return time.Now().UnixMilli() },
	}, nil
}

// VerifyOne checks a single indexed pool against the ledger.
func (r *Reconciler) VerifyOne(ctx context.Context, rec *domain.PoolRecord) Outcome {
	_, err := r.ledger.GetPool(ctx, r.programID, rec.PoolID)
	switch {
	case err == nil:
		return OutcomeVerified
	case errors.Is(err, ledger.ErrNotFound):
		return OutcomePruned
	default:
		r.logger.Warn("reconcile: inconclusive ledger check, keeping entry",
			zap.String("pool_id", rec.PoolID),
			zap.Error(err))
		return OutcomeAmbiguous
	}
}

// VerifyAll classifies every record and hands the pruned set to the Pruner.
// The returned report reflects this run only; deletion happens async.
func (r *Reconciler) VerifyAll(ctx context.Context, records []*domain.PoolRecord) *Report {
	report := &Report{}
	var events []*domain.AuditEvent

	for _, rec := range records {
		outcome := r.VerifyOne(ctx, rec)
		switch outcome {
		case OutcomeVerified:
			report.Verified = append(report.Verified, rec.PoolID)
		case OutcomePruned:
			report.Pruned = append(report.Pruned, rec.PoolID)
		case OutcomeAmbiguous:
			report.Ambiguous = append(report.Ambiguous, rec.PoolID)
		}
		events = append(events, r.auditEvent(rec.PoolID, outcome))
	}

	if len(report.Pruned) > 0 && r.pruner != nil {
		r.pruner.Enqueue(report.Pruned)
	}

	r.recordAudit(ctx, events)

	r.logger.Info("reconciliation run complete",
		zap.Int("verified", len(report.Verified)),
		zap.Int("pruned", len(report.Pruned)),
		zap.Int("ambiguous", len(report.Ambiguous)))
	return report
}

func (r *Reconciler) auditEvent(poolID string, outcome Outcome) *domain.AuditEvent {
	kind := domain.AuditReconcileVerified
	switch outcome {
	case OutcomePruned:
		kind = domain.AuditReconcilePruned
	case OutcomeAmbiguous:
		kind = domain.AuditReconcileAmbiguous
	}
	return &domain.AuditEvent{
		Kind:       kind,
		PoolID:     poolID,
		ObservedAt: r.nowMs(),
	}
}

func (r *Reconciler) recordAudit(ctx context.Context, events []*domain.AuditEvent) {
	if r.audit == nil || len(events) == 0 {
		return
	}
	if err := r.audit.InsertBulk(ctx, events); err != nil {
		r.logger.Warn("reconcile: audit insert failed", zap.Error(err))
	}
}
