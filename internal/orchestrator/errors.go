package orchestrator

import (
	"fmt"
	"strings"
)

// BindFailure records one asset that could not be bound to the ledger pool.
type BindFailure struct {
	AssetID string
	Err     error
}

func (f BindFailure) String() string {
	return fmt.Sprintf("%s: %v", f.AssetID, f.Err)
}

// ValidationFailedError aborts the workflow before any ledger write.
type ValidationFailedError struct {
	AssetID string
	Err     error
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("validate asset %s: %v", e.AssetID, e.Err)
}

func (e *ValidationFailedError) Unwrap() error { return e.Err }

// NoAssetsBoundError means the ledger pool was created but every binding
// failed. Nothing was persisted to the index; LedgerPoolID identifies the
// orphaned on-chain pool for operators.
type NoAssetsBoundError struct {
	LedgerPoolID string
	Failures     []BindFailure
}

func (e *NoAssetsBoundError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.String()
	}
	return fmt.Sprintf("no assets bound to ledger pool %s: %s",
		e.LedgerPoolID, strings.Join(parts, "; "))
}

// BindingWarning accompanies a successful result whose bound asset set is a
// strict subset of the request.
type BindingWarning struct {
	Failures []BindFailure
}

func (w *BindingWarning) String() string {
	parts := make([]string, len(w.Failures))
	for i, f := range w.Failures {
		parts[i] = f.String()
	}
	return "assets not bound: " + strings.Join(parts, "; ")
}
