package eligibility

import (
	"fmt"

	"solana-pool-engine/internal/domain"
)

// NotEligibleError means the asset exists on the ledger but its lifecycle
// status does not admit pooling.
type NotEligibleError struct {
	AssetID       string
	CurrentStatus domain.AssetStatus
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("asset %s not eligible: status %s", e.AssetID, e.CurrentStatus)
}

// LimitExceededError means the requested value would push the asset's
// tokenized share past its investable ceiling. The boundary is inclusive:
// Tokenized == Limit is allowed.
type LimitExceededError struct {
	AssetID   string
	Tokenized float64 // resulting tokenized percentage, prior bindings included
	Limit     float64
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("asset %s tokenization %.4f%% exceeds limit %.4f%%", e.AssetID, e.Tokenized, e.Limit)
}

// AlreadyPooledError means the ledger maps the asset to a pool that exists
// on the current or a retired program deployment.
type AlreadyPooledError struct {
	AssetID   string
	PoolID    string
	ProgramID string
	Retired   bool // pool lives on a retired program deployment
}

func (e *AlreadyPooledError) Error() string {
	if e.Retired {
		return fmt.Sprintf("asset %s still bound to pool %s on retired program %s", e.AssetID, e.PoolID, e.ProgramID)
	}
	return fmt.Sprintf("asset %s already in pool %s", e.AssetID, e.PoolID)
}

// OrphanedMappingError means the ledger maps the asset to a pool identifier
// that no known program deployment can resolve. Distinct from
// AlreadyPooledError so operators can tell a stale pointer from a live
// binding; carries the raw ledger identifiers for that purpose.
type OrphanedMappingError struct {
	AssetID string
	PoolID  string
}

func (e *OrphanedMappingError) Error() string {
	return fmt.Sprintf("asset %s mapped to unresolvable pool %s", e.AssetID, e.PoolID)
}
