package domain

// AssignmentKind classifies the ledger's asset-to-pool mapping.
type AssignmentKind string

const (
	// AssignmentNone means the ledger maps the asset to no pool.
	AssignmentNone AssignmentKind = "NONE"
	// AssignmentActivePool means the mapping points at a pool that exists
	// on the current ledger program.
	AssignmentActivePool AssignmentKind = "ACTIVE_POOL"
	// AssignmentRetiredProgram means the mapping points at a pool that
	// exists on a previous ledger program deployment. The asset cannot be
	// reused until freed on the old program.
	AssignmentRetiredProgram AssignmentKind = "RETIRED_PROGRAM"
	// AssignmentOrphaned means the mapping points at a pool identifier that
	// exists on no known ledger program deployment.
	AssignmentOrphaned AssignmentKind = "ORPHANED"
)

// PoolAssignment is the resolved asset-to-pool mapping from the ledger.
type PoolAssignment struct {
	Kind   AssignmentKind
	PoolID string // on-chain pool identifier the mapping points at, if any
}

// AssetEligibility is the derived (never persisted) admission verdict
// inputs for one asset.
type AssetEligibility struct {
	AssetID                 string
	LedgerStatus            AssetStatus
	MaxInvestablePercentage float64 // 0-100, ledger-sourced with fallback
	CurrentPoolAssignment   PoolAssignment
}
