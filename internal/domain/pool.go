package domain

// PoolStatus is the lifecycle status of an indexed pool.
type PoolStatus string

const (
	PoolStatusActive PoolStatus = "ACTIVE"
	PoolStatusClosed PoolStatus = "CLOSED"
)

// PoolRecord is the off-chain index entry for an on-chain investment pool.
// Corresponds to the pools table in PostgreSQL. The index entry exists iff
// the pool is believed to exist on the ledger; the reconciler re-checks
// that belief and prunes entries the ledger no longer attests to.
type PoolRecord struct {
	PoolID            string         // PRIMARY KEY, ledger-assigned opaque identifier
	Name              string         // display name
	Description       string         // free-form description
	Assets            []AssetBinding // assets bound to the pool on the ledger
	TotalValue        float64        // sum of bound asset values
	TokenSupply       float64        // pool tokens minted at creation
	TokenPrice        float64        // price per pool token
	MinimumInvestment float64        // smallest accepted investment amount
	ExpectedYieldRate float64        // annualized, percent
	MaturityDate      int64          // Unix timestamp in milliseconds
	Status            PoolStatus     // ACTIVE | CLOSED
	LedgerReference   string         // on-chain pool identifier, never empty
	CreatedAt         int64          // record creation timestamp (ms)
	UpdatedAt         int64          // last mutation timestamp (ms)
}

// BoundAssetIDs returns the asset identifiers currently bound to the pool.
func (p *PoolRecord) BoundAssetIDs() []string {
	ids := make([]string, 0, len(p.Assets))
	for _, a := range p.Assets {
		ids = append(ids, a.AssetID)
	}
	return ids
}
