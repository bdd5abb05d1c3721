package domain

// AssetBinding is one asset's share of a pool.
// Invariant: within a pool, percentages sum to 100 and values sum to
// PoolRecord.TotalValue.
type AssetBinding struct {
	AssetID    string  // ledger asset identifier (base58)
	Name       string  // asset display name
	Value      float64 // portion of the asset's value held by the pool
	Percentage float64 // share of pool value, 0-100
}

// AssetStatus is the ledger-side lifecycle status of an asset.
// The numeric values are the ledger program's own encoding and must not
// be renumbered; the record decoder range-checks against [0, 10].
type AssetStatus int64

const (
	AssetStatusRegistered           AssetStatus = 0
	AssetStatusPendingVerification  AssetStatus = 1
	AssetStatusVerified             AssetStatus = 2
	AssetStatusPendingInspection    AssetStatus = 3
	AssetStatusInspected            AssetStatus = 4
	AssetStatusPendingLegalTransfer AssetStatus = 5
	AssetStatusLegalTransferred     AssetStatus = 6
	AssetStatusPendingActivation    AssetStatus = 7
	AssetStatusActivelyManaged      AssetStatus = 8
	AssetStatusSuspended            AssetStatus = 9
	AssetStatusRetired              AssetStatus = 10
)

// AssetStatusMin and AssetStatusMax bound the valid status range.
const (
	AssetStatusMin int64 = 0
	AssetStatusMax int64 = 10
)

var assetStatusNames = map[AssetStatus]string{
	AssetStatusRegistered:           "REGISTERED",
	AssetStatusPendingVerification:  "PENDING_VERIFICATION",
	AssetStatusVerified:             "VERIFIED",
	AssetStatusPendingInspection:    "PENDING_INSPECTION",
	AssetStatusInspected:            "INSPECTED",
	AssetStatusPendingLegalTransfer: "PENDING_LEGAL_TRANSFER",
	AssetStatusLegalTransferred:     "LEGAL_TRANSFERRED",
	AssetStatusPendingActivation:    "PENDING_ACTIVATION",
	AssetStatusActivelyManaged:      "ACTIVELY_MANAGED",
	AssetStatusSuspended:            "SUSPENDED",
	AssetStatusRetired:              "RETIRED",
}

// String returns the canonical name of the status.
func (s AssetStatus) String() string {
	if name, ok := assetStatusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// Eligible reports whether the status permits admission to a pool.
// ACTIVELY_MANAGED is the terminal eligible state, reached after
// verification, inspection, legal transfer and activation.
func (s AssetStatus) Eligible() bool {
	return s == AssetStatusActivelyManaged
}
