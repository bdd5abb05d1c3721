package record

import (
	"encoding/json"
	"fmt"
)

// Field specs for the asset registry record. Index positions follow the
// current program layout; alt indexes are the pre-upgrade layout where the
// status sat two slots later (the current slot 5 held an address there,
// which is why the status spec carries a range guard).
var (
	assetIDSpec     = FieldSpec{Name: "id", Index: 0, AltIndex: -1, Kind: KindString}
	assetOwnerSpec  = FieldSpec{Name: "owner", Index: 1, AltIndex: -1, Kind: KindString}
	assetValueSpec  = FieldSpec{Name: "totalValue", Index: 3, AltIndex: -1, Kind: KindInt, Valid: &Range{Min: 0, Max: 1 << 53}}
	assetStatusSpec = FieldSpec{Name: "status", Index: 5, AltIndex: 7, Kind: KindInt, Valid: &Range{Min: 0, Max: 10}}
	assetMaxPctSpec = FieldSpec{Name: "maxInvestablePercentage", Index: 6, AltIndex: -1, Kind: KindInt, Valid: &Range{Min: 0, Max: 100}}
)

// Pool registry record specs. The pre-upgrade layout kept pool status at
// slot 6.
var (
	poolIDSpec         = FieldSpec{Name: "id", Index: 0, AltIndex: -1, Kind: KindString}
	poolStatusSpec     = FieldSpec{Name: "status", Index: 4, AltIndex: 6, Kind: KindInt, Valid: &Range{Min: 0, Max: 3}}
	poolAssetCountSpec = FieldSpec{Name: "assetCount", Index: 2, AltIndex: -1, Kind: KindInt, Valid: &Range{Min: 0, Max: 1 << 32}}
)

var mappingPoolSpec = FieldSpec{Name: "pool", Index: 0, AltIndex: -1, Kind: KindString}

// ZeroIdentifier is the ledger's well-formed negative answer: a record
// whose identifier field is the all-zero address means "not found".
const ZeroIdentifier = "11111111111111111111111111111111"

// AssetRecord is the decoded asset registry entry.
type AssetRecord struct {
	ID         string
	Owner      string
	TotalValue float64
	Status     int64
	// MaxInvestablePct is nil when the ledger record omits the field;
	// callers fall back to the cached index value, then the default.
	MaxInvestablePct *float64
	// Sources records which strategy produced each field, for audit.
	Sources map[string]Source
}

// PoolAccount is the decoded pool registry entry.
type PoolAccount struct {
	ID         string
	Status     int64
	AssetCount int64
	Sources    map[string]Source
}

// Exists reports whether the record attests a live pool. A zero-valued
// identifier is the ledger's explicit "no such pool".
func (p *PoolAccount) Exists() bool {
	return p.ID != "" && p.ID != ZeroIdentifier && p.ID != "0"
}

// DecodeAssetRecord extracts the typed asset record from a raw payload.
// The status field is the one that must never be guessed: a failure there
// fails the whole record.
func DecodeAssetRecord(data json.RawMessage) (*AssetRecord, error) {
	raw, err := Parse(data)
	if err != nil {
		return nil, err
	}

	sources := make(map[string]Source)

	id, err := Decode(raw, assetIDSpec)
	if err != nil {
		return nil, err
	}
	sources["id"] = id.Source

	status, err := Decode(raw, assetStatusSpec)
	if err != nil {
		return nil, err
	}
	sources["status"] = status.Source

	rec := &AssetRecord{
		ID:      id.Str,
		Status:  status.Int,
		Sources: sources,
	}

	if owner, err := Decode(raw, assetOwnerSpec); err == nil {
		rec.Owner = owner.Str
		sources["owner"] = owner.Source
	}

	value, err := Decode(raw, assetValueSpec)
	if err != nil {
		return nil, fmt.Errorf("asset %s: %w", rec.ID, err)
	}
	rec.TotalValue = float64(value.Int)
	sources["totalValue"] = value.Source

	// maxInvestablePercentage is optional on older records.
	if pct, err := Decode(raw, assetMaxPctSpec); err == nil {
		v := float64(pct.Int)
		rec.MaxInvestablePct = &v
		sources["maxInvestablePercentage"] = pct.Source
	}

	return rec, nil
}

// DecodePoolAccount extracts the typed pool record from a raw payload.
func DecodePoolAccount(data json.RawMessage) (*PoolAccount, error) {
	raw, err := Parse(data)
	if err != nil {
		return nil, err
	}

	sources := make(map[string]Source)

	id, err := Decode(raw, poolIDSpec)
	if err != nil {
		return nil, err
	}
	sources["id"] = id.Source

	status, err := Decode(raw, poolStatusSpec)
	if err != nil {
		return nil, err
	}
	sources["status"] = status.Source

	acct := &PoolAccount{
		ID:      id.Str,
		Status:  status.Int,
		Sources: sources,
	}

	if count, err := Decode(raw, poolAssetCountSpec); err == nil {
		acct.AssetCount = count.Int
		sources["assetCount"] = count.Source
	}

	return acct, nil
}

// DecodeMapping extracts the asset-to-pool mapping target. An empty or
// zero-valued identifier means the asset is mapped to no pool.
func DecodeMapping(data json.RawMessage) (string, error) {
	raw, err := Parse(data)
	if err != nil {
		return "", err
	}

	v, err := Decode(raw, mappingPoolSpec)
	if err != nil {
		return "", err
	}
	if v.Str == ZeroIdentifier || v.Str == "0" {
		return "", nil
	}
	return v.Str, nil
}

// FallbackSources returns the fields of m that were not decoded from the
// named shape, for observability of schema drift in the wild.
func FallbackSources(m map[string]Source) map[string]Source {
	out := make(map[string]Source)
	for field, src := range m {
		if src != SourceNamed {
			out[field] = src
		}
	}
	return out
}
