package record

import (
	"encoding/json"
	"errors"
	"testing"
)

var statusSpec = FieldSpec{Name: "status", Index: 5, AltIndex: 7, Kind: KindInt, Valid: &Range{Min: 0, Max: 10}}

func TestDecodeNamedWins(t *testing.T) {
	raw, err := Parse(json.RawMessage(`{"status": 8}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	v, err := Decode(raw, statusSpec)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Int != 8 {
		t.Errorf("expected 8, got %d", v.Int)
	}
	if v.Source != SourceNamed {
		t.Errorf("expected named source, got %s", v.Source)
	}
}

func TestDecodeDocumentedIndex(t *testing.T) {
	raw, err := Parse(json.RawMessage(`["id-1", "owner", 2, 1000, 0, 8, 70, 99]`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	v, err := Decode(raw, statusSpec)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Int != 8 || v.Source != SourceIndex {
		t.Errorf("expected 8 via index, got %d via %s", v.Int, v.Source)
	}
}

func TestDecodeAltIndexAcceptedOnlyInRange(t *testing.T) {
	// Old layout: slot 5 holds a base58 address, the status sits at slot 7.
	old := json.RawMessage(`["id-1", "owner", 2, 1000, 0, "7nYB6VRjdCBkHzfL8aRmtsQ45zP1M3QeKj7XvGhu2Wcd", 70, 8]`)
	raw, err := Parse(old)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	v, err := Decode(raw, statusSpec)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Int != 8 || v.Source != SourceAltIndex {
		t.Errorf("expected 8 via alt_index, got %d via %s", v.Int, v.Source)
	}

	// Same shape, but the alt slot holds a value outside [0,10]: the slot
	// is something else, so the field is unknown.
	bad := json.RawMessage(`["id-1", "owner", 2, 1000, 0, "7nYB6VRjdCBkHzfL8aRmtsQ45zP1M3QeKj7XvGhu2Wcd", 70, 5000]`)
	raw, err = Parse(bad)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	_, err = Decode(raw, statusSpec)
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got: %v", err)
	}
	if len(decodeErr.Attempted) != 3 {
		t.Errorf("expected 3 attempted strategies, got %v", decodeErr.Attempted)
	}
}

func TestDecodeOutOfRangeAtDocumentedIndexFailsHard(t *testing.T) {
	// The documented slot matched the type but the value is invalid. That
	// is corruption, not an old layout: no fallback to the alt index.
	raw, err := Parse(json.RawMessage(`["id-1", "owner", 2, 1000, 0, 99, 70, 8]`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	_, err = Decode(raw, statusSpec)
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got: %v", err)
	}
	if decodeErr.Detail == "" {
		t.Error("expected range detail in error")
	}
}

func TestDecodeNamedOutOfRangeFailsHard(t *testing.T) {
	raw, err := Parse(json.RawMessage(`{"status": 42}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := Decode(raw, statusSpec); err == nil {
		t.Fatal("expected error for out-of-range named value")
	}
}

func TestDecodeIntCoercion(t *testing.T) {
	spec := FieldSpec{Name: "v", Index: 0, AltIndex: -1, Kind: KindInt}

	cases := []struct {
		name    string
		payload string
		want    int64
		ok      bool
	}{
		{"json number", `{"v": 8}`, 8, true},
		{"integral float", `[8.0]`, 8, true},
		{"decimal string", `{"v": "8"}`, 8, true},
		{"fractional", `{"v": 8.5}`, 0, false},
		{"bool", `{"v": true}`, 0, false},
		{"non-numeric string", `{"v": "eight"}`, 0, false},
	}

	for _, tc := range cases {
		raw, err := Parse(json.RawMessage(tc.payload))
		if err != nil {
			t.Fatalf("%s: parse: %v", tc.name, err)
		}
		v, err := Decode(raw, spec)
		if tc.ok {
			if err != nil {
				t.Errorf("%s: unexpected error: %v", tc.name, err)
			} else if v.Int != tc.want {
				t.Errorf("%s: expected %d, got %d", tc.name, tc.want, v.Int)
			}
		} else if err == nil {
			t.Errorf("%s: expected decode failure", tc.name)
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, payload := range []string{"", "null", `"just a string"`, "42"} {
		if _, err := Parse(json.RawMessage(payload)); err == nil {
			t.Errorf("expected parse failure for %q", payload)
		}
	}
}

func TestDecodeAssetRecordNamedShape(t *testing.T) {
	data := json.RawMessage(`{
		"id": "asset-1",
		"owner": "owner-1",
		"totalValue": 500000,
		"status": 8,
		"maxInvestablePercentage": 70
	}`)

	rec, err := DecodeAssetRecord(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.ID != "asset-1" || rec.Status != 8 || rec.TotalValue != 500000 {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.MaxInvestablePct == nil || *rec.MaxInvestablePct != 70 {
		t.Errorf("expected max pct 70, got %v", rec.MaxInvestablePct)
	}
	if len(FallbackSources(rec.Sources)) != 0 {
		t.Errorf("named shape must not report fallbacks: %v", rec.Sources)
	}
}

func TestDecodeAssetRecordOldTupleShape(t *testing.T) {
	data := json.RawMessage(`["asset-1", "owner-1", 2, 500000, 0, "7nYB6VRjdCBkHzfL8aRmtsQ45zP1M3QeKj7XvGhu2Wcd", "not-a-pct", 8]`)

	rec, err := DecodeAssetRecord(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Status != 8 {
		t.Errorf("expected status 8, got %d", rec.Status)
	}
	if rec.Sources["status"] != SourceAltIndex {
		t.Errorf("expected alt_index source for status, got %s", rec.Sources["status"])
	}
	// The pct slot held garbage; optional field stays nil.
	if rec.MaxInvestablePct != nil {
		t.Errorf("expected nil max pct, got %v", *rec.MaxInvestablePct)
	}

	fallbacks := FallbackSources(rec.Sources)
	if _, ok := fallbacks["status"]; !ok {
		t.Error("expected status in fallback report")
	}
}

func TestDecodeAssetRecordStatusFailureFailsRecord(t *testing.T) {
	// Status undecodable in every strategy; the record as a whole fails
	// even though all other fields are fine.
	data := json.RawMessage(`["asset-1", "owner-1", 2, 500000, 0, "addr", 70, "also-not-a-status"]`)
	if _, err := DecodeAssetRecord(data); err == nil {
		t.Fatal("expected failure when status is undecodable")
	}
}

func TestDecodePoolAccount(t *testing.T) {
	acct, err := DecodePoolAccount(json.RawMessage(`{"id": "pool-1", "status": 1, "assetCount": 3}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !acct.Exists() {
		t.Error("expected pool to exist")
	}
	if acct.AssetCount != 3 {
		t.Errorf("expected 3 assets, got %d", acct.AssetCount)
	}

	gone, err := DecodePoolAccount(json.RawMessage(`{"id": "` + ZeroIdentifier + `", "status": 0}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if gone.Exists() {
		t.Error("zero identifier must read as not found")
	}
}

func TestDecodeMapping(t *testing.T) {
	poolID, err := DecodeMapping(json.RawMessage(`{"pool": "pool-7"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if poolID != "pool-7" {
		t.Errorf("expected pool-7, got %q", poolID)
	}

	// Zeroed mapping is a well-formed "no pool".
	poolID, err = DecodeMapping(json.RawMessage(`{"pool": "` + ZeroIdentifier + `"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if poolID != "" {
		t.Errorf("expected empty pool id, got %q", poolID)
	}
}
