// Package record decodes raw ledger records into typed fields.
//
// Ledger program upgrades have left three record shapes in the wild: an
// object with named fields, a plain ordered tuple, and tuples whose field
// positions drifted between deployments. Extraction therefore runs a fixed
// fallback chain per field: named field, documented positional index, then
// one alternate historical index that is accepted only when the value lies
// inside the field's declared valid range. A failure is reported as a
// DecodeError; callers must treat it as "unknown" and never substitute a
// default, because zero is itself a meaningful enum member.
package record

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the primitive type a field is decoded to.
type Kind int

const (
	KindInt Kind = iota
	KindString
	KindBool
)

// Source identifies which extraction strategy produced a value.
type Source string

const (
	SourceNamed    Source = "named"
	SourceIndex    Source = "index"
	SourceAltIndex Source = "alt_index"
)

// Range bounds the valid values of an integer field.
type Range struct {
	Min int64
	Max int64
}

// Contains reports whether v lies inside the range (inclusive).
func (r Range) Contains(v int64) bool {
	return v >= r.Min && v <= r.Max
}

// FieldSpec describes how to locate one field across record shapes.
type FieldSpec struct {
	// Name is the field name in the named-object shape.
	Name string
	// Index is the documented positional index in the tuple shape.
	Index int
	// AltIndex is one alternate historical index, or -1 if none exists.
	// A value found here is accepted only if it passes the Valid range.
	AltIndex int
	// Kind is the expected primitive type.
	Kind Kind
	// Valid, when non-nil, bounds acceptable integer values. Mandatory for
	// fields with an AltIndex: without it an unrelated slot (an address,
	// say) could masquerade as the field in an old encoding.
	Valid *Range
}

// Value is a decoded field together with the strategy that produced it.
type Value struct {
	Kind   Kind
	Int    int64
	Str    string
	Bool   bool
	Source Source
}

// Raw is a parsed ledger record. Either shape may be present; a record
// returned as an object has named fields only, a tuple has positions only.
type Raw struct {
	named map[string]any
	tuple []any
}

// Parse interprets a raw ledger payload as an object or an ordered tuple.
func Parse(data json.RawMessage) (*Raw, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil, fmt.Errorf("empty ledger record")
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()

	switch trimmed[0] {
	case '{':
		var named map[string]any
		if err := dec.Decode(&named); err != nil {
			return nil, fmt.Errorf("parse named record: %w", err)
		}
		return &Raw{named: named}, nil
	case '[':
		var tuple []any
		if err := dec.Decode(&tuple); err != nil {
			return nil, fmt.Errorf("parse tuple record: %w", err)
		}
		return &Raw{tuple: tuple}, nil
	default:
		return nil, fmt.Errorf("ledger record is neither object nor tuple")
	}
}

// Len returns the tuple length, or the named field count.
func (r *Raw) Len() int {
	if r.named != nil {
		return len(r.named)
	}
	return len(r.tuple)
}

// Decode extracts one field following the fallback chain.
func Decode(raw *Raw, spec FieldSpec) (Value, error) {
	var attempted []string

	// 1. Named field, if the record has one of the expected primitive type.
	if raw.named != nil && spec.Name != "" {
		attempted = append(attempted, "named:"+spec.Name)
		if v, ok := raw.named[spec.Name]; ok {
			if val, ok := coerce(v, spec.Kind); ok {
				return checkRange(val, spec, SourceNamed, attempted)
			}
		}
	}

	// 2. Documented positional index.
	if raw.tuple != nil && spec.Index >= 0 {
		attempted = append(attempted, fmt.Sprintf("index:%d", spec.Index))
		if spec.Index < len(raw.tuple) {
			if val, ok := coerce(raw.tuple[spec.Index], spec.Kind); ok {
				return checkRange(val, spec, SourceIndex, attempted)
			}
		}
	}

	// 3. Alternate historical index, range-guarded. An out-of-range value
	// here means the slot holds something else entirely, not this field.
	if raw.tuple != nil && spec.AltIndex >= 0 {
		attempted = append(attempted, fmt.Sprintf("alt_index:%d", spec.AltIndex))
		if spec.AltIndex < len(raw.tuple) {
			if val, ok := coerce(raw.tuple[spec.AltIndex], spec.Kind); ok {
				if spec.Kind != KindInt || (spec.Valid != nil && spec.Valid.Contains(val.Int)) {
					val.Source = SourceAltIndex
					return val, nil
				}
			}
		}
	}

	return Value{}, &DecodeError{Field: spec.Name, Attempted: attempted}
}

// checkRange finalizes a value found by the named or documented-index
// strategy. An in-type but out-of-range value is a decode failure, never
// a fallback: the shape matched, the content is invalid.
func checkRange(val Value, spec FieldSpec, src Source, attempted []string) (Value, error) {
	if spec.Kind == KindInt && spec.Valid != nil && !spec.Valid.Contains(val.Int) {
		return Value{}, &DecodeError{
			Field:     spec.Name,
			Attempted: attempted,
			Detail:    fmt.Sprintf("value %d outside [%d, %d]", val.Int, spec.Valid.Min, spec.Valid.Max),
		}
	}
	val.Source = src
	return val, nil
}

// coerce converts a JSON value to the expected primitive kind.
// Integer-like accepts json numbers with integral values and decimal
// strings, covering the primitive-width drift between program versions.
func coerce(v any, kind Kind) (Value, bool) {
	switch kind {
	case KindInt:
		switch n := v.(type) {
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return Value{Kind: KindInt, Int: i}, true
			}
			// Some encoders emit integral values as floats ("8.0").
			if f, err := n.Float64(); err == nil && f == float64(int64(f)) {
				return Value{Kind: KindInt, Int: int64(f)}, true
			}
		case float64:
			if n == float64(int64(n)) {
				return Value{Kind: KindInt, Int: int64(n)}, true
			}
		case string:
			if i, err := strconv.ParseInt(n, 10, 64); err == nil {
				return Value{Kind: KindInt, Int: i}, true
			}
		case bool:
			// Booleans are not integer-like; reject.
		}
	case KindString:
		if s, ok := v.(string); ok {
			return Value{Kind: KindString, Str: s}, true
		}
	case KindBool:
		if b, ok := v.(bool); ok {
			return Value{Kind: KindBool, Bool: b}, true
		}
	}
	return Value{}, false
}
