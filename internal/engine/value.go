package engine

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind string

const (
	KindString   Kind = "string"
	KindBool     Kind = "boolean"
	KindArray    Kind = "array"
	KindRecord   Kind = "record"
	KindEndpoint Kind = "endpoint"
	KindNone     Kind = "none"
)

// Value is a tagged-union runtime value. Values are immutable after
// construction; composite values (arrays, records, endpoints) must not be
// mutated once handed to the evaluator.
//
// None is a first-class "absent" marker, distinct from an identifier missing
// from scope: a bound identifier may legitimately hold None.
type Value struct {
	kind Kind
	str  string
	b    bool
	arr  []Value
	rec  map[string]Value
	ep   *Endpoint
}

// Endpoint is the resolved target of a successful evaluation.
type Endpoint struct {
	URL        string              `json:"url"`
	Properties map[string]Value    `json:"properties,omitempty"`
	Headers    map[string][]string `json:"headers,omitempty"`
}

// None returns the absent-value marker.
func None() Value { return Value{kind: KindNone} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Array returns an array Value over items.
func Array(items []Value) Value { return Value{kind: KindArray, arr: items} }

// Record returns a record Value over fields.
func Record(fields map[string]Value) Value { return Value{kind: KindRecord, rec: fields} }

// EndpointValue wraps a resolved endpoint as a Value.
func EndpointValue(ep *Endpoint) Value { return Value{kind: KindEndpoint, ep: ep} }

// Kind reports the variant held by v. The zero Value reports KindNone.
func (v Value) Kind() Kind {
	if v.kind == "" {
		return KindNone
	}
	return v.kind
}

// IsNone reports whether v is the absent-value marker.
func (v Value) IsNone() bool { return v.Kind() == KindNone }

// ExpectString narrows v to its string, or fails with a TypeMismatchError.
func (v Value) ExpectString() (string, error) {
	if v.Kind() != KindString {
		return "", &TypeMismatchError{Expected: KindString, Actual: v.Kind()}
	}
	return v.str, nil
}

// ExpectBool narrows v to its boolean, or fails with a TypeMismatchError.
func (v Value) ExpectBool() (bool, error) {
	if v.Kind() != KindBool {
		return false, &TypeMismatchError{Expected: KindBool, Actual: v.Kind()}
	}
	return v.b, nil
}

// ExpectArray narrows v to its items. The returned slice is read-only.
func (v Value) ExpectArray() ([]Value, error) {
	if v.Kind() != KindArray {
		return nil, &TypeMismatchError{Expected: KindArray, Actual: v.Kind()}
	}
	return v.arr, nil
}

// ExpectRecord narrows v to its fields. The returned map is read-only.
func (v Value) ExpectRecord() (map[string]Value, error) {
	if v.Kind() != KindRecord {
		return nil, &TypeMismatchError{Expected: KindRecord, Actual: v.Kind()}
	}
	return v.rec, nil
}

// ExpectEndpoint narrows v to its endpoint, or fails with a TypeMismatchError.
func (v Value) ExpectEndpoint() (*Endpoint, error) {
	if v.Kind() != KindEndpoint {
		return nil, &TypeMismatchError{Expected: KindEndpoint, Actual: v.Kind()}
	}
	return v.ep, nil
}

// Equal reports structural, variant-aware equality. Values of different
// kinds are never equal; in particular a String never equals a Bool.
func (v Value) Equal(o Value) bool {
	if v.Kind() != o.Kind() {
		return false
	}
	switch v.Kind() {
	case KindNone:
		return true
	case KindString:
		return v.str == o.str
	case KindBool:
		return v.b == o.b
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindRecord:
		if len(v.rec) != len(o.rec) {
			return false
		}
		for k, fv := range v.rec {
			ov, ok := o.rec[k]
			if !ok || !fv.Equal(ov) {
				return false
			}
		}
		return true
	case KindEndpoint:
		return v.ep.equal(o.ep)
	}
	return false
}

func (e *Endpoint) equal(o *Endpoint) bool {
	if e == nil || o == nil {
		return e == o
	}
	if e.URL != o.URL || len(e.Properties) != len(o.Properties) || len(e.Headers) != len(o.Headers) {
		return false
	}
	for k, v := range e.Properties {
		ov, ok := o.Properties[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	for name, vals := range e.Headers {
		ovals, ok := o.Headers[name]
		if !ok || len(vals) != len(ovals) {
			return false
		}
		for i := range vals {
			if vals[i] != ovals[i] {
				return false
			}
		}
	}
	return true
}

// MarshalJSON renders v as plain JSON: strings and bools as themselves,
// arrays and records recursively, None as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind() {
	case KindNone:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.str)
	case KindBool:
		return json.Marshal(v.b)
	case KindArray:
		return json.Marshal(v.arr)
	case KindRecord:
		return json.Marshal(v.rec)
	case KindEndpoint:
		return json.Marshal(v.ep)
	}
	return nil, fmt.Errorf("cannot marshal value of kind %s", v.Kind())
}

// String renders v for diagnostics. It is not a wire format.
func (v Value) String() string {
	switch v.Kind() {
	case KindNone:
		return "<none>"
	case KindString:
		return fmt.Sprintf("%q", v.str)
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, item := range v.arr {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindRecord:
		keys := make([]string, 0, len(v.rec))
		for k := range v.rec {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + v.rec[k].String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindEndpoint:
		return fmt.Sprintf("endpoint(%s)", v.ep.URL)
	}
	return string(v.Kind())
}
