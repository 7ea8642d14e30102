// Package canonical produces deterministic JSON for signing and hashing.
//
// encoding/json already emits map keys in sorted order and struct fields in
// declaration order, so canonical form here means: HTML escaping off, no
// trailing newline, and arbitrary values normalized through an ordered
// re-marshal so that two equal values always produce identical bytes.
package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Marshal serializes v to canonical JSON bytes.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("canonical marshal: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Normalize round-trips raw JSON through an any so that key order, spacing,
// and escaping are canonicalized. Invalid JSON is an error.
func Normalize(raw []byte) ([]byte, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("canonical normalize: %w", err)
	}
	return Marshal(v)
}
