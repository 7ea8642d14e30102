package phiguard

// This file provides test utilities for use in examples and external
// testing: deterministic audit loggers and key material that never needs a
// real secret manager.

import (
	"bytes"
	"time"
)

// TestSigningKey is a fixed 32-byte key for tests and examples. Never use it
// outside of them.
var TestSigningKey = bytes.Repeat([]byte("k"), MinSigningKeyLength)

// NewTestAuditLogger returns a logger signing with TestSigningKey and a
// deterministic clock that advances one millisecond per call, so chains
// produced in tests are reproducible.
func NewTestAuditLogger() (*AuditLogger, error) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var calls int
	return NewAuditLogger(TestSigningKey, WithClock(func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Millisecond)
	}))
}
