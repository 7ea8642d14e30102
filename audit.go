package phiguard

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hengadev/phiguard/internal/canonical"
)

// SignedEntry is one record in a tamper-evident audit chain. Entries are
// immutable once created; the chain is append-only. PreviousHash is nil only
// for sequence number 0.
//
// Data is opaque to the logger but must never contain raw PHI; callers log
// metadata (counts, categories, mode, path), not content.
type SignedEntry struct {
	Timestamp      string          `json:"timestamp"`
	Data           json.RawMessage `json:"data"`
	PreviousHash   *string         `json:"previous_hash"`
	SequenceNumber uint64          `json:"sequence_number"`
	Signature      string          `json:"signature,omitempty"`
}

// VerificationResult reports every problem found in a chain. Verification is
// diagnostic, not exceptional: it never fails early and never returns a Go
// error for chain defects.
type VerificationResult struct {
	Valid           bool     `json:"valid"`
	Errors          []string `json:"errors"`
	VerifiedEntries int      `json:"verified_entries"`
	TotalEntries    int      `json:"total_entries"`
}

// AuditLogger produces HMAC-SHA256-signed, hash-chained log entries. It is
// the one stateful component in this package: sequence number and last hash
// are updated atomically per Log call under a mutex, since two concurrent
// appends sharing a previous hash would fork the chain.
//
// One logger instance owns one chain. Persistence belongs to the host (see
// package auditstore for collaborators); the logger keeps only the minimal
// in-memory state needed to extend the chain.
type AuditLogger struct {
	mu       sync.Mutex
	key      []byte
	sequence uint64
	lastHash *string
	lastTime time.Time
	now      func() time.Time
}

// AuditOption configures an AuditLogger.
type AuditOption func(*AuditLogger) error

// WithClock overrides the logger's time source. Intended for tests that
// need deterministic timestamps.
func WithClock(now func() time.Time) AuditOption {
	return func(l *AuditLogger) error {
		if now == nil {
			return fmt.Errorf("%w: clock must not be nil", ErrInvalidConfiguration)
		}
		l.now = now
		return nil
	}
}

// NewAuditLogger creates a logger signing with key. Keys shorter than
// MinSigningKeyLength are rejected; a logger must never start with a weak
// key.
func NewAuditLogger(key []byte, opts ...AuditOption) (*AuditLogger, error) {
	if len(key) < MinSigningKeyLength {
		return nil, NewKeyTooShortError(len(key))
	}

	l := &AuditLogger{
		key: append([]byte(nil), key...),
		now: time.Now,
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Log appends data as the next signed entry in the chain and returns it.
// Data is canonicalized before signing so that equal values always sign
// identically. Timestamps are forced non-decreasing per instance.
func (l *AuditLogger) Log(data any) (SignedEntry, error) {
	payload, err := canonical.Marshal(data)
	if err != nil {
		return SignedEntry{}, fmt.Errorf("serialize audit data: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.now().UTC()
	if ts.Before(l.lastTime) {
		ts = l.lastTime
	}
	l.lastTime = ts

	entry := SignedEntry{
		Timestamp:      ts.Format(time.RFC3339Nano),
		Data:           payload,
		PreviousHash:   l.lastHash,
		SequenceNumber: l.sequence,
	}

	sig, err := l.sign(entry)
	if err != nil {
		return SignedEntry{}, err
	}
	entry.Signature = sig

	h, err := EntryHash(entry)
	if err != nil {
		return SignedEntry{}, err
	}
	l.lastHash = &h
	l.sequence++

	return entry, nil
}

// Verify recomputes the HMAC over the entry's non-signature fields and
// compares it to the stored signature in constant time.
func (l *AuditLogger) Verify(entry SignedEntry) bool {
	expected, err := l.sign(entry)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(entry.Signature))
}

// VerifyChain checks every entry's signature, sequence number, hash link,
// and timestamp ordering. All violations are accumulated so one pass
// surfaces every break in the chain.
func (l *AuditLogger) VerifyChain(entries []SignedEntry) VerificationResult {
	result := VerificationResult{
		Errors:       []string{},
		TotalEntries: len(entries),
	}

	var prevTime time.Time
	for i, entry := range entries {
		ok := true

		if !l.Verify(entry) {
			result.Errors = append(result.Errors, fmt.Sprintf("entry %d: signature mismatch", i))
			ok = false
		}

		if entry.SequenceNumber != uint64(i) {
			result.Errors = append(result.Errors,
				fmt.Sprintf("entry %d: sequence number %d, want %d", i, entry.SequenceNumber, i))
			ok = false
		}

		if i == 0 {
			if entry.PreviousHash != nil {
				result.Errors = append(result.Errors, "entry 0: previous hash must be empty")
				ok = false
			}
		} else {
			prevHash, err := EntryHash(entries[i-1])
			switch {
			case err != nil:
				result.Errors = append(result.Errors,
					fmt.Sprintf("entry %d: cannot hash predecessor: %v", i, err))
				ok = false
			case entry.PreviousHash == nil || *entry.PreviousHash != prevHash:
				result.Errors = append(result.Errors,
					fmt.Sprintf("entry %d: previous hash does not match entry %d", i, i-1))
				ok = false
			}
		}

		ts, err := time.Parse(time.RFC3339Nano, entry.Timestamp)
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("entry %d: unparseable timestamp %q", i, entry.Timestamp))
			ok = false
		} else {
			if i > 0 && ts.Before(prevTime) {
				result.Errors = append(result.Errors,
					fmt.Sprintf("entry %d: timestamp precedes entry %d", i, i-1))
				ok = false
			}
			prevTime = ts
		}

		if ok {
			result.VerifiedEntries++
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// Reset clears the chain state so the next entry starts a new chain at
// sequence 0. Explicit test/administrative action only.
func (l *AuditLogger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sequence = 0
	l.lastHash = nil
	l.lastTime = time.Time{}
}

// sign computes the hex HMAC-SHA256 over the canonical serialization of the
// entry with its signature field cleared.
func (l *AuditLogger) sign(entry SignedEntry) (string, error) {
	entry.Signature = ""
	payload, err := canonical.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("serialize entry for signing: %w", err)
	}
	mac := hmac.New(sha256.New, l.key)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// EntryHash computes the hex SHA-256 of the full signed entry's canonical
// serialization. It is the value chained into the successor's PreviousHash
// and the leaf hash for MerkleRoot.
func EntryHash(entry SignedEntry) (string, error) {
	payload, err := canonical.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("serialize entry for hashing: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
