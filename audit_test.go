package phiguard

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logEntries(t *testing.T, l *AuditLogger, n int) []SignedEntry {
	t.Helper()
	entries := make([]SignedEntry, 0, n)
	for i := 0; i < n; i++ {
		entry, err := l.Log(map[string]any{"event": "test", "index": i})
		require.NoError(t, err)
		entries = append(entries, entry)
	}
	return entries
}

func TestNewAuditLogger_RejectsShortKey(t *testing.T) {
	_, err := NewAuditLogger([]byte("too short"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKeyTooShort)
	assert.True(t, IsConfigurationError(err))
}

func TestNewAuditLogger_CopiesKey(t *testing.T) {
	key := append([]byte(nil), TestSigningKey...)
	l, err := NewAuditLogger(key)
	require.NoError(t, err)

	entry, err := l.Log(map[string]string{"event": "before"})
	require.NoError(t, err)

	// Mutating the caller's key slice must not affect the logger.
	key[0] ^= 0xff
	assert.True(t, l.Verify(entry))
}

func TestAuditLogger_ChainStructure(t *testing.T) {
	l, err := NewTestAuditLogger()
	require.NoError(t, err)

	entries := logEntries(t, l, 3)

	assert.Nil(t, entries[0].PreviousHash)
	for i, entry := range entries {
		assert.Equal(t, uint64(i), entry.SequenceNumber)
		assert.NotEmpty(t, entry.Signature)
		if i > 0 {
			prev, err := EntryHash(entries[i-1])
			require.NoError(t, err)
			require.NotNil(t, entry.PreviousHash)
			assert.Equal(t, prev, *entry.PreviousHash)
		}
	}
}

func TestVerifyChain_Valid(t *testing.T) {
	l, err := NewTestAuditLogger()
	require.NoError(t, err)

	entries := logEntries(t, l, 3)

	result := l.VerifyChain(entries)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 3, result.VerifiedEntries)
	assert.Equal(t, 3, result.TotalEntries)
}

func TestVerifyChain_TamperedData(t *testing.T) {
	l, err := NewTestAuditLogger()
	require.NoError(t, err)

	entries := logEntries(t, l, 3)
	entries[1].Data = json.RawMessage(`{"event":"forged"}`)

	result := l.VerifyChain(entries)
	assert.False(t, result.Valid)

	// The forged entry fails its signature check, and its successor's
	// previous-hash link breaks because the predecessor's bytes changed.
	var atOne, atTwo int
	for _, e := range result.Errors {
		if strings.HasPrefix(e, "entry 1:") {
			atOne++
		}
		if strings.HasPrefix(e, "entry 2:") {
			atTwo++
		}
	}
	assert.Equal(t, 1, atOne)
	assert.Equal(t, 1, atTwo)
	assert.Contains(t, result.Errors, "entry 1: signature mismatch")
	assert.Contains(t, result.Errors, "entry 2: previous hash does not match entry 1")
	assert.Equal(t, 1, result.VerifiedEntries, "only entry 0 survives")
}

func TestVerifyChain_ReorderedEntries(t *testing.T) {
	l, err := NewTestAuditLogger()
	require.NoError(t, err)

	entries := logEntries(t, l, 3)
	entries[1], entries[2] = entries[2], entries[1]

	result := l.VerifyChain(entries)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "entry 1: sequence number 2, want 1")
	assert.Contains(t, result.Errors, "entry 2: sequence number 1, want 2")
}

func TestVerifyChain_DefectTable(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(entries []SignedEntry)
		wantErr string
	}{
		{
			name:    "forged signature",
			mutate:  func(e []SignedEntry) { e[2].Signature = strings.Repeat("ab", 32) },
			wantErr: "entry 2: signature mismatch",
		},
		{
			name: "genesis claims a predecessor",
			mutate: func(e []SignedEntry) {
				bogus := strings.Repeat("cd", 32)
				e[0].PreviousHash = &bogus
			},
			wantErr: "entry 0: previous hash must be empty",
		},
		{
			name:    "broken hash link",
			mutate:  func(e []SignedEntry) { e[2].PreviousHash = nil },
			wantErr: "entry 2: previous hash does not match entry 1",
		},
		{
			name:    "unparseable timestamp",
			mutate:  func(e []SignedEntry) { e[1].Timestamp = "yesterday" },
			wantErr: `entry 1: unparseable timestamp "yesterday"`,
		},
		{
			name: "timestamp regression",
			mutate: func(e []SignedEntry) {
				e[2].Timestamp = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).Format(time.RFC3339Nano)
			},
			wantErr: "entry 2: timestamp precedes entry 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewTestAuditLogger()
			require.NoError(t, err)
			entries := logEntries(t, l, 3)

			tt.mutate(entries)

			result := l.VerifyChain(entries)
			assert.False(t, result.Valid)
			assert.Contains(t, result.Errors, tt.wantErr)
		})
	}
}

func TestVerifyChain_Empty(t *testing.T) {
	l, err := NewTestAuditLogger()
	require.NoError(t, err)

	result := l.VerifyChain(nil)
	assert.True(t, result.Valid)
	assert.Equal(t, 0, result.TotalEntries)
	assert.Equal(t, 0, result.VerifiedEntries)
}

func TestVerifyChain_WrongKey(t *testing.T) {
	l, err := NewTestAuditLogger()
	require.NoError(t, err)
	entries := logEntries(t, l, 2)

	other, err := NewAuditLogger(bytes32('x'))
	require.NoError(t, err)

	result := other.VerifyChain(entries)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "entry 0: signature mismatch")
	assert.Contains(t, result.Errors, "entry 1: signature mismatch")
}

func bytes32(b byte) []byte {
	key := make([]byte, MinSigningKeyLength)
	for i := range key {
		key[i] = b
	}
	return key
}

func TestVerify_SingleEntry(t *testing.T) {
	l, err := NewTestAuditLogger()
	require.NoError(t, err)

	entry, err := l.Log(map[string]string{"event": "lookup"})
	require.NoError(t, err)
	assert.True(t, l.Verify(entry))

	entry.Data = json.RawMessage(`{"event":"other"}`)
	assert.False(t, l.Verify(entry))
}

func TestAuditLogger_TimestampsNonDecreasing(t *testing.T) {
	times := []time.Time{
		time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC), // clock went backwards
		time.Date(2025, 1, 1, 13, 0, 0, 0, time.UTC),
	}
	var i int
	l, err := NewAuditLogger(TestSigningKey, WithClock(func() time.Time {
		ts := times[i]
		i++
		return ts
	}))
	require.NoError(t, err)

	entries := logEntries(t, l, 3)

	assert.Equal(t, entries[0].Timestamp, entries[1].Timestamp,
		"a backwards clock is pinned to the last issued timestamp")
	result := l.VerifyChain(entries)
	assert.True(t, result.Valid)
}

func TestAuditLogger_Reset(t *testing.T) {
	l, err := NewTestAuditLogger()
	require.NoError(t, err)

	logEntries(t, l, 2)
	l.Reset()

	entry, err := l.Log(map[string]string{"event": "fresh"})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), entry.SequenceNumber)
	assert.Nil(t, entry.PreviousHash)
}

func TestAuditLogger_DeterministicSigning(t *testing.T) {
	build := func() []SignedEntry {
		l, err := NewTestAuditLogger()
		require.NoError(t, err)
		return logEntries(t, l, 3)
	}

	assert.Equal(t, build(), build(), "identical inputs and clock must produce identical chains")
}

func TestWithClock_NilRejected(t *testing.T) {
	_, err := NewAuditLogger(TestSigningKey, WithClock(nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
