package phiguard

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryLeaf(t *testing.T, entry SignedEntry) []byte {
	t.Helper()
	h, err := EntryHash(entry)
	require.NoError(t, err)
	raw, err := hex.DecodeString(h)
	require.NoError(t, err)
	return raw
}

func TestMerkleRoot_Empty(t *testing.T) {
	_, err := MerkleRoot(nil)
	assert.Error(t, err)
}

func TestMerkleRoot_SingleEntry(t *testing.T) {
	l, err := NewTestAuditLogger()
	require.NoError(t, err)
	entries := logEntries(t, l, 1)

	root, err := MerkleRoot(entries)
	require.NoError(t, err)

	// A one-entry batch's root is the entry hash itself.
	h, err := EntryHash(entries[0])
	require.NoError(t, err)
	assert.Equal(t, h, root)
}

func TestMerkleRoot_PairCombining(t *testing.T) {
	l, err := NewTestAuditLogger()
	require.NoError(t, err)
	entries := logEntries(t, l, 2)

	root, err := MerkleRoot(entries)
	require.NoError(t, err)

	h0 := entryLeaf(t, entries[0])
	h1 := entryLeaf(t, entries[1])
	want := sha256.Sum256(append(h0, h1...))
	assert.Equal(t, hex.EncodeToString(want[:]), root)
}

func TestMerkleRoot_OddNodePropagates(t *testing.T) {
	l, err := NewTestAuditLogger()
	require.NoError(t, err)
	entries := logEntries(t, l, 3)

	root, err := MerkleRoot(entries)
	require.NoError(t, err)

	// The third leaf is unpaired at level 0 and rises unchanged, so
	// root(3) = H(H(h0||h1) || h2).
	h0 := entryLeaf(t, entries[0])
	h1 := entryLeaf(t, entries[1])
	h2 := entryLeaf(t, entries[2])
	inner := sha256.Sum256(append(h0, h1...))
	want := sha256.Sum256(append(inner[:], h2...))
	assert.Equal(t, hex.EncodeToString(want[:]), root)
}

func TestMerkleRoot_TamperChangesRoot(t *testing.T) {
	l, err := NewTestAuditLogger()
	require.NoError(t, err)
	entries := logEntries(t, l, 4)

	before, err := MerkleRoot(entries)
	require.NoError(t, err)

	entries[2].Data = json.RawMessage(`{"event":"forged"}`)
	after, err := MerkleRoot(entries)
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
}

func TestMerkleRoot_Deterministic(t *testing.T) {
	l, err := NewTestAuditLogger()
	require.NoError(t, err)
	entries := logEntries(t, l, 5)

	first, err := MerkleRoot(entries)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := MerkleRoot(entries)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
