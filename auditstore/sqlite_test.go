package auditstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_RoundTrip(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	logger, entries := buildChain(t, 3)
	for _, entry := range entries {
		require.NoError(t, store.Append(entry))
	}

	got, err := store.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	result := logger.VerifyChain(got)
	assert.True(t, result.Valid, "errors: %v", result.Errors)
}

func TestSQLiteStore_DuplicateSequenceFails(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	_, entries := buildChain(t, 1)
	require.NoError(t, store.Append(entries[0]))

	err = store.Append(entries[0])
	assert.Error(t, err, "a second writer on the same sequence must fail, not fork the chain")
}

func TestSQLiteStore_ReadAllOrdersBySequence(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	_, entries := buildChain(t, 3)

	// Insert out of order; reads must come back in chain order.
	require.NoError(t, store.Append(entries[2]))
	require.NoError(t, store.Append(entries[0]))
	require.NoError(t, store.Append(entries[1]))

	got, err := store.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, entry := range got {
		assert.Equal(t, uint64(i), entry.SequenceNumber)
	}
}

func TestSQLiteStore_PersistsToDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)

	logger, entries := buildChain(t, 2)
	for _, entry := range entries {
		require.NoError(t, store.Append(entry))
	}
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	result := logger.VerifyChain(got)
	assert.True(t, result.Valid, "errors: %v", result.Errors)
}

func TestSQLiteStore_Empty(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	got, err := store.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, got)
}
