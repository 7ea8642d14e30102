package phiguard

import (
	"context"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveSigningKey_Deterministic(t *testing.T) {
	master := bytes32('m')

	first, err := DeriveSigningKey(master, "intake-svc")
	require.NoError(t, err)
	second, err := DeriveSigningKey(master, "intake-svc")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, MinSigningKeyLength)
}

func TestDeriveSigningKey_PerServiceIsolation(t *testing.T) {
	master := bytes32('m')

	intake, err := DeriveSigningKey(master, "intake-svc")
	require.NoError(t, err)
	review, err := DeriveSigningKey(master, "review-svc")
	require.NoError(t, err)

	assert.NotEqual(t, intake, review, "distinct services must not share signing keys")
}

func TestDeriveSigningKey_Errors(t *testing.T) {
	_, err := DeriveSigningKey([]byte("short"), "intake-svc")
	assert.ErrorIs(t, err, ErrKeyTooShort)

	_, err = DeriveSigningKey(bytes32('m'), "")
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestDeriveSigningKey_WorksWithLogger(t *testing.T) {
	key, err := DeriveSigningKey(bytes32('m'), "intake-svc")
	require.NoError(t, err)

	l, err := NewAuditLogger(key)
	require.NoError(t, err)
	entry, err := l.Log(map[string]string{"event": "derived-key"})
	require.NoError(t, err)
	assert.True(t, l.Verify(entry))
}

func TestEnvKeyProvider(t *testing.T) {
	keyHex := strings.Repeat("ef", MinSigningKeyLength)
	t.Setenv(EnvAuditKey, keyHex)

	key, err := EnvKeyProvider{}.SigningKey(context.Background())
	require.NoError(t, err)
	want, _ := hex.DecodeString(keyHex)
	assert.Equal(t, want, key)
}

func TestEnvKeyProvider_CustomVar(t *testing.T) {
	keyHex := strings.Repeat("01", MinSigningKeyLength)
	t.Setenv("CUSTOM_AUDIT_KEY", keyHex)

	key, err := EnvKeyProvider{Var: "CUSTOM_AUDIT_KEY"}.SigningKey(context.Background())
	require.NoError(t, err)
	assert.Len(t, key, MinSigningKeyLength)
}

func TestEnvKeyProvider_Errors(t *testing.T) {
	t.Setenv(EnvAuditKey, "")
	_, err := EnvKeyProvider{}.SigningKey(context.Background())
	assert.ErrorIs(t, err, ErrKeyUnavailable)

	t.Setenv(EnvAuditKey, "not-hex")
	_, err = EnvKeyProvider{}.SigningKey(context.Background())
	assert.ErrorIs(t, err, ErrKeyUnavailable)

	t.Setenv(EnvAuditKey, "abcd")
	_, err = EnvKeyProvider{}.SigningKey(context.Background())
	assert.ErrorIs(t, err, ErrKeyTooShort)
}

func TestStaticKeyProvider(t *testing.T) {
	key, err := StaticKeyProvider{Key: TestSigningKey}.SigningKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TestSigningKey, key)

	// The provider hands out copies, not its own slice.
	key[0] ^= 0xff
	again, err := StaticKeyProvider{Key: TestSigningKey}.SigningKey(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, key, again)
}

func TestStaticKeyProvider_ShortKey(t *testing.T) {
	_, err := StaticKeyProvider{Key: []byte("tiny")}.SigningKey(context.Background())
	assert.ErrorIs(t, err, ErrKeyTooShort)
}

func TestGenerateSigningKey(t *testing.T) {
	a, err := GenerateSigningKey()
	require.NoError(t, err)
	b, err := GenerateSigningKey()
	require.NoError(t, err)

	assert.Len(t, a, MinSigningKeyLength)
	assert.NotEqual(t, a, b)
}

func TestGenerateStringSigningKey(t *testing.T) {
	s, err := GenerateStringSigningKey()
	require.NoError(t, err)

	key, err := hex.DecodeString(s)
	require.NoError(t, err)
	assert.Len(t, key, MinSigningKeyLength)
}
