package phiguard

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/hkdf"
)

// KeyProvider supplies the audit signing key from wherever the host manages
// secrets. Key management and rotation infrastructure live outside this
// package; providers only fetch or derive material (see
// providers/hashicorpvault for a Vault-backed implementation).
type KeyProvider interface {
	SigningKey(ctx context.Context) ([]byte, error)
}

// EnvKeyProvider reads a hex-encoded signing key from an environment
// variable. Var defaults to EnvAuditKey when empty.
type EnvKeyProvider struct {
	Var string
}

func (p EnvKeyProvider) SigningKey(ctx context.Context) ([]byte, error) {
	name := p.Var
	if name == "" {
		name = EnvAuditKey
	}
	raw := os.Getenv(name)
	if raw == "" {
		return nil, fmt.Errorf("%w: %s environment variable is not set", ErrKeyUnavailable, name)
	}
	key, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not valid hex: %v", ErrKeyUnavailable, name, err)
	}
	if len(key) < MinSigningKeyLength {
		return nil, NewKeyTooShortError(len(key))
	}
	return key, nil
}

// StaticKeyProvider returns a fixed key. Useful for tests and for hosts that
// inject key material directly.
type StaticKeyProvider struct {
	Key []byte
}

func (p StaticKeyProvider) SigningKey(ctx context.Context) ([]byte, error) {
	if len(p.Key) < MinSigningKeyLength {
		return nil, NewKeyTooShortError(len(p.Key))
	}
	return append([]byte(nil), p.Key...), nil
}

// DeriveSigningKey derives a 32-byte per-service signing key from an
// externally managed master secret using HKDF-SHA256. Distinct service
// names yield independent keys, so one master secret can back several
// logger instances without sharing chains.
func DeriveSigningKey(master []byte, serviceName string) ([]byte, error) {
	if len(master) < MinSigningKeyLength {
		return nil, NewKeyTooShortError(len(master))
	}
	if serviceName == "" {
		return nil, fmt.Errorf("%w: service name is required for key derivation", ErrInvalidConfiguration)
	}

	r := hkdf.New(sha256.New, master, nil, []byte("phiguard/audit-signing/"+serviceName))
	key := make([]byte, MinSigningKeyLength)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}
	return key, nil
}

// GenerateSigningKey returns 32 cryptographically random bytes.
func GenerateSigningKey() ([]byte, error) {
	key := make([]byte, MinSigningKeyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// GenerateStringSigningKey returns a fresh signing key hex-encoded, ready to
// store in a secret manager.
func GenerateStringSigningKey() (string, error) {
	key, err := GenerateSigningKey()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}
