// Package hashicorpvault implements phiguard.KeyProvider backed by the
// HashiCorp Vault KV v2 engine. The signing key is stored hex-encoded in a
// KV secret; Vault owns its lifecycle and rotation.
package hashicorpvault

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"

	"github.com/hashicorp/vault/api"

	"github.com/hengadev/phiguard"
)

// VaultKeyProvider reads the audit signing key from a Vault KV v2 secret.
type VaultKeyProvider struct {
	client *api.Client
	mount  string
	path   string
	field  string
}

// New creates a VaultKeyProvider using environment variables for client
// configuration.
//
// Environment Variables:
//   - VAULT_ADDR: Vault server address (required)
//   - VAULT_NAMESPACE: Vault namespace for HCP Vault (optional)
//   - VAULT_TOKEN: direct Vault token (optional, alternative to AppRole)
//   - VAULT_ROLE_ID / VAULT_SECRET_ID: AppRole credentials (optional)
//
// mount is the KV v2 mount (e.g. "secret"), path the secret path under it
// (e.g. "phiguard/audit"), and field the key inside the secret holding the
// hex-encoded signing key (e.g. "signing_key").
func New(mount, path, field string) (*VaultKeyProvider, error) {
	client, err := createVaultClient()
	if err != nil {
		return nil, err
	}
	if mount == "" || path == "" || field == "" {
		return nil, fmt.Errorf("%w: mount, path, and field are required", phiguard.ErrInvalidConfiguration)
	}
	return &VaultKeyProvider{client: client, mount: mount, path: path, field: field}, nil
}

// SigningKey fetches and decodes the signing key.
func (p *VaultKeyProvider) SigningKey(ctx context.Context) ([]byte, error) {
	secret, err := p.client.KVv2(p.mount).Get(ctx, p.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s/%s: %v", phiguard.ErrKeyUnavailable, p.mount, p.path, err)
	}

	raw, ok := secret.Data[p.field].(string)
	if !ok || raw == "" {
		return nil, fmt.Errorf("%w: secret field %q missing or not a string", phiguard.ErrKeyUnavailable, p.field)
	}

	key, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: secret field %q is not valid hex: %v", phiguard.ErrKeyUnavailable, p.field, err)
	}
	if len(key) < phiguard.MinSigningKeyLength {
		return nil, phiguard.NewKeyTooShortError(len(key))
	}
	return key, nil
}

// createVaultClient creates a configured Vault client using environment
// variables.
//
// Authentication Priority:
//  1. If VAULT_TOKEN is set, uses the token directly
//  2. If VAULT_ROLE_ID and VAULT_SECRET_ID are set, uses AppRole login
//  3. Otherwise, returns an error (no authentication method available)
func createVaultClient() (*api.Client, error) {
	config := api.DefaultConfig()

	addr := os.Getenv("VAULT_ADDR")
	if addr != "" {
		config.Address = addr
	}
	if config.Address == "" {
		return nil, fmt.Errorf("%w: VAULT_ADDR environment variable is required", phiguard.ErrInvalidConfiguration)
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
	}
	config.HttpClient.Transport = transport

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Vault client: %v", phiguard.ErrKeyUnavailable, err)
	}

	namespace := os.Getenv("VAULT_NAMESPACE")
	if namespace != "" {
		client.SetNamespace(namespace)
	}

	token := os.Getenv("VAULT_TOKEN")
	if token != "" {
		client.SetToken(token)
		return client, nil
	}

	roleID := os.Getenv("VAULT_ROLE_ID")
	secretID := os.Getenv("VAULT_SECRET_ID")
	if roleID != "" && secretID != "" {
		data := map[string]interface{}{
			"role_id":   roleID,
			"secret_id": secretID,
		}

		resp, err := client.Logical().Write("auth/approle/login", data)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to login with AppRole: %v", phiguard.ErrKeyUnavailable, err)
		}
		if resp == nil || resp.Auth == nil {
			return nil, fmt.Errorf("%w: no auth info returned from AppRole login", phiguard.ErrKeyUnavailable)
		}

		client.SetToken(resp.Auth.ClientToken)
		return client, nil
	}

	return nil, fmt.Errorf("%w: no Vault authentication method available (set VAULT_TOKEN or VAULT_ROLE_ID/VAULT_SECRET_ID)", phiguard.ErrInvalidConfiguration)
}
