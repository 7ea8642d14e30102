package phiguard

import (
	"encoding/hex"
	"fmt"

	"github.com/hengadev/errsx"
)

// Config holds construction-time settings for the governance core.
//
// This struct contains only data, no behavior. Configuration can be loaded
// from any source (environment variables, YAML files, code) and passed
// explicitly to the components that need it; there is no package-level
// singleton reading it implicitly.
//
// Required fields:
//   - Mode: the governance operating posture (DEMO, IDENTIFIED, PRODUCTION)
//
// Optional fields (defaults are applied if empty):
//   - ServiceName: label used in key derivation and audit events
//   - AuditKeyHex: hex-encoded signing key; omit it when a KeyProvider
//     supplies the key instead
//   - ScannableFields / ExcludedPaths: boundary middleware allowlists
type Config struct {
	// Mode is the governance posture this deployment runs under. Unknown
	// values are rejected here rather than silently failing closed on
	// every later decision.
	Mode Mode `yaml:"mode"`

	// ServiceName identifies this deployment in audit events and in
	// HKDF key derivation. Default: "phiguard".
	ServiceName string `yaml:"service_name"`

	// AuditKeyHex is the hex-encoded HMAC signing key. Optional; hosts
	// that fetch keys through a KeyProvider leave it empty. When set it
	// must decode to at least MinSigningKeyLength bytes.
	AuditKeyHex string `yaml:"audit_key_hex"`

	// ScannableFields is the request-body field allowlist for the
	// boundary middleware. Default: defaultScannableFields.
	ScannableFields []string `yaml:"scannable_fields"`

	// ExcludedPaths lists request paths the boundary middleware never
	// scans. Default: defaultExcludedPaths.
	ExcludedPaths []string `yaml:"excluded_paths"`
}

// Validate checks the configuration and applies defaults to optional
// fields. All problems are reported together rather than one per call.
func (c *Config) Validate() error {
	var errs errsx.Map

	switch c.Mode {
	case ModeDemo, ModeIdentified, ModeProduction:
	case "":
		errs.Set("mode", "mode is required")
	default:
		errs.Set("mode", fmt.Sprintf("unknown mode %q", c.Mode))
	}

	if c.AuditKeyHex != "" {
		key, err := hex.DecodeString(c.AuditKeyHex)
		switch {
		case err != nil:
			errs.Set("audit_key_hex", "must be valid hex")
		case len(key) < MinSigningKeyLength:
			errs.Set("audit_key_hex", fmt.Sprintf("must decode to at least %d bytes", MinSigningKeyLength))
		}
	}

	if !errs.IsEmpty() {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, errs.AsError())
	}

	if c.ServiceName == "" {
		c.ServiceName = DefaultServiceName
	}
	if len(c.ScannableFields) == 0 {
		c.ScannableFields = append([]string(nil), defaultScannableFields...)
	}
	if len(c.ExcludedPaths) == 0 {
		c.ExcludedPaths = append([]string(nil), defaultExcludedPaths...)
	}
	return nil
}

// SigningKey decodes AuditKeyHex. Call Validate first.
func (c *Config) SigningKey() ([]byte, error) {
	if c.AuditKeyHex == "" {
		return nil, fmt.Errorf("%w: no audit key configured", ErrKeyUnavailable)
	}
	key, err := hex.DecodeString(c.AuditKeyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: audit key is not valid hex: %v", ErrKeyUnavailable, err)
	}
	return key, nil
}
