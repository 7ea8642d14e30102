package phiguard

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadConfigFromEnvironment loads configuration from environment variables,
// following the 12-factor approach. A .env file in the working directory is
// loaded first if present (development convenience; real deployments set the
// environment directly).
//
// Variables:
//   - PHIGUARD_MODE: governance mode, required (DEMO, IDENTIFIED, PRODUCTION)
//   - PHIGUARD_SERVICE_NAME: service label (optional)
//   - PHIGUARD_AUDIT_KEY: hex signing key (optional if a KeyProvider is used)
//   - PHIGUARD_SCANNABLE_FIELDS: comma-separated field allowlist (optional)
//   - PHIGUARD_EXCLUDED_PATHS: comma-separated path skip list (optional)
func LoadConfigFromEnvironment() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Mode:        Mode(os.Getenv(EnvMode)),
		ServiceName: os.Getenv(EnvServiceName),
		AuditKeyHex: os.Getenv(EnvAuditKey),
	}
	if v := os.Getenv("PHIGUARD_SCANNABLE_FIELDS"); v != "" {
		cfg.ScannableFields = splitList(v)
	}
	if v := os.Getenv("PHIGUARD_EXCLUDED_PATHS"); v != "" {
		cfg.ExcludedPaths = splitList(v)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigFromFile loads configuration from a YAML file and validates it.
func LoadConfigFromFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfiguration, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
