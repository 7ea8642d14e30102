package phiguard

const (
	// MinSigningKeyLength is the smallest HMAC key the audit logger accepts.
	MinSigningKeyLength = 32

	// ExportVersion tags the envelope format produced by Export.
	ExportVersion = "1.0"

	// Environment variables read by LoadConfigFromEnvironment.
	EnvMode        = "PHIGUARD_MODE"
	EnvServiceName = "PHIGUARD_SERVICE_NAME"
	EnvAuditKey    = "PHIGUARD_AUDIT_KEY"

	// Defaults applied by Config.Validate.
	DefaultServiceName = "phiguard"
)

// defaultScannableFields is the request-body field allowlist used by the
// boundary middleware when the host does not supply its own.
var defaultScannableFields = []string{
	"text", "content", "body", "message", "notes", "description",
	"query", "prompt", "input",
}

// defaultExcludedPaths are never scanned by the boundary middleware.
var defaultExcludedPaths = []string{
	"/health", "/healthz", "/ready", "/auth/login", "/auth/logout",
}
