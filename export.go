package phiguard

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hengadev/phiguard/internal/canonical"
)

// ExportEnvelope is the round-trippable form of a chain. Metadata is derived
// convenience only; ImportAndVerify re-derives everything it checks and
// never trusts these fields.
type ExportEnvelope struct {
	Version  string         `json:"version"`
	ExportID string         `json:"export_id"`
	Created  string         `json:"created"`
	Entries  []SignedEntry  `json:"entries"`
	Metadata ExportMetadata `json:"metadata"`
}

// ExportMetadata summarizes the exported chain.
type ExportMetadata struct {
	TotalEntries   int    `json:"total_entries"`
	FirstTimestamp string `json:"first_timestamp,omitempty"`
	LastTimestamp  string `json:"last_timestamp,omitempty"`
}

// Export serializes entries into a versioned envelope suitable for archival
// (see providers/s3 and package auditstore for sinks).
func (l *AuditLogger) Export(entries []SignedEntry) ([]byte, error) {
	env := ExportEnvelope{
		Version:  ExportVersion,
		ExportID: uuid.NewString(),
		Created:  l.now().UTC().Format(time.RFC3339Nano),
		Entries:  entries,
		Metadata: deriveMetadata(entries),
	}
	// Canonical encoding keeps entry Data bytes identical across export and
	// import; default JSON encoding would re-escape HTML characters and
	// break signatures on round-trip.
	return canonical.Marshal(env)
}

// ImportAndVerify parses an exported envelope and verifies its chain with a
// fresh logger holding key. This is the sole supported path for consuming a
// persisted log. Parse failures and weak keys return an error; chain defects
// are reported in the VerificationResult, never as an error.
func ImportAndVerify(blob []byte, key []byte) ([]SignedEntry, VerificationResult, error) {
	var env ExportEnvelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, VerificationResult{}, NewMalformedExportError(err.Error())
	}
	if env.Version == "" {
		return nil, VerificationResult{}, NewMalformedExportError("missing version")
	}

	logger, err := NewAuditLogger(key)
	if err != nil {
		return nil, VerificationResult{}, err
	}

	result := logger.VerifyChain(env.Entries)

	// Metadata is advisory; a mismatch is one more chain defect.
	if derived := deriveMetadata(env.Entries); env.Metadata != derived {
		result.Errors = append(result.Errors, "metadata does not match entries")
		result.Valid = false
	}

	return env.Entries, result, nil
}

func deriveMetadata(entries []SignedEntry) ExportMetadata {
	md := ExportMetadata{TotalEntries: len(entries)}
	if len(entries) > 0 {
		md.FirstTimestamp = entries[0].Timestamp
		md.LastTimestamp = entries[len(entries)-1].Timestamp
	}
	return md
}
