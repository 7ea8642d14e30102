// Package phiguard provides PHI detection, deterministic governance policy
// decisions, and a tamper-evident audit trail for Go services that handle
// health data.
//
// The package is the governance core of a larger system: it persists
// nothing itself and exposes pure functions plus one logging primitive that
// collaborators call at defined boundaries (request ingress, pre-export,
// pre-LLM-call).
//
// # Key Features
//
//   - Pattern scanner over the HIPAA Safe Harbor identifier categories with
//     deterministic overlap resolution and location-only reporting
//   - Redactor and recursive object scrubber, plus a zap core wrapper that
//     scrubs every log field at the emission point
//   - Pure policy decision engine over governance modes (DEMO, IDENTIFIED,
//     PRODUCTION) and roles, failing closed on anything unrecognized
//   - PHI guard raising typed, value-free errors at assertion boundaries
//   - net/http boundary middleware with mode-dependent blocking
//   - HMAC-SHA256-signed, hash-chained audit logger with chain verification,
//     Merkle batch fingerprints, and export/import
//
// # Quick Start
//
//	scanner := phiguard.NewScanner()
//	guard := phiguard.NewGuard(scanner)
//
//	if err := guard.AssertNoPHI("export.manuscript", text); err != nil {
//	    var blocked *phiguard.PHIBlockedError
//	    if errors.As(err, &blocked) {
//	        // blocked.Locations carries offsets and categories, never values
//	    }
//	}
//
//	key, _ := phiguard.GenerateSigningKey()
//	audit, err := phiguard.NewAuditLogger(key)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	entry, _ := audit.Log(map[string]any{"event": "export_approved"})
//
// # Invariants
//
// No matched PHI value ever appears in a PolicyDecision, a SignedEntry, or
// any error produced here; errors are sanitized at the point of creation.
// Evaluate is referentially transparent. Audit chains are append-only with
// strictly increasing sequence numbers and non-decreasing timestamps.
//
// Key material is managed outside this package; see KeyProvider and the
// providers directory for sources, and DeriveSigningKey for per-service
// derivation from a master secret.
package phiguard
