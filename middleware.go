package phiguard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Boundary applies PHI scanning to inbound requests. It is framework
// agnostic: Middleware returns a plain http.Handler wrapper, so any router
// built on net/http can mount it.
//
// Blocking behavior depends on the governance mode at request time: DEMO
// warns and forwards, IDENTIFIED and PRODUCTION block with a structured 422.
// Internal scan failures never block a request; an outage of unrelated
// functionality is worse than one unscanned request, so this is the one
// place errors are swallowed (logged, counted, then fail open).
type Boundary struct {
	scanner         *Scanner
	mode            func() Mode
	logger          *zap.Logger
	audit           *AuditLogger
	metrics         MetricsCollector
	scannableFields map[string]bool
	excludedPaths   map[string]bool
	maxBodyBytes    int64
}

// BoundaryOption configures a Boundary.
type BoundaryOption func(*Boundary)

// WithMetrics attaches a metrics collector. Default: no-op.
func WithMetrics(m MetricsCollector) BoundaryOption {
	return func(b *Boundary) { b.metrics = m }
}

// WithMaxBodyBytes caps how much of a request body is read for scanning.
// Default: 1 MiB.
func WithMaxBodyBytes(n int64) BoundaryOption {
	return func(b *Boundary) { b.maxBodyBytes = n }
}

// NewBoundary builds the middleware. mode is consulted per request and never
// cached; audit may be nil for hosts that record events elsewhere.
func NewBoundary(cfg Config, scanner *Scanner, mode func() Mode, logger *zap.Logger, audit *AuditLogger, opts ...BoundaryOption) *Boundary {
	b := &Boundary{
		scanner:         scanner,
		mode:            mode,
		logger:          logger,
		audit:           audit,
		metrics:         &NoOpMetricsCollector{},
		scannableFields: make(map[string]bool, len(cfg.ScannableFields)),
		excludedPaths:   make(map[string]bool, len(cfg.ExcludedPaths)),
		maxBodyBytes:    1 << 20,
	}
	for _, f := range cfg.ScannableFields {
		b.scannableFields[f] = true
	}
	for _, p := range cfg.ExcludedPaths {
		b.excludedPaths[p] = true
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// blockResponse is the structured 422 body returned under strict modes. It
// carries categories and character ranges only; the offending text is never
// re-transmitted.
type blockResponse struct {
	Error     string     `json:"error"`
	Message   string     `json:"message"`
	Locations []Location `json:"locations"`
}

// Middleware wraps next with boundary scanning.
func (b *Boundary) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.excludedPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()

		result, scanErr := b.scanRequest(r)
		if scanErr != nil {
			// Fail open: a broken scanner must not take the API down.
			b.logger.Error("boundary scan failed, request forwarded unscanned",
				zap.String("path", r.URL.Path),
				zap.Error(scanErr),
			)
			b.metrics.IncrementCounter("boundary.scan_errors", map[string]string{"path": r.URL.Path})
			next.ServeHTTP(w, r)
			return
		}

		duration := time.Since(start)
		b.metrics.RecordTiming("boundary.scan", duration, map[string]string{"path": r.URL.Path})

		if !result.HasPHI {
			next.ServeHTTP(w, r)
			return
		}

		mode := b.mode()
		blocked := mode != ModeDemo

		b.recordAuditEvent(r, mode, result, duration, blocked)
		b.metrics.IncrementCounter("boundary.phi_detected", map[string]string{
			"path": r.URL.Path,
			"mode": string(mode),
		})

		if !blocked {
			b.logger.Warn("PHI detected at boundary, forwarding in demo mode",
				zap.String("path", r.URL.Path),
				zap.Int("findings", len(result.Locations)),
			)
			next.ServeHTTP(w, r)
			return
		}

		b.logger.Warn("PHI detected at boundary, request blocked",
			zap.String("path", r.URL.Path),
			zap.String("mode", string(mode)),
			zap.Int("findings", len(result.Locations)),
		)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(blockResponse{
			Error:     "phi_detected",
			Message:   "request contains protected health information; remove or redact the flagged ranges",
			Locations: result.Locations,
		})
	})
}

// scanRequest gathers scannable text from the body and query string and
// scans it. Panics inside matching are converted to errors so the caller can
// fail open.
func (b *Boundary) scanRequest(r *http.Request) (result ScanResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("scan panic: %v", rec)
		}
	}()

	result.Stats = make(map[Category]int)

	body, readErr := io.ReadAll(io.LimitReader(r.Body, b.maxBodyBytes))
	if readErr != nil {
		return ScanResult{}, fmt.Errorf("read body: %w", readErr)
	}
	// Only the first maxBodyBytes are scanned, but the downstream handler
	// must still see the full body: stitch the consumed prefix back onto
	// whatever is left unread.
	rest := r.Body
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(body), rest), rest}

	for section, text := range b.scanTargets(body) {
		for _, f := range b.scanner.Scan(text) {
			loc := f.Location()
			loc.Section = section
			result.Locations = append(result.Locations, loc)
			result.Stats[f.Category]++
		}
	}

	for key, values := range r.URL.Query() {
		for _, v := range values {
			for _, f := range b.scanner.Scan(v) {
				loc := f.Location()
				loc.Section = "query." + key
				result.Locations = append(result.Locations, loc)
				result.Stats[f.Category]++
			}
		}
	}

	result.HasPHI = len(result.Locations) > 0
	return result, nil
}

// scanTargets extracts the allowlisted fields from a JSON body, falling back
// to the whole body when nothing on the allowlist is present or the body is
// not JSON.
func (b *Boundary) scanTargets(body []byte) map[string]string {
	targets := make(map[string]string)
	if len(body) == 0 {
		return targets
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err == nil {
		collectFields(parsed, "", b.scannableFields, targets)
	}
	if len(targets) == 0 {
		targets["body"] = string(body)
	}
	return targets
}

// collectFields walks decoded JSON and records string values whose key is on
// the allowlist, keyed by dotted path.
func collectFields(v any, path string, allow map[string]bool, out map[string]string) {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			childPath := joinPath(path, k)
			if s, ok := child.(string); ok && allow[k] {
				out[childPath] = s
				continue
			}
			collectFields(child, childPath, allow, out)
		}
	case []any:
		for i, child := range val {
			collectFields(child, fmt.Sprintf("%s[%d]", path, i), allow, out)
		}
	}
}

// recordAuditEvent writes metadata about the detection to the audit chain.
// Counts, categories, mode, path, and timing only; the matched text never
// reaches the logger.
func (b *Boundary) recordAuditEvent(r *http.Request, mode Mode, result ScanResult, duration time.Duration, blocked bool) {
	if b.audit == nil {
		return
	}

	categories := make(map[string]int, len(result.Stats))
	for cat, n := range result.Stats {
		categories[string(cat)] = n
	}

	if _, err := b.audit.Log(map[string]any{
		"event":       "boundary_phi_detected",
		"event_id":    uuid.NewString(),
		"path":        r.URL.Path,
		"method":      r.Method,
		"mode":        string(mode),
		"blocked":     blocked,
		"categories":  categories,
		"findings":    len(result.Locations),
		"duration_ms": duration.Milliseconds(),
	}); err != nil {
		b.logger.Error("failed to record boundary audit event", zap.Error(err))
	}
}
