package phiguard

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// High-level service errors
	ErrKeyUnavailable       = errors.New("signing key unavailable")
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// Guard errors
	ErrPHIDetected = errors.New("PHI detected")

	// Audit logger errors
	ErrKeyTooShort     = errors.New("signing key too short")
	ErrMalformedExport = errors.New("malformed export payload")

	// Scrub/scan errors
	ErrUnsupportedValue = errors.New("unsupported value")
)

// PHIBlockedError is returned by the guard when an assertion boundary finds
// PHI. It carries the label of the checked input and location-only findings;
// by construction it never holds a matched value, so it is safe to log or
// serialize wholesale.
type PHIBlockedError struct {
	Label     string
	Locations []Location
}

// NewPHIBlockedError builds a guard violation for label from locations.
func NewPHIBlockedError(label string, locations []Location) *PHIBlockedError {
	return &PHIBlockedError{Label: label, Locations: locations}
}

func (e *PHIBlockedError) Error() string {
	counts := make(map[Category]int)
	for _, loc := range e.Locations {
		counts[loc.Category]++
	}
	parts := make([]string, 0, len(counts))
	for cat, n := range counts {
		parts = append(parts, fmt.Sprintf("%s x%d", cat, n))
	}
	sort.Strings(parts)
	return fmt.Sprintf("PHI detected in %q: %s", e.Label, strings.Join(parts, ", "))
}

// Unwrap lets callers match the sentinel with errors.Is(err, ErrPHIDetected).
func (e *PHIBlockedError) Unwrap() error {
	return ErrPHIDetected
}

// Categories returns the distinct categories found, sorted for stable output.
func (e *PHIBlockedError) Categories() []Category {
	seen := make(map[Category]bool)
	var cats []Category
	for _, loc := range e.Locations {
		if !seen[loc.Category] {
			seen[loc.Category] = true
			cats = append(cats, loc.Category)
		}
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}

func NewKeyTooShortError(got int) error {
	return fmt.Errorf("%w: need at least %d bytes, got %d", ErrKeyTooShort, MinSigningKeyLength, got)
}

func NewMalformedExportError(detail string) error {
	return fmt.Errorf("%w: %s", ErrMalformedExport, detail)
}

// IsPHIBlocked returns true if the error represents a guard violation.
func IsPHIBlocked(err error) bool {
	return errors.Is(err, ErrPHIDetected)
}

// IsConfigurationError returns true if the error represents a configuration problem.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrKeyTooShort)
}

// IsKeyError returns true if the error represents a signing key problem.
func IsKeyError(err error) bool {
	return errors.Is(err, ErrKeyTooShort) ||
		errors.Is(err, ErrKeyUnavailable)
}
