package phiguard

import (
	"fmt"
	"sort"
	"strings"
)

// Scanner finds PHI-shaped substrings in text. It is stateless and safe for
// concurrent use; every method is a pure function of its input.
//
// Scanning never fails: malformed input is sanitized to valid UTF-8 (lossy
// replacement) before matching, so there is no error path that could carry
// the input back to a caller.
type Scanner struct {
	patterns []pattern
}

// NewScanner returns a scanner over the fixed category matcher table.
func NewScanner() *Scanner {
	return &Scanner{patterns: phiPatterns}
}

// rawMatch is a candidate span before overlap resolution.
type rawMatch struct {
	finding Finding
	order   int // declaration index in the matcher table, for tie-breaking
}

// Scan returns every PHI finding in text, overlap-resolved and ordered by
// ascending start index. Findings carry the matched value; callers must not
// let them escape the scan call (convert to Location first).
func (s *Scanner) Scan(text string) []Finding {
	text = sanitizeUTF8(text)

	var candidates []rawMatch
	for i, p := range s.patterns {
		for _, idx := range p.re.FindAllStringIndex(text, -1) {
			candidates = append(candidates, rawMatch{
				finding: Finding{
					Category:   p.category,
					Value:      text[idx[0]:idx[1]],
					StartIndex: idx[0],
					EndIndex:   idx[1],
					Confidence: p.confidence,
				},
				order: i,
			})
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	resolved := resolveOverlaps(candidates)

	findings := make([]Finding, 0, len(resolved))
	for _, m := range resolved {
		findings = append(findings, m.finding)
	}
	sort.Slice(findings, func(i, j int) bool {
		return findings[i].StartIndex < findings[j].StartIndex
	})
	return findings
}

// HasPHI reports whether text contains any PHI match. It returns on the
// first raw match without materializing findings, keeping the common clean
// path free of allocations.
func (s *Scanner) HasPHI(text string) bool {
	text = sanitizeUTF8(text)
	for _, p := range s.patterns {
		if p.re.MatchString(text) {
			return true
		}
	}
	return false
}

// Redact replaces every finding in text with a "[REDACTED:<CATEGORY>]" tag.
// Redaction is idempotent: redacting already-redacted text is a no-op, since
// the tags themselves match no category pattern.
func (s *Scanner) Redact(text string) string {
	text = sanitizeUTF8(text)

	findings := s.Scan(text)
	if len(findings) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, f := range findings {
		if f.StartIndex < last {
			continue
		}
		b.WriteString(text[last:f.StartIndex])
		fmt.Fprintf(&b, "[REDACTED:%s]", f.Category)
		last = f.EndIndex
	}
	b.WriteString(text[last:])
	return b.String()
}

// PHIStats returns the number of findings per category.
func (s *Scanner) PHIStats(text string) map[Category]int {
	stats := make(map[Category]int)
	for _, f := range s.Scan(text) {
		stats[f.Category]++
	}
	return stats
}

// ScanResult runs a full scan and returns the location-only summary.
func (s *Scanner) ScanResult(text string) ScanResult {
	findings := s.Scan(text)
	result := ScanResult{
		HasPHI: len(findings) > 0,
		Stats:  make(map[Category]int),
	}
	for _, f := range findings {
		result.Locations = append(result.Locations, f.Location())
		result.Stats[f.Category]++
	}
	return result
}

// resolveOverlaps drops the lower-confidence match of every overlapping
// pair. Ties resolve by matcher declaration order, earlier wins. The result
// preserves deterministic behavior for any fixed input.
func resolveOverlaps(candidates []rawMatch) []rawMatch {
	// Stronger matches claim their span first.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].finding.Confidence != candidates[j].finding.Confidence {
			return candidates[i].finding.Confidence > candidates[j].finding.Confidence
		}
		if candidates[i].order != candidates[j].order {
			return candidates[i].order < candidates[j].order
		}
		return candidates[i].finding.StartIndex < candidates[j].finding.StartIndex
	})

	var kept []rawMatch
	for _, c := range candidates {
		overlaps := false
		for _, k := range kept {
			if c.finding.StartIndex < k.finding.EndIndex && k.finding.StartIndex < c.finding.EndIndex {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, c)
		}
	}
	return kept
}

// sanitizeUTF8 coerces text to valid UTF-8 so regexp matching sees only
// well-formed input. Replacement is lossy but never fails.
func sanitizeUTF8(text string) string {
	return strings.ToValidUTF8(text, "�")
}
