package phiguard

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Guard composes the scanner with an assertion contract: inputs crossing a
// protected boundary (request ingress, pre-export, pre-LLM-call) either come
// back clean or produce a *PHIBlockedError carrying locations only.
//
// PHI-bearing errors are sanitized at the point of creation, not at the
// point of catching; no code path attaches a matched value to an error, even
// transiently, because logging frameworks may serialize errors wholesale.
type Guard struct {
	scanner *Scanner
}

// NewGuard returns a guard backed by the given scanner.
func NewGuard(scanner *Scanner) *Guard {
	return &Guard{scanner: scanner}
}

// AssertNoPHI scans text and returns a *PHIBlockedError if anything matched.
// label names the input for diagnostics (e.g. "export.manuscript").
func (g *Guard) AssertNoPHI(label, text string) error {
	result := g.scanner.ScanResult(text)
	if !result.HasPHI {
		return nil
	}
	return NewPHIBlockedError(label, result.Locations)
}

// AssertNoPHIInFields checks every field and aggregates all violations into
// a single error, so callers see the complete picture in one pass instead of
// fixing fields one at a time. Violating locations carry the field name in
// Section.
func (g *Guard) AssertNoPHIInFields(fields map[string]string) error {
	var locations []Location
	var violating []string

	labels := make([]string, 0, len(fields))
	for label := range fields {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		result := g.scanner.ScanResult(fields[label])
		if !result.HasPHI {
			continue
		}
		for _, loc := range result.Locations {
			loc.Section = label
			locations = append(locations, loc)
		}
		violating = append(violating, label)
	}

	if len(violating) == 0 {
		return nil
	}
	return NewPHIBlockedError("fields: "+strings.Join(violating, ", "), locations)
}

// ScanObjectForPHI recursively scans a structured value, producing dotted
// paths such as "patient.notes[2].body" in Location.Section. It returns the
// aggregate result and, when PHI was found, a *PHIBlockedError for label.
func (g *Guard) ScanObjectForPHI(obj any, label string) (ScanResult, error) {
	result := ScanResult{Stats: make(map[Category]int)}
	if obj != nil {
		g.scanValue(reflect.ValueOf(obj), "", &result)
	}
	result.HasPHI = len(result.Locations) > 0
	if !result.HasPHI {
		return result, nil
	}
	return result, NewPHIBlockedError(label, result.Locations)
}

func (g *Guard) scanValue(v reflect.Value, path string, result *ScanResult) {
	switch v.Kind() {
	case reflect.String:
		for _, f := range g.scanner.Scan(v.String()) {
			loc := f.Location()
			loc.Section = path
			result.Locations = append(result.Locations, loc)
			result.Stats[f.Category]++
		}

	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return
		}
		g.scanValue(v.Elem(), path, result)

	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			g.scanValue(v.Index(i), fmt.Sprintf("%s[%d]", path, i), result)
		}

	case reflect.Map:
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		for _, k := range keys {
			g.scanValue(v.MapIndex(k), joinPath(path, fmt.Sprint(k.Interface())), result)
		}

	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			g.scanValue(v.Field(i), joinPath(path, t.Field(i).Name), result)
		}
	}
}

func joinPath(base, elem string) string {
	if base == "" {
		return elem
	}
	return base + "." + elem
}
