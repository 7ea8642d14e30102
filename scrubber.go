package phiguard

import "reflect"

// Scrubber produces PHI-free copies of text and structured values. Like the
// scanner it wraps, it is stateless and safe for concurrent use.
//
// Known limitation: a redaction tag can, in adversarial input, coincide with
// a different category's pattern (e.g. a crafted string where the tag itself
// completes a labeled identifier). Re-scanning scrubbed output is therefore
// the caller's belt-and-suspenders check, not an assumption.
type Scrubber struct {
	scanner *Scanner
}

// NewScrubber returns a scrubber backed by the given scanner.
func NewScrubber(scanner *Scanner) *Scrubber {
	return &Scrubber{scanner: scanner}
}

// ScrubText redacts every PHI finding in text.
func (sc *Scrubber) ScrubText(text string) string {
	return sc.scanner.Redact(text)
}

// PHIStats returns per-category finding counts for text.
func (sc *Scrubber) PHIStats(text string) map[Category]int {
	return sc.scanner.PHIStats(text)
}

// ScrubObject walks value recursively and returns a copy in which every
// string leaf has been scrubbed. Maps (string keys included), slices,
// arrays, pointers, and exported struct fields are traversed; structure and
// non-string leaves are preserved unchanged. The input is never mutated.
func (sc *Scrubber) ScrubObject(value any) any {
	if value == nil {
		return nil
	}
	out := sc.scrubValue(reflect.ValueOf(value))
	if !out.IsValid() {
		return nil
	}
	return out.Interface()
}

func (sc *Scrubber) scrubValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.String:
		scrubbed := reflect.New(v.Type()).Elem()
		scrubbed.SetString(sc.ScrubText(v.String()))
		return scrubbed

	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		return sc.scrubValue(v.Elem())

	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(sc.scrubValue(v.Elem()))
		return out

	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(conform(sc.scrubValue(v.Index(i)), v.Type().Elem()))
		}
		return out

	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(conform(sc.scrubValue(v.Index(i)), v.Type().Elem()))
		}
		return out

	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(sc.scrubKey(iter.Key(), v.Type().Key()),
				conform(sc.scrubValue(iter.Value()), v.Type().Elem()))
		}
		return out

	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v) // carries over unexported fields untouched
		for i := 0; i < v.NumField(); i++ {
			if !out.Field(i).CanSet() {
				continue
			}
			out.Field(i).Set(conform(sc.scrubValue(v.Field(i)), v.Type().Field(i).Type))
		}
		return out

	default:
		return v
	}
}

// scrubKey scrubs string-kinded map keys, since a key can carry PHI just as
// well as a value. Keys of other kinds pass through untouched so key
// identity (pointers, numeric keys) is preserved. Two keys that scrub to the
// same string merge into one entry; for a redactor that is acceptable.
func (sc *Scrubber) scrubKey(k reflect.Value, t reflect.Type) reflect.Value {
	switch {
	case k.Kind() == reflect.String:
		return sc.scrubValue(k)
	case k.Kind() == reflect.Interface && !k.IsNil() && k.Elem().Kind() == reflect.String:
		return conform(sc.scrubValue(k.Elem()), t)
	default:
		return k
	}
}

// conform re-wraps a scrubbed value so it can be assigned back into a slot
// of the original static type (relevant when the slot is an interface).
func conform(v reflect.Value, t reflect.Type) reflect.Value {
	if !v.IsValid() {
		return reflect.Zero(t)
	}
	if v.Type() != t && t.Kind() == reflect.Interface {
		out := reflect.New(t).Elem()
		out.Set(v)
		return out
	}
	return v
}
