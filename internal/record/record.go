package record

import (
	"math"
	"reflect"
	"slices"
	"unicode/utf16"
)

// Record is a single row as seen by the engine.
type Record map[string]any

// Clone returns a shallow copy of r. Nested maps and slices are shared.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Has reports whether field is present in r, including explicit null.
func (r Record) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// Present reports whether field is present and not null.
func (r Record) Present(field string) bool {
	v, ok := r[field]
	return ok && v != nil
}

// SortedKeys returns the keys of r in canonical order (UTF-16 code units).
func (r Record) SortedKeys() []string {
	return SortedKeys(r)
}

// CloneAll clones every record of recs.
func CloneAll(recs []Record) []Record {
	out := make([]Record, len(recs))
	for i, r := range recs {
		out[i] = r.Clone()
	}
	return out
}

// SortedKeys returns the keys of m sorted by UTF-16 code units.
// Go's string comparison orders by UTF-8 bytes, which differs for
// characters outside the BMP.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// Falsy reports whether v counts as "unset" for defaulting:
// nil, false, numeric zero and the empty string.
func Falsy(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case bool:
		return !val
	case string:
		return val == ""
	}
	if f, ok := AsFloat(v); ok {
		return f == 0 || math.IsNaN(f)
	}
	return false
}

// AsInt64 converts any integral numeric value to int64.
// Floats are accepted only when they hold an integral value.
func AsInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	}
	return 0, false
}

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f > math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// AsFloat converts any numeric value to float64.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	if i, ok := AsInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}

// SameValue compares two field values. Numbers compare by value regardless
// of their Go type, so an int literal equals the int64 read back from a store.
func SameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ai, ok := AsInt64(a); ok {
		if bi, ok := AsInt64(b); ok {
			return ai == bi
		}
	}
	if af, ok := AsFloat(a); ok {
		if bf, ok := AsFloat(b); ok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// SameTuple reports whether a and b hold the same values in the same order.
func SameTuple(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !SameValue(a[i], b[i]) {
			return false
		}
	}
	return true
}
