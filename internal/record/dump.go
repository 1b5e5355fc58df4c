package record

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Cycle is written in place of a map or slice that was already rendered
// earlier in the same Dump call.
const Cycle = `"..."`

// Dump renders v as compact JSON-like text for diagnostics.
//
// Every map and slice is rendered at most once: a later reference to the
// same map, or to a slice with the same backing array and length, renders
// as Cycle. This keeps self-referencing graphs finite.
func Dump(v any) string {
	d := &dumper{seen: make(map[visit]bool)}
	d.value(reflect.ValueOf(v))
	return d.b.String()
}

type visit struct {
	ptr  uintptr
	kind reflect.Kind
	len  int
}

type dumper struct {
	b    strings.Builder
	seen map[visit]bool
}

// enter marks v as visited and reports whether it was already seen.
func (d *dumper) enter(v reflect.Value) bool {
	ptr := v.Pointer()
	if ptr == 0 || (v.Kind() == reflect.Slice && v.Len() == 0) {
		return false
	}
	key := visit{ptr: ptr, kind: v.Kind(), len: v.Len()}
	if d.seen[key] {
		return true
	}
	d.seen[key] = true
	return false
}

func (d *dumper) value(v reflect.Value) {
	if !v.IsValid() {
		d.b.WriteString("null")
		return
	}

	if v.CanInterface() {
		if t, ok := v.Interface().(time.Time); ok {
			d.string(t.UTC().Format(time.RFC3339Nano))
			return
		}
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			d.b.WriteString("null")
			return
		}
		d.value(v.Elem())
	case reflect.Pointer:
		if v.IsNil() {
			d.b.WriteString("null")
			return
		}
		d.value(v.Elem())
	case reflect.Map:
		d.mapValue(v)
	case reflect.Slice:
		if v.IsNil() {
			d.b.WriteString("null")
			return
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			d.string(string(v.Bytes()))
			return
		}
		d.list(v)
	case reflect.Array:
		d.list(v)
	case reflect.String:
		d.string(v.String())
	case reflect.Bool:
		d.b.WriteString(strconv.FormatBool(v.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		d.b.WriteString(strconv.FormatInt(v.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		d.b.WriteString(strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		d.b.WriteString(strconv.FormatFloat(v.Float(), 'g', -1, 64))
	case reflect.Func:
		d.b.WriteString(`"<func>"`)
	default:
		if v.CanInterface() {
			d.string(fmt.Sprint(v.Interface()))
			return
		}
		d.string(v.String())
	}
}

func (d *dumper) mapValue(v reflect.Value) {
	if v.IsNil() {
		d.b.WriteString("null")
		return
	}
	if d.enter(v) {
		d.b.WriteString(Cycle)
		return
	}

	entries := make(map[string]reflect.Value, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		entries[fmt.Sprint(iter.Key().Interface())] = iter.Value()
	}

	d.b.WriteByte('{')
	for i, k := range SortedKeys(entries) {
		if i > 0 {
			d.b.WriteByte(',')
		}
		d.string(k)
		d.b.WriteByte(':')
		d.value(entries[k])
	}
	d.b.WriteByte('}')
}

func (d *dumper) list(v reflect.Value) {
	if v.Kind() == reflect.Slice && d.enter(v) {
		d.b.WriteString(Cycle)
		return
	}
	d.b.WriteByte('[')
	for i := 0; i < v.Len(); i++ {
		if i > 0 {
			d.b.WriteByte(',')
		}
		d.value(v.Index(i))
	}
	d.b.WriteByte(']')
}

func (d *dumper) string(s string) {
	d.b.WriteString(strconv.Quote(norm.NFC.String(s)))
}
