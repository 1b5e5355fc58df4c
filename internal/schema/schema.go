package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/recstore/internal/backend"
	"github.com/roach88/recstore/internal/record"
)

// TypeName names a value type understood by the type checker.
type TypeName string

const (
	TypeID          TypeName = "id"
	TypeIDArray     TypeName = "array_id"
	TypeInt         TypeName = "int"
	TypeFloat       TypeName = "float"
	TypeString      TypeName = "string"
	TypeBool        TypeName = "bool"
	TypeEmail       TypeName = "email"
	TypeUUID        TypeName = "uuid"
	TypeTime        TypeName = "time"
	TypeIntArray    TypeName = "array_int"
	TypeStringArray TypeName = "array_string"
	TypeObject      TypeName = "object"
	TypeAny         TypeName = "/"
)

// Host is what a derived field sees of the engine evaluating it.
type Host interface {
	// Collection is the name of the collection the record belongs to.
	Collection() string
	// Backend gives access to other collections.
	Backend() backend.Backend
}

// DerivedFunc computes a derived field for one record.
type DerivedFunc func(ctx context.Context, rec record.Record, host Host) (any, error)

// DefaultFunc computes a default for one record.
type DefaultFunc func(rec record.Record) any

// Field describes one field of a collection.
type Field struct {
	Name string
	Type TypeName

	// Key fields identify a record. Their values are snapshotted on load.
	Key bool
	// Auto fields are generated by the store on insert.
	Auto bool
	// Optional fields may be absent or null.
	Optional bool
	// Unique is informational; the store enforces it.
	Unique bool
	// Transient fields are never persisted (persisted: false).
	Transient bool

	// Default is assigned when the field is absent or falsy.
	Default any
	// DefaultFunc takes precedence over Default when set.
	DefaultFunc DefaultFunc

	// Derived fields are computed, never stored.
	Derived DerivedFunc

	// Public fields appear in projections, under Mapped when set.
	Public bool
	Mapped string

	// GroupKey keys projections by this field's value ("name" flag).
	GroupKey bool
	// GroupBy collects records sharing a group key into a list.
	GroupBy bool
}

// Writable reports whether the field is sent to the store.
func (f Field) Writable() bool {
	return !f.Auto && f.Derived == nil && !f.Transient
}

// HasDefault reports whether the field carries a static or computed default.
func (f Field) HasDefault() bool {
	return f.Default != nil || f.DefaultFunc != nil
}

// PublicName is the name the field takes in projections.
func (f Field) PublicName() string {
	if f.Mapped != "" {
		return f.Mapped
	}
	return f.Name
}

// IsIdentifier reports whether values of the field are store identifiers.
func (f Field) IsIdentifier() bool {
	return f.Type == TypeID || f.Type == TypeIDArray
}

// Schema is an immutable, ordered set of fields.
type Schema struct {
	fields []Field
	index  map[string]int
}

// Sentinel errors returned by New.
var (
	ErrNoFields       = errors.New("schema has no fields")
	ErrNoKey          = errors.New("schema has no key field")
	ErrNoWritable     = errors.New("schema has no writable field")
	ErrEmptyFieldName = errors.New("field name is empty")
	ErrDuplicateField = errors.New("duplicate field")
)

// New builds a Schema. It requires at least one key field and at least one
// field that is neither auto, derived nor transient.
func New(fields ...Field) (*Schema, error) {
	if len(fields) == 0 {
		return nil, ErrNoFields
	}

	s := &Schema{
		fields: make([]Field, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	var hasKey, hasWritable bool
	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("field %d: %w", i, ErrEmptyFieldName)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("%w %q", ErrDuplicateField, f.Name)
		}
		if f.Type == "" {
			f.Type = TypeAny
		}
		s.fields[i] = f
		s.index[f.Name] = i
		hasKey = hasKey || f.Key
		hasWritable = hasWritable || f.Writable()
	}
	if !hasKey {
		return nil, ErrNoKey
	}
	if !hasWritable {
		return nil, ErrNoWritable
	}
	return s, nil
}

// MustNew is New for statically declared schemas; it panics on error.
func MustNew(fields ...Field) *Schema {
	s, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns the fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Len is the number of fields.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Keys returns the key fields in declaration order.
func (s *Schema) Keys() []Field {
	return s.filter(func(f Field) bool { return f.Key })
}

// KeyNames returns the names of the key fields in declaration order.
func (s *Schema) KeyNames() []string {
	return names(s.Keys())
}

// AutoNames returns the names of store-generated fields.
func (s *Schema) AutoNames() []string {
	return names(s.filter(func(f Field) bool { return f.Auto }))
}

// Derived returns the derived fields.
func (s *Schema) Derived() []Field {
	return s.filter(func(f Field) bool { return f.Derived != nil })
}

func (s *Schema) filter(keep func(Field) bool) []Field {
	var out []Field
	for _, f := range s.fields {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

func names(fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}
