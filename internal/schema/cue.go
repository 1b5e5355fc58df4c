package schema

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Collection pairs a collection name with its schema.
type Collection struct {
	Name   string
	Schema *Schema
}

// CompileError reports an invalid schema declaration.
type CompileError struct {
	Collection string
	Field      string
	Message    string
	Pos        token.Pos
}

func (e *CompileError) Error() string {
	where := e.Collection
	if e.Field != "" {
		where += "." + e.Field
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			where, e.Message)
	}
	return fmt.Sprintf("%s: %s", where, e.Message)
}

var builtinTypes = map[TypeName]bool{
	TypeID: true, TypeIDArray: true, TypeInt: true, TypeFloat: true,
	TypeString: true, TypeBool: true, TypeEmail: true, TypeUUID: true,
	TypeTime: true, TypeIntArray: true, TypeStringArray: true,
	TypeObject: true, TypeAny: true,
}

// CompileCollections reads every collection under the "collections" struct
// of v, in declaration order:
//
//	collections: users: {
//		id:    {type: "id", key: true, auto: true}
//		email: {type: "email", unique: true}
//		name:  "string"
//	}
//
// A field given as a bare string is shorthand for {type: <string>}.
func CompileCollections(v cue.Value) ([]Collection, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	root := v.LookupPath(cue.ParsePath("collections"))
	if !root.Exists() {
		return nil, &CompileError{Collection: "collections", Message: "collections is required", Pos: v.Pos()}
	}

	iter, err := root.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []Collection
	for iter.Next() {
		s, err := CompileCollection(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, Collection{Name: iter.Label(), Schema: s})
	}
	if len(out) == 0 {
		return nil, &CompileError{Collection: "collections", Message: "at least one collection is required", Pos: root.Pos()}
	}
	return out, nil
}

// CompileCollection builds the schema of a single collection struct.
func CompileCollection(name string, v cue.Value) (*Schema, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var fields []Field
	for iter.Next() {
		f, err := compileField(name, iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}

	s, err := New(fields...)
	if err != nil {
		return nil, &CompileError{Collection: name, Message: err.Error(), Pos: v.Pos()}
	}
	return s, nil
}

func compileField(collection, name string, v cue.Value) (Field, error) {
	f := Field{Name: name}
	fail := func(pos token.Pos, format string, args ...any) (Field, error) {
		return Field{}, &CompileError{Collection: collection, Field: name, Message: fmt.Sprintf(format, args...), Pos: pos}
	}

	if typ, err := v.String(); err == nil {
		f.Type = TypeName(typ)
		if !builtinTypes[f.Type] {
			return fail(v.Pos(), "unknown type %q", typ)
		}
		return f, nil
	}

	iter, err := v.Fields()
	if err != nil {
		return fail(v.Pos(), "field must be a type name or a struct")
	}
	for iter.Next() {
		attr, av := iter.Label(), iter.Value()
		switch attr {
		case "type":
			s, err := av.String()
			if err != nil {
				return fail(av.Pos(), "type must be a string")
			}
			f.Type = TypeName(s)
			if !builtinTypes[f.Type] {
				return fail(av.Pos(), "unknown type %q", s)
			}
		case "mapped":
			s, err := av.String()
			if err != nil {
				return fail(av.Pos(), "mapped must be a string")
			}
			f.Mapped = s
		case "generate":
			s, err := av.String()
			if err != nil {
				return fail(av.Pos(), "generate must be a string")
			}
			fn, ok := Generator(s)
			if !ok {
				return fail(av.Pos(), "unknown generator %q", s)
			}
			f.DefaultFunc = fn
		case "default":
			d, err := decodeScalar(av)
			if err != nil {
				return Field{}, err
			}
			f.Default = d
		case "key", "auto", "optional", "unique", "persisted", "public", "name", "groupBy":
			b, err := av.Bool()
			if err != nil {
				return fail(av.Pos(), "%s must be a bool", attr)
			}
			setFlag(&f, attr, b)
		default:
			return fail(av.Pos(), "unknown attribute %q", attr)
		}
	}
	if f.Type == "" {
		return fail(v.Pos(), "type is required")
	}
	return f, nil
}

func setFlag(f *Field, attr string, b bool) {
	switch attr {
	case "key":
		f.Key = b
	case "auto":
		f.Auto = b
	case "optional":
		f.Optional = b
	case "unique":
		f.Unique = b
	case "persisted":
		f.Transient = !b
	case "public":
		f.Public = b
	case "name":
		f.GroupKey = b
	case "groupBy":
		f.GroupBy = b
	}
}

func decodeScalar(v cue.Value) (any, error) {
	switch v.Kind() {
	case cue.NullKind:
		return nil, nil
	case cue.BoolKind:
		b, err := v.Bool()
		return b, formatCUEError(err)
	case cue.IntKind:
		n, err := v.Int64()
		return n, formatCUEError(err)
	case cue.FloatKind, cue.NumberKind:
		n, err := v.Float64()
		return n, formatCUEError(err)
	case cue.StringKind:
		s, err := v.String()
		return s, formatCUEError(err)
	}
	var out any
	if err := v.Decode(&out); err != nil {
		return nil, formatCUEError(err)
	}
	return out, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Collection: "cue",
			Message:    first.Error(),
			Pos:        positions[0],
		}
	}
	return err
}
