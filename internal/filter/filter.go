package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/recstore/internal/record"
)

// AnyOf is the reserved filter key for a disjunction of sub-filters.
// Its value must be a []Filter.
const AnyOf = "$or"

// KeysIn is the reserved filter key for matching several fields together
// against a list of value tuples. Its value must be a TupleIn.
const KeysIn = "$keys"

// Filter selects records by field. Values are literals or Predicates.
type Filter map[string]any

// Predicate is a non-equality condition on a single field.
type Predicate interface {
	predicateNode() // seals the interface to this package
}

// In matches when the field equals one of Values.
type In struct {
	Values []any
}

func (In) predicateNode() {}

// TupleIn matches when Fields, taken together, equal one of Values.
// Every tuple holds one value per field, in field order.
type TupleIn struct {
	Fields []string
	Values [][]any
}

// Like matches the field against a SQL LIKE pattern ('%' and '_' wildcards,
// '\' escapes).
type Like struct {
	Pattern string
}

func (Like) predicateNode() {}

// Op is a comparison operator.
type Op string

const (
	OpNE  Op = "!="
	OpLT  Op = "<"
	OpLTE Op = "<="
	OpGT  Op = ">"
	OpGTE Op = ">="
)

// Compare matches when "field Op Value" holds.
type Compare struct {
	Op    Op
	Value any
}

func (Compare) predicateNode() {}

// Null matches null fields, or non-null fields when Not is set.
type Null struct {
	Not bool
}

func (Null) predicateNode() {}

// Substring returns a Like predicate matching s anywhere in the field.
// Wildcard characters in s match literally.
func Substring(s string) Like {
	return Like{Pattern: "%" + EscapeLike(s) + "%"}
}

// Prefix returns a Like predicate matching fields starting with s.
func Prefix(s string) Like {
	return Like{Pattern: EscapeLike(s) + "%"}
}

// EscapeLike escapes LIKE wildcards in s.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Order sorts by one field.
type Order struct {
	Field string
	Desc  bool
}

// ParseOrder reads "field" as ascending and "-field" as descending.
func ParseOrder(s string) Order {
	if strings.HasPrefix(s, "-") {
		return Order{Field: s[1:], Desc: true}
	}
	return Order{Field: s}
}

// Options controls paging and ordering of a find.
// A zero Limit means unlimited. Without Order, records come back in
// insertion order.
type Options struct {
	Limit  int
	Offset int
	Order  []Order
}

// Tuples builds a filter matching any of the given key tuples.
// A single key becomes an In predicate, composite keys a TupleIn.
func Tuples(keys []string, tuples [][]any) Filter {
	if len(keys) == 1 {
		values := make([]any, len(tuples))
		for i, t := range tuples {
			values[i] = t[0]
		}
		return Filter{keys[0]: In{Values: values}}
	}
	return Filter{KeysIn: TupleIn{Fields: keys, Values: tuples}}
}

// FromRecord builds an equality filter from every field of r.
func FromRecord(r record.Record) Filter {
	f := make(Filter, len(r))
	for k, v := range r {
		f[k] = v
	}
	return f
}

// Sentinel errors returned by Validate.
var (
	ErrEmptyField    = errors.New("filter field name is empty")
	ErrInvalidAnyOf  = errors.New("filter " + AnyOf + " must be a non-empty []Filter")
	ErrInvalidTuple  = errors.New("filter " + KeysIn + " must be a TupleIn with one value per field")
	ErrInvalidOp     = errors.New("invalid comparison operator")
	ErrInvalidOption = errors.New("invalid find option")
)

// Validate checks the structure of f and opts.
func Validate(f Filter, opts Options) error {
	if err := validateFilter(f); err != nil {
		return err
	}
	if opts.Limit < 0 || opts.Offset < 0 {
		return fmt.Errorf("%w: limit=%d offset=%d", ErrInvalidOption, opts.Limit, opts.Offset)
	}
	for _, o := range opts.Order {
		if o.Field == "" {
			return fmt.Errorf("%w: empty order field", ErrInvalidOption)
		}
	}
	return nil
}

func validateFilter(f Filter) error {
	for field, v := range f {
		if field == "" {
			return ErrEmptyField
		}
		if field == AnyOf {
			alts, ok := v.([]Filter)
			if !ok || len(alts) == 0 {
				return ErrInvalidAnyOf
			}
			for _, alt := range alts {
				if err := validateFilter(alt); err != nil {
					return err
				}
			}
			continue
		}
		if field == KeysIn {
			if err := validateTupleIn(v); err != nil {
				return err
			}
			continue
		}
		if c, ok := v.(Compare); ok {
			switch c.Op {
			case OpNE, OpLT, OpLTE, OpGT, OpGTE:
			default:
				return fmt.Errorf("%w %q on field %q", ErrInvalidOp, c.Op, field)
			}
		}
	}
	return nil
}

func validateTupleIn(v any) error {
	in, ok := v.(TupleIn)
	if !ok || len(in.Fields) == 0 {
		return ErrInvalidTuple
	}
	for _, f := range in.Fields {
		if f == "" {
			return ErrEmptyField
		}
	}
	for i, t := range in.Values {
		if len(t) != len(in.Fields) {
			return fmt.Errorf("%w: tuple %d has %d values for %d fields", ErrInvalidTuple, i, len(t), len(in.Fields))
		}
	}
	return nil
}
