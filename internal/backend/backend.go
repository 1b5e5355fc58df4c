// Package backend defines the contract between the persistence engine and a
// concrete store.
//
// A store must support point lookups, predicate scans, insert with
// store-generated keys, key-filtered update and key-filtered delete. It
// reports constraint violations as *Error values carrying a Code, which the
// engine translates into its own error taxonomy.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/recstore/internal/filter"
	"github.com/roach88/recstore/internal/record"
)

// Cursor yields the result of a find. Nothing is read until All is called.
type Cursor interface {
	All(ctx context.Context) ([]record.Record, error)
}

// Collection is one named record set in a store.
type Collection interface {
	Name() string

	// Find scans for records matching f.
	Find(ctx context.Context, f filter.Filter, opts filter.Options) (Cursor, error)

	// FindByID looks up records by a complete key (field -> native id).
	FindByID(ctx context.Context, key record.Record) (Cursor, error)

	// FindByIDs looks up records whose key fields take any of the listed
	// values. Every value in keys is a []any of native ids.
	FindByIDs(ctx context.Context, keys record.Record, opts filter.Options) (Cursor, error)

	// Insert writes records in order and returns, per record, the values of
	// the returning fields as generated by the store.
	Insert(ctx context.Context, recs []record.Record, returning []string) ([]record.Record, error)

	// UpdateOne replaces the fields of rec on the record matching key.
	UpdateOne(ctx context.Context, key filter.Filter, rec record.Record) error

	// Remove deletes every record matching f.
	Remove(ctx context.Context, f filter.Filter) error

	// ToID converts a canonical identifier into the store's native form.
	ToID(v any) (any, error)

	// FromID converts a native identifier into canonical form.
	FromID(v any) any
}

// Backend resolves collections by name.
type Backend interface {
	Collection(name string) (Collection, error)
}

// Code classifies a store failure.
type Code int

const (
	// CodeUnknown is any failure the store could not classify.
	CodeUnknown Code = iota
	// CodeUnique is a uniqueness or primary key violation.
	CodeUnique
	// CodeReference is a foreign key violation.
	CodeReference
	// CodeCheck is a check or not-null constraint violation.
	CodeCheck
)

func (c Code) String() string {
	switch c {
	case CodeUnique:
		return "unique"
	case CodeReference:
		return "reference"
	case CodeCheck:
		return "check"
	default:
		return "unknown"
	}
}

// Error is a store failure with its classification.
type Error struct {
	Code       Code
	Op         string // "find", "insert", "update", "remove"
	Collection string
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s violation: %v", e.Op, e.Collection, e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the Code carried by err, or CodeUnknown.
func CodeOf(err error) Code {
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	return CodeUnknown
}

// ErrUnknownCollection is returned by Backend.Collection for names the
// store does not hold.
var ErrUnknownCollection = errors.New("unknown collection")

// ErrInvalidID is returned by ToID for values that cannot identify a record.
var ErrInvalidID = errors.New("invalid identifier")
