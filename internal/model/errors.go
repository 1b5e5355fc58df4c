package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/recstore/internal/backend"
	"github.com/roach88/recstore/internal/record"
)

// Error is a domain failure of a load, store, update or delete.
//
// Error matches the sentinels below by Kind, so callers can test with
// errors.Is(err, model.ErrNotFound) or with the IsXxx helpers.
type Error struct {
	// Kind identifies the error category.
	Kind Kind

	// Collection is the collection the operation ran against.
	Collection string

	// Details is the filter or batch that triggered the error, rendered
	// with record.Dump.
	Details string

	// Err is the underlying store error, if any.
	Err error
}

// Kind categorizes domain errors.
type Kind string

const (
	// KindNotUnique: a singleton load matched more than one record, or a
	// bulk store violated a uniqueness constraint.
	KindNotUnique Kind = "NOT_UNIQUE"

	// KindNotFound: a singleton load matched nothing.
	KindNotFound Kind = "NOT_FOUND"

	// KindDoesExist: an absence check matched a record, or a singleton
	// store violated a uniqueness constraint.
	KindDoesExist Kind = "DOES_EXIST"

	// KindIsReference: a delete was blocked by a referencing record.
	KindIsReference Kind = "IS_REFERENCE"

	// KindConstraintFailed: local validation failed, or the store rejected
	// the data for a reason other than uniqueness.
	KindConstraintFailed Kind = "CONSTRAINT_FAILED"
)

var kindMessages = map[Kind]string{
	KindNotUnique:        "object not unique",
	KindNotFound:         "object not found",
	KindDoesExist:        "object does exist",
	KindIsReference:      "object is still referenced",
	KindConstraintFailed: "object fails to meet constraints",
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Kind, kindMessages[e.Kind])
	if e.Collection != "" {
		fmt.Fprintf(&b, " (collection=%s)", e.Collection)
	}
	if e.Details != "" {
		b.WriteString(": " + e.Details)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNotUnique        = &Error{Kind: KindNotUnique}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrDoesExist        = &Error{Kind: KindDoesExist}
	ErrIsReference      = &Error{Kind: KindIsReference}
	ErrConstraintFailed = &Error{Kind: KindConstraintFailed}
)

// Programmer errors. These indicate misuse of a variant, not bad data.
var (
	ErrAlreadyLoaded       = errors.New("load on already loaded model")
	ErrNotLoaded           = errors.New("update on non-loaded model")
	ErrKeyMismatch         = errors.New("tried to update but keys did not match loaded keys")
	ErrDerivedNotGenerated = errors.New("projection called without generating derived fields first")
	ErrMultipleGroupKeys   = errors.New("multiple group keys specified")
	ErrMissingKeys         = errors.New("not all keys given")
	ErrNoContent           = errors.New("model has no content")
	ErrUnknownField        = errors.New("unknown field")
	ErrUnexpected          = errors.New("unexpected store error")
)

// MissingKeysError reports an id argument that does not name exactly
// the key fields of the schema.
type MissingKeysError struct {
	Collection string
	Keys       []string
	IDs        any
}

func (e *MissingKeysError) Error() string {
	return fmt.Sprintf("%v, collection: %q, keys: %s, ids: %s",
		ErrMissingKeys, e.Collection, record.Dump(e.Keys), record.Dump(e.IDs))
}

func (e *MissingKeysError) Unwrap() error {
	return ErrMissingKeys
}

func newError(kind Kind, collection string, details any, err error) *Error {
	e := &Error{Kind: kind, Collection: collection, Err: err}
	if details != nil {
		e.Details = record.Dump(details)
	}
	return e
}

// IsNotUnique reports whether err is a NotUnique error.
func IsNotUnique(err error) bool { return errors.Is(err, ErrNotUnique) }

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsDoesExist reports whether err is a DoesExist error.
func IsDoesExist(err error) bool { return errors.Is(err, ErrDoesExist) }

// IsReference reports whether err is an IsReference error.
func IsReference(err error) bool { return errors.Is(err, ErrIsReference) }

// IsConstraintFailed reports whether err is a ConstraintFailed error.
func IsConstraintFailed(err error) bool { return errors.Is(err, ErrConstraintFailed) }

// codeMap translates store codes for one operation. Codes missing from the
// map are unexpected.
type codeMap map[backend.Code]Kind

var (
	bulkStoreCodes = codeMap{
		backend.CodeUnique:    KindNotUnique,
		backend.CodeReference: KindConstraintFailed,
		backend.CodeCheck:     KindConstraintFailed,
	}
	singleStoreCodes = codeMap{
		backend.CodeUnique:    KindDoesExist,
		backend.CodeReference: KindConstraintFailed,
		backend.CodeCheck:     KindConstraintFailed,
	}
	updateCodes = bulkStoreCodes
	loadCodes   = codeMap{}
	deleteCodes = codeMap{
		backend.CodeReference: KindIsReference,
	}
)

// translate maps a store error to the domain taxonomy. Errors that are
// already domain or programmer errors pass through; anything else is
// wrapped with ErrUnexpected.
func (m codeMap) translate(collection string, details any, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	if kind, ok := m[backend.CodeOf(err)]; ok {
		return newError(kind, collection, details, err)
	}
	if isProgrammerError(err) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrUnexpected, collection, err)
}

func isProgrammerError(err error) bool {
	for _, target := range []error{
		ErrAlreadyLoaded, ErrNotLoaded, ErrKeyMismatch, ErrMissingKeys, ErrNoContent, ErrUnknownField,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
