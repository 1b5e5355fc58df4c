package store

import (
	"errors"

	mattn "github.com/mattn/go-sqlite3"
	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

	"github.com/roach88/recstore/internal/backend"
)

// classify wraps a driver error in a *backend.Error when it is a constraint
// violation. Other errors are returned unchanged.
func classify(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	code := constraintCode(err)
	if code == backend.CodeUnknown {
		return err
	}
	return &backend.Error{Code: code, Op: op, Collection: collection, Err: err}
}

// constraintCode maps extended result codes of either driver to a
// backend.Code.
func constraintCode(err error) backend.Code {
	var me mattn.Error
	if errors.As(err, &me) {
		switch me.ExtendedCode {
		case mattn.ErrConstraintUnique, mattn.ErrConstraintPrimaryKey:
			return backend.CodeUnique
		case mattn.ErrConstraintForeignKey:
			return backend.CodeReference
		case mattn.ErrConstraintCheck, mattn.ErrConstraintNotNull:
			return backend.CodeCheck
		}
		return backend.CodeUnknown
	}

	var pe *sqlite.Error
	if errors.As(err, &pe) {
		switch pe.Code() {
		case sqlitelib.SQLITE_CONSTRAINT_UNIQUE, sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return backend.CodeUnique
		case sqlitelib.SQLITE_CONSTRAINT_FOREIGNKEY:
			return backend.CodeReference
		case sqlitelib.SQLITE_CONSTRAINT_CHECK, sqlitelib.SQLITE_CONSTRAINT_NOTNULL:
			return backend.CodeCheck
		}
	}
	return backend.CodeUnknown
}
