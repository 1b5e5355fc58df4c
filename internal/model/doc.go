// Package model is the persistence engine and its cardinality variants.
//
// An Engine binds a schema to a backend collection. It fills defaults,
// validates records, converts identifiers and orchestrates inserts,
// updates and deletes. Callers do not use it directly but through one of
// three variants:
//   - Many: any number of records (bulk load, store, update, delete)
//   - One: exactly one record; loads fail with NotFound or NotUnique
//   - None: asserts that nothing matches; fails with DoesExist
//
// # Lifecycle
//
// A variant is created empty or from records (defaults filled), may be
// loaded once, then stored, updated or deleted. Loading twice fails with
// ErrAlreadyLoaded.
//
// # Update guard
//
// Load records the key values of every record. Update fails with
// ErrKeyMismatch when the number of records or any key changed since. This
// detects local key edits only; there is no row versioning and writes by
// other processes between load and update are not detected.
//
// # Derived fields
//
// Derived values are computed by GenerateDerived and cached per record.
// Projections reading a derived field fail with ErrDerivedNotGenerated
// until then. Load, Store and the setters reset the cache.
//
// # Errors
//
// Store failures are translated to *Error kinds at the variant boundary:
//
//	operation     unique       reference      check
//	Many.Store    NotUnique    Constraint     Constraint
//	One.Store     DoesExist    Constraint     Constraint
//	Update        NotUnique    Constraint     Constraint
//	Delete(All)   unexpected   IsReference    unexpected
//
// Anything else is wrapped with ErrUnexpected and returned.
package model
