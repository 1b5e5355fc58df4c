// Package filter describes record selections independently of any store.
//
// A Filter maps field names to either a literal (equality) or a Predicate.
// All entries are conjoined. The reserved AnyOf key holds a list of filters
// of which at least one must match. The reserved KeysIn key holds a TupleIn,
// which is how batches of composite keys are selected.
//
// Predicate is sealed: backends switch exhaustively over the types in this
// package.
package filter
