// Package schema holds the declarative description of a collection: an
// ordered list of fields with their type and persistence flags.
//
// Schemas are built in Go with New, or compiled from CUE files with
// CompileCollections and LoadDir. Derived fields can only be declared in Go
// since they carry a function.
package schema
