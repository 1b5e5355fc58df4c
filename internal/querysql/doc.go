// Package querysql compiles store-independent filters to SQLite SQL.
//
// The compiler only produces text and parameters; executing them is the
// job of internal/store.
package querysql
