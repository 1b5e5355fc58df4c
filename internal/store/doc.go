// Package store is the SQLite implementation of backend.Backend.
//
// Each table is a collection. Records are read with SELECT * so every
// column becomes a record field. Key generation is left to SQLite
// (INTEGER PRIMARY KEY), read back with RETURNING. EnsureCollection creates
// a missing table from a schema (see TableFor).
//
// Column decoding follows the declared column type:
//   - BOOL / BOOLEAN: integer to bool
//   - JSON: text decoded into lists and objects
//
// Constraint violations are reported as *backend.Error:
//   - UNIQUE, PRIMARY KEY: backend.CodeUnique
//   - FOREIGN KEY: backend.CodeReference
//   - CHECK, NOT NULL: backend.CodeCheck
//
// # Database Configuration
//
//   - journal_mode: WAL unless configured otherwise
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout: 5 seconds unless configured otherwise
//   - foreign_keys=ON: Enforce referential integrity
//
// Two drivers are supported: github.com/mattn/go-sqlite3 (cgo, default) and
// modernc.org/sqlite (pure Go).
package store
