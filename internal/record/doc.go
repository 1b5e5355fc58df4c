// Package record defines the in-memory record shape shared by the schema,
// the persistence engine and the backing stores.
//
// A Record is a plain map from field name to value. Two states of "no
// value" are distinguished:
//   - absent: the key is not in the map
//   - explicit null: the key is present and maps to nil
//
// Validation normalizes absent optional fields to explicit null, so a record
// that went through the engine always carries every persisted field.
//
// Dump renders arbitrary values (including cyclic graphs) for error
// diagnostics. Output is deterministic: map keys are sorted by UTF-16 code
// units and strings are NFC normalized.
package record
