package schema

import (
	"time"

	"github.com/google/uuid"

	"github.com/roach88/recstore/internal/record"
)

// NewUUID is a DefaultFunc producing time-ordered UUIDv7 strings.
func NewUUID(record.Record) any {
	return uuid.Must(uuid.NewV7()).String()
}

// Now is a DefaultFunc producing the current UTC time.
func Now(record.Record) any {
	return time.Now().UTC()
}

// generators maps the names usable in schema files to DefaultFuncs.
var generators = map[string]DefaultFunc{
	"uuid": NewUUID,
	"now":  Now,
}

// Generator looks up a named DefaultFunc.
func Generator(name string) (DefaultFunc, bool) {
	fn, ok := generators[name]
	return fn, ok
}
