// Package typecheck validates field values against schema type names.
//
// The persistence engine never inspects values itself; it asks a Checker.
// Registry is the default Checker and can be extended with custom types.
package typecheck

import (
	"net/mail"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/recstore/internal/record"
	"github.com/roach88/recstore/internal/schema"
)

// Checker decides whether a value conforms to a type.
type Checker interface {
	Check(typ schema.TypeName, value any) bool
}

// CheckFunc validates a single value.
type CheckFunc func(value any) bool

// Registry is a Checker backed by a table of CheckFuncs.
// Unknown types never match.
type Registry struct {
	mu     sync.RWMutex
	checks map[schema.TypeName]CheckFunc
}

// NewRegistry returns a Registry holding the built-in types.
func NewRegistry() *Registry {
	r := &Registry{checks: make(map[schema.TypeName]CheckFunc)}
	for typ, fn := range builtins {
		r.checks[typ] = fn
	}
	return r
}

// Default is the registry used when no Checker is configured.
var Default = NewRegistry()

// Register adds or replaces a type.
func (r *Registry) Register(typ schema.TypeName, fn CheckFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks[typ] = fn
}

// Check implements Checker.
func (r *Registry) Check(typ schema.TypeName, value any) bool {
	r.mu.RLock()
	fn, ok := r.checks[typ]
	r.mu.RUnlock()
	return ok && fn(value)
}

var builtins = map[schema.TypeName]CheckFunc{
	schema.TypeID:          isID,
	schema.TypeIDArray:     listOf(isID),
	schema.TypeInt:         isInt,
	schema.TypeFloat:       isNumber,
	schema.TypeString:      isString,
	schema.TypeBool:        isBool,
	schema.TypeEmail:       isEmail,
	schema.TypeUUID:        isUUID,
	schema.TypeTime:        isTime,
	schema.TypeIntArray:    listOf(isInt),
	schema.TypeStringArray: listOf(isString),
	schema.TypeObject:      isObject,
	schema.TypeAny:         func(any) bool { return true },
}

func isInt(v any) bool {
	_, ok := record.AsInt64(v)
	return ok
}

func isNumber(v any) bool {
	_, ok := record.AsFloat(v)
	return ok
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func isBool(v any) bool {
	_, ok := v.(bool)
	return ok
}

// isID accepts positive integers (row ids) and non-empty strings
// (externally assigned ids).
func isID(v any) bool {
	if n, ok := record.AsInt64(v); ok {
		return n > 0
	}
	s, ok := v.(string)
	return ok && s != ""
}

func isEmail(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func isUUID(v any) bool {
	switch id := v.(type) {
	case uuid.UUID:
		return true
	case string:
		_, err := uuid.Parse(id)
		return err == nil
	}
	return false
}

// timeLayouts are the textual forms a stored time may come back in.
// The second is how go-sqlite3 renders a time.Time bound directly.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
}

func isTime(v any) bool {
	switch t := v.(type) {
	case time.Time:
		return !t.IsZero()
	case string:
		for _, layout := range timeLayouts {
			if _, err := time.Parse(layout, t); err == nil {
				return true
			}
		}
	}
	return false
}

func isObject(v any) bool {
	switch v.(type) {
	case map[string]any, record.Record:
		return true
	}
	return false
}

func listOf(elem CheckFunc) CheckFunc {
	return func(v any) bool {
		switch list := v.(type) {
		case []any:
			for _, e := range list {
				if !elem(e) {
					return false
				}
			}
			return true
		case []string:
			for _, e := range list {
				if !elem(e) {
					return false
				}
			}
			return true
		case []int64:
			for _, e := range list {
				if !elem(e) {
					return false
				}
			}
			return true
		case []int:
			for _, e := range list {
				if !elem(e) {
					return false
				}
			}
			return true
		}
		return false
	}
}
