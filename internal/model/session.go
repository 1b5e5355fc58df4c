package model

import (
	"context"
	"fmt"
	"reflect"

	"github.com/roach88/recstore/internal/backend"
	"github.com/roach88/recstore/internal/record"
	"github.com/roach88/recstore/internal/schema"
)

// session is the state every variant carries: whether it was loaded, the
// key snapshot taken at load, and the derived-value cache.
type session struct {
	engine *Engine

	loaded   bool
	snapshot [][]any

	// derived is nil until generated, and reset whenever the records
	// change identity (load, store, replace).
	derived []record.Record
}

// load fetches cur once per session, converts identifiers and records
// the key snapshot.
func (s *session) load(ctx context.Context, cur func() (backend.Cursor, error)) ([]record.Record, error) {
	if s.loaded {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyLoaded, s.engine.Collection())
	}

	c, err := cur()
	if err != nil {
		return nil, err
	}
	raw, err := c.All(ctx)
	if err != nil {
		return nil, err
	}

	recs := make([]record.Record, len(raw))
	s.snapshot = make([][]any, len(raw))
	for i, r := range raw {
		recs[i] = s.engine.ConvertIDs(r)
		s.snapshot[i] = s.engine.keyTuple(recs[i])
	}
	s.loaded = true
	s.derived = nil
	return recs, nil
}

// checkSnapshot guards an update: recs must be the loaded records with
// their keys unchanged. Other writers are not detected.
func (s *session) checkSnapshot(recs []record.Record) error {
	if !s.loaded {
		return fmt.Errorf("%w: %s", ErrNotLoaded, s.engine.Collection())
	}
	if len(recs) != len(s.snapshot) {
		return fmt.Errorf("%w: %s: loaded %d records, have %d",
			ErrKeyMismatch, s.engine.Collection(), len(s.snapshot), len(recs))
	}
	for i, r := range recs {
		if !record.SameTuple(s.snapshot[i], s.engine.keyTuple(r)) {
			return fmt.Errorf("%w: %s: record %d keys %s, loaded %s",
				ErrKeyMismatch, s.engine.Collection(), i,
				record.Dump(s.engine.keyTuple(r)), record.Dump(s.snapshot[i]))
		}
	}
	return nil
}

func (s *session) generateDerived(ctx context.Context, recs []record.Record) error {
	derived, err := s.engine.generateDerived(ctx, recs)
	if err != nil {
		return err
	}
	s.derived = derived
	return nil
}

// project projects recs, failing when derived values are read before
// generateDerived ran.
func (s *session) project(recs []record.Record, fields []schema.Field, single bool) (any, error) {
	if s.derived == nil && needsDerived(fields) {
		return nil, fmt.Errorf("%w: %s", ErrDerivedNotGenerated, s.engine.Collection())
	}
	return Project(recs, fields, s.derived, single)
}

// DerivedReady reports whether derived values are computed for the
// current records.
func (s *session) DerivedReady() bool {
	return s.derived != nil
}

func (s *session) checkField(field string) error {
	if _, ok := s.engine.schema.Field(field); !ok {
		return fmt.Errorf("%w %q in %s", ErrUnknownField, field, s.engine.Collection())
	}
	return nil
}

// toList turns a single id or a slice of ids into []any.
func toList(v any) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return []any{v}
}

// keyMap normalizes an id argument to key field -> value. A map must
// name exactly the key fields; anything else is only accepted as the value
// of a single key.
func (s *session) keyMap(ids any) (record.Record, error) {
	keys := s.engine.schema.KeyNames()
	missing := &MissingKeysError{Collection: s.engine.Collection(), Keys: keys, IDs: ids}

	var m map[string]any
	switch v := ids.(type) {
	case record.Record:
		m = v
	case map[string]any:
		m = v
	default:
		if len(keys) != 1 {
			return nil, missing
		}
		return record.Record{keys[0]: ids}, nil
	}

	if len(m) != len(keys) {
		return nil, missing
	}
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			return nil, missing
		}
	}
	return record.Record(m).Clone(), nil
}
