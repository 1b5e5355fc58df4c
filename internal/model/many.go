package model

import (
	"context"

	"github.com/roach88/recstore/internal/backend"
	"github.com/roach88/recstore/internal/filter"
	"github.com/roach88/recstore/internal/record"
	"github.com/roach88/recstore/internal/schema"
)

// Many is the bulk variant: an ordered list of records of one collection.
type Many struct {
	session
	contents []record.Record
}

// NewMany creates a bulk variant holding recs with defaults filled in.
func NewMany(e *Engine, recs ...record.Record) *Many {
	return &Many{
		session:  session{engine: e},
		contents: e.FillDefaults(recs),
	}
}

// Load replaces the contents with the records matching f.
func (m *Many) Load(ctx context.Context, f filter.Filter, opts filter.Options) error {
	recs, err := m.load(ctx, func() (backend.Cursor, error) {
		return m.engine.collection.Find(ctx, f, opts)
	})
	if err != nil {
		return loadCodes.translate(m.engine.Collection(), f, err)
	}
	m.contents = recs
	return nil
}

// LoadByIDs loads the records whose keys take any of the given values.
//
// ids is either a map naming exactly the key fields, each with a single
// value or a slice of values, or, for single-key schemas, a value or slice
// of values for that key.
func (m *Many) LoadByIDs(ctx context.Context, ids any, opts filter.Options) error {
	byKey, err := m.keyMap(ids)
	if err != nil {
		return err
	}

	keys := make(record.Record, len(byKey))
	for _, k := range m.engine.schema.Keys() {
		values := toList(byKey[k.Name])
		native := make([]any, len(values))
		for i, v := range values {
			n, err := m.engine.toNative(k, v)
			if err != nil {
				return err
			}
			native[i] = n
		}
		keys[k.Name] = native
	}

	recs, err := m.load(ctx, func() (backend.Cursor, error) {
		return m.engine.collection.FindByIDs(ctx, keys, opts)
	})
	if err != nil {
		return loadCodes.translate(m.engine.Collection(), ids, err)
	}
	m.contents = recs
	return nil
}

// Store inserts the contents. Generated keys are merged into the records.
func (m *Many) Store(ctx context.Context) error {
	err := m.engine.store(ctx, m.contents)
	m.derived = nil
	return bulkStoreCodes.translate(m.engine.Collection(), m.contents, err)
}

// Update writes the loaded contents back. Key fields must not have changed
// since Load.
func (m *Many) Update(ctx context.Context) error {
	if err := m.checkSnapshot(m.contents); err != nil {
		return err
	}
	err := m.engine.update(ctx, m.contents)
	return updateCodes.translate(m.engine.Collection(), m.contents, err)
}

// DeleteAll removes every record in the contents with a single request.
func (m *Many) DeleteAll(ctx context.Context) error {
	if len(m.contents) == 0 {
		return nil
	}
	f, err := m.engine.tuplesFilter(m.contents)
	if err != nil {
		return err
	}
	return deleteCodes.translate(m.engine.Collection(), f, m.engine.remove(ctx, f))
}

// Contents returns the records. They are the model's own records:
// changes to them are written by Store and Update.
func (m *Many) Contents() []record.Record {
	return m.contents
}

// SetContents replaces the records.
func (m *Many) SetContents(recs []record.Record) {
	m.contents = recs
	m.derived = nil
}

// Len is the number of records.
func (m *Many) Len() int {
	return len(m.contents)
}

// Set assigns value to field on every record.
func (m *Many) Set(field string, value any) error {
	if err := m.checkField(field); err != nil {
		return err
	}
	for _, r := range m.contents {
		r[field] = value
	}
	m.derived = nil
	return nil
}

// SetF assigns fn(record) to field on every record.
func (m *Many) SetF(field string, fn func(record.Record) any) error {
	if err := m.checkField(field); err != nil {
		return err
	}
	for _, r := range m.contents {
		r[field] = fn(r)
	}
	m.derived = nil
	return nil
}

// GenerateDerived computes every derived field of every record.
func (m *Many) GenerateDerived(ctx context.Context) error {
	return m.generateDerived(ctx, m.contents)
}

// Public projects the contents through the schema. See Project.
func (m *Many) Public() (any, error) {
	return m.PublicWith(m.engine.schema.Fields())
}

// PublicWith projects the contents through an alternative field list.
func (m *Many) PublicWith(fields []schema.Field) (any, error) {
	return m.project(m.contents, fields, false)
}
