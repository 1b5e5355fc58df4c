package model

import (
	"context"
	"fmt"

	"github.com/roach88/recstore/internal/backend"
	"github.com/roach88/recstore/internal/filter"
	"github.com/roach88/recstore/internal/record"
	"github.com/roach88/recstore/internal/schema"
)

// One is the singleton variant: at most one record, and loads must match
// exactly one.
type One struct {
	session
	content record.Record
}

// NewOne creates a singleton variant. A nil rec leaves it empty until
// loaded.
func NewOne(e *Engine, rec record.Record) *One {
	o := &One{session: session{engine: e}}
	if rec != nil {
		o.content = e.FillDefaults([]record.Record{rec})[0]
	}
	return o
}

// Load loads the single record matching f. Zero matches fail with
// NotFound, more than one with NotUnique.
func (o *One) Load(ctx context.Context, f filter.Filter) error {
	return o.loadOne(ctx, f, func() (backend.Cursor, error) {
		return o.engine.collection.Find(ctx, f, filter.Options{Limit: 2})
	})
}

// LoadByID loads a record by key. id is the value of the only key field,
// or a map naming every key field.
func (o *One) LoadByID(ctx context.Context, id any) error {
	byKey, err := o.keyMap(id)
	if err != nil {
		return err
	}
	key := make(record.Record, len(byKey))
	for _, k := range o.engine.schema.Keys() {
		n, err := o.engine.toNative(k, byKey[k.Name])
		if err != nil {
			return err
		}
		key[k.Name] = n
	}
	return o.loadOne(ctx, id, func() (backend.Cursor, error) {
		return o.engine.collection.FindByID(ctx, key)
	})
}

func (o *One) loadOne(ctx context.Context, details any, cur func() (backend.Cursor, error)) error {
	recs, err := o.load(ctx, cur)
	if err != nil {
		return loadCodes.translate(o.engine.Collection(), details, err)
	}
	switch len(recs) {
	case 0:
		return newError(KindNotFound, o.engine.Collection(), details, nil)
	case 1:
		o.content = recs[0]
		return nil
	default:
		return newError(KindNotUnique, o.engine.Collection(), details, nil)
	}
}

// Store inserts the record. A uniqueness violation fails with DoesExist.
func (o *One) Store(ctx context.Context) error {
	if o.content == nil {
		return fmt.Errorf("%w: %s", ErrNoContent, o.engine.Collection())
	}
	err := o.engine.store(ctx, []record.Record{o.content})
	o.derived = nil
	return singleStoreCodes.translate(o.engine.Collection(), o.content, err)
}

// Update writes the loaded record back.
func (o *One) Update(ctx context.Context) error {
	recs := o.records()
	if err := o.checkSnapshot(recs); err != nil {
		return err
	}
	err := o.engine.update(ctx, recs)
	return updateCodes.translate(o.engine.Collection(), o.content, err)
}

// Delete removes the record by key.
func (o *One) Delete(ctx context.Context) error {
	if o.content == nil {
		return fmt.Errorf("%w: %s", ErrNoContent, o.engine.Collection())
	}
	f, err := o.engine.KeyFilter(o.content)
	if err != nil {
		return err
	}
	return deleteCodes.translate(o.engine.Collection(), f, o.engine.remove(ctx, f))
}

// Content returns the record. It is the model's own record: changes to it
// are written by Store and Update.
func (o *One) Content() record.Record {
	return o.content
}

// Set assigns value to field.
func (o *One) Set(field string, value any) error {
	if err := o.checkField(field); err != nil {
		return err
	}
	if o.content == nil {
		return fmt.Errorf("%w: %s", ErrNoContent, o.engine.Collection())
	}
	o.content[field] = value
	o.derived = nil
	return nil
}

// GenerateDerived computes the derived fields of the record.
func (o *One) GenerateDerived(ctx context.Context) error {
	return o.generateDerived(ctx, o.records())
}

// Public projects the record through the schema.
func (o *One) Public() (any, error) {
	return o.PublicWith(o.engine.schema.Fields())
}

// PublicWith projects the record through an alternative field list.
func (o *One) PublicWith(fields []schema.Field) (any, error) {
	return o.project(o.records(), fields, true)
}

func (o *One) records() []record.Record {
	if o.content == nil {
		return nil
	}
	return []record.Record{o.content}
}
