package model

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/recstore/internal/backend"
	"github.com/roach88/recstore/internal/filter"
	"github.com/roach88/recstore/internal/record"
	"github.com/roach88/recstore/internal/schema"
	"github.com/roach88/recstore/internal/typecheck"
)

// Engine validates and persists the records of one collection.
// It is stateless apart from its configuration and safe for concurrent
// use; per-instance state lives in the variants (Many, One, None).
type Engine struct {
	backend    backend.Backend
	collection backend.Collection
	schema     *schema.Schema
	checker    typecheck.Checker
}

var _ schema.Host = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithChecker replaces the type checker (typecheck.Default by default).
func WithChecker(c typecheck.Checker) Option {
	return func(e *Engine) { e.checker = c }
}

// NewEngine binds a schema to a collection of b.
func NewEngine(b backend.Backend, collection string, s *schema.Schema, opts ...Option) (*Engine, error) {
	if s == nil {
		return nil, fmt.Errorf("engine for %s: nil schema", collection)
	}
	c, err := b.Collection(collection)
	if err != nil {
		return nil, fmt.Errorf("engine for %s: %w", collection, err)
	}

	e := &Engine{
		backend:    b,
		collection: c,
		schema:     s,
		checker:    typecheck.Default,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Collection returns the collection name.
func (e *Engine) Collection() string {
	return e.collection.Name()
}

// Backend returns the store the engine writes to.
func (e *Engine) Backend() backend.Backend {
	return e.backend
}

// Schema returns the engine's schema.
func (e *Engine) Schema() *schema.Schema {
	return e.schema
}

// FillDefaults returns copies of recs with defaults assigned to every field
// that is absent or falsy.
func (e *Engine) FillDefaults(recs []record.Record) []record.Record {
	out := record.CloneAll(recs)
	for _, f := range e.schema.Fields() {
		if !f.HasDefault() {
			continue
		}
		for _, r := range out {
			if !record.Falsy(r[f.Name]) {
				continue
			}
			if f.DefaultFunc != nil {
				r[f.Name] = f.DefaultFunc(r)
			} else {
				r[f.Name] = f.Default
			}
		}
	}
	return out
}

// ConvertIDs returns a copy of rec with identifier fields converted from
// the store's native representation to canonical form.
func (e *Engine) ConvertIDs(rec record.Record) record.Record {
	out := rec.Clone()
	for _, f := range e.schema.Fields() {
		v := out[f.Name]
		if v == nil {
			continue
		}
		switch f.Type {
		case schema.TypeID:
			out[f.Name] = e.collection.FromID(v)
		case schema.TypeIDArray:
			if list, ok := v.([]any); ok {
				ids := make([]any, len(list))
				for i, id := range list {
					ids[i] = e.collection.FromID(id)
				}
				out[f.Name] = ids
			}
		}
	}
	return out
}

// Validate checks recs against the schema and normalizes them in place.
//
// Derived and transient fields are removed. Auto fields are not checked.
// Absent optional fields are set to nil. On failure the whole batch is
// rejected with a ConstraintFailed error and recs are left untouched.
func (e *Engine) Validate(recs []record.Record) error {
	checked := record.CloneAll(recs)
	for _, r := range checked {
		for _, f := range e.schema.Fields() {
			if f.Auto {
				continue
			}
			if f.Derived != nil || f.Transient {
				delete(r, f.Name)
				continue
			}

			v, ok := r[f.Name]
			present := ok && v != nil
			if (!present && !f.Optional) || (present && !e.checker.Check(f.Type, v)) {
				slog.Warn("field failed validation",
					"collection", e.Collection(),
					"field", f.Name,
					"type", f.Type,
					"value", record.Dump(v))
				return &Error{
					Kind:       KindConstraintFailed,
					Collection: e.Collection(),
					Details:    fmt.Sprintf("type-constraints not met on field %q: %s", f.Name, record.Dump(recs)),
				}
			}
			if !present {
				r[f.Name] = nil
			}
		}
	}

	for i, r := range checked {
		clear(recs[i])
		for k, v := range r {
			recs[i][k] = v
		}
	}
	return nil
}

// keyTuple returns the key values of rec in key order.
func (e *Engine) keyTuple(rec record.Record) []any {
	keys := e.schema.KeyNames()
	tuple := make([]any, len(keys))
	for i, k := range keys {
		tuple[i] = rec[k]
	}
	return tuple
}

// KeyFilter builds the filter selecting rec by its key fields.
func (e *Engine) KeyFilter(rec record.Record) (filter.Filter, error) {
	f := make(filter.Filter)
	for _, k := range e.schema.Keys() {
		v, err := e.toNative(k, rec[k.Name])
		if err != nil {
			return nil, err
		}
		f[k.Name] = v
	}
	return f, nil
}

// tuplesFilter selects every record of recs by key.
func (e *Engine) tuplesFilter(recs []record.Record) (filter.Filter, error) {
	tuples := make([][]any, len(recs))
	for i, r := range recs {
		f, err := e.KeyFilter(r)
		if err != nil {
			return nil, err
		}
		tuple := make([]any, 0, len(f))
		for _, k := range e.schema.KeyNames() {
			tuple = append(tuple, f[k])
		}
		tuples[i] = tuple
	}
	return filter.Tuples(e.schema.KeyNames(), tuples), nil
}

// toNative converts a canonical value of f for the store.
func (e *Engine) toNative(f schema.Field, v any) (any, error) {
	if v == nil || !f.IsIdentifier() {
		return v, nil
	}
	if f.Type == schema.TypeIDArray {
		list, ok := v.([]any)
		if !ok {
			return v, nil
		}
		out := make([]any, len(list))
		for i, id := range list {
			n, err := e.collection.ToID(id)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", e.Collection(), f.Name, err)
			}
			out[i] = n
		}
		return out, nil
	}
	n, err := e.collection.ToID(v)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", e.Collection(), f.Name, err)
	}
	return n, nil
}

// payload is the part of rec written to the store: writable schema fields
// only, identifiers in native form.
func (e *Engine) payload(rec record.Record) (record.Record, error) {
	out := make(record.Record)
	for _, f := range e.schema.Fields() {
		if !f.Writable() {
			continue
		}
		v, ok := rec[f.Name]
		if !ok {
			continue
		}
		n, err := e.toNative(f, v)
		if err != nil {
			return nil, err
		}
		out[f.Name] = n
	}
	return out, nil
}

// store validates and inserts recs, merging the generated auto values back
// into them. Store errors are returned untranslated.
func (e *Engine) store(ctx context.Context, recs []record.Record) error {
	if len(recs) == 0 {
		return nil
	}
	if err := e.Validate(recs); err != nil {
		return err
	}

	payloads := make([]record.Record, len(recs))
	for i, r := range recs {
		p, err := e.payload(r)
		if err != nil {
			return err
		}
		payloads[i] = p
	}

	auto := e.schema.AutoNames()
	generated, err := e.collection.Insert(ctx, payloads, auto)
	if err != nil {
		return err
	}
	if len(generated) != len(recs) {
		return fmt.Errorf("%w: %s: insert returned %d results for %d records",
			ErrUnexpected, e.Collection(), len(generated), len(recs))
	}

	for i, r := range recs {
		for _, name := range auto {
			r[name] = generated[i][name]
		}
		converted := e.ConvertIDs(r)
		for _, name := range auto {
			r[name] = converted[name]
		}
	}

	slog.Debug("records stored", "collection", e.Collection(), "count", len(recs))
	return nil
}

// update writes recs back by key, one request per record, concurrently.
// The caller has already checked the load snapshot. The first error in
// record order is returned after all requests finish.
func (e *Engine) update(ctx context.Context, recs []record.Record) error {
	if err := e.Validate(recs); err != nil {
		return err
	}

	errs := make([]error, len(recs))
	var wg sync.WaitGroup
	for i, r := range recs {
		key, err := e.KeyFilter(r)
		if err != nil {
			return err
		}
		p, err := e.payload(r)
		if err != nil {
			return err
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = e.collection.UpdateOne(ctx, key, p)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	slog.Debug("records updated", "collection", e.Collection(), "count", len(recs))
	return nil
}

// remove deletes the records matching f.
func (e *Engine) remove(ctx context.Context, f filter.Filter) error {
	if err := e.collection.Remove(ctx, f); err != nil {
		return err
	}
	slog.Debug("records removed", "collection", e.Collection(), "filter", record.Dump(f))
	return nil
}

// generateDerived evaluates every derived field for every record,
// concurrently. The result holds one map per record, by position.
func (e *Engine) generateDerived(ctx context.Context, recs []record.Record) ([]record.Record, error) {
	fields := e.schema.Derived()
	out := make([]record.Record, len(recs))
	for i := range out {
		out[i] = make(record.Record, len(fields))
	}
	if len(fields) == 0 {
		return out, nil
	}

	type job struct {
		rec   int
		field schema.Field
	}
	errs := make([]error, len(recs)*len(fields))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i, r := range recs {
		for j, f := range fields {
			wg.Add(1)
			go func(jb job, r record.Record, slot int) {
				defer wg.Done()
				v, err := jb.field.Derived(ctx, r, e)
				if err != nil {
					errs[slot] = fmt.Errorf("derive %s.%s: %w", e.Collection(), jb.field.Name, err)
					return
				}
				mu.Lock()
				out[jb.rec][jb.field.Name] = v
				mu.Unlock()
			}(job{rec: i, field: f}, r.Clone(), i*len(fields)+j)
		}
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
