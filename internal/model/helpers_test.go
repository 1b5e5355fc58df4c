package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/recstore/internal/backend"
	"github.com/roach88/recstore/internal/filter"
	"github.com/roach88/recstore/internal/record"
	"github.com/roach88/recstore/internal/schema"
	"github.com/roach88/recstore/internal/store"
	"github.com/roach88/recstore/internal/testutil"
)

// fixture bundles a fixture store and engines for its tables.
type fixture struct {
	store    *store.Store
	users    *Engine
	users2   *Engine
	users3   *Engine
	comments *Engine
	derived  *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := testutil.OpenFixtureStore(t)
	return &fixture{
		store:    s,
		users:    newEngine(t, s, "users", testutil.UsersSchema()),
		users2:   newEngine(t, s, "users2", testutil.Users2Schema()),
		users3:   newEngine(t, s, "users3", testutil.Users3Schema()),
		comments: newEngine(t, s, "comment", testutil.CommentSchema()),
		derived:  newEngine(t, s, "derived", testutil.DerivedSchema()),
	}
}

func newEngine(t *testing.T, b backend.Backend, name string, s *schema.Schema, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(b, name, s, opts...)
	require.NoError(t, err)
	return e
}

// rows reads a table directly, bypassing the variants.
func rows(t *testing.T, e *Engine) []record.Record {
	t.Helper()
	ctx := context.Background()
	cur, err := e.collection.Find(ctx, nil, filter.Options{})
	require.NoError(t, err)
	recs, err := cur.All(ctx)
	require.NoError(t, err)
	out := make([]record.Record, len(recs))
	for i, r := range recs {
		out[i] = e.ConvertIDs(r)
	}
	return out
}

// seed stores recs through a fresh Many.
func seed(t *testing.T, e *Engine, recs ...record.Record) []record.Record {
	t.Helper()
	m := NewMany(e, recs...)
	require.NoError(t, m.Store(context.Background()))
	return m.Contents()
}

// fakeBackend serves a single scripted collection.
type fakeBackend struct {
	coll *fakeCollection
}

func (b *fakeBackend) Collection(name string) (backend.Collection, error) {
	if name != b.coll.name {
		return nil, backend.ErrUnknownCollection
	}
	return b.coll, nil
}

// fakeCollection returns canned records and errors.
type fakeCollection struct {
	name      string
	found     []record.Record
	findErr   error
	insertErr error
	updateErr map[int64]error
	removeErr error

	inserted [][]record.Record
	removed  []filter.Filter
}

type fakeCursor struct {
	recs []record.Record
	err  error
}

func (c fakeCursor) All(context.Context) ([]record.Record, error) {
	return c.recs, c.err
}

func (c *fakeCollection) Name() string { return c.name }

func (c *fakeCollection) Find(context.Context, filter.Filter, filter.Options) (backend.Cursor, error) {
	return fakeCursor{recs: record.CloneAll(c.found), err: c.findErr}, nil
}

func (c *fakeCollection) FindByID(ctx context.Context, _ record.Record) (backend.Cursor, error) {
	return c.Find(ctx, nil, filter.Options{})
}

func (c *fakeCollection) FindByIDs(ctx context.Context, _ record.Record, opts filter.Options) (backend.Cursor, error) {
	return c.Find(ctx, nil, opts)
}

func (c *fakeCollection) Insert(_ context.Context, recs []record.Record, returning []string) ([]record.Record, error) {
	if c.insertErr != nil {
		return nil, c.insertErr
	}
	c.inserted = append(c.inserted, recs)
	out := make([]record.Record, len(recs))
	for i := range recs {
		out[i] = record.Record{}
		for _, name := range returning {
			out[i][name] = int64(100 + i)
		}
	}
	return out, nil
}

func (c *fakeCollection) UpdateOne(_ context.Context, key filter.Filter, rec record.Record) error {
	id, _ := record.AsInt64(key["id"])
	if err, ok := c.updateErr[id]; ok {
		return err
	}
	return nil
}

func (c *fakeCollection) Remove(_ context.Context, f filter.Filter) error {
	c.removed = append(c.removed, f)
	return c.removeErr
}

func (c *fakeCollection) ToID(v any) (any, error) {
	if n, ok := record.AsInt64(v); ok {
		return n, nil
	}
	return nil, backend.ErrInvalidID
}

func (c *fakeCollection) FromID(v any) any {
	if n, ok := record.AsInt64(v); ok {
		return n
	}
	return v
}

func newFakeEngine(t *testing.T, coll *fakeCollection) *Engine {
	t.Helper()
	return newEngine(t, &fakeBackend{coll: coll}, coll.name, testutil.UsersSchema())
}
