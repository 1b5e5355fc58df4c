package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recstore/internal/backend"
	"github.com/roach88/recstore/internal/filter"
	"github.com/roach88/recstore/internal/record"
	"github.com/roach88/recstore/internal/schema"
	"github.com/roach88/recstore/internal/testutil"
	"github.com/roach88/recstore/internal/typecheck"
)

func TestNewEngine_Errors(t *testing.T) {
	s := testutil.OpenFixtureStore(t)

	_, err := NewEngine(s, "nope", testutil.UsersSchema())
	assert.ErrorIs(t, err, backend.ErrUnknownCollection)

	_, err = NewEngine(s, "users", nil)
	assert.Error(t, err)
}

func TestEngine_Host(t *testing.T) {
	s := testutil.OpenFixtureStore(t)
	e := newEngine(t, s, "users", testutil.UsersSchema())

	assert.Equal(t, "users", e.Collection())
	assert.Same(t, s, e.Backend())
	assert.Equal(t, []string{"id"}, e.Schema().KeyNames())
}

func TestFillDefaults(t *testing.T) {
	seq := testutil.NewSequence()
	s := schema.MustNew(
		schema.Field{Name: "id", Type: schema.TypeUUID, Key: true, DefaultFunc: seq.UUID},
		schema.Field{Name: "role", Type: schema.TypeString, Default: "member"},
		schema.Field{Name: "n", Type: schema.TypeInt, Default: 7},
		schema.Field{Name: "label", Type: schema.TypeString, DefaultFunc: func(r record.Record) any {
			return "role:" + r["role"].(string)
		}},
	)
	e := &Engine{schema: s, checker: typecheck.Default}

	in := []record.Record{
		{},
		{"id": "given", "role": "admin", "n": 0, "label": ""},
	}
	out := e.FillDefaults(in)

	assert.Equal(t, record.Record{
		"id":    "00000000-0000-7000-8000-000000000001",
		"role":  "member",
		"n":     7,
		"label": "role:member",
	}, out[0])
	assert.Equal(t, record.Record{
		"id":    "given",
		"role":  "admin",
		"n":     7, // falsy values are replaced
		"label": "role:admin",
	}, out[1])

	assert.Empty(t, in[0], "input is not modified")
}

func TestConvertIDs(t *testing.T) {
	coll := &fakeCollection{name: "users"}
	s := schema.MustNew(
		schema.Field{Name: "id", Type: schema.TypeID, Key: true},
		schema.Field{Name: "refs", Type: schema.TypeIDArray},
		schema.Field{Name: "n", Type: schema.TypeInt},
	)
	e := newEngine(t, &fakeBackend{coll: coll}, "users", s)

	in := record.Record{"id": 3.0, "refs": []any{1.0, int32(2)}, "n": 4.0, "extra": "x"}
	out := e.ConvertIDs(in)

	assert.Equal(t, record.Record{"id": int64(3), "refs": []any{int64(1), int64(2)}, "n": 4.0, "extra": "x"}, out)
	assert.Equal(t, 3.0, in["id"], "input is not modified")

	assert.Equal(t, record.Record{"id": nil}, e.ConvertIDs(record.Record{"id": nil}))
}

func TestValidate(t *testing.T) {
	s := schema.MustNew(
		schema.Field{Name: "id", Type: schema.TypeID, Key: true, Auto: true},
		schema.Field{Name: "test", Type: schema.TypeInt},
		schema.Field{Name: "a", Type: schema.TypeInt, Optional: true},
		schema.Field{Name: "tmp", Type: schema.TypeString, Transient: true},
		schema.Field{Name: "d", Derived: func(context.Context, record.Record, schema.Host) (any, error) { return 1, nil }},
	)
	e := &Engine{schema: s, checker: typecheck.Default, collection: &fakeCollection{name: "users"}}

	t.Run("normalizes and strips", func(t *testing.T) {
		recs := []record.Record{{"test": 1, "tmp": "x", "d": 5}}
		require.NoError(t, e.Validate(recs))
		assert.Equal(t, []record.Record{{"test": 1, "a": nil}}, recs)
	})

	t.Run("auto fields are not required", func(t *testing.T) {
		require.NoError(t, e.Validate([]record.Record{{"test": 1, "a": 2}}))
	})

	tests := []struct {
		name string
		recs []record.Record
	}{
		{"missing required", []record.Record{{"a": 1}}},
		{"null required", []record.Record{{"test": nil}}},
		{"wrong type", []record.Record{{"test": "1"}}},
		{"wrong optional type", []record.Record{{"test": 1, "a": "x"}}},
		{"second record fails", []record.Record{{"test": 1}, {"test": 1.5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.Validate(tt.recs)
			require.Error(t, err)
			assert.True(t, IsConstraintFailed(err))

			var de *Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, "users", de.Collection)
			assert.Contains(t, de.Details, "type-constraints not met")
		})
	}

	t.Run("failed batch is left untouched", func(t *testing.T) {
		recs := []record.Record{
			{"test": 1, "tmp": "x", "d": 5},
			{"test": "bad"},
		}
		require.Error(t, e.Validate(recs))
		assert.Equal(t, []record.Record{
			{"test": 1, "tmp": "x", "d": 5},
			{"test": "bad"},
		}, recs)
	})

	t.Run("normalizes every record of a passing batch", func(t *testing.T) {
		first := record.Record{"test": 1, "tmp": "x"}
		recs := []record.Record{first, {"test": 2, "a": 3, "d": 5}}
		require.NoError(t, e.Validate(recs))
		assert.Equal(t, record.Record{"test": 1, "a": nil}, first, "records are updated in place")
		assert.Equal(t, record.Record{"test": 2, "a": 3}, recs[1])
	})
}

func TestValidate_CyclicBatch(t *testing.T) {
	e := &Engine{schema: testutil.UsersSchema(), checker: typecheck.Default, collection: &fakeCollection{name: "users"}}

	bad := record.Record{"test": "x"}
	bad["self"] = bad

	err := e.Validate([]record.Record{bad})
	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Details, `"self":"..."`)
}

func TestValidate_CustomChecker(t *testing.T) {
	reg := typecheck.NewRegistry()
	reg.Register(schema.TypeInt, func(v any) bool {
		n, ok := record.AsInt64(v)
		return ok && n >= 0
	})
	coll := &fakeCollection{name: "users"}
	e := newEngine(t, &fakeBackend{coll: coll}, "users", testutil.UsersSchema(), WithChecker(reg))

	assert.NoError(t, e.Validate([]record.Record{{"test": 1}}))
	assert.Error(t, e.Validate([]record.Record{{"test": -1}}))
}

func TestKeyFilter(t *testing.T) {
	f := newFixture(t)

	kf, err := f.users2.KeyFilter(record.Record{"id": 1, "test": 2, "a": 3})
	require.NoError(t, err)
	assert.Equal(t, filter.Filter{"id": int64(1), "test": 2}, kf)

	_, err = f.users.KeyFilter(record.Record{"id": nil})
	assert.NoError(t, err, "nil keys are passed through")

	_, err = f.users.KeyFilter(record.Record{"id": 1.5})
	assert.ErrorIs(t, err, backend.ErrInvalidID)
}

func TestGenerateDerived_Error(t *testing.T) {
	boom := errors.New("boom")
	s := schema.MustNew(
		schema.Field{Name: "id", Type: schema.TypeID, Key: true, Auto: true},
		schema.Field{Name: "test", Type: schema.TypeInt},
		schema.Field{Name: "d", Public: true, Derived: func(context.Context, record.Record, schema.Host) (any, error) {
			return nil, boom
		}},
	)
	coll := &fakeCollection{name: "users", found: []record.Record{{"id": 1, "test": 1}}}
	e := newEngine(t, &fakeBackend{coll: coll}, "users", s)

	m := NewMany(e)
	require.NoError(t, m.Load(context.Background(), nil, filter.Options{}))

	err := m.GenerateDerived(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, m.DerivedReady())
}

func TestStore_MergesGeneratedKeysPositionally(t *testing.T) {
	coll := &fakeCollection{name: "users"}
	e := newFakeEngine(t, coll)

	m := NewMany(e, record.Record{"test": 1}, record.Record{"test": 2, "id": 55})
	require.NoError(t, m.Store(context.Background()))

	assert.Equal(t, int64(100), m.Contents()[0]["id"])
	assert.Equal(t, int64(101), m.Contents()[1]["id"])

	require.Len(t, coll.inserted, 1)
	for _, p := range coll.inserted[0] {
		assert.NotContains(t, p, "id", "auto fields are never sent")
	}
}

func TestStore_EmptyBatchIsNoop(t *testing.T) {
	coll := &fakeCollection{name: "users"}
	require.NoError(t, NewMany(newFakeEngine(t, coll)).Store(context.Background()))
	assert.Empty(t, coll.inserted)
}

func TestStore_UnexpectedError(t *testing.T) {
	boom := errors.New("disk I/O error")
	coll := &fakeCollection{name: "users", insertErr: boom}

	err := NewMany(newFakeEngine(t, coll), record.Record{"test": 1}).Store(context.Background())
	assert.ErrorIs(t, err, ErrUnexpected)
	assert.ErrorIs(t, err, boom)
}

func TestUpdate_ReturnsFirstErrorInRecordOrder(t *testing.T) {
	e1 := &backend.Error{Code: backend.CodeUnique, Err: errors.New("first")}
	e2 := errors.New("second")
	coll := &fakeCollection{
		name:      "users",
		found:     []record.Record{{"id": 1, "test": 1}, {"id": 2, "test": 2}, {"id": 3, "test": 3}},
		updateErr: map[int64]error{2: e1, 3: e2},
	}

	m := NewMany(newFakeEngine(t, coll))
	require.NoError(t, m.Load(context.Background(), nil, filter.Options{}))

	err := m.Update(context.Background())
	assert.True(t, IsNotUnique(err))
	assert.ErrorIs(t, err, e1)
}

func TestLoad_UnexpectedFindError(t *testing.T) {
	boom := errors.New("no such column: x")
	coll := &fakeCollection{name: "users", findErr: boom}

	err := NewMany(newFakeEngine(t, coll)).Load(context.Background(), nil, filter.Options{})
	assert.ErrorIs(t, err, ErrUnexpected)
	assert.ErrorIs(t, err, boom)
}
