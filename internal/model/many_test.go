package model

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recstore/internal/filter"
	"github.com/roach88/recstore/internal/querysql"
	"github.com/roach88/recstore/internal/record"
	"github.com/roach88/recstore/internal/store"
	"github.com/roach88/recstore/internal/testutil"
)

func TestMany_StoreAssignsKeys(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m := NewMany(f.users, record.Record{"test": 1}, record.Record{"test": 2, "a": 3})
	require.NoError(t, m.Store(ctx))

	assert.Equal(t, []record.Record{
		{"id": int64(1), "test": 1, "a": nil},
		{"id": int64(2), "test": 2, "a": 3},
	}, m.Contents())
	assert.Equal(t, []record.Record{
		{"id": int64(1), "test": int64(1), "a": nil},
		{"id": int64(2), "test": int64(2), "a": int64(3)},
	}, rows(t, f.users))
}

func TestMany_StoreEmpty(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, NewMany(f.users).Store(context.Background()))
	assert.Empty(t, rows(t, f.users))
}

func TestMany_StoreInvalidRejectsBatch(t *testing.T) {
	f := newFixture(t)

	m := NewMany(f.users, record.Record{"test": 1}, record.Record{"test": "x"})
	err := m.Store(context.Background())

	assert.True(t, IsConstraintFailed(err), "got %v", err)
	assert.Empty(t, rows(t, f.users))
}

func TestMany_StoreDuplicateKey(t *testing.T) {
	f := newFixture(t)

	m := NewMany(f.users3,
		record.Record{"email": "a@example.com", "name": "Hans"},
		record.Record{"email": "a@example.com", "name": "Hans"},
	)
	err := m.Store(context.Background())

	assert.True(t, IsNotUnique(err), "got %v", err)
	assert.Empty(t, rows(t, f.users3), "batch is all or nothing")
}

func TestMany_StoreDanglingReference(t *testing.T) {
	f := newFixture(t)

	err := NewMany(f.comments, record.Record{"userid": 1000}).Store(context.Background())

	assert.True(t, IsConstraintFailed(err), "got %v", err)
}

func TestMany_Load(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed(t, f.users, record.Record{"test": 1}, record.Record{"test": 2, "a": 3}, record.Record{"test": 2})

	m := NewMany(f.users)
	require.NoError(t, m.Load(ctx, filter.Filter{"test": 2}, filter.Options{}))
	assert.Equal(t, []record.Record{
		{"id": int64(2), "test": int64(2), "a": int64(3)},
		{"id": int64(3), "test": int64(2), "a": nil},
	}, m.Contents())

	paged := NewMany(f.users)
	require.NoError(t, paged.Load(ctx, nil, filter.Options{Limit: 1, Offset: 1}))
	require.Equal(t, 1, paged.Len())
	assert.Equal(t, int64(2), paged.Contents()[0]["id"])

	ordered := NewMany(f.users)
	require.NoError(t, ordered.Load(ctx, nil, filter.Options{Order: []filter.Order{filter.ParseOrder("-id")}}))
	assert.Equal(t, int64(3), ordered.Contents()[0]["id"])
}

func TestMany_LoadSubstring(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed(t, f.users3,
		record.Record{"email": "hans@example.com", "name": "Hans"},
		record.Record{"email": "franz@example.com", "name": "Franz"},
		record.Record{"email": "100%@example.com", "name": "Percent"},
	)

	m := NewMany(f.users3)
	require.NoError(t, m.Load(ctx, filter.Filter{"name": filter.Substring("an")}, filter.Options{}))
	assert.Len(t, m.Contents(), 2)

	pct := NewMany(f.users3)
	require.NoError(t, pct.Load(ctx, filter.Filter{"email": filter.Substring("%")}, filter.Options{}))
	require.Len(t, pct.Contents(), 1)
	assert.Equal(t, "Percent", pct.Contents()[0]["name"])
}

func TestMany_LoadTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m := NewMany(f.users)
	require.NoError(t, m.Load(ctx, nil, filter.Options{}))
	assert.ErrorIs(t, m.Load(ctx, nil, filter.Options{}), ErrAlreadyLoaded)
	assert.ErrorIs(t, m.LoadByIDs(ctx, 1, filter.Options{}), ErrAlreadyLoaded)
}

func TestMany_LoadByIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed(t, f.users, record.Record{"test": 1}, record.Record{"test": 2}, record.Record{"test": 3})

	m := NewMany(f.users)
	require.NoError(t, m.LoadByIDs(ctx, []any{3, "1"}, filter.Options{}))
	assert.Equal(t, []any{int64(1), int64(3)}, ids(m.Contents()))

	one := NewMany(f.users)
	require.NoError(t, one.LoadByIDs(ctx, 2, filter.Options{}))
	assert.Equal(t, []any{int64(2)}, ids(one.Contents()))

	byMap := NewMany(f.users)
	require.NoError(t, byMap.LoadByIDs(ctx, map[string]any{"id": []int{1, 2}}, filter.Options{}))
	assert.Equal(t, []any{int64(1), int64(2)}, ids(byMap.Contents()))
}

func TestMany_LoadByIDsComposite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed(t, f.users2, record.Record{"test": 1}, record.Record{"test": 2}, record.Record{"test": 1})

	err := NewMany(f.users2).LoadByIDs(ctx, []any{1, 2}, filter.Options{})
	assert.ErrorIs(t, err, ErrMissingKeys)

	err = NewMany(f.users2).LoadByIDs(ctx, map[string]any{"id": []any{1, 2}}, filter.Options{})
	var missing *MissingKeysError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"id", "test"}, missing.Keys)

	m := NewMany(f.users2)
	require.NoError(t, m.LoadByIDs(ctx, map[string]any{"id": []any{1, 2, 3}, "test": 1}, filter.Options{}))
	assert.Equal(t, []any{int64(1), int64(3)}, ids(m.Contents()))
}

func TestMany_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed(t, f.users, record.Record{"test": 1}, record.Record{"test": 2})

	m := NewMany(f.users)
	require.NoError(t, m.Load(ctx, nil, filter.Options{}))
	require.NoError(t, m.Set("a", 7))
	require.NoError(t, m.SetF("test", func(r record.Record) any {
		n, _ := record.AsInt64(r["test"])
		return n * 10
	}))
	require.NoError(t, m.Update(ctx))

	assert.Equal(t, []record.Record{
		{"id": int64(1), "test": int64(10), "a": int64(7)},
		{"id": int64(2), "test": int64(20), "a": int64(7)},
	}, rows(t, f.users))
}

func TestMany_UpdateKeyChanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed(t, f.users, record.Record{"test": 1}, record.Record{"test": 2})
	before := rows(t, f.users)

	m := NewMany(f.users)
	require.NoError(t, m.Load(ctx, nil, filter.Options{}))
	m.Contents()[1]["id"] = int64(99)
	m.Contents()[1]["test"] = 5

	assert.ErrorIs(t, m.Update(ctx), ErrKeyMismatch)
	assert.Equal(t, before, rows(t, f.users))
}

func TestMany_UpdateLengthChanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed(t, f.users, record.Record{"test": 1}, record.Record{"test": 2})

	m := NewMany(f.users)
	require.NoError(t, m.Load(ctx, nil, filter.Options{}))
	m.SetContents(m.Contents()[:1])

	assert.ErrorIs(t, m.Update(ctx), ErrKeyMismatch)
}

func TestMany_UpdateNotLoaded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m := NewMany(f.users, record.Record{"test": 1})
	require.NoError(t, m.Store(ctx))

	assert.ErrorIs(t, m.Update(ctx), ErrNotLoaded)
}

func TestMany_UpdateInvalid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed(t, f.users, record.Record{"test": 1})

	m := NewMany(f.users)
	require.NoError(t, m.Load(ctx, nil, filter.Options{}))
	require.NoError(t, m.Set("test", nil))

	assert.True(t, IsConstraintFailed(m.Update(ctx)))
	assert.Equal(t, int64(1), rows(t, f.users)[0]["test"])
}

func TestMany_SetUnknownField(t *testing.T) {
	f := newFixture(t)
	m := NewMany(f.users, record.Record{"test": 1})

	assert.ErrorIs(t, m.Set("nope", 1), ErrUnknownField)
	assert.ErrorIs(t, m.SetF("nope", func(record.Record) any { return 1 }), ErrUnknownField)
}

func TestMany_DeleteAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed(t, f.users, record.Record{"test": 1}, record.Record{"test": 2}, record.Record{"test": 3})

	m := NewMany(f.users)
	require.NoError(t, m.LoadByIDs(ctx, []any{1, 3}, filter.Options{}))
	require.NoError(t, m.DeleteAll(ctx))

	assert.Equal(t, []any{int64(2)}, ids(rows(t, f.users)))
	assert.NoError(t, NewMany(f.users).DeleteAll(ctx))
}

func TestMany_DeleteAllComposite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed(t, f.users3,
		record.Record{"email": "a@example.com", "name": "A"},
		record.Record{"email": "a@example.com", "name": "B"},
		record.Record{"email": "b@example.com", "name": "A"},
	)

	m := NewMany(f.users3)
	require.NoError(t, m.Load(ctx, filter.Filter{"name": "A"}, filter.Options{}))
	require.NoError(t, m.DeleteAll(ctx))

	assert.Equal(t, []record.Record{{"email": "a@example.com", "name": "B", "a": nil}}, rows(t, f.users3))
}

func TestMany_DeleteAllReferenced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	users := seed(t, f.users, record.Record{"test": 1}, record.Record{"test": 2})
	seed(t, f.comments, record.Record{"userid": users[1]["id"], "comment": "hi"})

	m := NewMany(f.users)
	require.NoError(t, m.Load(ctx, nil, filter.Options{}))
	err := m.DeleteAll(ctx)

	assert.True(t, IsReference(err), "got %v", err)
	assert.Len(t, rows(t, f.users), 2, "a blocked delete removes nothing")
}

func TestMany_Public(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed(t, f.users, record.Record{"test": 1}, record.Record{"test": 2, "a": 3})

	m := NewMany(f.users)
	require.NoError(t, m.Load(ctx, nil, filter.Options{}))
	got, err := m.Public()
	require.NoError(t, err)
	assert.Equal(t, []record.Record{
		{"id": int64(1), "test": int64(1)},
		{"id": int64(2), "test": int64(2), "a": int64(3)},
	}, got)
}

func TestMany_Derived(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed(t, f.derived, record.Record{"test": 1}, record.Record{"test": 2})

	m := NewMany(f.derived)
	require.NoError(t, m.Load(ctx, nil, filter.Options{}))

	_, err := m.Public()
	assert.ErrorIs(t, err, ErrDerivedNotGenerated)
	assert.False(t, m.DerivedReady())

	require.NoError(t, m.GenerateDerived(ctx))
	assert.True(t, m.DerivedReady())
	got, err := m.Public()
	require.NoError(t, err)
	assert.Equal(t, []record.Record{
		{"test": int64(1), "derivedId": int64(1), "derivedAsync": "test"},
		{"test": int64(2), "derivedId": int64(2), "derivedAsync": "test"},
	}, got)

	require.NoError(t, m.Set("test", 5))
	assert.False(t, m.DerivedReady(), "mutation invalidates derived values")
}

// ids lists the id field of recs.
func ids(recs []record.Record) []any {
	out := make([]any, len(recs))
	for i, r := range recs {
		out[i] = r["id"]
	}
	return out
}

func TestMany_TimeSurvivesStoreLoadUpdate(t *testing.T) {
	for _, driver := range []string{store.DriverCGO, store.DriverPure} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			s := testutil.OpenFixtureStore(t, store.WithDriver(driver))
			e := newEngine(t, s, "events", testutil.EventsSchema())

			at := time.Date(2026, 10, 19, 5, 41, 58, 921483686, time.FixedZone("CEST", 2*3600))
			require.NoError(t, NewMany(e, record.Record{}, record.Record{"at": at}).Store(ctx))

			loaded := NewMany(e)
			require.NoError(t, loaded.Load(ctx, nil, filter.Options{}))
			require.Equal(t, 2, loaded.Len())
			assert.Equal(t, "2026-10-19T03:41:58.921483686Z", loaded.Contents()[1]["at"])

			require.NoError(t, loaded.Update(ctx), "loaded times pass validation")

			later := at.Add(time.Hour)
			require.NoError(t, loaded.Set("at", later))
			require.NoError(t, loaded.Update(ctx))

			reloaded := NewMany(e)
			require.NoError(t, reloaded.Load(ctx, nil, filter.Options{}))
			for _, r := range reloaded.Contents() {
				assert.Equal(t, querysql.FormatTime(later), r["at"])
			}
		})
	}
}

func TestMany_DeleteAllManyCompositeKeys(t *testing.T) {
	for _, driver := range []string{store.DriverCGO, store.DriverPure} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			s := testutil.OpenFixtureStore(t, store.WithDriver(driver))
			e := newEngine(t, s, "users3", testutil.Users3Schema())

			recs := make([]record.Record, 1500)
			for i := range recs {
				recs[i] = record.Record{"email": fmt.Sprintf("u%d@example.com", i), "name": "Hans"}
			}
			require.NoError(t, NewMany(e, recs...).Store(ctx))

			m := NewMany(e)
			require.NoError(t, m.Load(ctx, filter.Filter{"email": filter.Compare{Op: filter.OpNE, Value: "u0@example.com"}}, filter.Options{}))
			require.Equal(t, 1499, m.Len())

			require.NoError(t, m.DeleteAll(ctx))
			left := rows(t, e)
			require.Len(t, left, 1)
			assert.Equal(t, "u0@example.com", left[0]["email"])
		})
	}
}

func TestMany_LoadByIDsAndDeleteAllManyKeys(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	recs := make([]record.Record, 1500)
	for i := range recs {
		recs[i] = record.Record{"test": i}
	}
	require.NoError(t, NewMany(f.users, recs...).Store(ctx))

	ids := make([]any, 0, 1499)
	for i := 2; i <= 1500; i++ {
		ids = append(ids, i)
	}
	m := NewMany(f.users)
	require.NoError(t, m.LoadByIDs(ctx, ids, filter.Options{}))
	require.Equal(t, 1499, m.Len())

	require.NoError(t, m.DeleteAll(ctx))
	assert.Equal(t, []record.Record{{"id": int64(1), "test": int64(0), "a": nil}}, rows(t, f.users))
}
