package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recstore/internal/filter"
	"github.com/roach88/recstore/internal/record"
)

func TestNone_LoadNone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed(t, f.users, record.Record{"test": 1})

	require.NoError(t, NewNone(f.users).LoadNone(ctx, filter.Filter{"test": 2}))

	err := NewNone(f.users).LoadNone(ctx, filter.Filter{"test": 1})
	assert.True(t, IsDoesExist(err), "got %v", err)
	assert.Contains(t, err.Error(), `{"test":1}`)
}

func TestNone_LoadTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n := NewNone(f.users)
	require.NoError(t, n.LoadNone(ctx, nil))
	assert.ErrorIs(t, n.LoadNone(ctx, nil), ErrAlreadyLoaded)
}

func TestNone_FindError(t *testing.T) {
	coll := &fakeCollection{name: "users", findErr: assert.AnError}
	e := newFakeEngine(t, coll)

	err := NewNone(e).LoadNone(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnexpected)
	assert.ErrorIs(t, err, assert.AnError)
}
