// Package testutil provides fixtures shared by package tests: temporary
// SQLite stores, the fixture tables and their schemas.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/recstore/internal/store"
)

// OpenStore opens a store in t.TempDir(), runs ddl and closes it on
// cleanup. Options are passed to store.Open.
func OpenStore(t *testing.T, ddl string, opts ...store.Option) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(path, opts...)
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if ddl != "" {
		if err := s.Exec(context.Background(), ddl); err != nil {
			t.Fatalf("Exec(ddl) failed: %v", err)
		}
	}
	return s
}

// OpenFixtureStore opens a store holding the fixture tables.
func OpenFixtureStore(t *testing.T, opts ...store.Option) *store.Store {
	t.Helper()
	return OpenStore(t, FixtureDDL, opts...)
}
