package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/recstore/internal/backend"
)

const testDDL = `
CREATE TABLE users (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT UNIQUE,
	age  INTEGER CHECK (age IS NULL OR age >= 0),
	active BOOLEAN NOT NULL DEFAULT 1,
	tags JSON
);
CREATE TABLE comment (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	userid  INTEGER NOT NULL REFERENCES users(id),
	comment TEXT
);
CREATE TABLE events (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	at   TEXT NOT NULL,
	seen DATETIME
);
`

var drivers = []string{DriverCGO, DriverPure}

// createTestStore creates a new store in a temporary directory with the
// test tables.
func createTestStore(t *testing.T, driver string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithDriver(driver))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Exec(context.Background(), testDDL); err != nil {
		t.Fatalf("Exec() failed: %v", err)
	}
	return s
}

func mustCollection(t *testing.T, s *Store, name string) backend.Collection {
	t.Helper()
	c, err := s.Collection(name)
	if err != nil {
		t.Fatalf("Collection(%q) failed: %v", name, err)
	}
	return c
}

// forEachDriver runs fn as a subtest per supported driver.
func forEachDriver(t *testing.T, fn func(t *testing.T, s *Store)) {
	t.Helper()
	for _, d := range drivers {
		t.Run(d, func(t *testing.T) {
			fn(t, createTestStore(t, d))
		})
	}
}
