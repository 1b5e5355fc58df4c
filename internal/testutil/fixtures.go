package testutil

import (
	"context"

	"github.com/roach88/recstore/internal/filter"
	"github.com/roach88/recstore/internal/record"
	"github.com/roach88/recstore/internal/schema"
)

// FixtureDDL creates the fixture tables.
const FixtureDDL = `
CREATE TABLE users (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	test INTEGER NOT NULL,
	a    INTEGER
);
CREATE TABLE users2 (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	test INTEGER NOT NULL,
	a    INTEGER,
	UNIQUE (id, test)
);
CREATE TABLE users3 (
	email TEXT NOT NULL,
	name  TEXT NOT NULL,
	a     INTEGER,
	PRIMARY KEY (email, name)
);
CREATE TABLE comment (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	userid  INTEGER NOT NULL REFERENCES users(id),
	comment TEXT
);
CREATE TABLE derived (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	test INTEGER NOT NULL
);
CREATE TABLE events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	at TEXT NOT NULL
);
`

// UsersSchema: single auto key.
func UsersSchema() *schema.Schema {
	return schema.MustNew(
		schema.Field{Name: "id", Type: schema.TypeID, Key: true, Auto: true, Public: true},
		schema.Field{Name: "test", Type: schema.TypeInt, Public: true},
		schema.Field{Name: "a", Type: schema.TypeInt, Optional: true, Public: true},
	)
}

// Users2Schema: composite key of an auto id and a plain int.
func Users2Schema() *schema.Schema {
	return schema.MustNew(
		schema.Field{Name: "id", Type: schema.TypeID, Key: true, Auto: true},
		schema.Field{Name: "test", Type: schema.TypeInt, Key: true},
		schema.Field{Name: "a", Type: schema.TypeInt, Optional: true},
	)
}

// Users3Schema: composite natural key.
func Users3Schema() *schema.Schema {
	return schema.MustNew(
		schema.Field{Name: "email", Type: schema.TypeEmail, Key: true},
		schema.Field{Name: "name", Type: schema.TypeString, Key: true},
		schema.Field{Name: "a", Type: schema.TypeInt, Optional: true},
	)
}

// CommentSchema: records referencing users.
func CommentSchema() *schema.Schema {
	return schema.MustNew(
		schema.Field{Name: "id", Type: schema.TypeID, Key: true, Auto: true},
		schema.Field{Name: "userid", Type: schema.TypeID, Key: true},
		schema.Field{Name: "comment", Type: schema.TypeString, Optional: true},
	)
}

// EventsSchema: a time field defaulting to now.
func EventsSchema() *schema.Schema {
	return schema.MustNew(
		schema.Field{Name: "id", Type: schema.TypeID, Key: true, Auto: true},
		schema.Field{Name: "at", Type: schema.TypeTime, DefaultFunc: schema.Now},
	)
}

// DerivedSchema: two public derived fields, one read from the record and
// one computed by querying the store.
func DerivedSchema() *schema.Schema {
	return schema.MustNew(
		schema.Field{Name: "id", Type: schema.TypeID, Key: true, Auto: true},
		schema.Field{Name: "test", Type: schema.TypeInt, Public: true},
		schema.Field{
			Name:   "derivedId",
			Type:   schema.TypeID,
			Public: true,
			Derived: func(_ context.Context, rec record.Record, _ schema.Host) (any, error) {
				return rec["id"], nil
			},
		},
		schema.Field{
			Name:   "derivedAsync",
			Type:   schema.TypeString,
			Public: true,
			Derived: func(ctx context.Context, _ record.Record, host schema.Host) (any, error) {
				c, err := host.Backend().Collection(host.Collection())
				if err != nil {
					return nil, err
				}
				cur, err := c.Find(ctx, nil, filter.Options{Limit: 1})
				if err != nil {
					return nil, err
				}
				if _, err := cur.All(ctx); err != nil {
					return nil, err
				}
				return "test", nil
			},
		},
	)
}
