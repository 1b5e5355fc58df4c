package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/recstore/internal/querysql"
	"github.com/roach88/recstore/internal/schema"
)

// columnTypes maps field types to declared SQLite types. The declared type
// also drives decoding on read (BOOLEAN, JSON).
var columnTypes = map[schema.TypeName]string{
	schema.TypeID:          "INTEGER",
	schema.TypeInt:         "INTEGER",
	schema.TypeFloat:       "REAL",
	schema.TypeString:      "TEXT",
	schema.TypeEmail:       "TEXT",
	schema.TypeUUID:        "TEXT",
	schema.TypeTime:        "TEXT",
	schema.TypeBool:        "BOOLEAN",
	schema.TypeIDArray:     "JSON",
	schema.TypeIntArray:    "JSON",
	schema.TypeStringArray: "JSON",
	schema.TypeObject:      "JSON",
}

// TableFor derives the table definition of a collection from its schema.
// Derived and transient fields get no column.
func TableFor(name string, s *schema.Schema) querysql.TableDef {
	def := querysql.TableDef{Name: name, PrimaryKey: s.KeyNames()}

	for _, k := range s.Keys() {
		if k.Auto && k.Type == schema.TypeID {
			def.AutoKey = k.Name
			break
		}
	}

	for _, f := range s.Fields() {
		if !f.Writable() && !f.Auto {
			continue
		}
		def.Columns = append(def.Columns, querysql.Column{
			Name:    f.Name,
			Type:    columnTypes[f.Type],
			NotNull: !f.Optional && !f.Auto,
			Unique:  f.Unique,
		})
	}
	return def
}

// EnsureCollection creates the table backing a collection unless it
// exists.
func (s *Store) EnsureCollection(ctx context.Context, name string, sc *schema.Schema) error {
	stmt, err := s.compiler.CreateTable(TableFor(name, sc))
	if err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	if err := s.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	slog.Debug("collection ensured", "collection", name)
	return nil
}
