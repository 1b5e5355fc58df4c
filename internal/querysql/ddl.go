package querysql

import (
	"fmt"
	"strings"
)

// Column describes one column of a CREATE TABLE statement.
type Column struct {
	Name string

	// Type is the declared SQLite type. Empty declares no type.
	Type string

	NotNull bool
	Unique  bool
}

// TableDef describes a table to create.
//
// An AutoKey column becomes INTEGER PRIMARY KEY AUTOINCREMENT and is the
// rowid; a composite PrimaryKey that includes it is declared UNIQUE.
// Without AutoKey, PrimaryKey lists the key columns in order.
type TableDef struct {
	Name       string
	Columns    []Column
	AutoKey    string
	PrimaryKey []string
}

// CreateTable compiles an idempotent CREATE TABLE for def.
func (c *SQLCompiler) CreateTable(def TableDef) (string, error) {
	table, err := Quote(def.Name)
	if err != nil {
		return "", err
	}
	if len(def.Columns) == 0 {
		return "", fmt.Errorf("%w: table %s", ErrNoColumns, def.Name)
	}

	lines := make([]string, 0, len(def.Columns)+1)
	for _, col := range def.Columns {
		name, err := Quote(col.Name)
		if err != nil {
			return "", err
		}
		parts := []string{name}
		if col.Name == def.AutoKey {
			parts = append(parts, "INTEGER PRIMARY KEY AUTOINCREMENT")
		} else {
			if col.Type != "" {
				parts = append(parts, col.Type)
			}
			if col.NotNull {
				parts = append(parts, "NOT NULL")
			}
			if col.Unique {
				parts = append(parts, "UNIQUE")
			}
		}
		lines = append(lines, "\t"+strings.Join(parts, " "))
	}

	if len(def.PrimaryKey) > 0 && (def.AutoKey == "" || len(def.PrimaryKey) > 1) {
		keys := make([]string, len(def.PrimaryKey))
		for i, k := range def.PrimaryKey {
			q, err := Quote(k)
			if err != nil {
				return "", err
			}
			keys[i] = q
		}
		constraint := "PRIMARY KEY"
		if def.AutoKey != "" {
			constraint = "UNIQUE"
		}
		lines = append(lines, "\t"+constraint+" ("+strings.Join(keys, ", ")+")")
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)", table, strings.Join(lines, ",\n")), nil
}
