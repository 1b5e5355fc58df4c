package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTable_AutoKey(t *testing.T) {
	sql, err := NewSQLCompiler().CreateTable(TableDef{
		Name: "users",
		Columns: []Column{
			{Name: "id", Type: "INTEGER", NotNull: true},
			{Name: "email", Type: "TEXT", NotNull: true, Unique: true},
			{Name: "tags", Type: "JSON"},
			{Name: "extra"},
		},
		AutoKey:    "id",
		PrimaryKey: []string{"id"},
	})
	require.NoError(t, err)

	assert.Equal(t, `CREATE TABLE IF NOT EXISTS "users" (
	"id" INTEGER PRIMARY KEY AUTOINCREMENT,
	"email" TEXT NOT NULL UNIQUE,
	"tags" JSON,
	"extra"
)`, sql)
}

func TestCreateTable_CompositeKey(t *testing.T) {
	sql, err := NewSQLCompiler().CreateTable(TableDef{
		Name: "users3",
		Columns: []Column{
			{Name: "email", Type: "TEXT", NotNull: true},
			{Name: "name", Type: "TEXT", NotNull: true},
		},
		PrimaryKey: []string{"email", "name"},
	})
	require.NoError(t, err)

	assert.Contains(t, sql, `PRIMARY KEY ("email", "name")`)
}

func TestCreateTable_AutoKeyInCompositeKey(t *testing.T) {
	sql, err := NewSQLCompiler().CreateTable(TableDef{
		Name: "comment",
		Columns: []Column{
			{Name: "id", Type: "INTEGER"},
			{Name: "userid", Type: "INTEGER", NotNull: true},
		},
		AutoKey:    "id",
		PrimaryKey: []string{"id", "userid"},
	})
	require.NoError(t, err)

	assert.Contains(t, sql, `"id" INTEGER PRIMARY KEY AUTOINCREMENT`)
	assert.Contains(t, sql, `UNIQUE ("id", "userid")`)
	assert.NotContains(t, sql, "PRIMARY KEY (")
}

func TestCreateTable_Errors(t *testing.T) {
	c := NewSQLCompiler()

	_, err := c.CreateTable(TableDef{Name: "users"})
	assert.ErrorIs(t, err, ErrNoColumns)

	_, err = c.CreateTable(TableDef{Name: "users; DROP", Columns: []Column{{Name: "a"}}})
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	_, err = c.CreateTable(TableDef{Name: "users", Columns: []Column{{Name: "a"}}, PrimaryKey: []string{"b c"}})
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}
