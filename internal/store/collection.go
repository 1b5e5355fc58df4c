package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/recstore/internal/backend"
	"github.com/roach88/recstore/internal/filter"
	"github.com/roach88/recstore/internal/querysql"
	"github.com/roach88/recstore/internal/record"
)

// collection serves one table.
type collection struct {
	store *Store
	name  string
}

var _ backend.Collection = (*collection)(nil)

func (c *collection) Name() string {
	return c.name
}

func (c *collection) Find(ctx context.Context, f filter.Filter, opts filter.Options) (backend.Cursor, error) {
	if err := filter.Validate(f, opts); err != nil {
		return nil, err
	}
	query, params, err := c.store.compiler.Select(c.name, f, opts)
	if err != nil {
		return nil, err
	}
	return &cursor{db: c.store.db, collection: c.name, query: query, params: params}, nil
}

func (c *collection) FindByID(ctx context.Context, key record.Record) (backend.Cursor, error) {
	return c.Find(ctx, filter.FromRecord(key), filter.Options{})
}

func (c *collection) FindByIDs(ctx context.Context, keys record.Record, opts filter.Options) (backend.Cursor, error) {
	f := make(filter.Filter, len(keys))
	for k, v := range keys {
		values, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("ids for %s.%s must be a list, got %T", c.name, k, v)
		}
		f[k] = filter.In{Values: values}
	}
	return c.Find(ctx, f, opts)
}

// Insert writes all records in one transaction. Either every record is
// inserted or none is.
func (c *collection) Insert(ctx context.Context, recs []record.Record, returning []string) ([]record.Record, error) {
	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	out := make([]record.Record, len(recs))
	for i, rec := range recs {
		query, params, err := c.store.compiler.Insert(c.name, rec, returning)
		if err != nil {
			return nil, err
		}

		if len(returning) == 0 {
			if _, err := tx.ExecContext(ctx, query, params...); err != nil {
				return nil, classify("insert", c.name, err)
			}
			out[i] = record.Record{}
			continue
		}

		rows, err := tx.QueryContext(ctx, query, params...)
		if err != nil {
			return nil, classify("insert", c.name, err)
		}
		got, err := scanAll(rows)
		if err != nil {
			return nil, classify("insert", c.name, err)
		}
		if len(got) != 1 {
			return nil, fmt.Errorf("insert into %s returned %d rows", c.name, len(got))
		}
		out[i] = got[0]
	}

	if err := tx.Commit(); err != nil {
		return nil, classify("insert", c.name, err)
	}
	slog.Debug("records inserted", "collection", c.name, "count", len(recs))
	return out, nil
}

func (c *collection) UpdateOne(ctx context.Context, key filter.Filter, rec record.Record) error {
	query, params, err := c.store.compiler.Update(c.name, rec, key)
	if err != nil {
		return err
	}
	if _, err := c.store.db.ExecContext(ctx, query, params...); err != nil {
		return classify("update", c.name, err)
	}
	return nil
}

func (c *collection) Remove(ctx context.Context, f filter.Filter) error {
	if err := filter.Validate(f, filter.Options{}); err != nil {
		return err
	}
	query, params, err := c.store.compiler.Delete(c.name, f)
	if err != nil {
		return err
	}
	res, err := c.store.db.ExecContext(ctx, query, params...)
	if err != nil {
		return classify("remove", c.name, err)
	}
	if n, err := res.RowsAffected(); err == nil {
		slog.Debug("records removed", "collection", c.name, "count", n)
	}
	return nil
}

// ToID accepts integers and numeric strings as rowids. Other strings are
// passed through for tables keyed by text.
func (c *collection) ToID(v any) (any, error) {
	if n, ok := record.AsInt64(v); ok {
		return n, nil
	}
	if s, ok := v.(string); ok && s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		return s, nil
	}
	return nil, fmt.Errorf("%w: %v (%T)", backend.ErrInvalidID, v, v)
}

func (c *collection) FromID(v any) any {
	switch id := v.(type) {
	case []byte:
		return string(id)
	case nil:
		return nil
	}
	if n, ok := record.AsInt64(v); ok {
		return n
	}
	return v
}

// cursor runs its query on the first call to All.
type cursor struct {
	db         *sql.DB
	collection string
	query      string
	params     []any
}

func (c *cursor) All(ctx context.Context) ([]record.Record, error) {
	rows, err := c.db.QueryContext(ctx, c.query, c.params...)
	if err != nil {
		return nil, classify("find", c.collection, err)
	}
	recs, err := scanAll(rows)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", c.collection, err)
	}
	return recs, nil
}

// scanAll reads and closes rows.
func scanAll(rows *sql.Rows) ([]record.Record, error) {
	defer rows.Close()

	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	recs := []record.Record{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		rec := make(record.Record, len(cols))
		for i, col := range cols {
			v, err := decodeColumn(col.DatabaseTypeName(), values[i])
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", col.Name(), err)
			}
			rec[col.Name()] = v
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// decodeColumn converts a scanned value according to the declared column
// type. SQLite stores booleans as integers and lists as JSON text. Drivers
// that parse DATETIME columns hand back time.Time, which is rendered in
// the stored text form.
func decodeColumn(declType string, v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		v = string(val)
	case time.Time:
		return querysql.FormatTime(val), nil
	}

	switch strings.ToUpper(declType) {
	case "BOOL", "BOOLEAN":
		if n, ok := record.AsInt64(v); ok {
			return n != 0, nil
		}
	case "JSON":
		s, ok := v.(string)
		if !ok {
			return v, nil
		}
		var out any
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	return v, nil
}
