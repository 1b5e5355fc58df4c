package querysql

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/recstore/internal/filter"
	"github.com/roach88/recstore/internal/record"
)

// SQLCompiler compiles filters and records to parameterized SQLite
// statements.
//
// Values are always bound as parameters, never interpolated. Identifiers
// are restricted to [A-Za-z_][A-Za-z0-9_]* and double-quoted. Every SELECT
// ends with "rowid ASC" so results are deterministic and default to
// insertion order.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// ErrInvalidIdentifier is returned for table or column names that cannot be
// quoted safely.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// ErrNoColumns is returned when an UPDATE would set nothing.
var ErrNoColumns = errors.New("no columns to set")

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Quote validates and double-quotes an identifier.
func Quote(name string) (string, error) {
	if !identRe.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return `"` + name + `"`, nil
}

// Select compiles a find over table.
func (c *SQLCompiler) Select(table string, f filter.Filter, opts filter.Options) (string, []any, error) {
	from, err := Quote(table)
	if err != nil {
		return "", nil, err
	}

	where, params, err := c.Where(f)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}

	order, err := c.orderBy(opts.Order)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT * FROM %s", from)
	if where != "" {
		b.WriteString(" WHERE " + where)
	}
	b.WriteString(" ORDER BY " + order)

	switch {
	case opts.Limit > 0:
		b.WriteString(" LIMIT ?")
		params = append(params, opts.Limit)
	case opts.Offset > 0:
		// SQLite needs a LIMIT before OFFSET; -1 means no limit.
		b.WriteString(" LIMIT -1")
	}
	if opts.Offset > 0 {
		b.WriteString(" OFFSET ?")
		params = append(params, opts.Offset)
	}

	return b.String(), params, nil
}

// Insert compiles a single-row insert. Columns are written in sorted order.
// With no columns the row is inserted with DEFAULT VALUES.
func (c *SQLCompiler) Insert(table string, rec record.Record, returning []string) (string, []any, error) {
	into, err := Quote(table)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	var params []any
	fmt.Fprintf(&b, "INSERT INTO %s", into)

	if len(rec) == 0 {
		b.WriteString(" DEFAULT VALUES")
	} else {
		cols := make([]string, 0, len(rec))
		marks := make([]string, 0, len(rec))
		for _, k := range rec.SortedKeys() {
			col, err := Quote(k)
			if err != nil {
				return "", nil, err
			}
			p, err := ToParam(rec[k])
			if err != nil {
				return "", nil, fmt.Errorf("column %s: %w", k, err)
			}
			cols = append(cols, col)
			marks = append(marks, "?")
			params = append(params, p)
		}
		fmt.Fprintf(&b, " (%s) VALUES (%s)", strings.Join(cols, ", "), strings.Join(marks, ", "))
	}

	if len(returning) > 0 {
		cols := make([]string, len(returning))
		for i, r := range returning {
			col, err := Quote(r)
			if err != nil {
				return "", nil, err
			}
			cols[i] = col
		}
		b.WriteString(" RETURNING " + strings.Join(cols, ", "))
	}

	return b.String(), params, nil
}

// Update compiles an update of the rows matching key.
func (c *SQLCompiler) Update(table string, set record.Record, key filter.Filter) (string, []any, error) {
	if len(set) == 0 {
		return "", nil, ErrNoColumns
	}
	tbl, err := Quote(table)
	if err != nil {
		return "", nil, err
	}

	assigns := make([]string, 0, len(set))
	params := make([]any, 0, len(set))
	for _, k := range set.SortedKeys() {
		col, err := Quote(k)
		if err != nil {
			return "", nil, err
		}
		p, err := ToParam(set[k])
		if err != nil {
			return "", nil, fmt.Errorf("column %s: %w", k, err)
		}
		assigns = append(assigns, col+" = ?")
		params = append(params, p)
	}

	where, whereParams, err := c.Where(key)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}

	sql := fmt.Sprintf("UPDATE %s SET %s", tbl, strings.Join(assigns, ", "))
	if where != "" {
		sql += " WHERE " + where
	}
	return sql, append(params, whereParams...), nil
}

// Delete compiles a delete of the rows matching f.
func (c *SQLCompiler) Delete(table string, f filter.Filter) (string, []any, error) {
	tbl, err := Quote(table)
	if err != nil {
		return "", nil, err
	}
	where, params, err := c.Where(f)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}
	sql := "DELETE FROM " + tbl
	if where != "" {
		sql += " WHERE " + where
	}
	return sql, params, nil
}

// Where compiles f to a WHERE fragment (without the keyword).
// An empty filter compiles to "".
func (c *SQLCompiler) Where(f filter.Filter) (string, []any, error) {
	if len(f) == 0 {
		return "", nil, nil
	}

	var parts []string
	var params []any
	for _, field := range record.SortedKeys(f) {
		sql, ps, err := c.compileEntry(field, f[field])
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, ps...)
	}
	return strings.Join(parts, " AND "), params, nil
}

func (c *SQLCompiler) compileEntry(field string, v any) (string, []any, error) {
	if field == filter.AnyOf {
		return c.compileAnyOf(v)
	}
	if field == filter.KeysIn {
		in, ok := v.(filter.TupleIn)
		if !ok {
			return "", nil, filter.ErrInvalidTuple
		}
		return compileTupleIn(in)
	}

	col, err := Quote(field)
	if err != nil {
		return "", nil, err
	}

	switch pred := v.(type) {
	case nil:
		return col + " IS NULL", nil, nil
	case filter.In:
		return compileIn(col, pred)
	case *filter.In:
		return compileIn(col, *pred)
	case filter.Like:
		return col + ` LIKE ? ESCAPE '\'`, []any{pred.Pattern}, nil
	case *filter.Like:
		return col + ` LIKE ? ESCAPE '\'`, []any{pred.Pattern}, nil
	case filter.Compare:
		return compileCompare(col, pred)
	case *filter.Compare:
		return compileCompare(col, *pred)
	case filter.Null:
		return compileNull(col, pred), nil, nil
	case *filter.Null:
		return compileNull(col, *pred), nil, nil
	case filter.Predicate:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", v)
	}

	p, err := ToParam(v)
	if err != nil {
		return "", nil, fmt.Errorf("field %s: %w", field, err)
	}
	return col + " = ?", []any{p}, nil
}

func (c *SQLCompiler) compileAnyOf(v any) (string, []any, error) {
	alts, ok := v.([]filter.Filter)
	if !ok || len(alts) == 0 {
		return "", nil, filter.ErrInvalidAnyOf
	}

	parts := make([]string, 0, len(alts))
	var params []any
	for _, alt := range alts {
		sql, ps, err := c.Where(alt)
		if err != nil {
			return "", nil, err
		}
		if sql == "" {
			// An empty alternative matches everything.
			return "1 = 1", nil, nil
		}
		parts = append(parts, "("+sql+")")
		params = append(params, ps...)
	}
	return "(" + strings.Join(parts, " OR ") + ")", params, nil
}

// compileIn binds the value list as one JSON array read through json_each.
// Lists holding blobs fall back to one placeholder per value.
func compileIn(col string, in filter.In) (string, []any, error) {
	if len(in.Values) == 0 {
		return "0 = 1", nil, nil
	}
	params, err := toParams(in.Values)
	if err != nil {
		return "", nil, err
	}
	if hasBlob(params) {
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(params)), ", ")
		return fmt.Sprintf("%s IN (%s)", col, marks), params, nil
	}
	list, err := json.Marshal(params)
	if err != nil {
		return "", nil, fmt.Errorf("encode IN list: %w", err)
	}
	return col + " IN (SELECT value FROM json_each(?))", []any{string(list)}, nil
}

// compileTupleIn matches a row value against a JSON array of tuples.
// Tuples holding blobs fall back to a disjunction per tuple.
func compileTupleIn(in filter.TupleIn) (string, []any, error) {
	if len(in.Fields) == 0 {
		return "", nil, filter.ErrInvalidTuple
	}
	cols := make([]string, len(in.Fields))
	for i, f := range in.Fields {
		col, err := Quote(f)
		if err != nil {
			return "", nil, err
		}
		cols[i] = col
	}
	if len(in.Values) == 0 {
		return "0 = 1", nil, nil
	}

	tuples := make([][]any, len(in.Values))
	blob := false
	for i, t := range in.Values {
		if len(t) != len(cols) {
			return "", nil, fmt.Errorf("%w: tuple %d has %d values for %d fields", filter.ErrInvalidTuple, i, len(t), len(cols))
		}
		ps, err := toParams(t)
		if err != nil {
			return "", nil, err
		}
		blob = blob || hasBlob(ps)
		tuples[i] = ps
	}
	if blob {
		return compileTupleAlternatives(cols, tuples), flatten(tuples), nil
	}

	list, err := json.Marshal(tuples)
	if err != nil {
		return "", nil, fmt.Errorf("encode tuple list: %w", err)
	}
	extracts := make([]string, len(cols))
	for i := range cols {
		extracts[i] = fmt.Sprintf("json_extract(value, '$[%d]')", i)
	}
	sql := fmt.Sprintf("(%s) IN (SELECT %s FROM json_each(?))",
		strings.Join(cols, ", "), strings.Join(extracts, ", "))
	return sql, []any{string(list)}, nil
}

func compileTupleAlternatives(cols []string, tuples [][]any) string {
	conj := make([]string, len(cols))
	for i, col := range cols {
		conj[i] = col + " = ?"
	}
	alt := "(" + strings.Join(conj, " AND ") + ")"
	alts := make([]string, len(tuples))
	for i := range tuples {
		alts[i] = alt
	}
	return "(" + strings.Join(alts, " OR ") + ")"
}

func toParams(values []any) ([]any, error) {
	out := make([]any, len(values))
	for i, v := range values {
		p, err := ToParam(v)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func hasBlob(params []any) bool {
	for _, p := range params {
		if _, ok := p.([]byte); ok {
			return true
		}
	}
	return false
}

func flatten(tuples [][]any) []any {
	var out []any
	for _, t := range tuples {
		out = append(out, t...)
	}
	return out
}

func compileCompare(col string, cmp filter.Compare) (string, []any, error) {
	switch cmp.Op {
	case filter.OpNE, filter.OpLT, filter.OpLTE, filter.OpGT, filter.OpGTE:
	default:
		return "", nil, fmt.Errorf("%w %q", filter.ErrInvalidOp, cmp.Op)
	}
	p, err := ToParam(cmp.Value)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("%s %s ?", col, cmp.Op), []any{p}, nil
}

func compileNull(col string, n filter.Null) string {
	if n.Not {
		return col + " IS NOT NULL"
	}
	return col + " IS NULL"
}

func (c *SQLCompiler) orderBy(orders []filter.Order) (string, error) {
	parts := make([]string, 0, len(orders)+1)
	for _, o := range orders {
		col, err := Quote(o.Field)
		if err != nil {
			return "", err
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	// Tiebreaker: insertion order.
	parts = append(parts, "rowid ASC")
	return strings.Join(parts, ", "), nil
}

// FormatTime renders t the way times are stored: RFC 3339 in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ToParam converts a record value to a driver parameter. Lists and objects
// are stored as JSON text; uuids and times as their string form.
func ToParam(v any) (any, error) {
	switch val := v.(type) {
	case nil, string, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, float32, float64, []byte:
		return val, nil
	case time.Time:
		return FormatTime(val), nil
	case uint64:
		n, ok := record.AsInt64(val)
		if !ok {
			return nil, fmt.Errorf("integer overflows int64: %d", val)
		}
		return n, nil
	case uuid.UUID:
		return val.String(), nil
	case fmt.Stringer:
		return val.String(), nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T as JSON: %w", v, err)
	}
	return string(data), nil
}
