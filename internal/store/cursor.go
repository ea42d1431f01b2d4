package store

import (
	"database/sql"
	"fmt"
	"strconv"
)

// Row maps column names to raw driver values.
type Row map[string]any

// Values returns the row's values for columns, in that order.
func (r Row) Values(columns []string) []any {
	out := make([]any, len(columns))
	for i, c := range columns {
		out[i] = r[c]
	}
	return out
}

// Int64 reads an integer column, accepting the textual form MySQL returns
// for statements without parameters.
func (r Row) Int64(column string) (int64, error) {
	switch v := r[column].(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	case string:
		return strconv.ParseInt(v, 10, 64)
	case nil:
		return 0, fmt.Errorf("column %q is NULL", column)
	default:
		return 0, fmt.Errorf("column %q: unexpected type %T", column, v)
	}
}

// Cursor is the fully fetched result of one statement.
type Cursor struct {
	Columns      []string
	Rows         []Row
	RowsAffected int64
	LastInsertID int64
}

// Fetchall returns every row.
func (c *Cursor) Fetchall() []Row {
	return c.Rows
}

// Fetchone returns the first row, or nil.
func (c *Cursor) Fetchone() Row {
	if len(c.Rows) == 0 {
		return nil
	}
	return c.Rows[0]
}

// Len returns the number of fetched rows.
func (c *Cursor) Len() int {
	return len(c.Rows)
}

// Count reads the first column of the first row as an integer, the shape of
// a SELECT count(*) result.
func (c *Cursor) Count() (int64, error) {
	row := c.Fetchone()
	if row == nil || len(c.Columns) == 0 {
		return 0, fmt.Errorf("count: no result row")
	}
	return row.Int64(c.Columns[0])
}

func fetch(rows *sql.Rows) (*Cursor, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	cur := &Cursor{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = vals[i]
		}
		cur.Rows = append(cur.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return cur, nil
}
