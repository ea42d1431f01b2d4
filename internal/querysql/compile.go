package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/rowmodel/internal/queryir"
)

// Placeholder is the parameter marker understood by store.Conn.
const Placeholder = "%s"

// Compiler compiles Query IR to parameterized SQL accepted by both MySQL and
// SQLite.
//
// CRITICAL: All values are parameterized, never interpolated. Identifiers
// are backtick-quoted.
type Compiler struct{}

// NewCompiler creates a new Compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Quote backtick-quotes an identifier.
func Quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

// QuoteList quotes and comma-joins identifiers.
func QuoteList(idents []string) string {
	parts := make([]string, len(idents))
	for i, id := range idents {
		parts[i] = Quote(id)
	}
	return strings.Join(parts, ", ")
}

// Placeholders returns n comma-separated placeholders.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(Placeholder+", ", n-1) + Placeholder
}

// Compile converts a query to (sql, params).
func (c *Compiler) Compile(q queryir.Query) (string, []any, error) {
	if res := queryir.Validate(q); !res.Valid {
		return "", nil, fmt.Errorf("invalid query: %s", strings.Join(res.Problems, "; "))
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case queryir.Delete:
		return c.compileDelete(query)
	case queryir.Insert:
		return c.compileInsert(query)
	case queryir.Update:
		return c.compileUpdate(query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *Compiler) compileSelect(q queryir.Select) (string, []any, error) {
	cols := "*"
	switch {
	case q.Count:
		cols = "count(*) AS total"
	case len(q.Columns) > 0:
		cols = QuoteList(q.Columns)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", cols, Quote(q.From))

	where, params, err := c.Where(q.Filter)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}

	if !q.Count {
		if len(q.OrderBy) > 0 {
			keys := make([]string, len(q.OrderBy))
			for i, o := range q.OrderBy {
				dir := "ASC"
				if o.Desc {
					dir = "DESC"
				}
				keys[i] = Quote(o.Field) + " " + dir
			}
			b.WriteString(" ORDER BY ")
			b.WriteString(strings.Join(keys, ", "))
		}
		if q.Limit != nil {
			fmt.Fprintf(&b, " LIMIT %d, %d", q.Limit.Offset, q.Limit.Count)
		}
	}

	return b.String(), params, nil
}

func (c *Compiler) compileDelete(q queryir.Delete) (string, []any, error) {
	where, params, err := c.Where(q.Filter)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}
	return "DELETE FROM " + Quote(q.From) + " WHERE " + where, params, nil
}

func (c *Compiler) compileInsert(q queryir.Insert) (string, []any, error) {
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		Quote(q.Into),
		QuoteList(q.Columns),
		Placeholders(len(q.Values)))
	return sql, append([]any(nil), q.Values...), nil
}

func (c *Compiler) compileUpdate(q queryir.Update) (string, []any, error) {
	sets := make([]string, len(q.Set))
	params := make([]any, 0, len(q.Set))
	for i, a := range q.Set {
		sets[i] = Quote(a.Field) + " = " + Placeholder
		params = append(params, a.Value)
	}
	where, whereParams, err := c.Where(q.Filter)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}
	sql := "UPDATE " + Quote(q.Table) + " SET " + strings.Join(sets, ", ") + " WHERE " + where
	return sql, append(params, whereParams...), nil
}

// Where compiles a predicate to a WHERE fragment (without the keyword).
// A nil predicate yields an empty fragment.
func (c *Compiler) Where(p queryir.Predicate) (string, []any, error) {
	if p == nil {
		return "", nil, nil
	}
	return c.compilePredicate(p)
}

func (c *Compiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		if pred.Value == nil {
			return Quote(pred.Field) + " IS NULL", nil, nil
		}
		return Quote(pred.Field) + " = " + Placeholder, []any{pred.Value}, nil
	case queryir.NotEquals:
		return Quote(pred.Field) + " != " + Placeholder, []any{pred.Value}, nil
	case queryir.IsNull:
		return Quote(pred.Field) + " IS NULL", nil, nil
	case queryir.Like:
		return Quote(pred.Field) + " LIKE " + Placeholder, []any{pred.Pattern}, nil
	case queryir.And:
		return c.compileAnd(pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *Compiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil // vacuous truth
	}

	var sqlParts []string
	var allParams []any
	for _, pred := range and.Predicates {
		sql, params, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		if _, nested := pred.(queryir.And); nested && len(pred.(queryir.And).Predicates) > 1 {
			sql = "(" + sql + ")"
		}
		sqlParts = append(sqlParts, sql)
		allParams = append(allParams, params...)
	}

	return strings.Join(sqlParts, " AND "), allParams, nil
}
