package queryir

// Query is a complete statement.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	queryNode()
}

// Predicate is a filter condition.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode()
}

// Select reads rows from one table.
//
//	SELECT <columns | count(*) AS total> FROM <from>
//	  WHERE <filter> ORDER BY <order> LIMIT <offset>, <count>
//
// Empty Columns selects every column. Count replaces the column list with
// a row count and ignores OrderBy and Limit.
type Select struct {
	From    string
	Columns []string
	Count   bool
	Filter  Predicate
	OrderBy []Order
	Limit   *Limit
}

func (Select) queryNode() {}

// Delete removes the rows matching Filter. A Delete without a filter is
// rejected by Validate.
type Delete struct {
	From   string
	Filter Predicate
}

func (Delete) queryNode() {}

// Insert adds one row.
type Insert struct {
	Into    string
	Columns []string
	Values  []any
}

func (Insert) queryNode() {}

// Update assigns Set on the rows matching Filter.
type Update struct {
	Table  string
	Set    []Assignment
	Filter Predicate
}

func (Update) queryNode() {}

// Assignment is one SET clause entry.
type Assignment struct {
	Field string
	Value any
}

// Order is one ORDER BY key.
type Order struct {
	Field string
	Desc  bool
}

// Limit is an offset/count window.
type Limit struct {
	Offset int64
	Count  int64
}

// Equals matches Field = Value, or Field IS NULL when Value is nil.
type Equals struct {
	Field string
	Value any
}

func (Equals) predicateNode() {}

// NotEquals matches Field != Value.
type NotEquals struct {
	Field string
	Value any
}

func (NotEquals) predicateNode() {}

// IsNull matches Field IS NULL.
type IsNull struct {
	Field string
}

func (IsNull) predicateNode() {}

// Like matches Field LIKE Pattern. The pattern is bound as a parameter.
type Like struct {
	Field   string
	Pattern string
}

func (Like) predicateNode() {}

// And matches when every predicate matches. An empty And matches all rows.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Conjoin builds an And from the non-nil predicates, flattening nested
// Ands. It returns nil when nothing remains.
func Conjoin(preds ...Predicate) Predicate {
	var out []Predicate
	for _, p := range preds {
		switch t := p.(type) {
		case nil:
		case And:
			if c := Conjoin(t.Predicates...); c != nil {
				if a, ok := c.(And); ok {
					out = append(out, a.Predicates...)
				} else {
					out = append(out, c)
				}
			}
		default:
			out = append(out, p)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return And{Predicates: out}
}
