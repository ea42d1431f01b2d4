package queryir

import "fmt"

// ValidationResult lists structural problems found in a query.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	Problems []string
}

// Validate checks a query for structural problems: empty identifiers,
// negative limits, unfiltered deletes, mismatched insert arity.
//
// Validate is a pure function with no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{problems: []string{}}
	v.validateQuery(query)

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.addProblem("nil query")
	case Select:
		v.table(query.From)
		for _, c := range query.Columns {
			v.field(c)
		}
		for _, o := range query.OrderBy {
			v.field(o.Field)
		}
		if l := query.Limit; l != nil && (l.Offset < 0 || l.Count < 0) {
			v.addProblem("negative limit %d, %d", l.Offset, l.Count)
		}
		v.validatePredicate(query.Filter)
	case Delete:
		v.table(query.From)
		if query.Filter == nil {
			v.addProblem("delete from %q without filter", query.From)
		}
		v.validatePredicate(query.Filter)
	case Insert:
		v.table(query.Into)
		if len(query.Columns) == 0 {
			v.addProblem("insert into %q without columns", query.Into)
		}
		if len(query.Columns) != len(query.Values) {
			v.addProblem("insert into %q has %d columns but %d values", query.Into, len(query.Columns), len(query.Values))
		}
		for _, c := range query.Columns {
			v.field(c)
		}
	case Update:
		v.table(query.Table)
		if len(query.Set) == 0 {
			v.addProblem("update of %q without assignments", query.Table)
		}
		if query.Filter == nil {
			v.addProblem("update of %q without filter", query.Table)
		}
		for _, a := range query.Set {
			v.field(a.Field)
		}
		v.validatePredicate(query.Filter)
	default:
		v.addProblem("unknown query type %T", q)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
	case Equals:
		v.field(pred.Field)
	case NotEquals:
		v.field(pred.Field)
		if pred.Value == nil {
			v.addProblem("%q != NULL never matches", pred.Field)
		}
	case IsNull:
		v.field(pred.Field)
	case Like:
		v.field(pred.Field)
	case And:
		for _, sub := range pred.Predicates {
			if sub == nil {
				v.addProblem("nil predicate inside And")
				continue
			}
			v.validatePredicate(sub)
		}
	default:
		v.addProblem("unknown predicate type %T", p)
	}
}

func (v *validator) table(name string) {
	if name == "" {
		v.addProblem("empty table name")
	}
}

func (v *validator) field(name string) {
	if name == "" {
		v.addProblem("empty field name")
	}
}
