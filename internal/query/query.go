// Package query turns a caller's request context into filters, ordering and
// pagination for list and delete operations.
//
// A Request carries the caller's scope (domain and tenant) and the list
// parameters of an API call:
//
//	search: "name:ali,email:bob"   prefix match per column, AND-combined
//	sort:   "name:desc,id"         ordering keys, ascending by default
//	range:  "0,25"                 rows [0, 25) as LIMIT 0, 25
//	range:  "25"                   the first 25 rows
package query

import (
	"strconv"
	"strings"

	"github.com/roach88/rowmodel/internal/dberr"
	"github.com/roach88/rowmodel/internal/queryir"
	"github.com/roach88/rowmodel/internal/schema"
)

const (
	DomainField = "domain"
	TenantField = "tenant_id"
)

// Request is the request context of an operation. A nil Domain or TenantID
// scopes to rows where that column is NULL.
type Request struct {
	Domain   *string
	TenantID *string
	Search   string
	Sort     string
	Range    string
}

// Scoped returns a request restricted to domain and tenant.
func Scoped(domain, tenant string) *Request {
	return &Request{Domain: &domain, TenantID: &tenant}
}

// ContextPredicate scopes rows to the request's domain and tenant. Only
// columns the model declares take part; a nil request scopes nothing.
func ContextPredicate(s *schema.Schema, req *Request) queryir.Predicate {
	if req == nil {
		return nil
	}
	var preds []queryir.Predicate
	if s.HasColumn(DomainField) {
		preds = append(preds, scopeEquals(DomainField, req.Domain))
	}
	if s.HasColumn(TenantField) {
		preds = append(preds, scopeEquals(TenantField, req.TenantID))
	}
	return queryir.Conjoin(preds...)
}

func scopeEquals(field string, v *string) queryir.Predicate {
	if v == nil {
		return queryir.IsNull{Field: field}
	}
	return queryir.Equals{Field: field, Value: *v}
}

// SearchPredicate parses "col:value[,col:value...]" into prefix matches.
// Each term holds exactly one ':'. Wildcards inside value are passed
// through unescaped.
func SearchPredicate(s *schema.Schema, search string) (queryir.Predicate, error) {
	if strings.TrimSpace(search) == "" {
		return nil, nil
	}
	var preds []queryir.Predicate
	for _, term := range strings.Split(search, ",") {
		col, val, ok := strings.Cut(term, ":")
		col = strings.TrimSpace(col)
		if !ok || col == "" || strings.Contains(val, ":") {
			return nil, dberr.New(dberr.ErrValidation, s.Table(), "Invalid search term %q", term)
		}
		if !s.HasColumn(col) {
			return nil, dberr.New(dberr.ErrValidation, s.Table(), "Unknown search field %q", col)
		}
		preds = append(preds, queryir.Like{Field: col, Pattern: val + "%"})
	}
	return queryir.Conjoin(preds...), nil
}

// OrderBy parses "col[:asc|:desc][,...]" into ordering keys.
func OrderBy(s *schema.Schema, sort string) ([]queryir.Order, error) {
	if strings.TrimSpace(sort) == "" {
		return nil, nil
	}
	var out []queryir.Order
	for _, key := range strings.Split(sort, ",") {
		col, dir, _ := strings.Cut(key, ":")
		col = strings.TrimSpace(col)
		if !s.HasColumn(col) {
			return nil, dberr.New(dberr.ErrValidation, s.Table(), "Unknown sort field %q", col)
		}
		o := queryir.Order{Field: col}
		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "", "asc":
		case "desc":
			o.Desc = true
		default:
			return nil, dberr.New(dberr.ErrValidation, s.Table(), "Invalid sort direction %q", dir)
		}
		out = append(out, o)
	}
	return out, nil
}

// ParseRange parses "start,end" into an offset/count window, the end
// exclusive, or a bare "n" into the first n rows. An empty range means no
// limit.
func ParseRange(table, r string) (*queryir.Limit, error) {
	if strings.TrimSpace(r) == "" {
		return nil, nil
	}
	a, b, ok := strings.Cut(r, ",")
	if !ok {
		n, err := strconv.ParseInt(strings.TrimSpace(a), 10, 64)
		if err != nil || n < 0 {
			return nil, dberr.New(dberr.ErrValidation, table, "Invalid range %q (want count or start,end)", r)
		}
		return &queryir.Limit{Count: n}, nil
	}
	start, err1 := strconv.ParseInt(strings.TrimSpace(a), 10, 64)
	end, err2 := strconv.ParseInt(strings.TrimSpace(b), 10, 64)
	if err1 != nil || err2 != nil {
		return nil, dberr.New(dberr.ErrValidation, table, "Invalid range %q (want integers)", r)
	}
	if start < 0 || end < start {
		return nil, dberr.New(dberr.ErrValidation, table, "Invalid range %q (want 0 <= start <= end)", r)
	}
	return &queryir.Limit{Offset: start, Count: end - start}, nil
}

// ListQueries builds the count and data queries of a list operation. The
// primary key is appended as a final ascending sort key so pages are
// stable. Every request parameter is validated before anything executes.
func ListQueries(s *schema.Schema, req *Request) (count, data queryir.Select, err error) {
	pk, err := s.RequirePrimaryKey("list")
	if err != nil {
		return count, data, err
	}
	scope := ContextPredicate(s, req)
	if req == nil {
		req = &Request{}
	}

	search, err := SearchPredicate(s, req.Search)
	if err != nil {
		return count, data, err
	}
	order, err := OrderBy(s, req.Sort)
	if err != nil {
		return count, data, err
	}
	limit, err := ParseRange(s.Table(), req.Range)
	if err != nil {
		return count, data, err
	}

	hasPK := false
	for _, o := range order {
		if o.Field == pk.Name() {
			hasPK = true
		}
	}
	if !hasPK {
		order = append(order, queryir.Order{Field: pk.Name()})
	}

	filter := queryir.Conjoin(scope, search)
	count = queryir.Select{From: s.Table(), Count: true, Filter: filter}
	data = queryir.Select{From: s.Table(), Filter: filter, OrderBy: order, Limit: limit}
	return count, data, nil
}
