package model

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/roach88/rowmodel/internal/dberr"
	"github.com/roach88/rowmodel/internal/query"
	"github.com/roach88/rowmodel/internal/queryir"
	"github.com/roach88/rowmodel/internal/schema"
	"github.com/roach88/rowmodel/internal/store"
)

// Models is a collection of rows of one table, staged for insert and delete.
//
// The transaction view is current followed by pending; indexes passed to At
// and Remove address it.
type Models struct {
	db     *DB
	schema *schema.Schema

	current []*Model
	pending []*Model
	deleted []*Model
}

// Page reports the size of a list result: the rows matching the request
// and the rows returned after the range was applied.
type Page struct {
	Total    int64 `json:"total"`
	Returned int   `json:"returned"`
}

// NewModels returns an empty collection.
func NewModels(db *DB, s *schema.Schema) *Models {
	return &Models{db: db, schema: s}
}

// All reads every row, ordered by primary key when one is declared. A
// missing table yields an empty collection.
func All(ctx context.Context, db *DB, s *schema.Schema) (*Models, error) {
	ms := NewModels(db, s)
	conn, err := db.acquire(ctx, s.Table())
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	exists, err := conn.HasTable(ctx, s.Table())
	if err != nil {
		return nil, dberr.Storage(s.Table(), err, "scan")
	}
	if !exists {
		return ms, nil
	}

	q := queryir.Select{From: s.Table()}
	if pk := s.PrimaryKey(); pk != nil {
		q.OrderBy = []queryir.Order{{Field: pk.Name()}}
	}
	cur, err := db.run(ctx, conn, s.Table(), "scan", q)
	if err != nil {
		return nil, err
	}
	if err := ms.hydrate(cur); err != nil {
		return nil, err
	}
	return ms, nil
}

// QueryAll reads the rows of a raw statement. Placeholders are %s.
func QueryAll(ctx context.Context, db *DB, s *schema.Schema, sql string, params ...any) (*Models, error) {
	conn, err := db.acquire(ctx, s.Table())
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	cur, err := conn.Execute(ctx, sql, params...)
	if err != nil {
		return nil, dberr.Storage(s.Table(), err, "query")
	}
	ms := NewModels(db, s)
	if err := ms.hydrate(cur); err != nil {
		return nil, err
	}
	return ms, nil
}

// List runs the API read path: a count query and a data query sharing the
// request's context and search predicates, the data query sorted and
// ranged. Request parameters are validated before anything executes.
func List(ctx context.Context, db *DB, s *schema.Schema, req *query.Request) (*Models, Page, error) {
	countQ, dataQ, err := query.ListQueries(s, req)
	if err != nil {
		return nil, Page{}, err
	}
	if countQ.Filter, err = bindFilter(db, s, countQ.Filter); err != nil {
		return nil, Page{}, err
	}
	dataQ.Filter = countQ.Filter

	conn, err := db.acquire(ctx, s.Table())
	if err != nil {
		return nil, Page{}, err
	}
	defer conn.Close()

	ms := NewModels(db, s)
	exists, err := conn.HasTable(ctx, s.Table())
	if err != nil {
		return nil, Page{}, dberr.Storage(s.Table(), err, "list")
	}
	if !exists {
		return ms, Page{}, nil
	}

	cur, err := db.run(ctx, conn, s.Table(), "list count", countQ)
	if err != nil {
		return nil, Page{}, err
	}
	total, err := cur.Count()
	if err != nil {
		return nil, Page{}, dberr.Storage(s.Table(), err, "list count")
	}

	cur, err = db.run(ctx, conn, s.Table(), "list", dataQ)
	if err != nil {
		return nil, Page{}, err
	}
	if err := ms.hydrate(cur); err != nil {
		return nil, Page{}, err
	}
	return ms, Page{Total: total, Returned: ms.Len()}, nil
}

// bindFilter encodes the equality values of a request predicate for the
// backend. Search patterns stay text.
func bindFilter(db *DB, s *schema.Schema, p queryir.Predicate) (queryir.Predicate, error) {
	switch t := p.(type) {
	case queryir.Equals:
		if t.Value == nil {
			return t, nil
		}
		v, err := bindValue(db, s, t.Field, t.Value)
		return queryir.Equals{Field: t.Field, Value: v}, err
	case queryir.And:
		out := make([]queryir.Predicate, len(t.Predicates))
		for i, sub := range t.Predicates {
			b, err := bindFilter(db, s, sub)
			if err != nil {
				return nil, err
			}
			out[i] = b
		}
		return queryir.And{Predicates: out}, nil
	}
	return p, nil
}

func bindValue(db *DB, s *schema.Schema, name string, v any) (any, error) {
	f := s.Lookup(name)
	if f == nil {
		return v, nil
	}
	parsed, err := f.Parse(v)
	if err != nil {
		return nil, err
	}
	return db.bind(s, name, parsed)
}

func (ms *Models) hydrate(cur *store.Cursor) error {
	for _, row := range cur.Fetchall() {
		m, err := hydrate(ms.db, ms.schema, row)
		if err != nil {
			return err
		}
		ms.current = append(ms.current, m)
	}
	return nil
}

// Schema returns the collection's schema.
func (ms *Models) Schema() *schema.Schema { return ms.schema }

// New stages a NEW row bound to the collection's schema.
func (ms *Models) New() *Model {
	m := New(ms.db, ms.schema)
	ms.pending = append(ms.pending, m)
	return m
}

// Append stages a NEW row holding record. On a validation failure the row
// is not staged.
func (ms *Models) Append(record map[string]any) (*Model, error) {
	m := ms.New()
	if err := m.Update(record); err != nil {
		ms.pending = ms.pending[:len(ms.pending)-1]
		return nil, err
	}
	return m, nil
}

// Transaction returns current followed by pending rows.
func (ms *Models) Transaction() []*Model {
	out := make([]*Model, 0, len(ms.current)+len(ms.pending))
	out = append(out, ms.current...)
	return append(out, ms.pending...)
}

// Len returns the size of the transaction view.
func (ms *Models) Len() int { return len(ms.current) + len(ms.pending) }

// At returns row i of the transaction view.
func (ms *Models) At(i int) *Model {
	if i < len(ms.current) {
		return ms.current[i]
	}
	return ms.pending[i-len(ms.current)]
}

// Pending returns the rows staged for insert.
func (ms *Models) Pending() []*Model { return append([]*Model(nil), ms.pending...) }

// Deleted returns the rows staged for delete.
func (ms *Models) Deleted() []*Model { return append([]*Model(nil), ms.deleted...) }

// Remove stages row i of the transaction view for delete. A pending row is
// discarded outright.
func (ms *Models) Remove(i int) error {
	if i < 0 || i >= ms.Len() {
		return fmt.Errorf("remove: index %d out of range [0, %d)", i, ms.Len())
	}
	if i < len(ms.current) {
		ms.deleted = append(ms.deleted, ms.current[i])
		ms.current = append(ms.current[:i:i], ms.current[i+1:]...)
		return nil
	}
	j := i - len(ms.current)
	ms.pending = append(ms.pending[:j:j], ms.pending[j+1:]...)
	return nil
}

// Commit deletes the removed rows, commits every row of the transaction and
// folds pending rows into current. It stops at the first failing row; rows
// committed before it stay committed.
func (ms *Models) Commit(ctx context.Context) error {
	if len(ms.deleted) > 0 {
		if err := ms.deleteRows(ctx); err != nil {
			return err
		}
	}
	for _, m := range ms.Transaction() {
		if err := m.Commit(ctx); err != nil {
			return err
		}
	}
	ms.current = append(ms.current, ms.pending...)
	ms.pending = nil
	return nil
}

func (ms *Models) deleteRows(ctx context.Context) error {
	table := ms.schema.Table()
	pk, err := ms.schema.RequirePrimaryKey("delete")
	if err != nil {
		return err
	}
	conn, err := ms.db.acquire(ctx, table)
	if err != nil {
		return err
	}
	defer conn.Close()

	for _, m := range ms.deleted {
		id := m.current[pk.Name()]
		if id == nil {
			return dberr.New(dberr.ErrNotFound, table, "delete: row has no committed %s", pk.Name())
		}
		key, err := ms.db.bind(ms.schema, pk.Name(), id)
		if err != nil {
			return err
		}
		q := queryir.Delete{From: table, Filter: queryir.Equals{Field: pk.Name(), Value: key}}
		if _, err := ms.db.run(ctx, conn, table, "delete", q); err != nil {
			return err
		}
	}
	if err := conn.Commit(); err != nil {
		return dberr.Storage(table, err, "delete")
	}
	ms.db.logger.Debug("rows deleted", "table", table, "rows", len(ms.deleted))
	ms.deleted = nil
	return nil
}

// Rollback rolls back every row, restores removed rows into current and
// discards pending rows.
func (ms *Models) Rollback() {
	for _, m := range ms.current {
		m.Rollback()
	}
	for _, m := range ms.deleted {
		m.Rollback()
	}
	ms.current = append(ms.current, ms.deleted...)
	ms.deleted = nil
	ms.pending = nil
}

// MarshalJSON renders the transaction view as an array of rows.
func (ms *Models) MarshalJSON() ([]byte, error) {
	rows := ms.Transaction()
	if rows == nil {
		rows = []*Model{}
	}
	return json.Marshal(rows)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
