package model

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/rowmodel/internal/dberr"
	"github.com/roach88/rowmodel/internal/field"
	"github.com/roach88/rowmodel/internal/query"
	"github.com/roach88/rowmodel/internal/queryir"
	"github.com/roach88/rowmodel/internal/schema"
	"github.com/roach88/rowmodel/internal/store"
)

// Model is one row of a table.
//
// Model is not safe for concurrent use.
type Model struct {
	db     *DB
	schema *schema.Schema

	current map[string]any
	pending map[string]any

	created bool
	updated bool

	// err holds a default that failed to parse; Commit reports it until
	// errField is set to a valid value.
	err      error
	errField string
}

func newModel(db *DB, s *schema.Schema) *Model {
	return &Model{
		db:      db,
		schema:  s,
		current: make(map[string]any),
		pending: make(map[string]any),
	}
}

// New returns a NEW row with every declared default applied.
func New(db *DB, s *schema.Schema) *Model {
	m := newModel(db, s)
	m.created = true
	for _, f := range s.Fields() {
		if f.IsPseudo() {
			continue
		}
		v, ok := f.Default()
		if !ok {
			continue
		}
		parsed, err := f.Parse(v)
		if err != nil {
			if m.err == nil {
				m.err, m.errField = err, f.Name()
			}
			continue
		}
		m.pending[f.Name()] = parsed
	}
	return m
}

// Load reads the row whose primary key equals id, scoped by the request
// context. Zero rows is ErrNotFound and more than one is ErrMultipleRows.
func Load(ctx context.Context, db *DB, s *schema.Schema, id any, req *query.Request) (*Model, error) {
	pk, err := s.RequirePrimaryKey("load")
	if err != nil {
		return nil, err
	}
	key, err := pk.Parse(id)
	if err != nil {
		return nil, err
	}
	bound, err := db.bind(s, pk.Name(), key)
	if err != nil {
		return nil, dberr.Wrap(dberr.ErrValidation, s.Table(), err, "load")
	}

	conn, err := db.acquire(ctx, s.Table())
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	exists, err := conn.HasTable(ctx, s.Table())
	if err != nil {
		return nil, dberr.Storage(s.Table(), err, "load")
	}
	if !exists {
		return nil, dberr.New(dberr.ErrNotFound, s.Table(), "no row with %s %v", pk.Name(), key)
	}

	filter := queryir.Conjoin(queryir.Equals{Field: pk.Name(), Value: bound}, query.ContextPredicate(s, req))
	cur, err := db.run(ctx, conn, s.Table(), "load", queryir.Select{From: s.Table(), Filter: filter})
	if err != nil {
		return nil, err
	}
	return single(db, s, cur, fmt.Sprintf("%s %v", pk.Name(), key))
}

// Query reads exactly one row with a raw statement. Placeholders are %s.
func Query(ctx context.Context, db *DB, s *schema.Schema, sql string, params ...any) (*Model, error) {
	conn, err := db.acquire(ctx, s.Table())
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	cur, err := conn.Execute(ctx, sql, params...)
	if err != nil {
		return nil, dberr.Storage(s.Table(), err, "query")
	}
	return single(db, s, cur, "query")
}

func single(db *DB, s *schema.Schema, cur *store.Cursor, what string) (*Model, error) {
	switch cur.Len() {
	case 0:
		return nil, dberr.New(dberr.ErrNotFound, s.Table(), "no row for %s", what)
	case 1:
		return hydrate(db, s, cur.Fetchone())
	default:
		return nil, dberr.New(dberr.ErrMultipleRows, s.Table(), "%d rows for %s", cur.Len(), what)
	}
}

// hydrate builds a LOADED row. Columns the schema does not declare are
// ignored.
func hydrate(db *DB, s *schema.Schema, row store.Row) (*Model, error) {
	m := newModel(db, s)
	for _, f := range s.Columns() {
		raw, ok := row[f.Name()]
		if !ok {
			continue
		}
		v, err := f.Load(raw)
		if err != nil {
			return nil, dberr.Wrap(dberr.ErrStorage, s.Table(), err, "load column %s", f.Name())
		}
		m.current[f.Name()] = v
	}
	return m, nil
}

// Schema returns the row's schema.
func (m *Model) Schema() *schema.Schema { return m.schema }

// Created reports whether the row has not been persisted yet.
func (m *Model) Created() bool { return m.created }

// Updated reports whether a persisted row has pending writes.
func (m *Model) Updated() bool { return m.updated }

// Get returns the pending value of name, or its committed value.
func (m *Model) Get(name string) any {
	if v, ok := m.pending[name]; ok {
		return v
	}
	return m.current[name]
}

// ID returns the committed primary key value, or nil.
func (m *Model) ID() any {
	if pk := m.schema.PrimaryKey(); pk != nil {
		return m.current[pk.Name()]
	}
	return nil
}

// Set validates v through the field and stages it. A persisted primary key
// cannot be changed.
func (m *Model) Set(name string, v any) error {
	f := m.schema.Lookup(name)
	if f == nil || f.IsPseudo() {
		return &field.ValidationError{Field: name, Label: name, Description: "No such field", Value: v}
	}
	if pk := m.schema.PrimaryKey(); pk != nil && pk.Name() == name && m.current[name] != nil {
		return &field.ValidationError{Field: name, Label: f.Label(), Description: "Cannot alter primary key", Value: v}
	}
	parsed, err := f.Parse(v)
	if err != nil {
		return err
	}
	m.pending[name] = parsed
	if m.err != nil && m.errField == name {
		m.err, m.errField = nil, ""
	}
	if !m.created {
		m.updated = true
	}
	return nil
}

// Update stages every entry of values, in key order. It stops at the first
// failure; entries staged before it stay staged.
func (m *Model) Update(values map[string]any) error {
	for _, name := range sortedKeys(values) {
		if err := m.Set(name, values[name]); err != nil {
			return err
		}
	}
	return nil
}

// Commit persists the pending writes. A row that is neither NEW nor DIRTY
// is left alone.
func (m *Model) Commit(ctx context.Context) error {
	if m.err != nil {
		return m.err
	}
	if !m.created && !m.updated {
		return nil
	}
	pk, err := m.schema.RequirePrimaryKey("commit")
	if err != nil {
		return err
	}

	conn, err := m.db.acquire(ctx, m.schema.Table())
	if err != nil {
		return err
	}
	defer conn.Close()

	if m.created {
		return m.insert(ctx, conn, pk)
	}
	return m.update(ctx, conn, pk)
}

func (m *Model) insert(ctx context.Context, conn store.Conn, pk *field.Field) error {
	table := m.schema.Table()
	auto := m.schema.AutoIncrement()

	var cols []string
	var vals []any
	for _, f := range m.schema.Columns() {
		v, ok := m.pending[f.Name()]
		if !ok {
			if f == pk && auto {
				continue
			}
			if !f.Nullable() || f == pk {
				return &field.ValidationError{Field: f.Name(), Label: f.Label(), Description: "Empty field value (required)"}
			}
			continue
		}
		bound, err := m.db.bind(m.schema, f.Name(), v)
		if err != nil {
			return err
		}
		cols = append(cols, f.Name())
		vals = append(vals, bound)
	}

	if err := m.precheck(ctx, conn, nil); err != nil {
		return err
	}

	if len(cols) == 0 {
		cols, vals = []string{pk.Name()}, []any{nil}
	}
	if _, err := m.db.run(ctx, conn, table, "insert", queryir.Insert{Into: table, Columns: cols, Values: vals}); err != nil {
		return err
	}
	if err := conn.Commit(); err != nil {
		return dberr.Storage(table, err, "insert")
	}

	if v, ok := m.pending[pk.Name()]; (!ok || v == nil) && auto {
		id, err := pk.Parse(conn.LastRowID())
		if err != nil {
			return err
		}
		m.pending[pk.Name()] = id
	}
	m.db.logger.Debug("row inserted", "table", table, "id", m.pending[pk.Name()])
	m.fold()
	return nil
}

func (m *Model) update(ctx context.Context, conn store.Conn, pk *field.Field) error {
	table := m.schema.Table()

	changed := make(map[string]bool)
	for _, f := range m.schema.Columns() {
		v, ok := m.pending[f.Name()]
		if !ok || f == pk {
			continue
		}
		if old, had := m.current[f.Name()]; had && equal(old, v) {
			continue
		}
		if f.ReadOnly() {
			return &field.ValidationError{Field: f.Name(), Label: f.Label(), Description: "Read-only field", Value: v}
		}
		changed[f.Name()] = true
	}
	if len(changed) == 0 {
		m.fold()
		return nil
	}
	id := m.current[pk.Name()]
	if id == nil {
		return dberr.New(dberr.ErrNotFound, table, "update: row has no committed %s", pk.Name())
	}

	for _, f := range m.schema.Columns() {
		if f == pk || changed[f.Name()] {
			continue
		}
		if _, explicit := m.pending[f.Name()]; explicit {
			continue
		}
		v, ok := f.OnUpdateValue()
		if !ok {
			continue
		}
		parsed, err := f.Parse(v)
		if err != nil {
			return err
		}
		m.pending[f.Name()] = parsed
		changed[f.Name()] = true
	}

	if err := m.precheck(ctx, conn, changed); err != nil {
		return err
	}

	var set []queryir.Assignment
	for _, f := range m.schema.Columns() {
		if !changed[f.Name()] {
			continue
		}
		bound, err := m.db.bind(m.schema, f.Name(), m.pending[f.Name()])
		if err != nil {
			return err
		}
		set = append(set, queryir.Assignment{Field: f.Name(), Value: bound})
	}
	key, err := m.db.bind(m.schema, pk.Name(), id)
	if err != nil {
		return err
	}
	q := queryir.Update{Table: table, Set: set, Filter: queryir.Equals{Field: pk.Name(), Value: key}}
	cur, err := m.db.run(ctx, conn, table, "update", q)
	if err != nil {
		return err
	}
	if cur.RowsAffected == 0 {
		return dberr.New(dberr.ErrNotFound, table, "update: no row with %s %v", pk.Name(), id)
	}
	if err := conn.Commit(); err != nil {
		return dberr.Storage(table, err, "update")
	}
	m.db.logger.Debug("row updated", "table", table, "id", id, "columns", len(set))
	m.fold()
	return nil
}

// precheck enforces unique indexes and foreign keys before a write. For an
// update, only constraints over a changed column are checked. Rows with a
// NULL in the constrained columns are skipped.
func (m *Model) precheck(ctx context.Context, conn store.Conn, changed map[string]bool) error {
	table := m.schema.Table()
	pk := m.schema.PrimaryKey()

	touches := func(cols []string) bool {
		if changed == nil {
			return true
		}
		for _, c := range cols {
			if changed[c] {
				return true
			}
		}
		return false
	}

	for _, u := range m.schema.Constraints(field.KindUniqueIndex) {
		cols := u.Columns()
		if !touches(cols) {
			continue
		}
		preds, ok, err := m.matching(cols, cols)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if id := m.current[pk.Name()]; id != nil {
			key, err := m.db.bind(m.schema, pk.Name(), id)
			if err != nil {
				return err
			}
			preds = append(preds, queryir.NotEquals{Field: pk.Name(), Value: key})
		}
		n, err := m.count(ctx, conn, table, queryir.Conjoin(preds...))
		if err != nil {
			return err
		}
		if n > 0 {
			return dberr.New(dberr.ErrConstraint, table, "duplicate entry for unique index %s (%s)", u.Name(), strings.Join(cols, ", "))
		}
	}

	for _, fk := range m.schema.Constraints(field.KindForeignKey) {
		cols := fk.Columns()
		if !touches(cols) {
			continue
		}
		refTable, refCols := fk.References()
		preds, ok, err := m.matching(cols, refCols)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		exists, err := conn.HasTable(ctx, refTable)
		if err != nil {
			return dberr.Storage(table, err, "foreign key check")
		}
		if !exists {
			return dberr.New(dberr.ErrConstraint, table, "foreign key %s: referenced table %s does not exist", fk.Name(), refTable)
		}
		n, err := m.count(ctx, conn, refTable, queryir.Conjoin(preds...))
		if err != nil {
			return err
		}
		if n == 0 {
			return dberr.New(dberr.ErrConstraint, table, "foreign key %s: no row in %s matches (%s)", fk.Name(), refTable, strings.Join(cols, ", "))
		}
	}
	return nil
}

// matching builds equality predicates between the row's values of cols and
// the target columns. ok is false when any value is NULL.
func (m *Model) matching(cols, targets []string) (preds []queryir.Predicate, ok bool, err error) {
	for i, c := range cols {
		v := m.Get(c)
		if v == nil {
			return nil, false, nil
		}
		bound, err := m.db.bind(m.schema, c, v)
		if err != nil {
			return nil, false, err
		}
		preds = append(preds, queryir.Equals{Field: targets[i], Value: bound})
	}
	return preds, true, nil
}

func (m *Model) count(ctx context.Context, conn store.Conn, table string, filter queryir.Predicate) (int64, error) {
	cur, err := m.db.run(ctx, conn, m.schema.Table(), "constraint check", queryir.Select{From: table, Count: true, Filter: filter})
	if err != nil {
		return 0, err
	}
	n, err := cur.Count()
	if err != nil {
		return 0, dberr.Storage(m.schema.Table(), err, "constraint check")
	}
	return n, nil
}

// fold merges the pending writes into the committed state: NEW and DIRTY
// rows become LOADED.
func (m *Model) fold() {
	for k, v := range m.pending {
		m.current[k] = v
	}
	m.pending = make(map[string]any)
	m.created = false
	m.updated = false
}

// Rollback discards the pending writes. A DIRTY row returns to LOADED.
func (m *Model) Rollback() {
	m.pending = make(map[string]any)
	m.updated = false
}

// Delete removes the persisted row, scoped by the request context, and
// resets the Model to an empty NEW row.
func (m *Model) Delete(ctx context.Context, req *query.Request) error {
	table := m.schema.Table()
	pk, err := m.schema.RequirePrimaryKey("delete")
	if err != nil {
		return err
	}
	id := m.current[pk.Name()]
	if m.created || id == nil {
		return dberr.New(dberr.ErrNotFound, table, "delete: row is not persisted")
	}
	key, err := m.db.bind(m.schema, pk.Name(), id)
	if err != nil {
		return err
	}

	conn, err := m.db.acquire(ctx, table)
	if err != nil {
		return err
	}
	defer conn.Close()

	filter := queryir.Conjoin(queryir.Equals{Field: pk.Name(), Value: key}, query.ContextPredicate(m.schema, req))
	cur, err := m.db.run(ctx, conn, table, "delete", queryir.Delete{From: table, Filter: filter})
	if err != nil {
		return err
	}
	if cur.RowsAffected == 0 {
		return dberr.New(dberr.ErrNotFound, table, "no row with %s %v", pk.Name(), id)
	}
	if err := conn.Commit(); err != nil {
		return dberr.Storage(table, err, "delete")
	}
	m.current = make(map[string]any)
	m.pending = make(map[string]any)
	m.created = true
	m.updated = false
	return nil
}

// ToMap returns the row's values, pending writes over committed state.
func (m *Model) ToMap() map[string]any {
	out := make(map[string]any, len(m.current)+len(m.pending))
	for k, v := range m.current {
		out[k] = v
	}
	for k, v := range m.pending {
		out[k] = v
	}
	return out
}

// MarshalJSON renders the row without its hidden fields. Decimals render
// as strings, date-times in RFC 3339.
func (m *Model) MarshalJSON() ([]byte, error) {
	out := make(map[string]any)
	for k, v := range m.ToMap() {
		if f := m.schema.Lookup(k); f == nil || f.Hidden() {
			continue
		}
		switch t := v.(type) {
		case *apd.Decimal:
			out[k] = t.Text('f')
		case time.Time:
			out[k] = t.UTC().Format(time.RFC3339)
		default:
			out[k] = v
		}
	}
	return json.Marshal(out)
}

func equal(a, b any) bool {
	if da, ok := a.(*apd.Decimal); ok {
		if db, ok := b.(*apd.Decimal); ok {
			return da.Cmp(db) == 0
		}
		return false
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Equal(tb)
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}
