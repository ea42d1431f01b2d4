// Package dialect renders model schemas into backend DDL, encodes values for
// the backend and synchronizes tables with the Backup, Drop, Create, Restore
// (BDCR) procedure.
package dialect

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/roach88/rowmodel/internal/dberr"
	"github.com/roach88/rowmodel/internal/field"
	"github.com/roach88/rowmodel/internal/schema"
	"github.com/roach88/rowmodel/internal/store"
)

// Driver is one SQL backend family.
type Driver interface {
	// Name is the canonical database type ("mysql", "sqlite3").
	Name() string

	// ColumnType renders the column type of a data field.
	ColumnType(f *field.Field) (string, error)

	// CreateStatements renders the statements creating the table and its
	// indexes.
	CreateStatements(s *schema.Schema) ([]string, error)

	// Bind encodes a stored field value for the backend.
	Bind(f *field.Field, v any) any

	// Create executes CreateStatements and commits.
	Create(ctx context.Context, conn store.Conn, s *schema.Schema) error

	// BDCR rebuilds the table from the schema, preserving existing rows.
	BDCR(ctx context.Context, conn store.Conn, s *schema.Schema) (Report, error)
}

// Report summarizes one BDCR run.
type Report struct {
	Table      string   `json:"table"`
	Existed    bool     `json:"existed"`
	BackedUp   int      `json:"backed_up"`
	Restored   int      `json:"restored"`
	Defaults   int      `json:"defaults"`
	Dropped    []string `json:"dropped,omitempty"` // backed-up columns no longer in the schema
	Statements []string `json:"statements,omitempty"`
}

// Option configures a driver returned by Lookup.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for BDCR progress.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

var registry = map[string]func(options) Driver{
	"mysql":   func(o options) Driver { return &MySQL{logger: o.logger} },
	"mariadb": func(o options) Driver { return &MySQL{logger: o.logger} },
	"sqlite3": func(o options) Driver { return &SQLite{logger: o.logger} },
	"sqlite":  func(o options) Driver { return &SQLite{logger: o.logger} },
}

// Lookup resolves a database type name (case-insensitive) to a driver.
func Lookup(name string, opts ...Option) (Driver, error) {
	ctor, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, dberr.New(dberr.ErrSchema, "", "unknown database type %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return ctor(o), nil
}

// Names lists the accepted database type names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func create(ctx context.Context, d Driver, conn store.Conn, s *schema.Schema) error {
	stmts, err := d.CreateStatements(s)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := conn.Execute(ctx, stmt); err != nil {
			return dberr.Storage(s.Table(), err, "create table")
		}
	}
	if err := conn.Commit(); err != nil {
		return dberr.Storage(s.Table(), err, "create table")
	}
	return nil
}

func enumList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return strings.Join(quoted, ",")
}

func unsupported(f *field.Field, backend string) error {
	return dberr.New(dberr.ErrSchema, "", "field %s: %s has no %s column type", f.Name(), f.Kind(), backend)
}

func withLength(base string, n int) string {
	if n > 0 {
		return fmt.Sprintf("%s(%d)", base, n)
	}
	return base
}
