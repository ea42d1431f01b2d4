package dialect

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/rowmodel/internal/dberr"
	"github.com/roach88/rowmodel/internal/field"
	"github.com/roach88/rowmodel/internal/querysql"
	"github.com/roach88/rowmodel/internal/schema"
	"github.com/roach88/rowmodel/internal/store"
)

// SQLite renders SQLite DDL. DateTime columns hold Unix epoch seconds.
type SQLite struct {
	logger *slog.Logger
}

func (d *SQLite) Name() string { return store.DriverSQLite }

func (d *SQLite) ColumnType(f *field.Field) (string, error) {
	k := f.Type()
	switch {
	case k.IsText(), k == field.KindObject:
		return "TEXT", nil
	case k.IsInteger(), k == field.KindBoolean, k == field.KindDateTime:
		return "INTEGER", nil
	case k.IsFloat(), k == field.KindDecimal:
		return "REAL", nil
	case k.IsBlob():
		return "BLOB", nil
	}
	return "", unsupported(f, "SQLite")
}

func (d *SQLite) CreateStatements(s *schema.Schema) ([]string, error) {
	pk, err := s.RequirePrimaryKey("create table")
	if err != nil {
		return nil, err
	}

	var defs []string
	for _, f := range s.Columns() {
		typ, err := d.ColumnType(f)
		if err != nil {
			return nil, dberr.Wrap(dberr.ErrSchema, s.Table(), err, "create table")
		}
		def := querysql.Quote(f.Name()) + " " + typ
		switch {
		case f == pk && s.AutoIncrement():
			// INTEGER PRIMARY KEY aliases the rowid.
			def += " PRIMARY KEY"
		case f == pk:
			def += " NOT NULL PRIMARY KEY"
		case !f.Nullable():
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}

	var indexes []string
	for _, f := range s.Fields() {
		switch f.Type() {
		case field.KindForeignKey:
			defs = append(defs, "CONSTRAINT "+querysql.Quote(f.Name())+" "+foreignKeyClause(f))
		case field.KindUniqueIndex:
			indexes = append(indexes, fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s (%s)",
				querysql.Quote(f.Name()), querysql.Quote(s.Table()), querysql.QuoteList(f.Columns())))
		case field.KindIndex:
			indexes = append(indexes, fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
				querysql.Quote(f.Name()), querysql.Quote(s.Table()), querysql.QuoteList(f.Columns())))
		}
	}

	table := fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", querysql.Quote(s.Table()), strings.Join(defs, ",\n  "))
	return append([]string{table}, indexes...), nil
}

func (d *SQLite) Bind(f *field.Field, v any) any {
	if t, ok := v.(time.Time); ok && f.Type() == field.KindDateTime {
		return t.Unix()
	}
	return v
}

func (d *SQLite) Create(ctx context.Context, conn store.Conn, s *schema.Schema) error {
	return create(ctx, d, conn, s)
}

func (d *SQLite) BDCR(ctx context.Context, conn store.Conn, s *schema.Schema) (Report, error) {
	return bdcr(ctx, d, conn, s, d.foreignKeys, d.logger)
}

// foreignKeys toggles PRAGMA foreign_keys. The pragma is a no-op inside a
// transaction, so any open one is rolled back first.
func (d *SQLite) foreignKeys(ctx context.Context, conn store.Conn, enabled bool) error {
	if err := conn.Rollback(); err != nil {
		return err
	}
	v := "OFF"
	if enabled {
		v = "ON"
	}
	_, err := conn.Execute(ctx, "PRAGMA foreign_keys = "+v)
	return err
}
