package dialect

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/rowmodel/internal/dberr"
	"github.com/roach88/rowmodel/internal/field"
	"github.com/roach88/rowmodel/internal/querysql"
	"github.com/roach88/rowmodel/internal/schema"
	"github.com/roach88/rowmodel/internal/store"
)

// MySQL renders MySQL/MariaDB DDL.
type MySQL struct {
	logger *slog.Logger
}

func (m *MySQL) Name() string { return store.DriverMySQL }

var mysqlIntTypes = map[field.Kind]string{
	field.KindTinyInt:   "tinyint",
	field.KindSmallInt:  "smallint",
	field.KindMediumInt: "mediumint",
	field.KindInteger:   "int",
	field.KindBigInt:    "bigint",
}

var mysqlPlainTypes = map[field.Kind]string{
	field.KindText:       "text",
	field.KindTinyText:   "tinytext",
	field.KindMediumText: "mediumtext",
	field.KindLongText:   "longtext",
	field.KindBlob:       "blob",
	field.KindTinyBlob:   "tinyblob",
	field.KindMediumBlob: "mediumblob",
	field.KindLongBlob:   "longblob",
	field.KindDateTime:   "datetime",
	field.KindObject:     "longtext",
	field.KindUUID:       "varchar(36)",
	field.KindBoolean:    "tinyint(1) UNSIGNED",
}

func (m *MySQL) ColumnType(f *field.Field) (string, error) {
	k := f.Type()
	if t, ok := mysqlPlainTypes[k]; ok {
		return t, nil
	}
	if t, ok := mysqlIntTypes[k]; ok {
		t = withLength(t, f.Length())
		if f.Signed() {
			return t + " SIGNED", nil
		}
		return t + " UNSIGNED", nil
	}

	switch k {
	case field.KindString:
		n := f.MaxLength()
		if n == 0 {
			n = 255
		}
		return fmt.Sprintf("varchar(%d)", n), nil
	case field.KindEnum:
		return "enum(" + enumList(f.EnumValues()) + ")", nil
	case field.KindFloat, field.KindDouble, field.KindDecimal:
		t := k.String()
		if p, d := f.Precision(); p > 0 {
			t = fmt.Sprintf("%s(%d,%d)", t, p, d)
		}
		if !f.Signed() {
			t += " UNSIGNED"
		}
		return t, nil
	}
	return "", unsupported(f, "MySQL")
}

func (m *MySQL) CreateStatements(s *schema.Schema) ([]string, error) {
	pk, err := s.RequirePrimaryKey("create table")
	if err != nil {
		return nil, err
	}

	var defs []string
	for _, f := range s.Columns() {
		typ, err := m.ColumnType(f)
		if err != nil {
			return nil, dberr.Wrap(dberr.ErrSchema, s.Table(), err, "create table")
		}
		def := querysql.Quote(f.Name()) + " " + typ
		if !f.Nullable() || f == pk {
			def += " NOT NULL"
		}
		if f == pk && s.AutoIncrement() {
			def += " AUTO_INCREMENT"
		}
		defs = append(defs, def)
	}
	defs = append(defs, "PRIMARY KEY ("+querysql.Quote(pk.Name())+")")

	for _, f := range s.Fields() {
		switch f.Type() {
		case field.KindUniqueIndex:
			defs = append(defs, fmt.Sprintf("UNIQUE KEY %s (%s)", querysql.Quote(f.Name()), querysql.QuoteList(f.Columns())))
		case field.KindIndex:
			defs = append(defs, fmt.Sprintf("KEY %s (%s)", querysql.Quote(f.Name()), querysql.QuoteList(f.Columns())))
		case field.KindForeignKey:
			defs = append(defs, "CONSTRAINT "+querysql.Quote(f.Name())+" "+foreignKeyClause(f))
		}
	}

	stmt := fmt.Sprintf("CREATE TABLE %s (\n  %s\n) ENGINE=%s DEFAULT CHARSET=%s",
		querysql.Quote(s.Table()),
		strings.Join(defs, ",\n  "),
		s.Engine(),
		s.Charset())
	return []string{stmt}, nil
}

func (m *MySQL) Bind(f *field.Field, v any) any {
	return v
}

func (m *MySQL) Create(ctx context.Context, conn store.Conn, s *schema.Schema) error {
	return create(ctx, m, conn, s)
}

func (m *MySQL) BDCR(ctx context.Context, conn store.Conn, s *schema.Schema) (Report, error) {
	return bdcr(ctx, m, conn, s, m.foreignKeys, m.logger)
}

// foreignKeys toggles FOREIGN_KEY_CHECKS for the session.
func (m *MySQL) foreignKeys(ctx context.Context, conn store.Conn, enabled bool) error {
	v := 0
	if enabled {
		v = 1
	}
	if _, err := conn.Execute(ctx, fmt.Sprintf("SET FOREIGN_KEY_CHECKS = %d", v)); err != nil {
		return err
	}
	return conn.Commit()
}

func foreignKeyClause(f *field.Field) string {
	table, refs := f.References()
	onDelete, onUpdate := f.Actions()
	return fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s) ON DELETE %s ON UPDATE %s",
		querysql.QuoteList(f.Columns()),
		querysql.Quote(table),
		querysql.QuoteList(refs),
		onDelete,
		onUpdate)
}
