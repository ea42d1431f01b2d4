package dialect

import (
	"context"
	"log/slog"

	"github.com/roach88/rowmodel/internal/dberr"
	"github.com/roach88/rowmodel/internal/queryir"
	"github.com/roach88/rowmodel/internal/querysql"
	"github.com/roach88/rowmodel/internal/schema"
	"github.com/roach88/rowmodel/internal/store"
)

type fkToggle func(ctx context.Context, conn store.Conn, enabled bool) error

// bdcr backs up every row, drops and recreates the table, then replays the
// backup restricted to the columns still declared. A table created from
// nothing receives the schema's default rows instead. Foreign key
// enforcement is off for the duration so the drop never cascades.
func bdcr(ctx context.Context, d Driver, conn store.Conn, s *schema.Schema, toggle fkToggle, logger *slog.Logger) (rep Report, err error) {
	table := s.Table()
	stmts, err := d.CreateStatements(s)
	if err != nil {
		return rep, err
	}
	rep = Report{Table: table, Statements: stmts}

	if err := toggle(ctx, conn, false); err != nil {
		return rep, dberr.Storage(table, err, "disable foreign keys")
	}
	defer func() {
		if rbErr := conn.Rollback(); rbErr != nil && err == nil {
			err = dberr.Storage(table, rbErr, "rollback")
		}
		if fkErr := toggle(ctx, conn, true); fkErr != nil && err == nil {
			err = dberr.Storage(table, fkErr, "enable foreign keys")
		}
	}()

	exists, err := conn.HasTable(ctx, table)
	if err != nil {
		return rep, dberr.Storage(table, err, "backup")
	}

	var backup *store.Cursor
	if exists {
		rep.Existed = true
		backup, err = conn.Execute(ctx, "SELECT * FROM "+querysql.Quote(table))
		if err != nil {
			return rep, dberr.Storage(table, err, "backup")
		}
		if err := conn.Commit(); err != nil {
			return rep, dberr.Storage(table, err, "backup")
		}
		rep.BackedUp = backup.Len()
		logger.Info("table backed up", "table", table, "rows", rep.BackedUp)

		if _, err := conn.Execute(ctx, "DROP TABLE "+querysql.Quote(table)); err != nil {
			return rep, dberr.Storage(table, err, "drop")
		}
	}

	for _, stmt := range stmts {
		if _, err := conn.Execute(ctx, stmt); err != nil {
			return rep, dberr.Storage(table, err, "create")
		}
	}

	if exists {
		var cols []string
		for _, c := range backup.Columns {
			if s.HasColumn(c) {
				cols = append(cols, c)
			} else {
				rep.Dropped = append(rep.Dropped, c)
			}
		}
		if len(cols) > 0 {
			for _, row := range backup.Rows {
				if err := insertRow(ctx, conn, table, cols, row.Values(cols)); err != nil {
					return rep, err
				}
				rep.Restored++
			}
		}
	} else {
		columns := s.Columns()
		names := s.ColumnNames()
		for _, row := range s.DefaultRows() {
			vals := make([]any, len(columns))
			for i, f := range columns {
				v, err := f.Store(row[i])
				if err != nil {
					return rep, err
				}
				vals[i] = d.Bind(f, v)
			}
			if err := insertRow(ctx, conn, table, names, vals); err != nil {
				return rep, err
			}
			rep.Defaults++
		}
	}

	if err := conn.Commit(); err != nil {
		return rep, dberr.Storage(table, err, "restore")
	}
	logger.Info("table synchronized",
		"table", table,
		"driver", d.Name(),
		"restored", rep.Restored,
		"defaults", rep.Defaults,
		"dropped_columns", len(rep.Dropped))
	return rep, nil
}

func insertRow(ctx context.Context, conn store.Conn, table string, cols []string, vals []any) error {
	sql, params, err := querysql.NewCompiler().Compile(queryir.Insert{Into: table, Columns: cols, Values: vals})
	if err != nil {
		return dberr.Wrap(dberr.ErrSchema, table, err, "restore")
	}
	if _, err := conn.Execute(ctx, sql, params...); err != nil {
		return dberr.Storage(table, err, "restore")
	}
	return nil
}
