package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrConnClosed is returned by operations on a closed Conn.
var ErrConnClosed = errors.New("connection closed")

// Conn is a pinned database connection with an implicit transaction.
type Conn interface {
	// Execute runs one statement with positional parameters.
	Execute(ctx context.Context, query string, params ...any) (*Cursor, error)

	// Commit commits the open transaction, if any.
	Commit() error

	// Rollback discards the open transaction, if any.
	Rollback() error

	// Close rolls back uncommitted work and releases the connection.
	Close() error

	// HasTable reports whether table exists in the current database.
	HasTable(ctx context.Context, table string) (bool, error)

	// LastRowID returns the id generated by the most recent INSERT.
	LastRowID() int64
}

type conn struct {
	driver string
	c      *sql.Conn
	tx     *sql.Tx
	lastID int64
	closed bool
}

func (c *conn) Execute(ctx context.Context, query string, params ...any) (*Cursor, error) {
	if c.closed {
		return nil, ErrConnClosed
	}
	stmt := rewritePlaceholders(query)

	switch statementKind(stmt) {
	case kindPragma:
		if c.tx != nil {
			return nil, fmt.Errorf("execute %q: pragma inside an open transaction", firstLine(stmt))
		}
		rows, err := c.c.QueryContext(ctx, stmt, params...)
		if err != nil {
			return nil, fmt.Errorf("execute %q: %w", firstLine(stmt), err)
		}
		return fetch(rows)

	case kindQuery:
		if err := c.begin(ctx); err != nil {
			return nil, err
		}
		rows, err := c.tx.QueryContext(ctx, stmt, params...)
		if err != nil {
			return nil, fmt.Errorf("execute %q: %w", firstLine(stmt), err)
		}
		return fetch(rows)
	}

	if err := c.begin(ctx); err != nil {
		return nil, err
	}
	res, err := c.tx.ExecContext(ctx, stmt, params...)
	if err != nil {
		return nil, fmt.Errorf("execute %q: %w", firstLine(stmt), err)
	}
	cur := &Cursor{}
	if n, err := res.RowsAffected(); err == nil {
		cur.RowsAffected = n
	}
	if id, err := res.LastInsertId(); err == nil {
		cur.LastInsertID = id
		if id != 0 {
			c.lastID = id
		}
	}
	return cur, nil
}

func (c *conn) begin(ctx context.Context) error {
	if c.tx != nil {
		return nil
	}
	tx, err := c.c.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	c.tx = tx
	return nil
}

func (c *conn) Commit() error {
	if c.closed {
		return ErrConnClosed
	}
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (c *conn) Rollback() error {
	if c.closed || c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

func (c *conn) Close() error {
	if c.closed {
		return nil
	}
	rbErr := c.Rollback()
	c.closed = true
	if err := c.c.Close(); err != nil {
		return fmt.Errorf("release connection: %w", err)
	}
	return rbErr
}

func (c *conn) HasTable(ctx context.Context, table string) (bool, error) {
	query := "SELECT count(*) AS total FROM sqlite_master WHERE type = 'table' AND name = %s"
	if c.driver == DriverMySQL {
		query = "SELECT count(*) AS total FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = %s"
	}
	cur, err := c.Execute(ctx, query, table)
	if err != nil {
		return false, fmt.Errorf("has table %s: %w", table, err)
	}
	n, err := cur.Count()
	if err != nil {
		return false, fmt.Errorf("has table %s: %w", table, err)
	}
	return n > 0, nil
}

func (c *conn) LastRowID() int64 {
	return c.lastID
}
