// Package model maps table rows to staged, validated Go values.
//
// A Model is one row. It keeps the committed state (current) apart from
// pending writes (new) and moves through three states:
//
//	NEW     constructed, not yet persisted
//	LOADED  hydrated from the database, no pending writes
//	DIRTY   loaded, with pending writes
//
// Commit turns a NEW row into an INSERT and a DIRTY row into an UPDATE, then
// folds the pending writes into the committed state. Models is a collection
// of rows staged for insert and delete as one unit.
//
// Every operation acquires its own connection from the DB's pool and
// releases it on all exit paths.
package model

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/rowmodel/internal/config"
	"github.com/roach88/rowmodel/internal/dberr"
	"github.com/roach88/rowmodel/internal/dialect"
	"github.com/roach88/rowmodel/internal/queryir"
	"github.com/roach88/rowmodel/internal/querysql"
	"github.com/roach88/rowmodel/internal/schema"
	"github.com/roach88/rowmodel/internal/store"
)

// DB binds a connection pool to the dialect driver of its backend.
type DB struct {
	pool     store.Pool
	driver   dialect.Driver
	logger   *slog.Logger
	compiler *querysql.Compiler
	closer   func() error
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(db *DB) { db.logger = l }
}

// NewDB creates a DB over an existing pool.
func NewDB(pool store.Pool, driver dialect.Driver, opts ...Option) *DB {
	db := &DB{
		pool:     pool,
		driver:   driver,
		logger:   slog.Default(),
		compiler: querysql.NewCompiler(),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Open resolves the driver named by database.type and connects to the
// configured database.
func Open(cfg *config.Config, opts ...Option) (*DB, error) {
	dbType, ok := cfg.Get("database.type")
	if !ok {
		dbType = cfg.Database.Type
	}
	base := NewDB(nil, nil, opts...)
	driver, err := dialect.Lookup(dbType, dialect.WithLogger(base.logger))
	if err != nil {
		return nil, err
	}
	st, err := store.Open(store.Config{
		Driver:       driver.Name(),
		DSN:          cfg.Database.DSN,
		Database:     cfg.Database.Database,
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		Username:     cfg.Database.Username,
		Password:     cfg.Database.Password,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return nil, dberr.Storage("", err, "open database")
	}
	db := NewDB(st, driver, opts...)
	db.closer = st.Close
	return db, nil
}

// Close releases the pool when the DB opened it.
func (db *DB) Close() error {
	if db.closer == nil {
		return nil
	}
	return db.closer()
}

// Driver returns the dialect driver.
func (db *DB) Driver() dialect.Driver { return db.driver }

// Sync rebuilds the table of s with BDCR. It needs exclusive access to the
// table for its duration.
func (db *DB) Sync(ctx context.Context, s *schema.Schema) (dialect.Report, error) {
	if _, err := s.RequirePrimaryKey("sync"); err != nil {
		return dialect.Report{}, err
	}
	conn, err := db.acquire(ctx, s.Table())
	if err != nil {
		return dialect.Report{}, err
	}
	defer conn.Close()
	db.logger.Debug("syncing table", "table", s.Table(), "driver", db.driver.Name(), "fingerprint", s.Fingerprint())
	return db.driver.BDCR(ctx, conn, s)
}

// CreateTable issues the CREATE statements of s.
func (db *DB) CreateTable(ctx context.Context, s *schema.Schema) error {
	conn, err := db.acquire(ctx, s.Table())
	if err != nil {
		return err
	}
	defer conn.Close()
	return db.driver.Create(ctx, conn, s)
}

func (db *DB) acquire(ctx context.Context, table string) (store.Conn, error) {
	conn, err := db.pool.Acquire(ctx)
	if err != nil {
		return nil, dberr.Storage(table, err, "acquire connection")
	}
	return conn, nil
}

// run compiles q and executes it on conn.
func (db *DB) run(ctx context.Context, conn store.Conn, table, op string, q queryir.Query) (*store.Cursor, error) {
	sql, params, err := db.compiler.Compile(q)
	if err != nil {
		return nil, dberr.Wrap(dberr.ErrSchema, table, err, "%s", op)
	}
	db.logger.Debug("execute", "table", table, "op", op, "sql", sql)
	cur, err := conn.Execute(ctx, sql, params...)
	if err != nil {
		return nil, dberr.Storage(table, err, op)
	}
	return cur, nil
}

// bind encodes a parsed value of the named column for the backend.
func (db *DB) bind(s *schema.Schema, name string, v any) (any, error) {
	f := s.Lookup(name)
	if f == nil {
		return nil, fmt.Errorf("unknown column %q", name)
	}
	stored, err := f.Store(v)
	if err != nil {
		return nil, err
	}
	return db.driver.Bind(f, stored), nil
}
