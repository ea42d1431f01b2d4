package store

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// Config selects and locates the database.
type Config struct {
	// Driver is DriverSQLite or DriverMySQL.
	Driver string

	// DSN is passed to the driver verbatim when set.
	DSN string

	// Database is the SQLite file path or the MySQL schema name.
	Database string

	Host     string
	Port     int
	Username string
	Password string

	// Pool sizing; zero keeps the per-driver default.
	MaxOpenConns int
	MaxIdleConns int
}

// Pool hands out connections.
type Pool interface {
	Acquire(ctx context.Context) (Conn, error)
}

// Store is a database handle for one of the supported drivers.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the configured database and verifies the connection.
func Open(cfg Config) (*Store, error) {
	driver, dsn, err := resolve(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	switch driver {
	case DriverSQLite:
		// SQLite only supports one writer at a time, so limit connections
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	case DriverMySQL:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	return &Store{db: db, driver: driver}, nil
}

// OpenSQLite opens (creating if needed) the SQLite database at path.
func OpenSQLite(path string) (*Store, error) {
	return Open(Config{Driver: DriverSQLite, Database: path})
}

func resolve(cfg Config) (driver, dsn string, err error) {
	switch strings.ToLower(cfg.Driver) {
	case "sqlite", "sqlite3":
		driver = DriverSQLite
		dsn = cfg.DSN
		if dsn == "" {
			dsn = cfg.Database
		}
		if dsn == "" {
			return "", "", fmt.Errorf("sqlite3: database path is required")
		}
	case "mysql", "mariadb":
		driver = DriverMySQL
		dsn = cfg.DSN
		if dsn == "" {
			dsn = MySQLDSN(cfg)
		}
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	return driver, dsn, nil
}

// MySQLDSN builds a go-sql-driver DSN from the discrete settings.
func MySQLDSN(cfg Config) string {
	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}
	mc.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	mc.DBName = cfg.Database
	mc.ParseTime = true
	mc.Loc = time.UTC
	// RowsAffected counts matched rows, not changed rows.
	mc.ClientFoundRows = true
	return mc.FormatDSN()
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer Acquire.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver returns DriverSQLite or DriverMySQL.
func (s *Store) Driver() string {
	return s.driver
}

// Acquire pins a connection from the pool.
func (s *Store) Acquire(ctx context.Context) (Conn, error) {
	c, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &conn{driver: s.driver, c: c}, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
