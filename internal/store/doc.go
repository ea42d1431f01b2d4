// Package store is the execution engine behind the row-mapping layer: a
// pooled database handle that hands out pinned connections with the
// commit/rollback discipline the models rely on.
//
// # Connections
//
// Pool.Acquire returns a Conn bound to one physical connection. The first
// statement executed on a Conn begins a transaction; Commit and Rollback end
// it and the next statement begins a new one. Close rolls back anything
// uncommitted and returns the connection to the pool. Callers must Close
// every Conn they acquire: the SQLite store keeps a single open connection.
//
// # Statements
//
// Statements use "%s" as the parameter placeholder; it is rewritten to the
// driver's "?" outside quoted literals and identifiers, and "%%" becomes a
// literal "%". Statements that return rows (SELECT, WITH, SHOW, PRAGMA, ...)
// are fetched eagerly into a Cursor.
//
// PRAGMA statements run outside the transaction, since SQLite ignores
// PRAGMA foreign_keys inside one. Executing a PRAGMA while a transaction is
// open is an error.
//
// # Database Configuration
//
// SQLite:
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// MySQL:
//   - parseTime=true, loc=UTC: DATETIME columns scan into UTC time.Time
//   - 25 open / 5 idle connections unless configured otherwise
package store
