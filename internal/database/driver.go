package database

import (
	"context"

	"github.com/joacominatel/dbcnx/internal/config"
)

// Driver defines the interface for opening database sessions.
// All implementations must be safe for concurrent use.
type Driver interface {
	// Name returns the backend name ("postgres", "mysql", "sqlite").
	Name() string

	// Connect opens a single session, authenticated and using UTF-8.
	Connect(ctx context.Context, conn config.Connection) (Conn, error)

	// OpenPool opens a fixed-size pool of pre-established sessions.
	OpenPool(ctx context.Context, conn config.Connection, size int) (Pool, error)
}

// Conn is one live database session. A Conn is never shared between two
// callers at the same time. Statements run inside an implicit transaction
// that is ended by Commit or Rollback.
type Conn interface {
	// Query executes a statement and returns its rows.
	Query(ctx context.Context, query string, args ...any) (Rows, error)

	// Exec executes a statement that returns no rows.
	Exec(ctx context.Context, query string, args ...any) error

	// ExecBatch prepares query once and executes it for every value set.
	ExecBatch(ctx context.Context, query string, values [][]any) error

	// Commit commits the implicit transaction, if any.
	Commit(ctx context.Context) error

	// Rollback rolls back the implicit transaction, if any.
	Rollback(ctx context.Context) error

	// Close tears the session down. Uncommitted work is rolled back.
	Close(ctx context.Context) error
}

// Rows is the cursor over a statement's result.
type Rows interface {
	// Columns describes the projection, in order.
	Columns() []ColumnDescription

	// Next advances to the next row.
	Next() bool

	// Values returns the current row.
	Values() ([]any, error)

	// Err returns the error, if any, hit during iteration.
	Err() error

	// Close releases the cursor.
	Close()
}

// BulkFetcher is implemented by rows that can return every remaining row
// in one call.
type BulkFetcher interface {
	FetchAll() ([][]any, error)
}

// LOB is a handle to a character large object value that has to be read
// explicitly to obtain its content.
type LOB interface {
	Read(ctx context.Context) (string, error)
}

// Pool is a fixed-size set of sessions. Acquire and Release are safe for
// concurrent use; two callers never hold the same session.
type Pool interface {
	// Acquire waits for a free session until ctx is done.
	Acquire(ctx context.Context) (Conn, error)

	// TryAcquire returns a free session or ErrPoolExhausted without waiting.
	TryAcquire(ctx context.Context) (Conn, error)

	// Release returns a session to the pool. Open work is rolled back first.
	Release(conn Conn)

	// Stat returns a snapshot of the pool counters.
	Stat() PoolStat

	// Close closes every session in the pool.
	Close()
}

// NamedArgs binds statement parameters by name. Pass it as the only
// argument to Query or Exec.
type NamedArgs map[string]any
