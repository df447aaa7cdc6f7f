package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/joacominatel/dbcnx/internal/database"
)

// Classifier maps a driver type name to a TypeCode.
type Classifier func(typeName string) database.TypeCode

// Conn implements database.Conn on a dedicated *sql.Conn.
type Conn struct {
	db       *sql.DB
	ownsDB   bool
	conn     *sql.Conn
	tx       *sql.Tx
	classify Classifier
}

// Open opens a *sql.DB limited to maxConns sessions and pings it.
func Open(ctx context.Context, driverName, dsn string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxIdleTime(0)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}

// Connect opens a standalone session that owns its *sql.DB.
func Connect(ctx context.Context, driverName, dsn string, classify Classifier) (*Conn, error) {
	db, err := Open(ctx, driverName, dsn, 1)
	if err != nil {
		return nil, err
	}
	c, err := NewConn(ctx, db, classify)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	c.ownsDB = true
	return c, nil
}

// NewConn takes a dedicated session from a shared *sql.DB.
func NewConn(ctx context.Context, db *sql.DB, classify Classifier) (*Conn, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if classify == nil {
		classify = ClassifyGeneric
	}
	return &Conn{db: db, conn: conn, classify: classify}, nil
}

func (c *Conn) begin(ctx context.Context) (*sql.Tx, error) {
	if c.conn == nil {
		return nil, database.ErrNotConnected
	}
	if c.tx == nil {
		tx, err := c.conn.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("begin: %w", err)
		}
		c.tx = tx
	}
	return c.tx, nil
}

// Query executes query inside the session's transaction.
func (c *Conn) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	tx, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.QueryContext(ctx, query, bind(args)...)
	if err != nil {
		return nil, err
	}
	r, err := newRows(rows, c.classify)
	if err != nil {
		rows.Close()
		return nil, err
	}
	return r, nil
}

// Exec executes query inside the session's transaction.
func (c *Conn) Exec(ctx context.Context, query string, args ...any) error {
	tx, err := c.begin(ctx)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, query, bind(args)...)
	return err
}

// ExecBatch prepares query once and runs it for each value set. It stops
// at the first failing set.
func (c *Conn) ExecBatch(ctx context.Context, query string, values [][]any) error {
	tx, err := c.begin(ctx)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i, v := range values {
		if _, err := stmt.ExecContext(ctx, bind(v)...); err != nil {
			return fmt.Errorf("value set %d: %w", i, err)
		}
	}
	return nil
}

// Commit commits the open transaction, if any.
func (c *Conn) Commit(_ context.Context) error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	return tx.Commit()
}

// Rollback rolls back the open transaction, if any.
func (c *Conn) Rollback(_ context.Context) error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// Close rolls back open work and closes the session.
func (c *Conn) Close(ctx context.Context) error {
	if c.conn == nil {
		return nil
	}
	rbErr := c.Rollback(ctx)
	err := c.conn.Close()
	c.conn = nil
	if c.ownsDB {
		if dbErr := c.db.Close(); err == nil {
			err = dbErr
		}
	}
	if err == nil {
		err = rbErr
	}
	return err
}

// bind expands a single NamedArgs argument into sql.Named values.
func bind(args []any) []any {
	if len(args) != 1 {
		return args
	}
	named, ok := args[0].(database.NamedArgs)
	if !ok {
		return args
	}
	keys := make([]string, 0, len(named))
	for k := range named {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, sql.Named(k, named[k]))
	}
	return out
}
