package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joacominatel/dbcnx/internal/database"
)

// session is the part of *pgx.Conn and *pgxpool.Conn that Conn needs.
type session interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Conn implements database.Conn on a pgx connection. Statements run in a
// transaction opened by the first statement.
type Conn struct {
	session      session
	tx           pgx.Tx
	largeObjects bool
	pooled       *pgxpool.Conn
	close        func(ctx context.Context) error
	closed       bool
}

func (c *Conn) begin(ctx context.Context) (pgx.Tx, error) {
	if c.closed {
		return nil, database.ErrNotConnected
	}
	if c.tx == nil {
		tx, err := c.session.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("begin: %w", err)
		}
		c.tx = tx
	}
	return c.tx, nil
}

// Query executes query and buffers its rows, so large objects can be read
// on the same connection afterwards.
func (c *Conn) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	tx, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, bind(args)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]database.ColumnDescription, len(fields))
	for i, f := range fields {
		cols[i] = describe(f, c.largeObjects)
	}

	var data [][]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		for i := range values {
			if cols[i].Type == database.TypeCLOB {
				values[i] = wrapLargeObject(tx, values[i])
			}
		}
		data = append(data, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &Rows{cols: cols, data: data, pos: -1}, nil
}

// Exec executes query.
func (c *Conn) Exec(ctx context.Context, query string, args ...any) error {
	tx, err := c.begin(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, query, bind(args)...)
	return err
}

// ExecBatch queues query once per value set and sends them as one batch.
// pgx prepares the statement once and reuses it for every set.
func (c *Conn) ExecBatch(ctx context.Context, query string, values [][]any) error {
	tx, err := c.begin(ctx)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, v := range values {
		batch.Queue(query, bind(v)...)
	}

	br := tx.SendBatch(ctx, batch)
	for i := range values {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("value set %d: %w", i, err)
		}
	}
	return br.Close()
}

// Commit commits the open transaction, if any.
func (c *Conn) Commit(ctx context.Context) error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	return tx.Commit(ctx)
}

// Rollback rolls back the open transaction, if any.
func (c *Conn) Rollback(ctx context.Context) error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// Close rolls back open work and closes the connection.
func (c *Conn) Close(ctx context.Context) error {
	if c.closed {
		return nil
	}
	rbErr := c.Rollback(ctx)
	c.closed = true
	if err := c.close(ctx); err != nil {
		return err
	}
	return rbErr
}

// bind turns a single NamedArgs argument into pgx.NamedArgs (@name).
func bind(args []any) []any {
	if len(args) == 1 {
		if named, ok := args[0].(database.NamedArgs); ok {
			return []any{pgx.NamedArgs(named)}
		}
	}
	return args
}
