package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/joacominatel/dbcnx/internal/config"
	"github.com/joacominatel/dbcnx/internal/database"
	"github.com/joacominatel/dbcnx/internal/logger"
)

// Executor is the public surface shared by every manager.
type Executor interface {
	// Read runs a query and returns its materialized rows.
	Read(ctx context.Context, query string, shape database.Shape, args ...any) (*database.ResultSet, error)

	// Execute runs one statement and commits it.
	Execute(ctx context.Context, query string, args ...any) error

	// ExecuteBatch runs one statement per value set and commits them together.
	ExecuteBatch(ctx context.Context, query string, values [][]any) error
}

// runner holds the open/execute/release sequence shared by the single and
// pooled managers. Only acquire and release differ between them.
type runner struct {
	mode      string
	log       *logger.Logger
	setup     config.Setup
	missing   []string
	strict    bool
	fetchSize int
	acquire   func(ctx context.Context, log *logger.Logger) (database.Conn, error)
	release   func(conn database.Conn, log *logger.Logger)
}

func (r *runner) opLogger(action string) *logger.Logger {
	return r.log.With("op", uuid.NewString(), "mode", r.mode, "action", action)
}

func (r *runner) connect(ctx context.Context, log *logger.Logger) (database.Conn, error) {
	if r.strict && len(r.missing) > 0 {
		err := &ErrConfig{Missing: r.missing}
		log.ErrorWithErr("refusing to connect", err)
		return nil, err
	}
	conn, err := r.acquire(ctx, log)
	if err != nil {
		log.WarnWithErr("no connection", err, "setup", r.setup.Redacted())
		return nil, err
	}
	return conn, nil
}

func (r *runner) read(ctx context.Context, query string, shape database.Shape, args []any) (*database.ResultSet, error) {
	log := r.opLogger("read")

	if _, err := database.ParseShape(shape); err != nil {
		log.Warn("invalid result shape", "shape", string(shape))
		return nil, &ErrRequest{Shape: string(shape), Cause: err}
	}

	conn, err := r.connect(ctx, log)
	if err != nil {
		return nil, err
	}
	defer r.release(conn, log)

	log.Debug("executing query", "query", query)
	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		log.ErrorWithErr("query failed", err, "query", query)
		return nil, &ErrQuery{Query: query, Cause: err}
	}
	defer rows.Close()

	rs, err := database.Materialize(ctx, rows, shape, r.fetchSize)
	if err != nil {
		log.ErrorWithErr("reading results failed", err, "query", query)
		var lobErr *database.LOBError
		if errors.As(err, &lobErr) {
			return nil, &ErrMaterialize{Query: query, Cause: err}
		}
		return nil, &ErrQuery{Query: query, Cause: err}
	}

	log.Info("data obtained", "query", query, "rows", rs.Len())
	return rs, nil
}

func (r *runner) execute(ctx context.Context, query string, args []any) error {
	return r.write(ctx, "execute", query, func(conn database.Conn) error {
		return conn.Exec(ctx, query, args...)
	})
}

func (r *runner) executeBatch(ctx context.Context, query string, values [][]any) error {
	return r.write(ctx, "execute_batch", query, func(conn database.Conn) error {
		return conn.ExecBatch(ctx, query, values)
	})
}

// write runs fn, commits on success and rolls back on failure.
func (r *runner) write(ctx context.Context, action, query string, fn func(database.Conn) error) error {
	log := r.opLogger(action)

	conn, err := r.connect(ctx, log)
	if err != nil {
		return err
	}
	defer r.release(conn, log)

	log.Debug("executing statement", "query", query)
	if err := fn(conn); err != nil {
		log.ErrorWithErr("statement failed", err, "query", query)
		r.rollback(ctx, conn, log)
		return &ErrQuery{Query: query, Cause: err}
	}

	if err := conn.Commit(ctx); err != nil {
		log.ErrorWithErr("commit failed", err, "query", query)
		r.rollback(ctx, conn, log)
		return &ErrQuery{Query: query, Cause: fmt.Errorf("commit: %w", err)}
	}

	log.Info("statement executed", "query", query)
	return nil
}

func (r *runner) rollback(ctx context.Context, conn database.Conn, log *logger.Logger) {
	// The statement context may already be done; rollback must still run.
	if err := conn.Rollback(context.WithoutCancel(ctx)); err != nil {
		log.WarnWithErr("rollback failed", err)
	}
}
