package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joacominatel/dbcnx/internal/config"
	"github.com/joacominatel/dbcnx/internal/database"
	"github.com/joacominatel/dbcnx/internal/logger"
)

// errPoolUnavailable is reported by managers whose pool failed to open.
var errPoolUnavailable = errors.New("session pool unavailable")

// PoolManager runs calls on sessions drawn from a fixed-size pool. Every
// session is returned to the pool when the call ends, on success and on
// failure alike.
type PoolManager struct {
	size           int
	acquireTimeout time.Duration
	pool           database.Pool
	poolErr        error
	runner         runner
}

// NewPoolManager validates setup, initializes the client runtime and opens
// a pool of size sessions. Failures are logged, not returned: a manager
// whose pool could not be opened fails every call with *ErrConnection.
func NewPoolManager(ctx context.Context, driver database.Driver, setup config.Setup, size int, opts ...Option) *PoolManager {
	o := buildOptions(opts)
	log := o.log.With("backend", driver.Name())
	setup = setup.Clone()

	m := &PoolManager{
		size:           size,
		acquireTimeout: o.acquireTimeout,
	}
	m.runner = runner{
		mode:      "pool",
		log:       log,
		setup:     setup,
		missing:   checkSetup(log, setup),
		strict:    o.strict,
		fetchSize: o.fetchSize,
		acquire:   m.acquire,
		release:   m.release,
	}

	if m.runner.strict && len(m.runner.missing) > 0 {
		m.poolErr = &ErrConfig{Missing: m.runner.missing}
		return m
	}

	pool, err := driver.OpenPool(ctx, setup.Connection(), size)
	if err != nil {
		log.WarnWithErr("opening session pool", err, "size", size)
		m.poolErr = err
		return m
	}
	m.pool = pool
	log.Debug("session pool ready", "size", size)
	return m
}

func (m *PoolManager) acquire(ctx context.Context, log *logger.Logger) (database.Conn, error) {
	if m.pool == nil {
		return nil, &ErrConnection{Op: "acquire", Cause: fmt.Errorf("%w: %w", errPoolUnavailable, m.poolErr)}
	}

	var (
		conn database.Conn
		err  error
	)
	if m.acquireTimeout <= 0 {
		conn, err = m.pool.TryAcquire(ctx)
	} else {
		actx, cancel := context.WithTimeout(ctx, m.acquireTimeout)
		conn, err = m.pool.Acquire(actx)
		cancel()
	}
	if err != nil {
		return nil, &ErrConnection{Op: "acquire", Cause: err}
	}
	log.Debug("session acquired")
	return conn, nil
}

func (m *PoolManager) release(conn database.Conn, log *logger.Logger) {
	m.pool.Release(conn)
	log.Debug("session released")
}

// Err returns the error that prevented the pool from opening, if any.
func (m *PoolManager) Err() error {
	return m.poolErr
}

// Size returns the configured pool size.
func (m *PoolManager) Size() int {
	return m.size
}

// Stat returns the pool counters. A manager without a pool reports zeros.
func (m *PoolManager) Stat() database.PoolStat {
	if m.pool == nil {
		return database.PoolStat{}
	}
	return m.pool.Stat()
}

// Missing returns the required setup keys that were absent at construction.
func (m *PoolManager) Missing() []string {
	return m.runner.missing
}

// Close closes the pool, waiting for acquired sessions to come back.
func (m *PoolManager) Close() {
	if m.pool != nil {
		m.pool.Close()
	}
}

// Read acquires a session, runs query and returns its rows shaped as shape.
func (m *PoolManager) Read(ctx context.Context, query string, shape database.Shape, args ...any) (*database.ResultSet, error) {
	return m.runner.read(ctx, query, shape, args)
}

// Execute acquires a session, runs query and commits it.
func (m *PoolManager) Execute(ctx context.Context, query string, args ...any) error {
	return m.runner.execute(ctx, query, args)
}

// ExecuteBatch acquires a session, runs query once per value set and commits.
func (m *PoolManager) ExecuteBatch(ctx context.Context, query string, values [][]any) error {
	return m.runner.executeBatch(ctx, query, values)
}

var _ Executor = (*PoolManager)(nil)
