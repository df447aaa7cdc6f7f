package app

import (
	"context"
	"time"

	"github.com/joacominatel/dbcnx/internal/config"
	"github.com/joacominatel/dbcnx/internal/database"
	"github.com/joacominatel/dbcnx/internal/logger"
)

const closeTimeout = 5 * time.Second

// ConnectionManager opens a fresh connection for every call and closes it
// before returning, whatever the outcome. It keeps no state between calls
// and is safe for concurrent use.
type ConnectionManager struct {
	driver database.Driver
	conn   config.Connection
	runner runner
}

// NewConnectionManager validates setup and prepares a manager. A setup
// with missing keys is logged and still accepted unless WithStrictSetup
// is given.
func NewConnectionManager(driver database.Driver, setup config.Setup, opts ...Option) *ConnectionManager {
	o := buildOptions(opts)
	log := o.log.With("backend", driver.Name())
	setup = setup.Clone()

	m := &ConnectionManager{
		driver: driver,
		conn:   setup.Connection(),
	}
	m.runner = runner{
		mode:      "single",
		log:       log,
		setup:     setup,
		missing:   checkSetup(log, setup),
		strict:    o.strict,
		fetchSize: o.fetchSize,
		acquire:   m.open,
		release:   m.close,
	}
	return m
}

func (m *ConnectionManager) open(ctx context.Context, log *logger.Logger) (database.Conn, error) {
	conn, err := m.driver.Connect(ctx, m.conn)
	if err != nil {
		return nil, &ErrConnection{Op: "open", Cause: err}
	}
	log.Debug("connection established", "host", m.conn.Host)
	return conn, nil
}

func (m *ConnectionManager) close(conn database.Conn, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	if err := conn.Close(ctx); err != nil {
		log.ErrorWithErr("closing connection", err)
		return
	}
	log.Debug("connection closed")
}

// Missing returns the required setup keys that were absent at construction.
func (m *ConnectionManager) Missing() []string {
	return m.runner.missing
}

// Read opens a connection, runs query and returns its rows shaped as shape.
func (m *ConnectionManager) Read(ctx context.Context, query string, shape database.Shape, args ...any) (*database.ResultSet, error) {
	return m.runner.read(ctx, query, shape, args)
}

// Execute opens a connection, runs query and commits it.
func (m *ConnectionManager) Execute(ctx context.Context, query string, args ...any) error {
	return m.runner.execute(ctx, query, args)
}

// ExecuteBatch opens a connection, runs query once per value set and commits.
func (m *ConnectionManager) ExecuteBatch(ctx context.Context, query string, values [][]any) error {
	return m.runner.executeBatch(ctx, query, values)
}

var _ Executor = (*ConnectionManager)(nil)
