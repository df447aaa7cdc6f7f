package postgres

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joacominatel/dbcnx/internal/config"
	"github.com/joacominatel/dbcnx/internal/database"
)

// Driver implements the database.Driver interface for PostgreSQL.
type Driver struct {
	largeObjects bool
}

// Option configures a Driver.
type Option func(*Driver)

// WithLargeObjects makes oid columns resolve through the large object API,
// so their content is read instead of returning the object id.
func WithLargeObjects() Option {
	return func(d *Driver) {
		d.largeObjects = true
	}
}

// New creates a new PostgreSQL driver.
func New(opts ...Option) *Driver {
	d := &Driver{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns "postgres".
func (d *Driver) Name() string {
	return "postgres"
}

// Connect establishes a single connection to PostgreSQL.
func (d *Driver) Connect(ctx context.Context, conn config.Connection) (database.Conn, error) {
	cfg, err := ConnConfig(conn)
	if err != nil {
		return nil, err
	}

	pgc, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	return &Conn{
		session:      pgc,
		largeObjects: d.largeObjects,
		close:        pgc.Close,
	}, nil
}

// OpenPool establishes a fixed-size connection pool to PostgreSQL.
func (d *Driver) OpenPool(ctx context.Context, conn config.Connection, size int) (database.Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool size must be at least 1, got %d", size)
	}

	cfg, err := pgxpool.ParseConfig(URL(conn))
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	applyConn(cfg.ConnConfig, conn)

	cfg.MaxConns = int32(size)
	cfg.MinConns = int32(size)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return newPool(pool, size, d.largeObjects), nil
}

// URL builds the postgres:// locator for conn without credentials.
func URL(conn config.Connection) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   conn.Address(),
		Path:   "/" + conn.SDI,
	}
	return u.String()
}

// ConnConfig builds a pgx connection config for conn.
func ConnConfig(conn config.Connection) (*pgx.ConnConfig, error) {
	cfg, err := pgx.ParseConfig(URL(conn))
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	applyConn(cfg, conn)
	return cfg, nil
}

// applyConn sets credentials and the client encoding. Credentials are set
// on the parsed config so they never need URL escaping.
func applyConn(cfg *pgx.ConnConfig, conn config.Connection) {
	cfg.User = conn.User
	cfg.Password = conn.Password
	if cfg.RuntimeParams == nil {
		cfg.RuntimeParams = map[string]string{}
	}
	cfg.RuntimeParams["client_encoding"] = "UTF8"
}
