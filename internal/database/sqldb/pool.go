package sqldb

import (
	"context"
	"database/sql"

	"github.com/joacominatel/dbcnx/internal/database"
)

// Pool is a fixed-size session pool over one shared *sql.DB.
type Pool struct {
	*database.ResourcePool
	db *sql.DB
}

// NewPool opens a *sql.DB capped at size sessions and pre-establishes all
// of them as dedicated pool members.
func NewPool(ctx context.Context, driverName, dsn string, size int, classify Classifier) (*Pool, error) {
	db, err := Open(ctx, driverName, dsn, size)
	if err != nil {
		return nil, err
	}

	rp, err := database.NewResourcePool(ctx, size, func(ctx context.Context) (database.Conn, error) {
		return NewConn(ctx, db, classify)
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Pool{ResourcePool: rp, db: db}, nil
}

// Close closes every session and the underlying *sql.DB.
func (p *Pool) Close() {
	p.ResourcePool.Close()
	_ = p.db.Close()
}
