package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joacominatel/dbcnx/internal/database"
	"golang.org/x/sync/semaphore"
)

const releaseTimeout = 5 * time.Second

// Pool implements database.Pool on pgxpool with MinConns == MaxConns.
// A weighted semaphore sized to the pool hands out one permit per session,
// so a no-wait acquire fails only when every session is really in use.
type Pool struct {
	pool         *pgxpool.Pool
	slots        *semaphore.Weighted
	largeObjects bool
}

func newPool(pool *pgxpool.Pool, size int, largeObjects bool) *Pool {
	return &Pool{
		pool:         pool,
		slots:        semaphore.NewWeighted(int64(size)),
		largeObjects: largeObjects,
	}
}

// Acquire waits for a free connection until ctx is done.
func (p *Pool) Acquire(ctx context.Context) (database.Conn, error) {
	if err := p.slots.Acquire(ctx, 1); err != nil {
		return nil, acquireError(err)
	}
	return p.acquire(ctx)
}

// TryAcquire takes a connection without waiting for another caller to
// release one.
func (p *Pool) TryAcquire(ctx context.Context) (database.Conn, error) {
	if !p.slots.TryAcquire(1) {
		return nil, database.ErrPoolExhausted
	}
	return p.acquire(ctx)
}

// acquire runs with a permit held and gives it back on failure.
func (p *Pool) acquire(ctx context.Context) (database.Conn, error) {
	pc, err := p.pool.Acquire(ctx)
	if err != nil {
		p.slots.Release(1)
		return nil, acquireError(err)
	}
	return p.wrap(pc), nil
}

func acquireError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", database.ErrPoolExhausted, err)
	}
	return err
}

func (p *Pool) wrap(pc *pgxpool.Conn) *Conn {
	return &Conn{
		session:      pc,
		largeObjects: p.largeObjects,
		pooled:       pc,
		close: func(context.Context) error {
			pc.Release()
			p.slots.Release(1)
			return nil
		},
	}
}

// Release rolls back open work and hands the connection back to pgxpool.
// A connection that cannot be rolled back is closed so the pool drops it.
func (p *Pool) Release(conn database.Conn) {
	c, ok := conn.(*Conn)
	if !ok || c.pooled == nil || c.closed {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	if err := c.Rollback(ctx); err != nil {
		_ = c.pooled.Conn().Close(ctx)
	}
	_ = c.Close(ctx)
}

// Stat returns a snapshot of the pool counters.
func (p *Pool) Stat() database.PoolStat {
	s := p.pool.Stat()
	return database.PoolStat{
		Acquired: int(s.AcquiredConns()),
		Idle:     int(s.IdleConns()),
		Total:    int(s.TotalConns()),
		Max:      int(s.MaxConns()),
	}
}

// Close closes the pool.
func (p *Pool) Close() {
	p.pool.Close()
}
