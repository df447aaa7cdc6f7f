package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/puddle/v2"
)

// closeTimeout bounds how long a destroyed session may take to close.
const closeTimeout = 5 * time.Second

// ConnectFunc opens one session for a pool.
type ConnectFunc func(ctx context.Context) (Conn, error)

// ResourcePool is a fixed-size Pool over any ConnectFunc. Every session is
// created up front and the pool never grows past its initial size.
type ResourcePool struct {
	pool *puddle.Pool[Conn]
}

// pooledConn ties a session to the puddle resource holding it.
type pooledConn struct {
	Conn
	res *puddle.Resource[Conn]
}

// NewResourcePool creates size sessions with connect and returns the pool.
// If any session fails to open, the ones already opened are closed.
func NewResourcePool(ctx context.Context, size int, connect ConnectFunc) (*ResourcePool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool size must be at least 1, got %d", size)
	}

	p, err := puddle.NewPool(&puddle.Config[Conn]{
		Constructor: func(ctx context.Context) (Conn, error) {
			return connect(ctx)
		},
		Destructor: func(c Conn) {
			ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
			defer cancel()
			_ = c.Close(ctx)
		},
		MaxSize: int32(size),
	})
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	for i := 0; i < size; i++ {
		if err := p.CreateResource(ctx); err != nil {
			p.Close()
			return nil, fmt.Errorf("open session %d/%d: %w", i+1, size, err)
		}
	}

	return &ResourcePool{pool: p}, nil
}

// Acquire waits for a free session until ctx is done.
func (p *ResourcePool) Acquire(ctx context.Context) (Conn, error) {
	res, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, acquireError(err)
	}
	return &pooledConn{Conn: res.Value(), res: res}, nil
}

// TryAcquire returns a free session or ErrPoolExhausted without waiting.
func (p *ResourcePool) TryAcquire(ctx context.Context) (Conn, error) {
	res, err := p.pool.TryAcquire(ctx)
	if err != nil {
		return nil, acquireError(err)
	}
	return &pooledConn{Conn: res.Value(), res: res}, nil
}

// Release returns conn to the pool. A session whose rollback fails is
// destroyed and replaced on a later acquire.
func (p *ResourcePool) Release(conn Conn) {
	pc, ok := conn.(*pooledConn)
	if !ok {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		_ = conn.Close(ctx)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := pc.Conn.Rollback(ctx); err != nil {
		pc.res.Destroy()
		return
	}
	pc.res.Release()
}

// Stat returns a snapshot of the pool counters.
func (p *ResourcePool) Stat() PoolStat {
	s := p.pool.Stat()
	return PoolStat{
		Acquired: int(s.AcquiredResources()),
		Idle:     int(s.IdleResources()),
		Total:    int(s.TotalResources()),
		Max:      int(s.MaxResources()),
	}
}

// Close closes every session, waiting for acquired ones to be released.
func (p *ResourcePool) Close() {
	p.pool.Close()
}

func acquireError(err error) error {
	switch {
	case errors.Is(err, puddle.ErrNotAvailable),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrPoolExhausted, err)
	case errors.Is(err, puddle.ErrClosedPool):
		return ErrPoolClosed
	default:
		return err
	}
}
