package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joacominatel/dbcnx/internal/config"
	"github.com/joacominatel/dbcnx/internal/database"
	"github.com/joacominatel/dbcnx/internal/logger"
)

var errBoom = errors.New("boom")

// fakeDriver hands out fakeConns and records what they were asked to do.
type fakeDriver struct {
	connectErr  error
	openPoolErr error
	queryErr    error
	execErr     error
	commitErr   error
	batchFailAt int
	lobErr      error
	delay       time.Duration
	gate        chan struct{}

	connects  atomic.Int32
	pools     atomic.Int32
	commits   atomic.Int32
	rollbacks atomic.Int32
	closes    atomic.Int32
	active    atomic.Int32
	maxActive atomic.Int32
	batched   atomic.Int32
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{batchFailAt: -1}
}

func (d *fakeDriver) Name() string { return "fake" }

func (d *fakeDriver) Connect(ctx context.Context, _ config.Connection) (database.Conn, error) {
	if d.connectErr != nil {
		return nil, d.connectErr
	}
	d.connects.Add(1)
	return &fakeConn{d: d}, nil
}

func (d *fakeDriver) OpenPool(ctx context.Context, conn config.Connection, size int) (database.Pool, error) {
	if d.openPoolErr != nil {
		return nil, d.openPoolErr
	}
	d.pools.Add(1)
	return database.NewResourcePool(ctx, size, func(ctx context.Context) (database.Conn, error) {
		return d.Connect(ctx, conn)
	})
}

func (d *fakeDriver) enter() {
	n := d.active.Add(1)
	for {
		m := d.maxActive.Load()
		if n <= m || d.maxActive.CompareAndSwap(m, n) {
			return
		}
	}
}

func (d *fakeDriver) leave() {
	d.active.Add(-1)
}

type fakeConn struct {
	d       *fakeDriver
	pending bool
}

func (c *fakeConn) Query(ctx context.Context, query string, _ ...any) (database.Rows, error) {
	c.d.enter()
	defer c.d.leave()

	if c.d.gate != nil {
		<-c.d.gate
	}
	if c.d.delay > 0 {
		time.Sleep(c.d.delay)
	}
	c.pending = true
	if c.d.queryErr != nil {
		return nil, c.d.queryErr
	}
	if strings.Contains(query, "body") {
		return &fakeRows{
			cols: []database.ColumnDescription{
				{Name: "id", Type: database.TypeNumber},
				{Name: "body", Type: database.TypeCLOB},
			},
			data: [][]any{{int64(1), fakeLOB{text: "long text", err: c.d.lobErr}}},
			pos:  -1,
		}, nil
	}
	return &fakeRows{
		cols: []database.ColumnDescription{{Name: "1", Type: database.TypeNumber}},
		data: [][]any{{int64(1)}},
		pos:  -1,
	}, nil
}

func (c *fakeConn) Exec(context.Context, string, ...any) error {
	c.pending = true
	return c.d.execErr
}

func (c *fakeConn) ExecBatch(_ context.Context, _ string, values [][]any) error {
	c.pending = true
	for i := range values {
		if i == c.d.batchFailAt {
			return errBoom
		}
		c.d.batched.Add(1)
	}
	return nil
}

func (c *fakeConn) Commit(context.Context) error {
	if c.d.commitErr != nil {
		return c.d.commitErr
	}
	c.d.commits.Add(1)
	c.pending = false
	return nil
}

// Rollback only counts when there is work to undo, so releasing an idle
// pooled session does not register.
func (c *fakeConn) Rollback(context.Context) error {
	if c.pending {
		c.d.rollbacks.Add(1)
		c.pending = false
	}
	return nil
}

func (c *fakeConn) Close(context.Context) error {
	c.d.closes.Add(1)
	return nil
}

type fakeRows struct {
	cols []database.ColumnDescription
	data [][]any
	pos  int
}

func (r *fakeRows) Columns() []database.ColumnDescription { return r.cols }

func (r *fakeRows) Next() bool {
	if r.pos+1 >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Values() ([]any, error) { return r.data[r.pos], nil }
func (r *fakeRows) Err() error             { return nil }
func (r *fakeRows) Close()                 {}

type fakeLOB struct {
	text string
	err  error
}

func (l fakeLOB) Read(context.Context) (string, error) { return l.text, l.err }

func testSetup() config.Setup {
	return config.Setup{
		"host":     "localhost",
		"port":     "1521",
		"sdi":      "ORCL",
		"user":     "scott",
		"password": "tiger",
		"driver":   "",
	}
}

// syncBuffer is a bytes.Buffer safe for concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func discard() *logger.Logger {
	return logger.Discard()
}

func testLogger() (*logger.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return logger.New(buf, logger.DebugLevel, "json"), buf
}
