package database

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

type fakeRows struct {
	cols []ColumnDescription
	data [][]any
	pos  int
	err  error
}

func newFakeRows(cols []ColumnDescription, data ...[]any) *fakeRows {
	return &fakeRows{cols: cols, data: data, pos: -1}
}

func (r *fakeRows) Columns() []ColumnDescription { return r.cols }

func (r *fakeRows) Next() bool {
	if r.pos+1 >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Values() ([]any, error) { return r.data[r.pos], nil }
func (r *fakeRows) Err() error             { return r.err }
func (r *fakeRows) Close()                 {}

// bulkRows also implements BulkFetcher.
type bulkRows struct {
	*fakeRows
	fetched bool
}

func (r *bulkRows) FetchAll() ([][]any, error) {
	r.fetched = true
	return r.data, nil
}

type fakeLOB struct {
	text string
	err  error
}

func (l fakeLOB) Read(context.Context) (string, error) { return l.text, l.err }

func col(name string, t TypeCode) ColumnDescription {
	return ColumnDescription{Name: name, Type: t, DisplaySize: -1, InternalSize: -1, Precision: -1, Scale: -1, Nullable: true}
}

type fakeConn struct {
	id          int
	rollbackErr error
	rollbacks   atomic.Int32
	closed      atomic.Bool
}

func (c *fakeConn) Query(context.Context, string, ...any) (Rows, error) {
	return nil, errors.New("not implemented")
}
func (c *fakeConn) Exec(context.Context, string, ...any) error       { return nil }
func (c *fakeConn) ExecBatch(context.Context, string, [][]any) error { return nil }
func (c *fakeConn) Commit(context.Context) error                     { return nil }
func (c *fakeConn) Close(context.Context) error                      { c.closed.Store(true); return nil }
func (c *fakeConn) Rollback(context.Context) error {
	c.rollbacks.Add(1)
	return c.rollbackErr
}

type connFactory struct {
	mu    sync.Mutex
	conns []*fakeConn
	fail  int
}

func (f *connFactory) connect(context.Context) (Conn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail > 0 && len(f.conns)+1 == f.fail {
		return nil, errors.New("connection refused")
	}
	c := &fakeConn{id: len(f.conns)}
	f.conns = append(f.conns, c)
	return c, nil
}
