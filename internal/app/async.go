package app

import (
	"context"
	"errors"
	"sync"

	"github.com/joacominatel/dbcnx/internal/database"
	"github.com/joacominatel/dbcnx/internal/logger"
	"github.com/sourcegraph/conc/pool"
)

// ErrClosed is returned by futures submitted after AsyncManager.Close.
var ErrClosed = errors.New("async manager closed")

// Future is the pending result of an offloaded call.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(val T, err error) {
	f.val = val
	f.err = err
	close(f.done)
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the result is available or ctx is done. Giving up on
// ctx does not cancel the call itself.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// AsyncManager offloads the blocking calls of an Executor to a bounded set
// of worker goroutines and hands back futures. It performs no non-blocking
// I/O of its own: each call runs open, execute, commit or rollback and
// close in order on one worker. Submitting blocks while every worker is busy.
type AsyncManager struct {
	exec    Executor
	log     *logger.Logger
	mu      sync.RWMutex
	closed  bool
	workers *pool.Pool
}

// NewAsyncManager wraps exec with a pool of workers goroutines.
func NewAsyncManager(exec Executor, workers int, opts ...Option) *AsyncManager {
	o := buildOptions(opts)
	if workers < 1 {
		workers = 1
	}
	return &AsyncManager{
		exec:    exec,
		log:     o.log.With("mode", "async"),
		workers: pool.New().WithMaxGoroutines(workers),
	}
}

func submit[T any](a *AsyncManager, fn func() (T, error)) *Future[T] {
	f := newFuture[T]()

	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		var zero T
		f.resolve(zero, ErrClosed)
		return f
	}
	a.workers.Go(func() {
		f.resolve(fn())
	})
	return f
}

// Read runs Executor.Read on a worker.
func (a *AsyncManager) Read(ctx context.Context, query string, shape database.Shape, args ...any) *Future[*database.ResultSet] {
	return submit(a, func() (*database.ResultSet, error) {
		return a.exec.Read(ctx, query, shape, args...)
	})
}

// Execute runs Executor.Execute on a worker.
func (a *AsyncManager) Execute(ctx context.Context, query string, args ...any) *Future[struct{}] {
	return submit(a, func() (struct{}, error) {
		return struct{}{}, a.exec.Execute(ctx, query, args...)
	})
}

// ExecuteBatch runs Executor.ExecuteBatch on a worker.
func (a *AsyncManager) ExecuteBatch(ctx context.Context, query string, values [][]any) *Future[struct{}] {
	return submit(a, func() (struct{}, error) {
		return struct{}{}, a.exec.ExecuteBatch(ctx, query, values)
	})
}

// Close rejects new calls and waits for submitted ones to finish.
func (a *AsyncManager) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.mu.Unlock()

	a.workers.Wait()
	a.log.Debug("async workers stopped")
}
