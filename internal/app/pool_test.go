package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joacominatel/dbcnx/internal/config"
	"github.com/joacominatel/dbcnx/internal/database"
)

func TestPoolManagerRead(t *testing.T) {
	d := newFakeDriver()
	m := NewPoolManager(context.Background(), d, testSetup(), 2, WithLogger(discard()))
	require.NoError(t, m.Err())
	defer m.Close()

	assert.Equal(t, 2, m.Size())
	assert.Equal(t, int32(2), d.connects.Load())

	rs, err := m.Read(context.Background(), "SELECT 1 FROM dual", database.ShapeDict)
	require.NoError(t, err)
	assert.Equal(t, []database.Record{{"1": int64(1)}}, rs.Records)

	// Sessions are reused, not reopened.
	assert.Equal(t, int32(2), d.connects.Load())
	assert.Equal(t, 0, m.Stat().Acquired)
}

func TestPoolManagerReleasesOnFailure(t *testing.T) {
	d := newFakeDriver()
	d.execErr = errBoom
	m := NewPoolManager(context.Background(), d, testSetup(), 2, WithLogger(discard()))
	defer m.Close()

	err := m.Execute(context.Background(), "UPDATE t SET a = 1")
	require.ErrorIs(t, err, errBoom)

	assert.Equal(t, 0, m.Stat().Acquired)
	assert.Equal(t, 2, m.Stat().Idle)
	assert.Equal(t, int32(1), d.rollbacks.Load())
	assert.Equal(t, int32(0), d.commits.Load())
}

func TestPoolManagerBatchFailure(t *testing.T) {
	d := newFakeDriver()
	d.batchFailAt = 1
	m := NewPoolManager(context.Background(), d, testSetup(), 1, WithLogger(discard()))
	defer m.Close()

	err := m.ExecuteBatch(context.Background(), "INSERT INTO t VALUES (:1)", [][]any{{1}, {2}})
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, int32(0), d.commits.Load())
	assert.Equal(t, int32(1), d.rollbacks.Load())
	assert.Equal(t, 0, m.Stat().Acquired)
}

func TestPoolManagerConcurrentReadsWait(t *testing.T) {
	d := newFakeDriver()
	d.delay = 20 * time.Millisecond
	m := NewPoolManager(context.Background(), d, testSetup(), 2, WithLogger(discard()))
	defer m.Close()

	var wg sync.WaitGroup
	results := make([]*database.ResultSet, 3)
	errs := make([]error, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = m.Read(context.Background(), "SELECT 1 FROM dual", database.ShapeDict)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, []database.Record{{"1": int64(1)}}, results[i].Records)
	}
	assert.LessOrEqual(t, d.maxActive.Load(), int32(2))
	assert.Equal(t, 0, m.Stat().Acquired)
}

func TestPoolManagerExhaustedWithoutWait(t *testing.T) {
	d := newFakeDriver()
	d.gate = make(chan struct{})
	m := NewPoolManager(context.Background(), d, testSetup(), 2, WithLogger(discard()), WithAcquireTimeout(0))
	defer m.Close()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Read(context.Background(), "SELECT 1 FROM dual", database.ShapeDict)
			assert.NoError(t, err)
		}()
	}
	require.Eventually(t, func() bool { return d.active.Load() == 2 }, time.Second, time.Millisecond)

	_, err := m.Read(context.Background(), "SELECT 1 FROM dual", database.ShapeDict)
	require.ErrorIs(t, err, database.ErrPoolExhausted)
	assert.Equal(t, KindConnection, KindOf(err))
	assert.LessOrEqual(t, m.Stat().Acquired, 2)

	close(d.gate)
	wg.Wait()
	assert.Equal(t, 0, m.Stat().Acquired)
}

func TestPoolManagerAcquireTimeout(t *testing.T) {
	d := newFakeDriver()
	d.gate = make(chan struct{})
	m := NewPoolManager(context.Background(), d, testSetup(), 1, WithLogger(discard()), WithAcquireTimeout(10*time.Millisecond))
	defer m.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = m.Read(context.Background(), "SELECT 1 FROM dual", database.ShapeDict)
	}()
	require.Eventually(t, func() bool { return d.active.Load() == 1 }, time.Second, time.Millisecond)

	err := m.Execute(context.Background(), "UPDATE t SET a = 1")
	require.ErrorIs(t, err, database.ErrPoolExhausted)

	close(d.gate)
	<-done
}

func TestPoolManagerOpenFailure(t *testing.T) {
	d := newFakeDriver()
	d.openPoolErr = errBoom
	log, buf := testLogger()
	m := NewPoolManager(context.Background(), d, testSetup(), 2, WithLogger(log))
	defer m.Close()

	require.ErrorIs(t, m.Err(), errBoom)
	assert.Contains(t, buf.String(), "opening session pool")
	assert.Equal(t, database.PoolStat{}, m.Stat())

	_, err := m.Read(context.Background(), "SELECT 1 FROM dual", database.ShapeDict)
	require.ErrorIs(t, err, errBoom)

	var connErr *ErrConnection
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "acquire", connErr.Op)
}

func TestPoolManagerStrictSetup(t *testing.T) {
	setup := testSetup()
	delete(setup, config.KeyHost)
	d := newFakeDriver()
	m := NewPoolManager(context.Background(), d, setup, 2, WithLogger(discard()), WithStrictSetup())
	defer m.Close()

	assert.Equal(t, int32(0), d.pools.Load())
	assert.Equal(t, []string{"host"}, m.Missing())

	err := m.Execute(context.Background(), "UPDATE t SET a = 1")
	assert.Equal(t, KindConfigIncomplete, KindOf(err))
}
