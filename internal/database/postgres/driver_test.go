package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joacominatel/dbcnx/internal/config"
	"github.com/joacominatel/dbcnx/internal/database"
)

var testConn = config.Connection{
	Host:     "db.local",
	Port:     5432,
	SDI:      "app",
	User:     "scott",
	Password: "p@ss/word",
}

func TestURL(t *testing.T) {
	assert.Equal(t, "postgres://db.local:5432/app", URL(testConn))
}

func TestConnConfig(t *testing.T) {
	cfg, err := ConnConfig(testConn)
	require.NoError(t, err)

	assert.Equal(t, "db.local", cfg.Host)
	assert.Equal(t, uint16(5432), cfg.Port)
	assert.Equal(t, "app", cfg.Database)
	assert.Equal(t, "scott", cfg.User)
	assert.Equal(t, "p@ss/word", cfg.Password)
	assert.Equal(t, "UTF8", cfg.RuntimeParams["client_encoding"])
}

func TestOpenPoolRejectsBadSize(t *testing.T) {
	_, err := New().OpenPool(context.Background(), testConn, 0)
	require.Error(t, err)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, database.TypeNumber, classify(pgtype.OIDOID, false))
	assert.Equal(t, database.TypeCLOB, classify(pgtype.OIDOID, true))
	assert.Equal(t, database.TypeString, classify(pgtype.TextOID, true))
	assert.Equal(t, database.TypeNumber, classify(pgtype.NumericOID, false))
	assert.Equal(t, database.TypeBinary, classify(pgtype.ByteaOID, false))
	assert.Equal(t, database.TypeUnknown, classify(pgtype.UUIDOID, false))
}

func TestDescribe(t *testing.T) {
	num := describe(pgconn.FieldDescription{
		Name:         "amount",
		DataTypeOID:  pgtype.NumericOID,
		DataTypeSize: -1,
		TypeModifier: (10<<16 | 2) + 4,
	}, false)
	assert.Equal(t, "amount", num.Name)
	assert.Equal(t, database.TypeNumber, num.Type)
	assert.Equal(t, 10, num.Precision)
	assert.Equal(t, 2, num.Scale)

	str := describe(pgconn.FieldDescription{
		Name:         "code",
		DataTypeOID:  pgtype.VarcharOID,
		DataTypeSize: -1,
		TypeModifier: 32 + 4,
	}, false)
	assert.Equal(t, 32, str.DisplaySize)
	assert.Equal(t, -1, str.Precision)

	plain := describe(pgconn.FieldDescription{
		Name:         "n",
		DataTypeOID:  pgtype.Int4OID,
		DataTypeSize: 4,
		TypeModifier: -1,
	}, false)
	assert.Equal(t, 4, plain.InternalSize)
	assert.Equal(t, -1, plain.DisplaySize)
}

func TestRowsIteration(t *testing.T) {
	r := &Rows{data: [][]any{{1}, {2}, {3}}, pos: -1}

	require.True(t, r.Next())
	v, err := r.Values()
	require.NoError(t, err)
	assert.Equal(t, []any{1}, v)

	rest, err := r.FetchAll()
	require.NoError(t, err)
	assert.Equal(t, [][]any{{2}, {3}}, rest)

	rest, err = r.FetchAll()
	require.NoError(t, err)
	assert.Nil(t, rest)
	assert.False(t, r.Next())

	_, err = r.Values()
	require.Error(t, err)
}

func TestWrapLargeObject(t *testing.T) {
	var tx pgx.Tx
	lo, ok := wrapLargeObject(tx, uint32(42)).(*largeObject)
	require.True(t, ok)
	assert.Equal(t, uint32(42), lo.oid)

	assert.Nil(t, wrapLargeObject(tx, nil))
	assert.Equal(t, "x", wrapLargeObject(tx, "x"))
}

func TestBind(t *testing.T) {
	args := bind([]any{database.NamedArgs{"id": 1}})
	require.Len(t, args, 1)
	assert.Equal(t, pgx.NamedArgs{"id": 1}, args[0])

	plain := []any{1, "a"}
	assert.Equal(t, plain, bind(plain))
}

func TestPoolTryAcquireExhausted(t *testing.T) {
	p := newPool(nil, 2, false)
	require.True(t, p.slots.TryAcquire(2))

	_, err := p.TryAcquire(context.Background())
	require.ErrorIs(t, err, database.ErrPoolExhausted)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = p.Acquire(ctx)
	require.ErrorIs(t, err, database.ErrPoolExhausted)
}
