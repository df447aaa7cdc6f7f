package postgres

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/joacominatel/dbcnx/internal/database"
)

// Rows holds a fully fetched result.
type Rows struct {
	cols []database.ColumnDescription
	data [][]any
	pos  int
}

// Columns describes the projection.
func (r *Rows) Columns() []database.ColumnDescription {
	return r.cols
}

// Next advances to the next buffered row.
func (r *Rows) Next() bool {
	if r.pos+1 >= len(r.data) {
		r.pos = len(r.data)
		return false
	}
	r.pos++
	return true
}

// Values returns the current row.
func (r *Rows) Values() ([]any, error) {
	if r.pos < 0 || r.pos >= len(r.data) {
		return nil, fmt.Errorf("no current row")
	}
	return r.data[r.pos], nil
}

// FetchAll returns the rows not yet consumed.
func (r *Rows) FetchAll() ([][]any, error) {
	if r.pos+1 >= len(r.data) {
		r.pos = len(r.data)
		return nil, nil
	}
	rest := r.data[r.pos+1:]
	r.pos = len(r.data)
	return rest, nil
}

// Err always returns nil; errors are reported by Conn.Query.
func (r *Rows) Err() error {
	return nil
}

// Close drops the buffered rows.
func (r *Rows) Close() {
	r.data = nil
	r.pos = -1
}

// describe converts a pgx field description. Numeric precision and scale
// and character lengths are decoded from the type modifier.
func describe(f pgconn.FieldDescription, largeObjects bool) database.ColumnDescription {
	d := database.ColumnDescription{
		Name:         f.Name,
		Type:         classify(f.DataTypeOID, largeObjects),
		DisplaySize:  -1,
		InternalSize: int(f.DataTypeSize),
		Precision:    -1,
		Scale:        -1,
		Nullable:     true,
	}

	if f.TypeModifier >= 4 {
		mod := int(f.TypeModifier) - 4
		switch f.DataTypeOID {
		case pgtype.NumericOID:
			d.Precision = (mod >> 16) & 0xffff
			d.Scale = mod & 0xffff
		case pgtype.VarcharOID, pgtype.BPCharOID:
			d.DisplaySize = mod
		}
	}
	return d
}

func classify(oid uint32, largeObjects bool) database.TypeCode {
	switch oid {
	case pgtype.OIDOID:
		if largeObjects {
			return database.TypeCLOB
		}
		return database.TypeNumber
	case pgtype.Int2OID, pgtype.Int4OID, pgtype.Int8OID,
		pgtype.Float4OID, pgtype.Float8OID, pgtype.NumericOID:
		return database.TypeNumber
	case pgtype.TextOID, pgtype.VarcharOID, pgtype.BPCharOID,
		pgtype.NameOID, pgtype.JSONOID, pgtype.JSONBOID:
		return database.TypeString
	case pgtype.ByteaOID:
		return database.TypeBinary
	case pgtype.DateOID, pgtype.TimestampOID, pgtype.TimestamptzOID, pgtype.TimeOID:
		return database.TypeTime
	case pgtype.BoolOID:
		return database.TypeBool
	default:
		return database.TypeUnknown
	}
}

// largeObject is a handle to a server-side large object, readable while
// the transaction that produced it is open.
type largeObject struct {
	tx  pgx.Tx
	oid uint32
}

func wrapLargeObject(tx pgx.Tx, v any) any {
	oid, ok := v.(uint32)
	if !ok {
		return v
	}
	return &largeObject{tx: tx, oid: oid}
}

// Read returns the object content as text.
func (l *largeObject) Read(ctx context.Context) (string, error) {
	los := l.tx.LargeObjects()
	obj, err := los.Open(ctx, l.oid, pgx.LargeObjectModeRead)
	if err != nil {
		return "", fmt.Errorf("open large object %d: %w", l.oid, err)
	}
	defer obj.Close()

	b, err := io.ReadAll(obj)
	if err != nil {
		return "", fmt.Errorf("read large object %d: %w", l.oid, err)
	}
	return string(b), nil
}
