package sqldb

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/joacominatel/dbcnx/internal/database"
)

// Rows implements database.Rows over *sql.Rows.
type Rows struct {
	rows *sql.Rows
	cols []database.ColumnDescription
}

func newRows(rows *sql.Rows, classify Classifier) (*Rows, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("column types: %w", err)
	}

	cols := make([]database.ColumnDescription, len(types))
	for i, ct := range types {
		cols[i] = describe(ct, classify)
	}
	return &Rows{rows: rows, cols: cols}, nil
}

func describe(ct *sql.ColumnType, classify Classifier) database.ColumnDescription {
	d := database.ColumnDescription{
		Name:         ct.Name(),
		Type:         classify(ct.DatabaseTypeName()),
		DisplaySize:  -1,
		InternalSize: -1,
		Precision:    -1,
		Scale:        -1,
		Nullable:     true,
	}
	if length, ok := ct.Length(); ok {
		d.DisplaySize = int(length)
		d.InternalSize = int(length)
	}
	if precision, scale, ok := ct.DecimalSize(); ok {
		d.Precision = int(precision)
		d.Scale = int(scale)
	}
	if nullable, ok := ct.Nullable(); ok {
		d.Nullable = nullable
	}
	return d
}

// Columns describes the projection.
func (r *Rows) Columns() []database.ColumnDescription {
	return r.cols
}

// Next advances to the next row.
func (r *Rows) Next() bool {
	return r.rows.Next()
}

// Values scans the current row. Text delivered as bytes is returned as
// string and numbers delivered as text are parsed.
func (r *Rows) Values() ([]any, error) {
	values := make([]any, len(r.cols))
	dest := make([]any, len(r.cols))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := r.rows.Scan(dest...); err != nil {
		return nil, err
	}
	for i, v := range values {
		values[i] = normalize(r.cols[i], v)
	}
	return values, nil
}

// FetchAll drains every remaining row.
func (r *Rows) FetchAll() ([][]any, error) {
	var data [][]any
	for r.rows.Next() {
		values, err := r.Values()
		if err != nil {
			return nil, err
		}
		data = append(data, values)
	}
	return data, r.rows.Err()
}

// Err returns the iteration error, if any.
func (r *Rows) Err() error {
	return r.rows.Err()
}

// Close closes the cursor.
func (r *Rows) Close() {
	_ = r.rows.Close()
}

func normalize(col database.ColumnDescription, v any) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	switch col.Type {
	case database.TypeBinary:
		return b
	case database.TypeNumber:
		return parseNumber(string(b), col.Scale)
	default:
		return string(b)
	}
}

// float64 round-trips every decimal with at most this many significant digits.
const maxExactDigits = 15

// parseNumber converts numeric text to int64, uint64 or float64. Text that
// a float64 cannot hold exactly, or that belongs to a column with a
// fractional scale, is kept as a string.
func parseNumber(s string, scale int) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return n
	}
	if scale > 0 || significantDigits(s) > maxExactDigits {
		return s
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// significantDigits counts the mantissa digits of s, ignoring sign,
// exponent and leading or trailing zeros.
func significantDigits(s string) int {
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimLeft(s, "+-")
	s = strings.Replace(s, ".", "", 1)
	return len(strings.Trim(s, "0"))
}

// spatialTypes are geometry names whose values arrive as binary WKB.
var spatialTypes = map[string]bool{
	"GEOMETRY":           true,
	"GEOGRAPHY":          true,
	"POINT":              true,
	"LINESTRING":         true,
	"POLYGON":            true,
	"MULTIPOINT":         true,
	"MULTILINESTRING":    true,
	"MULTIPOLYGON":       true,
	"GEOMETRYCOLLECTION": true,
	"GEOMCOLLECTION":     true,
}

// ClassifyGeneric maps common SQL type names to a TypeCode. It never
// reports TypeCLOB; drivers layer their own large object names on top.
func ClassifyGeneric(typeName string) database.TypeCode {
	t := strings.ToUpper(typeName)
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	switch {
	case t == "":
		return database.TypeUnknown
	case spatialTypes[t]:
		return database.TypeBinary
	case strings.HasPrefix(t, "INTERVAL"):
		return database.TypeString
	case strings.Contains(t, "BOOL"):
		return database.TypeBool
	case strings.Contains(t, "INT"),
		strings.Contains(t, "DEC"),
		strings.Contains(t, "NUM"),
		strings.Contains(t, "REAL"),
		strings.Contains(t, "FLOA"),
		strings.Contains(t, "DOUB"):
		return database.TypeNumber
	case strings.Contains(t, "BLOB"),
		strings.Contains(t, "BINARY"),
		strings.Contains(t, "BYTEA"):
		return database.TypeBinary
	case strings.Contains(t, "DATE"),
		strings.Contains(t, "TIME"),
		strings.Contains(t, "YEAR"):
		return database.TypeTime
	case strings.Contains(t, "CHAR"),
		strings.Contains(t, "TEXT"),
		strings.Contains(t, "CLOB"),
		strings.Contains(t, "JSON"),
		strings.Contains(t, "ENUM"):
		return database.TypeString
	default:
		return database.TypeUnknown
	}
}
