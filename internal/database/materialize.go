package database

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// DefaultFetchSize is the default row buffer hint for Materialize. Only
// the first maxPrealloc rows are allocated up front.
const DefaultFetchSize = 100000

// maxPrealloc caps the row buffer allocated up front from the fetch hint.
const maxPrealloc = 1024

// LOBColumns returns the positions of character large object columns.
func LOBColumns(cols []ColumnDescription) []int {
	var idx []int
	for i, c := range cols {
		if c.Type == TypeCLOB {
			idx = append(idx, i)
		}
	}
	return idx
}

// Materialize drains rows into a ResultSet laid out as shape. fetchSize is
// a buffer hint, not a driver fetch size. Large object
// values are read into strings so no handle escapes. The caller still owns
// rows and must close it.
func Materialize(ctx context.Context, rows Rows, shape Shape, fetchSize int) (*ResultSet, error) {
	shape, err := ParseShape(shape)
	if err != nil {
		return nil, err
	}

	cols := rows.Columns()
	lobs := LOBColumns(cols)

	var data [][]any
	if len(lobs) == 0 {
		data, err = fetchAll(rows, fetchSize)
	} else {
		data, err = fetchWithLOBs(ctx, rows, lobs, fetchSize)
	}
	if err != nil {
		return nil, err
	}

	columns := make([]string, len(cols))
	for i, c := range cols {
		columns[i] = strings.ToUpper(c.Name)
	}

	rs := &ResultSet{Shape: shape, Columns: columns}
	switch shape {
	case ShapeDict:
		rs.Records = make([]Record, 0, len(data))
		for _, row := range data {
			rec := make(Record, len(columns))
			for i, col := range columns {
				if i < len(row) {
					rec[col] = row[i]
				}
			}
			rs.Records = append(rs.Records, rec)
		}
	case ShapeList:
		rs.Rows = data
	}
	return rs, nil
}

func fetchAll(rows Rows, fetchSize int) ([][]any, error) {
	if bf, ok := rows.(BulkFetcher); ok {
		data, err := bf.FetchAll()
		if err != nil {
			return nil, fmt.Errorf("fetch rows: %w", err)
		}
		return data, nil
	}

	data := make([][]any, 0, prealloc(fetchSize))
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		data = append(data, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return data, nil
}

func fetchWithLOBs(ctx context.Context, rows Rows, lobs []int, fetchSize int) ([][]any, error) {
	data := make([][]any, 0, prealloc(fetchSize))
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		row := slices.Clone(values)
		for _, i := range lobs {
			if i >= len(row) {
				continue
			}
			v, err := readLOB(ctx, row[i])
			if err != nil {
				return nil, &LOBError{Row: len(data), Column: i, Err: err}
			}
			row[i] = v
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return data, nil
}

func readLOB(ctx context.Context, v any) (any, error) {
	switch lob := v.(type) {
	case nil:
		return nil, nil
	case LOB:
		return lob.Read(ctx)
	case []byte:
		return string(lob), nil
	default:
		return v, nil
	}
}

func prealloc(fetchSize int) int {
	if fetchSize <= 0 || fetchSize > maxPrealloc {
		return maxPrealloc
	}
	return fetchSize
}

// LOBError reports a large object that could not be read.
type LOBError struct {
	Row    int
	Column int
	Err    error
}

func (e *LOBError) Error() string {
	return fmt.Sprintf("read large object at row %d column %d: %v", e.Row, e.Column, e.Err)
}

func (e *LOBError) Unwrap() error {
	return e.Err
}
