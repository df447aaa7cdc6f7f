package database

import (
	"fmt"
	"strings"
)

// TypeCode classifies a column's database type.
type TypeCode int

const (
	TypeUnknown TypeCode = iota
	TypeNumber
	TypeString
	TypeCLOB
	TypeBinary
	TypeTime
	TypeBool
)

func (t TypeCode) String() string {
	switch t {
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeCLOB:
		return "clob"
	case TypeBinary:
		return "binary"
	case TypeTime:
		return "time"
	case TypeBool:
		return "bool"
	default:
		return "unknown"
	}
}

// ColumnDescription describes one column of a statement's projection.
// Sizes that the driver cannot report are -1.
type ColumnDescription struct {
	Name         string
	Type         TypeCode
	DisplaySize  int
	InternalSize int
	Precision    int
	Scale        int
	Nullable     bool
}

// Shape selects how a ResultSet is laid out.
type Shape string

const (
	ShapeDict Shape = "dict"
	ShapeList Shape = "list"
)

// ParseShape validates s case-insensitively.
func ParseShape(s Shape) (Shape, error) {
	switch Shape(strings.ToLower(string(s))) {
	case ShapeDict:
		return ShapeDict, nil
	case ShapeList:
		return ShapeList, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidShape, string(s))
	}
}

// Record maps an upper-cased column name to its value.
type Record map[string]any

// ResultSet holds a materialized statement result.
//
// Columns is always set and upper-cased. With ShapeDict the rows are in
// Records; with ShapeList they are in Rows, each with len(Columns) values.
type ResultSet struct {
	Shape   Shape
	Columns []string
	Rows    [][]any
	Records []Record
}

// Len returns the number of rows.
func (r *ResultSet) Len() int {
	if r.Shape == ShapeDict {
		return len(r.Records)
	}
	return len(r.Rows)
}

// Table returns the result as column-ordered rows regardless of shape.
func (r *ResultSet) Table() [][]any {
	if r.Shape != ShapeDict {
		return r.Rows
	}
	out := make([][]any, len(r.Records))
	for i, rec := range r.Records {
		row := make([]any, len(r.Columns))
		for j, col := range r.Columns {
			row[j] = rec[col]
		}
		out[i] = row
	}
	return out
}

// PoolStat is a snapshot of a session pool.
type PoolStat struct {
	Acquired int
	Idle     int
	Total    int
	Max      int
}
