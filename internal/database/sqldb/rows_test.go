package sqldb

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joacominatel/dbcnx/internal/database"
)

func numberCol(scale int) database.ColumnDescription {
	return database.ColumnDescription{Type: database.TypeNumber, Precision: -1, Scale: scale}
}

func TestNormalizeNumbers(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		scale int
		want  any
	}{
		{name: "int", text: "-42", scale: -1, want: int64(-42)},
		{name: "unsigned bigint", text: "18446744073709551615", scale: -1, want: uint64(18446744073709551615)},
		{name: "decimal with scale", text: "12345678901234567890.12", scale: 2, want: "12345678901234567890.12"},
		{name: "decimal without scale info", text: "12345678901234567890.12", scale: -1, want: "12345678901234567890.12"},
		{name: "short decimal keeps trailing zero", text: "1.50", scale: 2, want: "1.50"},
		{name: "huge integer", text: "123456789012345678901234567890", scale: 0, want: "123456789012345678901234567890"},
		{name: "double", text: "1.5", scale: -1, want: 1.5},
		{name: "exponent", text: "1e20", scale: -1, want: 1e20},
		{name: "garbage", text: "n/a", scale: -1, want: "n/a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize(numberCol(tt.scale), []byte(tt.text)))
		})
	}
}

func TestNormalizeOtherTypes(t *testing.T) {
	bin := database.ColumnDescription{Type: database.TypeBinary}
	assert.Equal(t, []byte{1, 2}, normalize(bin, []byte{1, 2}))

	str := database.ColumnDescription{Type: database.TypeString}
	assert.Equal(t, "abc", normalize(str, []byte("abc")))
	assert.Equal(t, int64(7), normalize(str, int64(7)))
	assert.Nil(t, normalize(str, nil))
}

func TestSignificantDigits(t *testing.T) {
	assert.Equal(t, 1, significantDigits("0.1"))
	assert.Equal(t, 3, significantDigits("-1.23e10"))
	assert.Equal(t, 1, significantDigits("1000"))
	assert.Equal(t, 22, significantDigits("12345678901234567890.12"))
}

func TestClassifyGeneric(t *testing.T) {
	tests := map[string]database.TypeCode{
		"INTEGER":            database.TypeNumber,
		"BIGINT UNSIGNED":    database.TypeNumber,
		"DECIMAL(10,2)":      database.TypeNumber,
		"VARCHAR":            database.TypeString,
		"POINT":              database.TypeBinary,
		"MULTIPOINT":         database.TypeBinary,
		"geometry":           database.TypeBinary,
		"INTERVAL":           database.TypeString,
		"INTERVAL DAY":       database.TypeString,
		"BOOLEAN":            database.TypeBool,
		"TIMESTAMP":          database.TypeTime,
		"BLOB":               database.TypeBinary,
		"":                   database.TypeUnknown,
		"GEOMETRYCOLLECTION": database.TypeBinary,
	}
	for name, want := range tests {
		assert.Equal(t, want, ClassifyGeneric(name), name)
	}
}
