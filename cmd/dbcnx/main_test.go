package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joacominatel/dbcnx/internal/app"
	"github.com/joacominatel/dbcnx/internal/database"
)

func TestParseBatch(t *testing.T) {
	in := `[1, "a", null]

[2.5, "b", true]
`
	values, err := parseBatch(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, [][]any{
		{int64(1), "a", nil},
		{2.5, "b", true},
	}, values)
}

func TestParseBatchBadLine(t *testing.T) {
	_, err := parseBatch(strings.NewReader("[1]\n{oops\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestPrintResultJSON(t *testing.T) {
	var buf bytes.Buffer
	rs := &database.ResultSet{
		Shape:   database.ShapeDict,
		Columns: []string{"1"},
		Records: []database.Record{{"1": int64(1)}},
	}
	require.NoError(t, printResult(&buf, rs, "json"))
	assert.JSONEq(t, `[{"1": 1}]`, buf.String())
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(&app.ErrConfig{Missing: []string{"host"}}))
	assert.Equal(t, 3, exitCode(&app.ErrConnection{Op: "open"}))
	assert.Equal(t, 4, exitCode(&app.ErrQuery{}))
	assert.Equal(t, 1, exitCode(assert.AnError))
}
