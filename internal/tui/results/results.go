package results

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/joacominatel/dbcnx/internal/database"
	"github.com/joacominatel/dbcnx/internal/tui/theme"
)

// MaxCellWidth caps the rendered width of a cell.
const MaxCellWidth = 40

// NullText is shown for NULL values.
const NullText = "NULL"

// Render draws rs as a bordered table followed by a row count line.
func Render(rs *database.ResultSet) string {
	if rs == nil {
		return theme.StyleMuted.Render("(no result)")
	}

	rows := rs.Table()
	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = make([]string, len(row))
		for j, v := range row {
			cells[i][j] = Truncate(FormatValue(v), MaxCellWidth)
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.ColorBorder)).
		Headers(rs.Columns...).
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.StyleHeader
			}
			if row >= 0 && row < len(cells) && col < len(cells[row]) && cells[row][col] == NullText && rows[row][col] == nil {
				return theme.StyleNull
			}
			return theme.StyleCell
		})

	return t.String() + "\n" + theme.StyleMuted.Render(rowCount(rs.Len()))
}

func rowCount(n int) string {
	if n == 1 {
		return "1 row"
	}
	return fmt.Sprintf("%d rows", n)
}

// FormatValue renders one value for display.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return NullText
	case string:
		return val
	case []byte:
		return "\\x" + hex.EncodeToString(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Truncate shortens s to at most w display cells, marking the cut with "…".
// Newlines are flattened so each cell stays on one line.
func Truncate(s string, w int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if lipgloss.Width(s) <= w {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > w {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
