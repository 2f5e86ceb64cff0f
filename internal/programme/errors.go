package programme

import (
	"fmt"
	"strings"
)

// RowError describes a single validation problem in one CSV data row.
// Row numbers are 1-based over the data rows (the header is not counted),
// matching how spreadsheet users think about their file.
type RowError struct {
	Row   int
	Field string
	Msg   string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d, %s: %s", e.Row, e.Field, e.Msg)
}

// ValidationErrors aggregates every row error found in one parse pass.
// The parser never stops at the first problem; callers get the full list
// so the CSV can be fixed in one go.
type ValidationErrors []RowError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "no validation errors"
	}
	lines := make([]string, 0, len(v))
	for _, e := range v {
		lines = append(lines, e.Error())
	}
	return fmt.Sprintf("%d validation error(s): %s", len(v), strings.Join(lines, "; "))
}
