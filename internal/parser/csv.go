package parser

import (
	"fmt"
	"strings"
)

// NullToken replaces every null-like cell value.
const NullToken = "NULL"

// RawTable is a parsed CSV: a header line plus ragged data rows.
type RawTable struct {
	Headers []string
	Rows    [][]string

	index map[string]int
}

// Parse splits raw CSV text into a RawTable. It never fails: blank and
// '#'-comment lines are dropped, the first remaining line is the header,
// and rows with too few or too many cells are kept as-is.
func Parse(text string) *RawTable {
	t := &RawTable{index: map[string]int{}}
	header := true
	for _, line := range splitLines(text) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		cells := strings.Split(line, ",")
		if header {
			t.Headers = uniqueHeaders(cells)
			for i, h := range t.Headers {
				t.index[h] = i
			}
			header = false
			continue
		}
		row := make([]string, len(cells))
		for i, c := range cells {
			row[i] = NormalizeCell(c)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// HeaderIndex returns the column position for a header name.
func (t *RawTable) HeaderIndex(name string) (int, bool) {
	if t == nil {
		return 0, false
	}
	i, ok := t.index[name]
	return i, ok
}

// Cell returns the cell at (row, col), or "" when the row is too short.
func (t *RawTable) Cell(row, col int) string {
	if t == nil || row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// Column returns every cell of a column in row order, "" for missing cells.
func (t *RawTable) Column(col int) []string {
	out := make([]string, len(t.Rows))
	for r := range t.Rows {
		out[r] = t.Cell(r, col)
	}
	return out
}

// Head returns a copy of the table limited to the first n data rows.
func (t *RawTable) Head(n int) *RawTable {
	if n < 0 || n >= len(t.Rows) {
		n = len(t.Rows)
	}
	return &RawTable{Headers: t.Headers, Rows: t.Rows[:n:n], index: t.index}
}

// UnwrapQuotes trims whitespace and strips exactly one pair of enclosing
// double quotes. Doubled quotes inside the value are left untouched.
func UnwrapQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = s[1 : len(s)-1]
	}
	return s
}

// IsNull reports whether an already unwrapped value is a null-like token.
func IsNull(s string) bool {
	if s == "" || s == "-" || s == NullToken {
		return true
	}
	l := strings.ToLower(s)
	return l == "null" || l == "n/a"
}

// NormalizeCell applies the data-cell rules: trim, unquote, null tokens to NULL.
func NormalizeCell(s string) string {
	s = UnwrapQuotes(s)
	if IsNull(s) {
		return NullToken
	}
	return s
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// uniqueHeaders cleans header cells and renames duplicates to name_1, name_2, ...
// Empty header cells become column_N.
func uniqueHeaders(cells []string) []string {
	seen := make(map[string]bool, len(cells))
	out := make([]string, len(cells))
	for i, c := range cells {
		name := UnwrapQuotes(c)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		candidate := name
		for n := 1; seen[candidate]; n++ {
			candidate = fmt.Sprintf("%s_%d", name, n)
		}
		seen[candidate] = true
		out[i] = candidate
	}
	return out
}
