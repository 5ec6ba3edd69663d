package cleaner

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/KaramelBytes/dataloom-cli/internal/parser"
)

const (
	previewRows  = 5
	previewWidth = 15
	defaultOp    = "Basic formatting and null value standardization"
)

// DatasetStats describes what a cleaning pass did.
type DatasetStats struct {
	OriginalRows       int      `json:"originalRows"`
	CleanedRows        int      `json:"cleanedRows"`
	Columns            int      `json:"columns"`
	CleaningOperations []string `json:"cleaningOperations"`
}

// Result is the cleaned text together with its stats.
type Result struct {
	CleanedText string       `json:"cleanedContent"`
	Stats       DatasetStats `json:"stats"`
}

// Clean normalizes a CSV text line by line. Blank lines and comment lines are
// dropped, header cells are trimmed and unquoted, and data cells go through
// parser.NormalizeCell. The returned text starts with a comment block holding
// a summary and a preview of the first rows, followed by the full cleaned data.
// Every line of that block starts with '#', so parsing the result yields the
// same table as parsing the cleaned data alone.
func Clean(input string) Result {
	// a final line break terminates the last row; it does not open an empty one
	normalized := strings.TrimSuffix(strings.ReplaceAll(input, "\r\n", "\n"), "\n")
	lines := strings.Split(normalized, "\n")

	var (
		kept     []string
		header   []string
		rows     [][]string
		blank    int
		comments int
	)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			blank++
			continue
		case strings.HasPrefix(trimmed, "#"):
			comments++
			continue
		}
		cells := strings.Split(trimmed, ",")
		if header == nil {
			for i, c := range cells {
				cells[i] = parser.UnwrapQuotes(c)
			}
			header = cells
		} else {
			for i, c := range cells {
				cells[i] = parser.NormalizeCell(c)
			}
			rows = append(rows, cells)
		}
		kept = append(kept, strings.Join(cells, ","))
	}

	var ops []string
	if blank > 0 {
		ops = append(ops, fmt.Sprintf("Removed %d empty rows", blank))
	}
	if comments > 0 {
		ops = append(ops, fmt.Sprintf("Removed %d comment lines", comments))
	}
	if len(ops) == 0 {
		ops = append(ops, defaultOp)
	}

	stats := DatasetStats{
		OriginalRows:       max(len(lines)-1, 0),
		CleanedRows:        len(rows),
		Columns:            len(header),
		CleaningOperations: ops,
	}

	var b strings.Builder
	b.WriteString("# Dataset Cleaning Summary\n")
	fmt.Fprintf(&b, "# Original rows: %d\n", stats.OriginalRows)
	fmt.Fprintf(&b, "# Cleaned rows: %d\n", stats.CleanedRows)
	fmt.Fprintf(&b, "# Columns: %d\n", stats.Columns)
	fmt.Fprintf(&b, "# Operations: %s\n", strings.Join(ops, ", "))
	b.WriteString("# Ready for analysis: the full cleaned dataset follows the preview\n")
	b.WriteString("#\n")
	b.WriteString(Preview(header, rows))
	for _, line := range kept {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return Result{CleanedText: b.String(), Stats: stats}
}

// Preview renders the first rows as a fixed-width table, every line
// prefixed with "# ".
func Preview(header []string, rows [][]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleDefault)
	tw.Style().Format.Header = text.FormatDefault

	head := table.Row{""}
	configs := make([]table.ColumnConfig, 0, len(header))
	for i, h := range header {
		head = append(head, truncate(h))
		configs = append(configs, table.ColumnConfig{Number: i + 2, WidthMin: previewWidth, WidthMax: previewWidth})
	}
	tw.AppendHeader(head)
	tw.SetColumnConfigs(configs)
	for i, r := range rows[:min(len(rows), previewRows)] {
		row := table.Row{fmt.Sprintf("%3d", i)}
		for j := range header {
			cell := ""
			if j < len(r) {
				cell = r[j]
			}
			row = append(row, truncate(cell))
		}
		tw.AppendRow(row)
	}

	var b strings.Builder
	b.WriteString("# DataFrame.head() - First 5 rows preview:\n")
	for _, line := range strings.Split(tw.Render(), "\n") {
		b.WriteString("# " + line + "\n")
	}
	fmt.Fprintf(&b, "# Shape: (%d, %d)\n", len(rows), len(header))
	return b.String()
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) > previewWidth {
		return string(r[:previewWidth-3]) + "..."
	}
	return s
}
