package analysis

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/KaramelBytes/dataloom-cli/internal/parser"
)

// Report is a markdown-friendly profile of a parsed dataset.
type Report struct {
	Name     string
	Rows     int
	Profiles []ColumnProfile
}

// Analyze classifies t and wraps the profiles in a Report.
func Analyze(name string, t *parser.RawTable, opt Options) *Report {
	r := &Report{Name: name, Profiles: Classify(t, opt)}
	if t != nil {
		r.Rows = len(t.Rows)
	}
	return r
}

// Counts returns how many columns were classified as numerical, categorical and date.
func (r *Report) Counts() (numerical, categorical, date int) {
	for _, p := range r.Profiles {
		switch p.Kind {
		case KindNumerical:
			numerical++
		case KindCategorical:
			categorical++
		case KindDate:
			date++
		}
	}
	return
}

// Markdown renders the report, with the schema as a markdown table.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(r.Profiles)))
	n, c, d := r.Counts()
	b.WriteString(fmt.Sprintf("Numerical: %d, Categorical: %d, Date: %d\n\n", n, c, d))

	b.WriteString("[SCHEMA]\n")
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Column", "Type", "Unique", "Nulls", "Min", "Max", "Mean", "Median", "Samples"})
	for _, p := range r.Profiles {
		row := table.Row{p.Name, string(p.Kind), p.UniqueCount, p.Stats.NullCount, "", "", "", ""}
		if s := p.Stats.Summary; s != nil {
			row[4] = fmt.Sprintf("%.4g", s.Min)
			row[5] = fmt.Sprintf("%.4g", s.Max)
			row[6] = fmt.Sprintf("%.4g", s.Mean)
			row[7] = fmt.Sprintf("%.4g", s.Median)
		}
		row = append(row, strings.Join(p.SampleValues, ", "))
		tw.AppendRow(row)
	}
	b.WriteString(tw.RenderMarkdown())
	b.WriteString("\n")
	return b.String()
}
