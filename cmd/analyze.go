package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dataloom-cli/internal/analysis"
	"github.com/KaramelBytes/dataloom-cli/internal/charts"
	"github.com/KaramelBytes/dataloom-cli/internal/dashboard"
	"github.com/KaramelBytes/dataloom-cli/internal/parser"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
)

var (
	anaOutputPath string
	anaFormat     string
	anaMaxUnique  int
	anaSampleRows int
)

type analysisOutput struct {
	File            string                   `json:"file"`
	Rows            int                      `json:"rows"`
	ColumnAnalysis  []analysis.ColumnProfile `json:"columnAnalysis"`
	Charts          []charts.Chart           `json:"charts"`
	ChartCategories map[charts.Category]int  `json:"chartCategories"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Profile a CSV and generate its chart datasets",
	Example: `  dataloom analyze sales.csv
  dataloom analyze sales.csv.gz --format json --output sales.analysis.json
  dataloom analyze report.xlsx --max-unique 10`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		text, err := parser.ReadFile(path)
		if err != nil {
			return err
		}
		t := parser.Parse(text)
		if len(t.Headers) == 0 {
			return dashboard.ErrNoData
		}

		classify := cfg.ClassifyOptions()
		chartOpt := cfg.ChartOptions()
		if anaMaxUnique > 0 {
			classify.MaxCategoricalUnique = anaMaxUnique
			chartOpt.MaxCategories = anaMaxUnique
		}
		if anaSampleRows > 0 {
			chartOpt.SampleRows = anaSampleRows
		}

		name := filepath.Base(path)
		rep := analysis.Analyze(name, t, classify)
		list := charts.Generate(t, rep.Profiles, chartOpt)

		var out []byte
		switch strings.ToLower(anaFormat) {
		case "", "markdown", "md":
			out = []byte(rep.Markdown() + chartsMarkdown(list))
		case "json":
			out, err = utils.PrettyJSON(analysisOutput{
				File:            name,
				Rows:            rep.Rows,
				ColumnAnalysis:  rep.Profiles,
				Charts:          list,
				ChartCategories: dashboard.CategoryCounts(list),
			})
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported --format: %s (use markdown|json)", anaFormat)
		}
		return writeOutput(cmd.OutOrStdout(), anaOutputPath, out, "analysis")
	},
}

// chartsMarkdown lists the generated charts in generation order.
func chartsMarkdown(list []charts.Chart) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("\n[CHARTS] %d generated\n", len(list)))
	for _, c := range list {
		b.WriteString(fmt.Sprintf("- %s (%s, %s): %s\n", c.ID, c.Type, c.Category, c.Title))
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the analysis")
	analyzeCmd.Flags().StringVarP(&anaFormat, "format", "f", "markdown", "output format: markdown|json")
	analyzeCmd.Flags().IntVar(&anaMaxUnique, "max-unique", 0, "distinct values at or below which a numeric column counts as categorical (overrides config)")
	analyzeCmd.Flags().IntVar(&anaSampleRows, "sample-rows", 0, "data rows considered for charts (overrides config)")
}
