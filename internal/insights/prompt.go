package insights

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/dataloom-cli/internal/analysis"
	"github.com/KaramelBytes/dataloom-cli/internal/charts"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
)

const (
	sampleLines = 4
	// sample lines of very wide tables are cut to this many tokens each
	sampleLineTokens = 256
)

// Request carries everything the prompt describes.
type Request struct {
	FileName string
	// CSVText is the raw upload; its first lines are quoted as sample data.
	CSVText  string
	Profiles []analysis.ColumnProfile
	Charts   []charts.Chart
}

const responseTemplate = `Provide comprehensive business insights in JSON format:
{
  "keyInsights": [
    "Most important business pattern or trend",
    "Critical correlation or relationship found",
    "Significant categorical distribution insight",
    "Data quality or outlier observation",
    "Strategic business recommendation"
  ],
  "dataQuality": {
    "score": 85,
    "strengths": ["aspect1", "aspect2"],
    "concerns": ["issue1", "issue2"],
    "recommendations": ["action1", "action2"]
  },
  "businessValue": "Overall strategic value and use cases for this dataset",
  "actionableInsights": [
    "Specific action item 1",
    "Specific action item 2",
    "Specific action item 3"
  ]
}`

var promptCategories = []struct {
	label string
	cat   charts.Category
}{
	{"Univariate Analysis", charts.CategoryUnivariate},
	{"Correlation Analysis", charts.CategoryCorrelation},
	{"Bivariate Analysis", charts.CategoryBivariate},
	{"Pairwise Analysis", charts.CategoryPairwise},
	{"Categorical Analysis", charts.CategoryCategorical},
	{"Time Series Analysis", charts.CategoryTimeseries},
}

// BuildPrompt renders the analysis prompt sent to the runtime.
func BuildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Analyze this comprehensive dataset and provide business insights:\n\n")
	fmt.Fprintf(&b, "Dataset: %s\n", req.FileName)
	fmt.Fprintf(&b, "Total Charts Generated: %d\n", len(req.Charts))

	cols := make([]string, 0, len(req.Profiles))
	for _, p := range req.Profiles {
		cols = append(cols, fmt.Sprintf("%s (%s, %d unique values)", p.Name, p.Kind, p.UniqueCount))
	}
	fmt.Fprintf(&b, "Columns: %s\n\n", strings.Join(cols, ", "))

	b.WriteString("Column Details:\n")
	for _, p := range req.Profiles {
		fmt.Fprintf(&b, "- %s: %s type, %d unique values", p.Name, p.Kind, p.UniqueCount)
		if p.Kind == analysis.KindNumerical && p.Stats.Summary != nil {
			s := p.Stats.Summary
			fmt.Fprintf(&b, ", range: %.2f to %.2f, avg: %.2f", s.Min, s.Max, s.Mean)
		}
		if p.Stats.NullCount > 0 {
			fmt.Fprintf(&b, ", %d nulls", p.Stats.NullCount)
		}
		b.WriteByte('\n')
	}

	b.WriteString("\nChart Types Generated:\n")
	counts := charts.Categories(req.Charts)
	for _, c := range promptCategories {
		fmt.Fprintf(&b, "- %s: %d charts\n", c.label, counts[c.cat])
	}

	b.WriteString("\nSample data:\n")
	b.WriteString(strings.Join(firstLines(req.CSVText, sampleLines), "\n"))
	b.WriteString("\n\n")
	b.WriteString(responseTemplate)
	return b.String()
}

func firstLines(text string, n int) []string {
	lines := strings.SplitN(strings.ReplaceAll(text, "\r\n", "\n"), "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	for i, l := range lines {
		lines[i] = utils.TruncateToTokenLimit(l, sampleLineTokens)
	}
	return lines
}
