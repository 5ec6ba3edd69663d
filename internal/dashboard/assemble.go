// Package dashboard combines column profiles, chart datasets and narrative
// insights into the payload a dashboard renderer consumes.
package dashboard

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/KaramelBytes/dataloom-cli/internal/analysis"
	"github.com/KaramelBytes/dataloom-cli/internal/charts"
	"github.com/KaramelBytes/dataloom-cli/internal/insights"
)

// Trend is the direction hint shown next to a key metric.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

type KeyMetric struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Trend Trend  `json:"trend"`
}

// Payload is the assembled dashboard.
type Payload struct {
	Title         string               `json:"title"`
	Insights      []string             `json:"insights"`
	Charts        []charts.Chart       `json:"charts"`
	KeyMetrics    []KeyMetric          `json:"keyMetrics"`
	BusinessValue string               `json:"businessValue"`
	DataQuality   insights.DataQuality `json:"dataQuality"`
}

// Input is everything Assemble needs. A nil Insights is replaced by the
// fallback narrative.
type Input struct {
	FileName string
	Rows     int
	Profiles []analysis.ColumnProfile
	Charts   []charts.Chart
	Insights *insights.Insights
}

var printer = message.NewPrinter(language.English)

// Assemble shapes the dashboard payload. It performs no I/O.
func Assemble(in Input) Payload {
	ins := in.Insights
	if ins == nil {
		ins = insights.Fallback(in.Profiles, in.Rows, len(in.Charts))
	}
	chartList := in.Charts
	if chartList == nil {
		chartList = []charts.Chart{}
	}
	numerical := len(analysis.ByKind(in.Profiles, analysis.KindNumerical))
	categorical := len(analysis.ByKind(in.Profiles, analysis.KindCategorical))

	return Payload{
		Title:    "Comprehensive Dashboard: " + in.FileName,
		Insights: Flatten(ins),
		Charts:   chartList,
		KeyMetrics: []KeyMetric{
			{Label: "Total Records", Value: count(in.Rows), Trend: TrendStable},
			{Label: "Data Columns", Value: count(len(in.Profiles)), Trend: TrendStable},
			{Label: "Charts Generated", Value: count(len(chartList)), Trend: TrendUp},
			{Label: "Numerical Fields", Value: count(numerical), Trend: TrendUp},
			{Label: "Categorical Fields", Value: count(categorical), Trend: TrendUp},
			{Label: "Data Quality Score", Value: strconv.FormatFloat(ins.DataQuality.Score, 'f', -1, 64) + "%", Trend: TrendUp},
		},
		BusinessValue: ins.BusinessValue,
		DataQuality:   ins.DataQuality,
	}
}

func count(n int) string { return printer.Sprintf("%d", n) }

// Flatten concatenates every narrative list, labelling the data quality entries.
func Flatten(ins *insights.Insights) []string {
	out := make([]string, 0, len(ins.KeyInsights)+len(ins.ActionableInsights)+
		len(ins.DataQuality.Strengths)+len(ins.DataQuality.Concerns)+len(ins.DataQuality.Recommendations))
	out = append(out, ins.KeyInsights...)
	out = append(out, ins.ActionableInsights...)
	for _, s := range ins.DataQuality.Strengths {
		out = append(out, "Data Strength: "+s)
	}
	for _, c := range ins.DataQuality.Concerns {
		out = append(out, "Data Concern: "+c)
	}
	for _, r := range ins.DataQuality.Recommendations {
		out = append(out, "Recommendation: "+r)
	}
	return out
}
