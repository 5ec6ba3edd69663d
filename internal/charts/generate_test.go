package charts_test

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/KaramelBytes/dataloom-cli/internal/analysis"
	"github.com/KaramelBytes/dataloom-cli/internal/charts"
	"github.com/KaramelBytes/dataloom-cli/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generate(t *testing.T, text string, aopt analysis.Options) []charts.Chart {
	t.Helper()
	tbl := parser.Parse(text)
	return charts.Generate(tbl, analysis.Classify(tbl, aopt), charts.DefaultOptions())
}

func byID(cs []charts.Chart, id string) (charts.Chart, bool) {
	for _, c := range cs {
		if c.ID == id {
			return c, true
		}
	}
	return charts.Chart{}, false
}

// salesCSV has two numerical columns, two categorical columns and a date column.
func salesCSV(rows int) string {
	rng := rand.New(rand.NewSource(7))
	var b strings.Builder
	b.WriteString("date,region,tier,price,units\n")
	regions := []string{"north", "south", "east"}
	tiers := []string{"gold", "silver"}
	for i := 0; i < rows; i++ {
		price := 10 + rng.Float64()*90
		fmt.Fprintf(&b, "2024-02-%02d,%s,%s,%.2f,%d\n", i%28+1, regions[i%3], tiers[i%2], price, int(price*2)+rng.Intn(5))
	}
	return b.String()
}

func TestGenerate_FamiliesAndOrder(t *testing.T) {
	cs := generate(t, salesCSV(60), analysis.DefaultOptions())
	require.NotEmpty(t, cs)

	var ids []string
	for _, c := range cs {
		ids = append(ids, c.ID)
	}
	for _, want := range []string{
		"histogram-price", "density-price", "boxplot-price",
		"histogram-units", "density-units", "boxplot-units",
		"correlation-heatmap", "scatter-price-units", "regression-price-units",
		"bar-region-price", "boxplot-region-price", "bar-tier-units",
		"pie-region", "pie-tier", "categorical-correlation-heatmap",
		"timeseries-date-price", "timeseries-date-units",
	} {
		assert.Contains(t, ids, want)
	}
	assert.Equal(t, "histogram-price", ids[0])
	assert.Equal(t, charts.CategoryTimeseries, cs[len(cs)-1].Category)

	tally := charts.Categories(cs)
	assert.Equal(t, 6, tally[charts.CategoryUnivariate])
	assert.Equal(t, 2, tally[charts.CategoryPairwise])
	assert.Equal(t, 1, tally[charts.CategoryCorrelation])
}

func TestGenerate_IDsUnique(t *testing.T) {
	text := "Price,price,PRICE!\n"
	for i := 0; i < 30; i++ {
		text += fmt.Sprintf("%d,%d,%d\n", i, i*2, i*3)
	}
	cs := generate(t, text, analysis.DefaultOptions())
	seen := map[string]bool{}
	for _, c := range cs {
		assert.Falsef(t, seen[c.ID], "duplicate id %s", c.ID)
		seen[c.ID] = true
	}
	assert.True(t, seen["histogram-price"])
	assert.True(t, seen["histogram-price-2"])
	assert.True(t, seen["histogram-price-3"])
}

func TestGenerate_HistogramCoverage(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var b strings.Builder
	b.WriteString("v\n")
	for i := 0; i < 80; i++ {
		fmt.Fprintf(&b, "%.3f\n", rng.NormFloat64()*10)
	}
	b.WriteString("oops\n")
	cs := generate(t, b.String(), analysis.DefaultOptions())
	hist, ok := byID(cs, "histogram-v")
	require.True(t, ok)
	require.Len(t, hist.Data, 10)
	total := 0
	for _, r := range hist.Data {
		total += r.(charts.HistogramBin).Value
	}
	assert.Equal(t, 80, total)

	dens, ok := byID(cs, "density-v")
	require.True(t, ok)
	var share float64
	for _, r := range dens.Data {
		share += r.(charts.DensityBin).Density
	}
	assert.InDelta(t, 1.0, share, 1e-9)
}

func TestGenerate_ConstantColumnHistogram(t *testing.T) {
	text := "v\n"
	for i := 0; i < 10; i++ {
		text += "5\n"
	}
	profiles := []analysis.ColumnProfile{{Index: 0, Name: "v", Kind: analysis.KindNumerical}}
	hist, ok := byID(charts.Generate(parser.Parse(text), profiles, charts.Options{}), "histogram-v")
	require.True(t, ok)
	first := hist.Data[0].(charts.HistogramBin)
	assert.Equal(t, 10, first.Value)
	assert.Equal(t, "5.0-5.0", first.Name)
}

func TestGenerate_CorrelationBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 20; trial++ {
		var b strings.Builder
		b.WriteString("a,b,c\n")
		for i := 0; i < 40; i++ {
			fmt.Fprintf(&b, "%.4f,%.4f,%.4f\n", rng.Float64()*100, rng.NormFloat64(), rng.ExpFloat64())
		}
		cs := generate(t, b.String(), analysis.DefaultOptions())
		heat, ok := byID(cs, "correlation-heatmap")
		require.True(t, ok)
		require.Len(t, heat.Data, 9)
		for _, r := range heat.Data {
			cell := r.(charts.HeatmapCell)
			assert.GreaterOrEqual(t, cell.Value, -1.0)
			assert.LessOrEqual(t, cell.Value, 1.0)
			if cell.X == cell.Y {
				assert.Equal(t, 1.0, cell.Value)
			}
		}
	}
}

func TestGenerate_ScenarioTimeSeries(t *testing.T) {
	cs := generate(t, "d,v\n2024-01-03,15\n2024-01-01,10\n2024-01-02,20\n", analysis.DefaultOptions())
	var lines []charts.Chart
	for _, c := range cs {
		if c.Type == charts.TypeLine {
			lines = append(lines, c)
		}
	}
	require.Len(t, lines, 1)
	line := lines[0]
	assert.Equal(t, charts.CategoryTimeseries, line.Category)
	require.Len(t, line.Data, 3)
	want := []charts.SeriesPoint{
		{Date: "2024-01-01", Value: 10, Name: "1/1/2024"},
		{Date: "2024-01-02", Value: 20, Name: "1/2/2024"},
		{Date: "2024-01-03", Value: 15, Name: "1/3/2024"},
	}
	for i, r := range line.Data {
		assert.Equal(t, want[i], r.(charts.SeriesPoint))
	}
}

func TestGenerate_TimeSeriesNeedsThreePoints(t *testing.T) {
	cs := generate(t, "d,v\n2024-01-01,10\n2024-01-02,x\n2024-01-03,\n", analysis.DefaultOptions())
	for _, c := range cs {
		assert.NotEqual(t, charts.TypeLine, c.Type)
	}
}

func TestGenerate_ScenarioBoxplot(t *testing.T) {
	text := "n\n"
	for i := 10; i >= 1; i-- {
		text += fmt.Sprintf("%d\n", i)
	}
	cs := generate(t, text, analysis.Options{MaxCategoricalUnique: 5})
	box, ok := byID(cs, "boxplot-n")
	require.True(t, ok)
	require.Len(t, box.Data, 1)
	rec := box.Data[0].(charts.BoxplotRecord)
	assert.Equal(t, 1.0, rec.Min)
	assert.Equal(t, 10.0, rec.Max)
	assert.Equal(t, 6.0, rec.Median)
	assert.Equal(t, 3.0, rec.Q1)
	assert.Equal(t, 8.0, rec.Q3)
	assert.Equal(t, 0, rec.Outliers)
}

func TestGenerate_PieOrderingAndPercentages(t *testing.T) {
	cs := generate(t, "c\nb\na\nz\na\nz\nb\nb\n", analysis.DefaultOptions())
	pie, ok := byID(cs, "pie-c")
	require.True(t, ok)
	// a and z tie-break by first appearance
	want := []charts.PieSlice{
		{Name: "b", Value: 3, Percentage: 42.9},
		{Name: "a", Value: 2, Percentage: 28.6},
		{Name: "z", Value: 2, Percentage: 28.6},
	}
	require.Len(t, pie.Data, 3)
	for i, r := range pie.Data {
		assert.Equal(t, want[i], r.(charts.PieSlice))
	}
}

func TestGenerate_PieSkipsSingleValue(t *testing.T) {
	cs := generate(t, "c\nx\nx\nNULL\n", analysis.DefaultOptions())
	_, ok := byID(cs, "pie-c")
	assert.False(t, ok)
}

func TestGenerate_BivariateMeansInFirstSeenOrder(t *testing.T) {
	var b strings.Builder
	b.WriteString("team,score\n")
	for i := 0; i < 30; i++ {
		team := "red"
		if i%3 == 0 {
			team = "blue"
		}
		fmt.Fprintf(&b, "%s,%d\n", team, 100+i)
	}
	b.WriteString("-,500\n")
	cs := generate(t, b.String(), analysis.DefaultOptions())
	bar, ok := byID(cs, "bar-team-score")
	require.True(t, ok)
	require.Len(t, bar.Data, 2)
	blue := bar.Data[0].(charts.CategoryMean)
	red := bar.Data[1].(charts.CategoryMean)
	assert.Equal(t, "blue", blue.Name)
	assert.Equal(t, 10, blue.Count)
	assert.InDelta(t, 113.5, blue.Value, 1e-9)
	assert.Equal(t, "red", red.Name)
	assert.Equal(t, 20, red.Count)
	assert.Greater(t, red.Std, 0.0)

	box, ok := byID(cs, "boxplot-team-score")
	require.True(t, ok)
	assert.Len(t, box.Data, 2)
}

func TestGenerate_ScatterNeedsMoreThanFivePoints(t *testing.T) {
	text := "x,y\n"
	for i := 0; i < 25; i++ {
		if i < 5 {
			text += fmt.Sprintf("%d,%d\n", i, i)
		} else {
			text += fmt.Sprintf("%d,NULL\n", i)
		}
	}
	cs := generate(t, text, analysis.Options{MaxCategoricalUnique: 1})
	_, ok := byID(cs, "scatter-x-y")
	assert.False(t, ok)
}

func TestGenerate_ScatterCapsPoints(t *testing.T) {
	text := "x,y\n"
	for i := 0; i < 90; i++ {
		text += fmt.Sprintf("%d,%d\n", i, i*i)
	}
	cs := generate(t, text, analysis.DefaultOptions())
	sc, ok := byID(cs, "scatter-x-y")
	require.True(t, ok)
	assert.Len(t, sc.Data, 50)
	reg, ok := byID(cs, "regression-x-y")
	require.True(t, ok)
	assert.True(t, reg.Config.ShowTrend)
	assert.Equal(t, sc.Data, reg.Data)
}

func TestGenerate_EmptyInputs(t *testing.T) {
	assert.Empty(t, generate(t, "", analysis.DefaultOptions()))
	assert.Empty(t, generate(t, "a,b\n", analysis.DefaultOptions()))
	assert.NotNil(t, charts.Generate(nil, nil, charts.Options{}))
}

func TestChart_JSONShape(t *testing.T) {
	cs := generate(t, "c\nb\na\nb\n", analysis.DefaultOptions())
	pie, ok := byID(cs, "pie-c")
	require.True(t, ok)
	b, err := json.Marshal(pie)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "pie", m["type"])
	assert.Equal(t, "categorical", m["category"])
	assert.Equal(t, map[string]any{"dataKey": "value"}, m["config"])
	first := m["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "b", first["name"])
	assert.Equal(t, float64(2), first["value"])
}

func TestGenerate_HistogramNearFloatLimit(t *testing.T) {
	var b strings.Builder
	b.WriteString("v\n-1e308\n1e308\n1.5e308\n")
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&b, "%d\n", i)
	}
	tbl := parser.Parse(b.String())
	profiles := analysis.Classify(tbl, analysis.DefaultOptions())
	require.Equal(t, analysis.KindNumerical, profiles[0].Kind)

	var cs []charts.Chart
	require.NotPanics(t, func() { cs = charts.Generate(tbl, profiles, charts.DefaultOptions()) })
	hist, ok := byID(cs, "histogram-v")
	require.True(t, ok)
	counts := make([]int, len(hist.Data))
	total := 0
	for i, r := range hist.Data {
		counts[i] = r.(charts.HistogramBin).Value
		total += counts[i]
	}
	assert.Equal(t, 28, total)
	assert.Equal(t, []int{1, 0, 0, 0, 25, 0, 0, 0, 1, 1}, counts)

	_, err := json.Marshal(profiles)
	require.NoError(t, err)
	_, err = json.Marshal(cs)
	require.NoError(t, err)
}

func TestGenerate_RaggedRows(t *testing.T) {
	var b strings.Builder
	b.WriteString("id,group,score\n")
	for i := 0; i < 30; i++ {
		switch i % 10 {
		case 3:
			fmt.Fprintf(&b, "%d\n", i)
		case 7:
			fmt.Fprintf(&b, "%d,g%d,%d,extra,cells\n", i, i%2, i*3)
		default:
			fmt.Fprintf(&b, "%d,g%d,%d\n", i, i%2, i*3)
		}
	}
	tbl := parser.Parse(b.String())
	profiles := analysis.Classify(tbl, analysis.DefaultOptions())
	require.Len(t, profiles, 3)
	assert.Equal(t, 3, profiles[1].Stats.NullCount)
	assert.Equal(t, 3, profiles[2].Stats.NullCount)

	var cs []charts.Chart
	require.NotPanics(t, func() { cs = charts.Generate(tbl, profiles, charts.DefaultOptions()) })
	hist, ok := byID(cs, "histogram-score")
	require.True(t, ok)
	total := 0
	for _, r := range hist.Data {
		total += r.(charts.HistogramBin).Value
	}
	assert.Equal(t, 27, total)
}
