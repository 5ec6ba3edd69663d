package charts

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/KaramelBytes/dataloom-cli/internal/analysis"
	"github.com/KaramelBytes/dataloom-cli/internal/parser"
)

const histogramBins = 10

// Options bounds the work done per batch.
type Options struct {
	// SampleRows caps the data rows considered; 0 means 100.
	SampleRows int
	// MaxScatterPoints caps scatter data; 0 means 50.
	MaxScatterPoints int
	// MaxCategories is the largest distinct-value count a categorical column may
	// have to take part in bar, boxplot and pie charts; 0 means 20.
	MaxCategories int
}

// DefaultOptions returns the generation defaults.
func DefaultOptions() Options {
	return Options{SampleRows: 100, MaxScatterPoints: 50, MaxCategories: 20}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SampleRows <= 0 {
		o.SampleRows = d.SampleRows
	}
	if o.MaxScatterPoints <= 0 {
		o.MaxScatterPoints = d.MaxScatterPoints
	}
	if o.MaxCategories <= 0 {
		o.MaxCategories = d.MaxCategories
	}
	return o
}

type generator struct {
	t   *parser.RawTable
	opt Options
	ids idRegistry
	out []Chart
}

// Generate derives every chart the profiled columns support from the first
// opt.SampleRows rows of t.
func Generate(t *parser.RawTable, profiles []analysis.ColumnProfile, opt Options) []Chart {
	if t == nil || len(t.Rows) == 0 || len(profiles) == 0 {
		return []Chart{}
	}
	opt = opt.withDefaults()
	g := &generator{t: t.Head(opt.SampleRows), opt: opt, ids: idRegistry{}, out: []Chart{}}

	numerical := analysis.ByKind(profiles, analysis.KindNumerical)
	categorical := analysis.ByKind(profiles, analysis.KindCategorical)
	dates := analysis.ByKind(profiles, analysis.KindDate)

	for _, p := range numerical {
		g.univariate(p)
	}
	if len(numerical) > 1 {
		g.correlation(numerical)
	}
	for i := 0; i < len(numerical); i++ {
		for j := i + 1; j < len(numerical); j++ {
			g.pairwise(numerical[i], numerical[j])
		}
	}
	for _, c := range categorical {
		if c.UniqueCount < 1 || c.UniqueCount > opt.MaxCategories {
			continue
		}
		for _, n := range numerical {
			g.bivariate(c, n)
		}
	}
	for _, c := range categorical {
		g.pie(c)
	}
	if len(categorical) > 1 {
		g.categoricalCorrelation(categorical)
	}
	for _, d := range dates {
		for _, p := range profiles {
			if p.Kind == analysis.KindNumerical || (p.Kind == analysis.KindCategorical && p.Numeric) {
				g.timeSeries(d, p)
			}
		}
	}
	return g.out
}

func (g *generator) add(c Chart) {
	g.out = append(g.out, c)
}

// numbers returns the parseable values of a column.
func (g *generator) numbers(col int) []float64 {
	var vals []float64
	for r := range g.t.Rows {
		if v, ok := analysis.ParseNumber(g.t.Cell(r, col)); ok {
			vals = append(vals, v)
		}
	}
	return vals
}

func present(cell string) bool {
	return cell != "" && cell != parser.NullToken
}

func (g *generator) univariate(p analysis.ColumnProfile) {
	vals := g.numbers(p.Index)
	if len(vals) == 0 {
		return
	}
	sorted := analysis.Sorted(vals)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	width := binWidth(lo, hi)
	counts := make([]int, histogramBins)
	for _, v := range vals {
		counts[binIndex(v, lo, width)]++
	}

	hist := make([]Record, histogramBins)
	density := make([]Record, histogramBins)
	for i, n := range counts {
		start := lo + float64(i)*width
		label := fmt.Sprintf("%.1f-%.1f", start, start+width)
		hist[i] = HistogramBin{Name: label, Value: n, Bin: i}
		density[i] = DensityBin{Name: label, Value: n, Bin: i, Density: float64(n) / float64(len(vals))}
	}
	g.add(Chart{
		ID:          g.ids.claim("histogram", p.Name),
		Type:        TypeBar,
		Title:       "Histogram of " + p.Name,
		Description: fmt.Sprintf("Distribution of %s values", p.Name),
		Category:    CategoryUnivariate,
		Data:        hist,
		Config:      Config{XKey: "name", YKey: "value"},
	})
	g.add(Chart{
		ID:          g.ids.claim("density", p.Name),
		Type:        TypeArea,
		Title:       "Density of " + p.Name,
		Description: fmt.Sprintf("Share of %s values per bin", p.Name),
		Category:    CategoryUnivariate,
		Data:        density,
		Config:      Config{XKey: "name", YKey: "density"},
	})
	g.add(Chart{
		ID:          g.ids.claim("boxplot", p.Name),
		Type:        TypeBoxplot,
		Title:       "Box Plot of " + p.Name,
		Description: fmt.Sprintf("Quartile analysis of %s", p.Name),
		Category:    CategoryUnivariate,
		Data:        []Record{boxplot(p.Name, vals)},
		Config:      Config{DataKey: "name"},
	})
}

// binWidth splits [lo, hi] into histogramBins equal parts. Ranges wider than
// float64 can hold are divided before subtracting.
func binWidth(lo, hi float64) float64 {
	w := (hi - lo) / histogramBins
	if math.IsInf(w, 0) {
		w = hi/histogramBins - lo/histogramBins
	}
	return w
}

// binIndex places v into one of histogramBins equal-width bins starting at lo.
func binIndex(v, lo, width float64) int {
	if !(width > 0) {
		return 0
	}
	f := (v - lo) / width
	if math.IsInf(v-lo, 0) {
		f = (v/2 - lo/2) / (width / 2)
	}
	switch {
	case math.IsNaN(f) || f < 0:
		return 0
	case f >= histogramBins:
		return histogramBins - 1
	}
	return int(f)
}

func boxplot(name string, vals []float64) BoxplotRecord {
	s := analysis.Summarize(vals)
	q1, q3 := s.Quartiles[0], s.Quartiles[1]
	return BoxplotRecord{
		Name:     name,
		Min:      s.Min,
		Q1:       q1,
		Median:   s.Median,
		Q3:       q3,
		Max:      s.Max,
		Outliers: analysis.OutlierCount(vals, q1, q3),
	}
}

// pairs collects the rows where both columns parse as numbers.
func (g *generator) pairs(a, b int) (xs, ys []float64, rows []int) {
	for r := range g.t.Rows {
		x, okX := analysis.ParseNumber(g.t.Cell(r, a))
		y, okY := analysis.ParseNumber(g.t.Cell(r, b))
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
			rows = append(rows, r)
		}
	}
	return xs, ys, rows
}

func correlationValue(xs, ys []float64) float64 {
	// adding zero turns a negative zero into a positive one
	return analysis.Round(analysis.Pearson(xs, ys), 2) + 0
}

func (g *generator) correlation(cols []analysis.ColumnProfile) {
	cells := make([]Record, 0, len(cols)*len(cols))
	for _, a := range cols {
		for _, b := range cols {
			xs, ys, _ := g.pairs(a.Index, b.Index)
			cells = append(cells, HeatmapCell{X: a.Name, Y: b.Name, Value: correlationValue(xs, ys)})
		}
	}
	g.add(Chart{
		ID:          g.ids.claim("correlation-heatmap"),
		Type:        TypeHeatmap,
		Title:       "Correlation Heatmap",
		Description: "Correlation matrix of numerical variables",
		Category:    CategoryCorrelation,
		Data:        cells,
		Config:      Config{XKey: "x", YKey: "y", ValueKey: "value"},
	})
}

func (g *generator) pairwise(a, b analysis.ColumnProfile) {
	xs, ys, rows := g.pairs(a.Index, b.Index)
	n := min(len(xs), g.opt.MaxScatterPoints)
	if n <= 5 {
		return
	}
	points := make([]Record, n)
	for i := 0; i < n; i++ {
		points[i] = ScatterPoint{X: xs[i], Y: ys[i], Name: fmt.Sprintf("Point %d", rows[i])}
	}
	g.add(Chart{
		ID:          g.ids.claim("scatter", a.Name, b.Name),
		Type:        TypeScatter,
		Title:       fmt.Sprintf("%s vs %s", a.Name, b.Name),
		Description: fmt.Sprintf("Relationship between %s and %s", a.Name, b.Name),
		Category:    CategoryPairwise,
		Data:        points,
		Config:      Config{XKey: "x", YKey: "y"},
	})
	g.add(Chart{
		ID:          g.ids.claim("regression", a.Name, b.Name),
		Type:        TypeScatter,
		Title:       fmt.Sprintf("%s vs %s (trend)", a.Name, b.Name),
		Description: fmt.Sprintf("Trend of %s against %s", b.Name, a.Name),
		Category:    CategoryPairwise,
		Data:        points,
		Config:      Config{XKey: "x", YKey: "y", ShowTrend: true},
	})
}

func (g *generator) bivariate(cat, num analysis.ColumnProfile) {
	var order []string
	groups := map[string][]float64{}
	for r := range g.t.Rows {
		key := g.t.Cell(r, cat.Index)
		v, ok := analysis.ParseNumber(g.t.Cell(r, num.Index))
		if !ok || !present(key) {
			continue
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], v)
	}
	if len(order) == 0 {
		return
	}
	means := make([]Record, 0, len(order))
	boxes := make([]Record, 0, len(order))
	for _, k := range order {
		vals := groups[k]
		means = append(means, CategoryMean{Name: k, Value: analysis.Mean(vals), Count: len(vals), Std: analysis.StdDev(vals)})
		boxes = append(boxes, boxplot(k, vals))
	}
	g.add(Chart{
		ID:          g.ids.claim("bar", cat.Name, num.Name),
		Type:        TypeBar,
		Title:       fmt.Sprintf("Mean %s by %s", num.Name, cat.Name),
		Description: fmt.Sprintf("Average %s across different %s categories", num.Name, cat.Name),
		Category:    CategoryBivariate,
		Data:        means,
		Config:      Config{XKey: "name", YKey: "value"},
	})
	g.add(Chart{
		ID:          g.ids.claim("boxplot", cat.Name, num.Name),
		Type:        TypeBoxplot,
		Title:       fmt.Sprintf("Box Plot: %s by %s", num.Name, cat.Name),
		Description: fmt.Sprintf("Distribution of %s across %s categories", num.Name, cat.Name),
		Category:    CategoryBivariate,
		Data:        boxes,
		Config:      Config{XKey: "name", YKey: "median"},
	})
}

func (g *generator) pie(p analysis.ColumnProfile) {
	var order []string
	counts := map[string]int{}
	total := 0
	for r := range g.t.Rows {
		v := g.t.Cell(r, p.Index)
		if !present(v) {
			continue
		}
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
		total++
	}
	if len(order) < 2 || len(order) > g.opt.MaxCategories {
		return
	}
	// stable keeps first-appearance order among equal counts
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	data := make([]Record, len(order))
	for i, k := range order {
		data[i] = PieSlice{Name: k, Value: counts[k], Percentage: analysis.Round(100*float64(counts[k])/float64(total), 1)}
	}
	g.add(Chart{
		ID:          g.ids.claim("pie", p.Name),
		Type:        TypePie,
		Title:       "Distribution of " + p.Name,
		Description: fmt.Sprintf("Breakdown of %s categories", p.Name),
		Category:    CategoryCategorical,
		Data:        data,
		Config:      Config{DataKey: "value"},
	})
}

func (g *generator) categoricalCorrelation(cols []analysis.ColumnProfile) {
	codes := make([]map[string]float64, len(cols))
	for i, c := range cols {
		m := map[string]float64{}
		for r := range g.t.Rows {
			v := g.t.Cell(r, c.Index)
			if _, seen := m[v]; present(v) && !seen {
				m[v] = float64(len(m))
			}
		}
		codes[i] = m
	}
	cells := make([]Record, 0, len(cols)*len(cols))
	for i, a := range cols {
		for j, b := range cols {
			var xs, ys []float64
			for r := range g.t.Rows {
				va, vb := g.t.Cell(r, a.Index), g.t.Cell(r, b.Index)
				if present(va) && present(vb) {
					xs = append(xs, codes[i][va])
					ys = append(ys, codes[j][vb])
				}
			}
			cells = append(cells, HeatmapCell{X: a.Name, Y: b.Name, Value: correlationValue(xs, ys)})
		}
	}
	g.add(Chart{
		ID:          g.ids.claim("categorical-correlation-heatmap"),
		Type:        TypeHeatmap,
		Title:       "Categorical Variables Correlation",
		Description: "Correlation matrix of categorical variables (encoded)",
		Category:    CategoryCategorical,
		Data:        cells,
		Config:      Config{XKey: "x", YKey: "y", ValueKey: "value"},
	})
}

func (g *generator) timeSeries(date, num analysis.ColumnProfile) {
	type obs struct {
		at time.Time
		v  float64
	}
	var series []obs
	for r := range g.t.Rows {
		at, okD := analysis.ParseDate(g.t.Cell(r, date.Index))
		v, okV := analysis.ParseNumber(g.t.Cell(r, num.Index))
		if okD && okV {
			series = append(series, obs{at: at, v: v})
		}
	}
	if len(series) < 3 {
		return
	}
	sort.SliceStable(series, func(i, j int) bool { return series[i].at.Before(series[j].at) })
	points := make([]Record, len(series))
	for i, o := range series {
		points[i] = SeriesPoint{Date: o.at.Format("2006-01-02"), Value: o.v, Name: o.at.Format("1/2/2006")}
	}
	g.add(Chart{
		ID:          g.ids.claim("timeseries", date.Name, num.Name),
		Type:        TypeLine,
		Title:       fmt.Sprintf("Time Series: %s over %s", num.Name, date.Name),
		Description: fmt.Sprintf("Trend of %s over time", num.Name),
		Category:    CategoryTimeseries,
		Data:        points,
		Config:      Config{XKey: "name", YKey: "value"},
	})
}
