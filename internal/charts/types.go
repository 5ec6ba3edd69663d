package charts

// Type is the visual form of a chart.
type Type string

const (
	TypeBar     Type = "bar"
	TypeLine    Type = "line"
	TypePie     Type = "pie"
	TypeScatter Type = "scatter"
	TypeHeatmap Type = "heatmap"
	TypeBoxplot Type = "boxplot"
	TypeArea    Type = "area"
)

// Category groups charts by the kind of question they answer.
type Category string

const (
	CategoryUnivariate  Category = "univariate"
	CategoryBivariate   Category = "bivariate"
	CategoryCorrelation Category = "correlation"
	CategoryPairwise    Category = "pairwise"
	CategoryCategorical Category = "categorical"
	CategoryTimeseries  Category = "timeseries"
)

// Config names the record fields a renderer should map to axes.
type Config struct {
	XKey      string `json:"xKey,omitempty"`
	YKey      string `json:"yKey,omitempty"`
	DataKey   string `json:"dataKey,omitempty"`
	ValueKey  string `json:"valueKey,omitempty"`
	ShowTrend bool   `json:"showTrend,omitempty"`
}

// Chart is one renderable visualization.
type Chart struct {
	ID          string   `json:"id"`
	Type        Type     `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Data        []Record `json:"data"`
	Config      Config   `json:"config"`
}

// Record is a single data point of a chart. The concrete type depends on
// the chart: the set of implementations is closed.
type Record interface {
	record()
}

// HistogramBin counts the values falling in one equal-width bin.
type HistogramBin struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Bin   int    `json:"bin"`
}

// DensityBin is a histogram bin with its share of the total.
type DensityBin struct {
	Name    string  `json:"name"`
	Value   int     `json:"value"`
	Bin     int     `json:"bin"`
	Density float64 `json:"density"`
}

// BoxplotRecord is a five-number summary plus the count of values outside
// the 1.5*IQR fences.
type BoxplotRecord struct {
	Name     string  `json:"name"`
	Min      float64 `json:"min"`
	Q1       float64 `json:"q1"`
	Median   float64 `json:"median"`
	Q3       float64 `json:"q3"`
	Max      float64 `json:"max"`
	Outliers int     `json:"outliers"`
}

// HeatmapCell is one entry of a correlation matrix.
type HeatmapCell struct {
	X     string  `json:"x"`
	Y     string  `json:"y"`
	Value float64 `json:"value"`
}

type ScatterPoint struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Name string  `json:"name"`
}

// CategoryMean summarizes a numeric column within one category value.
type CategoryMean struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
	Std   float64 `json:"std"`
}

type PieSlice struct {
	Name       string  `json:"name"`
	Value      int     `json:"value"`
	Percentage float64 `json:"percentage"`
}

// SeriesPoint is one observation of a time series; Date is YYYY-MM-DD.
type SeriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
	Name  string  `json:"name"`
}

func (HistogramBin) record()  {}
func (DensityBin) record()    {}
func (BoxplotRecord) record() {}
func (HeatmapCell) record()   {}
func (ScatterPoint) record()  {}
func (CategoryMean) record()  {}
func (PieSlice) record()      {}
func (SeriesPoint) record()   {}

// Categories tallies charts per category.
func Categories(charts []Chart) map[Category]int {
	out := make(map[Category]int)
	for _, c := range charts {
		out[c.Category]++
	}
	return out
}
