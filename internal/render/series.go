// Package render exports chart datasets as an interactive HTML page or as
// static PNG images.
package render

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/dataloom-cli/internal/analysis"
	"github.com/KaramelBytes/dataloom-cli/internal/charts"
)

// ErrUnsupportedChart is returned for chart types a renderer cannot draw.
var ErrUnsupportedChart = errors.New("unsupported chart type")

// labeled flattens one-dimensional records into parallel label/value slices.
func labeled(c charts.Chart) ([]string, []float64, error) {
	labels := make([]string, 0, len(c.Data))
	values := make([]float64, 0, len(c.Data))
	for _, r := range c.Data {
		switch v := r.(type) {
		case charts.HistogramBin:
			labels, values = append(labels, v.Name), append(values, float64(v.Value))
		case charts.DensityBin:
			labels, values = append(labels, v.Name), append(values, v.Density)
		case charts.CategoryMean:
			labels, values = append(labels, v.Name), append(values, v.Value)
		case charts.PieSlice:
			labels, values = append(labels, v.Name), append(values, float64(v.Value))
		case charts.SeriesPoint:
			labels, values = append(labels, v.Date), append(values, v.Value)
		default:
			return nil, nil, fmt.Errorf("%w: %s chart %q holds %T", ErrUnsupportedChart, c.Type, c.ID, r)
		}
	}
	return labels, values, nil
}

// trendLine fits y = a + b*x by least squares and returns the segment
// spanning the observed x range.
func trendLine(points []charts.ScatterPoint) (x0, y0, x1, y1 float64, ok bool) {
	if len(points) < 2 {
		return 0, 0, 0, 0, false
	}
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = p.X, p.Y
	}
	mx, my := analysis.Mean(xs), analysis.Mean(ys)
	var sxy, sxx float64
	x0, x1 = xs[0], xs[0]
	for i := range xs {
		sxy += (xs[i] - mx) * (ys[i] - my)
		sxx += (xs[i] - mx) * (xs[i] - mx)
		x0, x1 = min(x0, xs[i]), max(x1, xs[i])
	}
	if sxx == 0 {
		return 0, 0, 0, 0, false
	}
	b := sxy / sxx
	a := my - b*mx
	return x0, a + b*x0, x1, a + b*x1, true
}
