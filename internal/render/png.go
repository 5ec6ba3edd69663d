package render

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/dataloom-cli/internal/charts"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
)

const (
	pngWidth  = 1024
	pngHeight = 512
)

// PNG draws bar, line and area charts. Other types return ErrUnsupportedChart.
func PNG(w io.Writer, c charts.Chart) error {
	labels, values, err := labeled(c)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return fmt.Errorf("render %s: no data", c.ID)
	}
	switch c.Type {
	case charts.TypeBar:
		return barPNG(w, c, labels, values)
	case charts.TypeLine, charts.TypeArea:
		return linePNG(w, c, labels, values)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedChart, c.Type)
}

// PNGDir writes one <id>.png per drawable chart into dir and returns the
// written paths. Charts of unsupported types are skipped.
func PNGDir(dir string, list []charts.Chart) ([]string, error) {
	var written []string
	for _, c := range list {
		if !PNGSupported(c.Type) {
			continue
		}
		var buf bytes.Buffer
		if err := PNG(&buf, c); err != nil {
			return written, fmt.Errorf("render %s: %w", c.ID, err)
		}
		path := filepath.Join(dir, c.ID+".png")
		if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// PNGSupported reports whether PNG can draw charts of type t.
func PNGSupported(t charts.Type) bool {
	return t == charts.TypeBar || t == charts.TypeLine || t == charts.TypeArea
}

func valueRange(values []float64) *chart.ContinuousRange {
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	lo = min(lo, 0)
	if hi == lo {
		hi = lo + 1
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

func barPNG(w io.Writer, c charts.Chart, labels []string, values []float64) error {
	bars := make([]chart.Value, len(values))
	for i, v := range values {
		bars[i] = chart.Value{
			Value: v,
			Label: labels[i],
			Style: chart.Style{FillColor: drawing.ColorBlue.WithAlpha(160), StrokeColor: drawing.ColorBlue},
		}
	}
	graph := chart.BarChart{
		Title:      c.Title,
		Width:      pngWidth,
		Height:     pngHeight,
		BarWidth:   max(8, (pngWidth-200)/len(bars)-10),
		Background: chart.Style{Padding: chart.Box{Top: 40, Bottom: 60}},
		XAxis:      chart.Style{TextRotationDegrees: 45, FontSize: 8},
		YAxis:      chart.YAxis{Range: valueRange(values)},
		Bars:       bars,
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("error rendering chart: %w", err)
	}
	return nil
}

func linePNG(w io.Writer, c charts.Chart, labels []string, values []float64) error {
	style := chart.Style{StrokeColor: drawing.ColorBlue, StrokeWidth: 2}
	if c.Type == charts.TypeArea {
		style.FillColor = drawing.ColorBlue.WithAlpha(80)
	}

	if times, ok := parseDates(labels); ok {
		series := chart.TimeSeries{Name: c.Title, Style: style, XValues: times, YValues: values}
		return renderLine(w, c, series, values, chart.XAxis{ValueFormatter: chart.TimeDateValueFormatter})
	}

	// Category labels sit on an index axis.
	xs := make([]float64, len(values))
	ticks := make([]chart.Tick, len(values))
	for i := range values {
		xs[i] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: labels[i]}
	}
	if len(xs) == 1 {
		xs = append(xs, 1)
		values = append(values, values[0])
	}
	series := chart.ContinuousSeries{Name: c.Title, Style: style, XValues: xs, YValues: values}
	return renderLine(w, c, series, values, chart.XAxis{Ticks: ticks, Style: chart.Style{TextRotationDegrees: 45, FontSize: 8}})
}

func renderLine(w io.Writer, c charts.Chart, s chart.Series, values []float64, x chart.XAxis) error {
	graph := chart.Chart{
		Title:      c.Title,
		Width:      pngWidth,
		Height:     pngHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		XAxis:      x,
		YAxis:      chart.YAxis{Range: valueRange(values)},
		Series:     []chart.Series{s},
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("error rendering chart: %w", err)
	}
	return nil
}

func parseDates(labels []string) ([]time.Time, bool) {
	if len(labels) < 2 {
		return nil, false
	}
	out := make([]time.Time, len(labels))
	for i, l := range labels {
		t, err := time.Parse("2006-01-02", l)
		if err != nil {
			return nil, false
		}
		out[i] = t
	}
	return out, out[len(out)-1].After(out[0])
}
