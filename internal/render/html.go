package render

import (
	"fmt"
	"io"

	echarts "github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/KaramelBytes/dataloom-cli/internal/charts"
	"github.com/KaramelBytes/dataloom-cli/internal/dashboard"
)

// HTML writes the dashboard as a single page with one echarts chart per dataset.
func HTML(w io.Writer, p dashboard.Payload) error {
	page := components.NewPage()
	page.SetPageTitle(p.Title)
	page.SetLayout(components.PageFlexLayout)
	for _, c := range p.Charts {
		ch, err := echart(c)
		if err != nil {
			return err
		}
		page.AddCharts(ch)
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

func globals(c charts.Chart) []echarts.GlobalOpts {
	return []echarts.GlobalOpts{
		echarts.WithTitleOpts(opts.Title{Title: c.Title, Subtitle: c.Description}),
		echarts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}
}

func echart(c charts.Chart) (components.Charter, error) {
	switch c.Type {
	case charts.TypeBar:
		labels, values, err := labeled(c)
		if err != nil {
			return nil, err
		}
		data := make([]opts.BarData, len(values))
		for i, v := range values {
			data[i] = opts.BarData{Value: v}
		}
		bar := echarts.NewBar()
		bar.SetGlobalOptions(globals(c)...)
		bar.SetXAxis(labels).AddSeries(c.Config.YKey, data)
		return bar, nil

	case charts.TypeLine, charts.TypeArea:
		labels, values, err := labeled(c)
		if err != nil {
			return nil, err
		}
		data := make([]opts.LineData, len(values))
		for i, v := range values {
			data[i] = opts.LineData{Value: v}
		}
		var series []echarts.SeriesOpts
		if c.Type == charts.TypeArea {
			series = append(series,
				echarts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(0.4)}),
				echarts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
			)
		}
		line := echarts.NewLine()
		line.SetGlobalOptions(globals(c)...)
		line.SetXAxis(labels).AddSeries(c.Config.YKey, data, series...)
		return line, nil

	case charts.TypePie:
		labels, values, err := labeled(c)
		if err != nil {
			return nil, err
		}
		data := make([]opts.PieData, len(values))
		for i, v := range values {
			data[i] = opts.PieData{Name: labels[i], Value: v}
		}
		pie := echarts.NewPie()
		pie.SetGlobalOptions(globals(c)...)
		pie.AddSeries(c.Config.DataKey, data)
		return pie, nil

	case charts.TypeScatter:
		return scatter(c)

	case charts.TypeHeatmap:
		return heatmap(c)

	case charts.TypeBoxplot:
		names := make([]string, 0, len(c.Data))
		data := make([]opts.BoxPlotData, 0, len(c.Data))
		for _, r := range c.Data {
			b, ok := r.(charts.BoxplotRecord)
			if !ok {
				return nil, fmt.Errorf("%w: boxplot %q holds %T", ErrUnsupportedChart, c.ID, r)
			}
			names = append(names, b.Name)
			data = append(data, opts.BoxPlotData{Name: b.Name, Value: []float64{b.Min, b.Q1, b.Median, b.Q3, b.Max}})
		}
		box := echarts.NewBoxPlot()
		box.SetGlobalOptions(globals(c)...)
		box.SetXAxis(names).AddSeries(c.Title, data)
		return box, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedChart, c.Type)
}

func scatter(c charts.Chart) (components.Charter, error) {
	points := make([]charts.ScatterPoint, 0, len(c.Data))
	data := make([]opts.ScatterData, 0, len(c.Data))
	for _, r := range c.Data {
		p, ok := r.(charts.ScatterPoint)
		if !ok {
			return nil, fmt.Errorf("%w: scatter %q holds %T", ErrUnsupportedChart, c.ID, r)
		}
		points = append(points, p)
		data = append(data, opts.ScatterData{Name: p.Name, Value: []float64{p.X, p.Y}})
	}
	sc := echarts.NewScatter()
	sc.SetGlobalOptions(append(globals(c),
		echarts.WithXAxisOpts(opts.XAxis{Type: "value", Name: c.Config.XKey, Scale: opts.Bool(true)}),
		echarts.WithYAxisOpts(opts.YAxis{Type: "value", Name: c.Config.YKey, Scale: opts.Bool(true)}),
	)...)
	sc.AddSeries(c.Title, data)
	if c.Config.ShowTrend {
		if x0, y0, x1, y1, ok := trendLine(points); ok {
			trend := echarts.NewLine()
			trend.AddSeries("trend", []opts.LineData{{Value: []float64{x0, y0}}, {Value: []float64{x1, y1}}})
			sc.Overlap(trend)
		}
	}
	return sc, nil
}

func heatmap(c charts.Chart) (components.Charter, error) {
	var xs, ys []string
	xi, yi := map[string]int{}, map[string]int{}
	data := make([]opts.HeatMapData, 0, len(c.Data))
	for _, r := range c.Data {
		cell, ok := r.(charts.HeatmapCell)
		if !ok {
			return nil, fmt.Errorf("%w: heatmap %q holds %T", ErrUnsupportedChart, c.ID, r)
		}
		if _, seen := xi[cell.X]; !seen {
			xi[cell.X] = len(xs)
			xs = append(xs, cell.X)
		}
		if _, seen := yi[cell.Y]; !seen {
			yi[cell.Y] = len(ys)
			ys = append(ys, cell.Y)
		}
		data = append(data, opts.HeatMapData{Value: [3]interface{}{xi[cell.X], yi[cell.Y], cell.Value}})
	}
	hm := echarts.NewHeatMap()
	hm.SetGlobalOptions(append(globals(c),
		echarts.WithYAxisOpts(opts.YAxis{Type: "category", Data: ys}),
		echarts.WithVisualMapOpts(opts.VisualMap{Calculable: opts.Bool(true), Min: -1, Max: 1}),
	)...)
	hm.SetXAxis(xs).AddSeries(c.Title, data)
	return hm, nil
}
