// Package charts renders analysis results as standalone ECharts pages. Each
// builder returns something the HTTP layer can stream straight to the
// response.
package charts

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kjstillabower/weather-insights/internal/analysis"
)

// Renderable is a chart or page ready to be written as HTML.
type Renderable interface {
	Render(w io.Writer) error
}

const (
	chartWidth  = "920px"
	chartHeight = "540px"
)

// MissingHeatmap maps missing cells across the table: columns on the x axis,
// row indices on the y axis, missing cells highlighted.
func MissingHeatmap(report analysis.MissingReport, columns []string) Renderable {
	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: "Missing values"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: columns, SplitArea: &opts.SplitArea{Show: true}}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: rowLabels(len(report.Mask)), SplitArea: &opts.SplitArea{Show: true}}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Min:     0,
			Max:     1,
			InRange: &opts.VisualMapInRange{Color: []string{"#440154", "#fde725"}},
		}),
	)

	data := make([]opts.HeatMapData, 0, len(report.Mask)*len(columns))
	for row, cells := range report.Mask {
		for col, missing := range cells {
			v := 0
			if missing {
				v = 1
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{col, row, v}})
		}
	}
	hm.AddSeries("missing", data)
	return hm
}

func rowLabels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = strconv.Itoa(i)
	}
	return labels
}

// Histogram shows a numeric column's binned counts with the five-number
// summary as a box plot below.
func Histogram(dist analysis.Distribution) Renderable {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Distribution of %s", dist.Column)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true}),
		charts.WithYAxisOpts(opts.YAxis{Name: "count"}),
	)

	labels := make([]string, len(dist.Bins))
	values := make([]opts.BarData, len(dist.Bins))
	for i, bin := range dist.Bins {
		labels[i] = fmt.Sprintf("%.4g to %.4g", bin.Low, bin.High)
		values[i] = opts.BarData{Value: bin.Count}
	}
	bar.SetXAxis(labels).AddSeries(dist.Column, values)

	box := charts.NewBoxPlot()
	box.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: "220px"}),
		charts.WithTitleOpts(opts.Title{Title: "Five-number summary"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true}),
	)
	box.SetXAxis([]string{dist.Column}).AddSeries(dist.Column, []opts.BoxPlotData{
		{Value: []float64{dist.Box.Min, dist.Box.Q1, dist.Box.Median, dist.Box.Q3, dist.Box.Max}},
	})

	page := components.NewPage()
	page.AddCharts(bar, box)
	return page
}

// FrequencyBar shows category counts, largest first.
func FrequencyBar(freq analysis.Frequency) Renderable {
	bar := charts.NewBar()
	title := fmt.Sprintf("Value counts for %s", freq.Column)
	subtitle := ""
	if freq.Truncated() {
		subtitle = fmt.Sprintf("showing top %d of %d categories", freq.Shown, freq.Total)
	}
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Show: true, Rotate: 45}}),
		charts.WithYAxisOpts(opts.YAxis{Name: "count"}),
	)

	labels := make([]string, len(freq.Values))
	values := make([]opts.BarData, len(freq.Values))
	for i, vc := range freq.Values {
		labels[i] = vc.Value
		values[i] = opts.BarData{Value: vc.Count}
	}
	bar.SetXAxis(labels).AddSeries(freq.Column, values)
	return bar
}

// CorrelationHeatmap shows the Pearson matrix annotated with coefficients.
// NaN cells are left blank.
func CorrelationHeatmap(corr analysis.Correlation) Renderable {
	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: "Correlation matrix"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: corr.Columns, SplitArea: &opts.SplitArea{Show: true}, AxisLabel: &opts.AxisLabel{Show: true, Rotate: 45}}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: corr.Columns, SplitArea: &opts.SplitArea{Show: true}}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Min:        -1,
			Max:        1,
			Calculable: true,
			InRange:    &opts.VisualMapInRange{Color: []string{"#313695", "#ffffff", "#a50026"}},
		}),
	)

	var data []opts.HeatMapData
	for i := range corr.Columns {
		for j := range corr.Columns {
			v := corr.Matrix[i][j]
			if math.IsNaN(v) {
				continue
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{j, i, round2(v)}})
		}
	}
	hm.AddSeries("pearson", data,
		charts.WithLabelOpts(opts.Label{
			Show:      true,
			Formatter: opts.FuncOpts("function (p) { return p.value[2].toFixed(2); }"),
		}),
	)
	return hm
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// TimeSeriesLine shows bucket counts over time with point markers.
func TimeSeriesLine(ts analysis.TimeSeries) Renderable {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Records over time by %s", ts.Column),
			Subtitle: fmt.Sprintf("%s buckets", ts.Granularity),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true}),
		charts.WithYAxisOpts(opts.YAxis{Name: "records"}),
	)

	labels := make([]string, len(ts.Buckets))
	values := make([]opts.LineData, len(ts.Buckets))
	for i, b := range ts.Buckets {
		labels[i] = b.Label(ts.Granularity)
		values[i] = opts.LineData{Value: b.Count}
	}
	line.SetXAxis(labels).AddSeries("records", values,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: true}),
	)
	return line
}
