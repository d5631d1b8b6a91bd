// Package chart renders sweep rankings as standalone HTML pages.
package chart

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/rustyeddy/exitsweep/results"
)

const (
	colorPnL      = "#3b82f6"
	colorHitRate  = "#fbbf24"
	colorStop     = "#f87171"
	colorPartial  = "#a78bfa"
	colorFull     = "#34d399"
	colorSession  = "#9ca3af"
	chartWidthPx  = 1400
	chartHeightPx = 520
)

// RenderRanking writes an HTML page for the first top entries of stats, in
// the order given. Callers rank beforehand; top <= 0 keeps everything.
func RenderRanking(w io.Writer, title string, stats []results.PolicyStatistics, top int) error {
	if top > 0 && top < len(stats) {
		stats = stats[:top]
	}
	if len(stats) == 0 {
		return fmt.Errorf("no policies to chart")
	}

	rows := results.Rows(stats)
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = r.Key
	}

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(rankingChart(title, keys, rows), exitsChart(keys, rows))

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func initOpts() opts.Initialization {
	return opts.Initialization{
		Width:  fmt.Sprintf("%dpx", chartWidthPx),
		Height: fmt.Sprintf("%dpx", chartHeightPx),
	}
}

// rankingChart puts total P&L on the left axis and the hit rate, in
// percent, on the right one.
func rankingChart(title string, keys []string, rows []results.Row) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts()),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "total P&L and hit rate"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "30"}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			AxisLabel: &opts.AxisLabel{Rotate: 45, Interval: "0"},
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "P&L"}),
	)
	bar.ExtendYAxis(opts.YAxis{Name: "hit %", Min: 0, Max: 100})

	pnl := make([]opts.BarData, len(rows))
	hit := make([]opts.LineData, len(rows))
	for i, r := range rows {
		pnl[i] = opts.BarData{Value: r.TotalPnL.InexactFloat64()}
		hit[i] = opts.LineData{Value: round2(r.HitRate)}
	}

	bar.SetXAxis(keys)
	bar.AddSeries("Total P&L", pnl, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorPnL}))

	line := charts.NewLine()
	line.SetXAxis(keys)
	line.AddSeries("Hit rate", hit,
		charts.WithLineChartOpts(opts.LineChart{YAxisIndex: 1}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorHitRate, Width: 2}),
	)
	bar.Overlap(line)

	return bar
}

// exitsChart stacks how each policy's trades ended.
func exitsChart(keys []string, rows []results.Row) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts()),
		charts.WithTitleOpts(opts.Title{Title: "Exits", Subtitle: "trades per outcome"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "30"}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			AxisLabel: &opts.AxisLabel{Rotate: 45, Interval: "0"},
		}),
	)
	bar.SetXAxis(keys)

	series := []struct {
		name  string
		color string
		value func(results.Row) int
	}{
		{"Stopped", colorStop, func(r results.Row) int { return r.Stops }},
		{"First target only", colorPartial, func(r results.Row) int { return r.Partial }},
		{"Later targets", colorFull, func(r results.Row) int { return r.Full }},
		{"Session close", colorSession, func(r results.Row) int { return r.SessionCloses }},
	}
	for _, s := range series {
		data := make([]opts.BarData, len(rows))
		for i, r := range rows {
			data[i] = opts.BarData{Value: s.value(r)}
		}
		bar.AddSeries(s.name, data,
			charts.WithBarChartOpts(opts.BarChart{Stack: "exits"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: s.color}),
		)
	}
	return bar
}

func round2(x float64) float64 {
	return float64(int64(x*100+0.5)) / 100
}
