package report

import (
	"bytes"
	"fmt"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"FuturesLens/internal/calculator"
	"FuturesLens/internal/model"
)

// ChartMAPeriods are the moving averages drawn over the candles.
var ChartMAPeriods = []int{5, 10, 20}

// Chart builds a candlestick chart of series with moving average overlays.
func Chart(series *model.PriceSeries) *charts.Kline {
	bars := series.Bars
	dates := make([]string, len(bars))
	candles := make([]opts.KlineData, len(bars))
	for i, b := range bars {
		dates[i] = b.Date.Format("2006-01-02")
		// echarts candle order: open, close, low, high
		candles[i] = opts.KlineData{Value: [4]float64{b.Open, b.Close, b.Low, b.High}}
	}

	// start the zoom window at roughly the last 120 bars
	zoomStart := float32(0)
	if len(bars) > 120 {
		zoomStart = float32(100 * (1 - 120/float64(len(bars))))
	}

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "560px"}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("%s 日K线", series.Symbol)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{SplitNumber: 20}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "inside", Start: zoomStart, End: 100, XAxisIndex: []int{0}},
			opts.DataZoom{Type: "slider", Start: zoomStart, End: 100, XAxisIndex: []int{0}},
		),
	)
	kline.SetXAxis(dates).AddSeries("K线", candles,
		charts.WithItemStyleOpts(opts.ItemStyle{
			// red up, green down
			Color:        "#ec0000",
			Color0:       "#00da3c",
			BorderColor:  "#8A0000",
			BorderColor0: "#008F28",
		}),
	)

	averages := calculator.MovingAverages(bars, ChartMAPeriods...)
	line := charts.NewLine()
	line.SetXAxis(dates)
	for _, p := range ChartMAPeriods {
		line.AddSeries(fmt.Sprintf("MA%d", p), lineData(averages[p]),
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), ShowSymbol: opts.Bool(false)}),
		)
	}
	kline.Overlap(line)
	return kline
}

// lineData maps undefined values to "-", which echarts leaves as a gap.
func lineData(vals []float64) []opts.LineData {
	out := make([]opts.LineData, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) {
			out[i] = opts.LineData{Value: "-"}
			continue
		}
		out[i] = opts.LineData{Value: math.Round(v*100) / 100}
	}
	return out
}

// RenderChart renders the chart as a standalone HTML document.
func RenderChart(series *model.PriceSeries) ([]byte, error) {
	if series == nil || len(series.Bars) == 0 {
		return nil, fmt.Errorf("chart: empty series")
	}
	var buf bytes.Buffer
	if err := Chart(series).Render(&buf); err != nil {
		return nil, fmt.Errorf("chart render: %w", err)
	}
	return buf.Bytes(), nil
}
