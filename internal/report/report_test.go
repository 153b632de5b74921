package report

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FuturesLens/internal/analyzer"
	"FuturesLens/internal/model"
	"FuturesLens/internal/strategy"
)

func sampleResult(t *testing.T, n int) *analyzer.Result {
	t.Helper()
	bars := make([]model.PriceBar, n)
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		p := 3000 + 10*float64(i) + 15*math.Sin(float64(i)/3)
		bars[i] = model.PriceBar{Date: d.AddDate(0, 0, i), Open: p - 5, High: p + 10, Low: p - 10, Close: p, Volume: int64(1000 + i), Symbol: "RB0"}
	}
	res, err := (&analyzer.Analyzer{}).Evaluate(context.Background(), analyzer.UploadedTable{Bars: bars})
	require.NoError(t, err)
	return res
}

func TestSignalTable_HTML(t *testing.T) {
	signals := strategy.Decorate(model.SignalSet{
		{Name: strategy.NameMACD, Label: model.LabelBullish},
		{Name: strategy.NameRSILevel, Label: model.LabelNone},
		{Name: "<script>", Label: model.LabelBearish},
	})
	html := RenderHTML(SignalTable(signals), "signals")

	assert.Contains(t, html, `class="signals"`)
	assert.Contains(t, html, "MACD指标")
	assert.Contains(t, html, "看多"+strategy.BullishMarker)
	assert.Contains(t, html, "数据不足")
	assert.Contains(t, html, "看空"+strategy.BearishMarker)
	assert.NotContains(t, html, "<script>")
}

func TestIndicatorTable_TailAndUndefined(t *testing.T) {
	res := sampleResult(t, 30)
	text := RenderText(IndicatorTable(res.Rows, TailRows))

	assert.Contains(t, text, "2024-01-30")
	assert.Contains(t, text, "2024-01-26")
	assert.NotContains(t, text, "2024-01-25")
	// ADX needs 28 bars, so the first tail row is still undefined
	assert.Contains(t, text, " - ")

	short := RenderText(IndicatorTable(res.Rows[:2], TailRows))
	assert.Contains(t, short, "2024-01-01")
}

func TestBarsTable_Head(t *testing.T) {
	res := sampleResult(t, 10)
	text := RenderText(BarsTable(res.Series.Bars, 3))
	assert.Contains(t, text, "2024-01-03")
	assert.NotContains(t, text, "2024-01-04")
	assert.Contains(t, text, "RB0")

	assert.NotPanics(t, func() { BarsTable(res.Series.Bars[:1], TailRows) })
}

func TestRenderChart(t *testing.T) {
	res := sampleResult(t, 40)
	out, err := RenderChart(res.Series)
	require.NoError(t, err)
	html := string(out)
	assert.Contains(t, html, "RB0")
	assert.Contains(t, html, "MA20")
	assert.Contains(t, html, "candlestick")

	_, err = RenderChart(&model.PriceSeries{})
	assert.Error(t, err)
}

func TestLineData_Gaps(t *testing.T) {
	data := lineData([]float64{math.NaN(), 1.234567})
	assert.Equal(t, "-", data[0].Value)
	assert.Equal(t, 1.23, data[1].Value)
}

func TestRenderDashboard(t *testing.T) {
	res := sampleResult(t, 60)
	var buf bytes.Buffer
	require.NoError(t, RenderDashboard(&buf, res))
	html := buf.String()

	assert.Contains(t, html, "<title>RB0 · FuturesLens</title>")
	assert.Contains(t, html, "技术指标信号")
	assert.Contains(t, html, `class="signals"`)
	assert.Contains(t, html, `class="indicators"`)
	assert.Contains(t, html, "srcdoc=")
	assert.Contains(t, html, res.ID)
	for _, r := range strategy.Rules {
		assert.Contains(t, html, r.Name)
	}
}

func TestRenderIndex(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderIndex(&buf, IndexPage{Code: "V0", Error: "行情数据不可用 <b>"}))
	html := buf.String()
	assert.Contains(t, html, `value="V0"`)
	assert.Contains(t, html, `enctype="multipart/form-data"`)
	assert.Contains(t, html, "&lt;b&gt;")
}

func TestFormatSummary(t *testing.T) {
	res := sampleResult(t, 40)
	out := FormatSummary(res)
	assert.True(t, strings.HasPrefix(out, "RB0 | 2024-02-09 |"))
	assert.Contains(t, out, strategy.NameADX)
}
