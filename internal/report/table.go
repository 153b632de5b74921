package report

import (
	"math"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"FuturesLens/internal/model"
)

// TailRows is how many indicator rows and data rows the dashboard shows.
const TailRows = 5

func htmlOptions(class string) table.HTMLOptions {
	return table.HTMLOptions{
		CSSClass:    class,
		EmptyColumn: "&nbsp;",
		EscapeText:  true,
		Newline:     "<br/>",
	}
}

// SignalTable lists the decorated label of every indicator.
func SignalTable(signals []model.DecoratedSignal) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"指标", "信号"})
	for _, s := range signals {
		t.AppendRow(table.Row{s.Name, s.Text})
	}
	return t
}

// IndicatorTable shows the trailing indicator rows, newest last.
func IndicatorTable(rows []model.IndicatorRow, n int) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{
		"date", "close", "ma5", "ma10", "ma20", "bbi", "rsi_6", "rsi_12",
		"macd", "macdsignal", "macdhist", "slowk", "slowd", "wr",
		"plus_di", "minus_di", "adx",
	})
	for _, r := range tail(rows, n) {
		t.AppendRow(table.Row{
			r.Date.Format("2006-01-02"), price(r.Close),
			fixed(r.MA5), fixed(r.MA10), fixed(r.MA20), fixed(r.BBI),
			fixed(r.RSI6), fixed(r.RSI12),
			fixed(r.MACD), fixed(r.MACDSignal), fixed(r.MACDHist),
			fixed(r.SlowK), fixed(r.SlowD), fixed(r.WR),
			fixed(r.PlusDI), fixed(r.MinusDI), fixed(r.ADX),
		})
	}
	alignRight(t, 17, 2)
	return t
}

// BarsTable shows the first n rows of the input table.
func BarsTable(bars []model.PriceBar, n int) table.Writer {
	if n > len(bars) {
		n = len(bars)
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"date", "open", "high", "low", "close", "volume", "open_interest", "vwap", "symbol"})
	for _, b := range bars[:n] {
		t.AppendRow(table.Row{
			b.Date.Format("2006-01-02"), price(b.Open), price(b.High), price(b.Low), price(b.Close),
			b.Volume, b.OpenInterest, price(b.VWAP), b.Symbol,
		})
	}
	alignRight(t, 8, 2)
	return t
}

// RenderHTML renders t as an HTML table with the given CSS class.
func RenderHTML(t table.Writer, class string) string {
	t.Style().HTML = htmlOptions(class)
	return t.RenderHTML()
}

// RenderText renders t with box-drawing characters, for logs and terminals.
func RenderText(t table.Writer) string {
	t.SetStyle(table.StyleLight)
	return t.Render()
}

func alignRight(t table.Writer, last, first int) {
	configs := make([]table.ColumnConfig, 0, last-first+1)
	for n := first; n <= last; n++ {
		configs = append(configs, table.ColumnConfig{Number: n, Align: text.AlignRight})
	}
	t.SetColumnConfigs(configs)
}

func tail(rows []model.IndicatorRow, n int) []model.IndicatorRow {
	if n >= len(rows) {
		return rows
	}
	return rows[len(rows)-n:]
}

func fixed(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func price(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
