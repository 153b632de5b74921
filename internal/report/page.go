package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"FuturesLens/internal/analyzer"
	"FuturesLens/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"date": func(t time.Time) string { return t.Format("2006-01-02") },
	"stamp": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02 15:04:05")
	},
}).ParseFS(templateFS, "templates/*.html"))

// IndexPage is the data of the start page.
type IndexPage struct {
	Code  string
	Error string
}

// DashboardPage is the data of the result page.
type DashboardPage struct {
	Result     *analyzer.Result
	Last       model.PriceBar
	Chart      string
	Signals    template.HTML
	Indicators template.HTML
	Head       template.HTML
	Tail       int
	Bullish    int
	Bearish    int
}

// NewDashboardPage renders the chart and tables of res.
func NewDashboardPage(res *analyzer.Result) (*DashboardPage, error) {
	chart, err := RenderChart(res.Series)
	if err != nil {
		return nil, err
	}
	last, _ := res.Series.Last()
	p := &DashboardPage{
		Result:     res,
		Last:       last,
		Chart:      string(chart),
		Signals:    template.HTML(RenderHTML(SignalTable(res.Decorated), "signals")),
		Indicators: template.HTML(RenderHTML(IndicatorTable(res.Rows, TailRows), "indicators")),
		Head:       template.HTML(RenderHTML(BarsTable(res.Series.Bars, TailRows), "bars")),
		Tail:       TailRows,
	}
	for _, s := range res.Signals {
		switch s.Label {
		case model.LabelBullish:
			p.Bullish++
		case model.LabelBearish:
			p.Bearish++
		}
	}
	return p, nil
}

// RenderIndex writes the start page.
func RenderIndex(w io.Writer, data IndexPage) error {
	return execute(w, "index.html", data)
}

// RenderDashboard writes the result page of res.
func RenderDashboard(w io.Writer, res *analyzer.Result) error {
	page, err := NewDashboardPage(res)
	if err != nil {
		return err
	}
	return execute(w, "dashboard.html", page)
}

func execute(w io.Writer, name string, data any) error {
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}

// FormatSummary formats an evaluation as plain text.
func FormatSummary(res *analyzer.Result) string {
	var b strings.Builder
	last, _ := res.Series.Last()
	b.WriteString(fmt.Sprintf("%s | %s | 收盘 %s\n", res.Symbol, last.Date.Format("2006-01-02"), price(last.Close)))
	b.WriteString(RenderText(SignalTable(res.Decorated)))
	return b.String()
}
