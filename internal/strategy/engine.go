package strategy

import "FuturesLens/internal/model"

// Display names of the derived signals, in table order.
const (
	NameMACD     = "MACD指标"
	NameRSILevel = "RSI相对强弱指标"
	NameRSICross = "RSI交叉(6,12)"
	NameKD       = "KD随机指标"
	NameBBI      = "BBI指标"
	NameWR       = "WR威廉指标"
	NameADX      = "ADX趋势指标"
	NameMA5      = "移动平均线(5)"
	NameMA10     = "移动平均线(10)"
	NameMA20     = "移动平均线(20)"
)

// Thresholds of the level rules.
const (
	RSIOversold   = 30.0
	RSIOverbought = 70.0
	WROversold    = -80.0
	WROverbought  = -20.0
	ADXTrending   = 25.0
)

// Rule derives one label from an indicator row.
type Rule struct {
	Name   string
	Derive func(row *model.IndicatorRow) model.Label
}

// Rules is the fixed rule set in display order.
var Rules = []Rule{
	{NameMACD, macdSignal},
	{NameRSILevel, rsiLevel},
	{NameRSICross, rsiCross},
	{NameKD, kdCross},
	{NameBBI, func(r *model.IndicatorRow) model.Label { return compare(r.Close, r.BBI) }},
	{NameWR, williams},
	{NameADX, adxTrend},
	{NameMA5, func(r *model.IndicatorRow) model.Label { return compare(r.Close, r.MA5) }},
	{NameMA10, func(r *model.IndicatorRow) model.Label { return compare(r.Close, r.MA10) }},
	{NameMA20, func(r *model.IndicatorRow) model.Label { return compare(r.Close, r.MA20) }},
}

// Derive labels every indicator of row. A rule whose inputs are undefined
// yields model.LabelNone.
func Derive(row *model.IndicatorRow) model.SignalSet {
	signals := make(model.SignalSet, 0, len(Rules))
	for _, r := range Rules {
		label := model.LabelNone
		if row != nil {
			label = r.Derive(row)
		}
		signals = append(signals, model.Signal{Name: r.Name, Label: label})
	}
	return signals
}

// DeriveLatest labels the last row of rows.
func DeriveLatest(rows []model.IndicatorRow) model.SignalSet {
	if len(rows) == 0 {
		return Derive(nil)
	}
	return Derive(&rows[len(rows)-1])
}
