package strategy

import "FuturesLens/internal/model"

// compare is bullish above the reference, bearish below and neutral on a tie.
func compare(value, ref float64) model.Label {
	if !model.Defined(value, ref) {
		return model.LabelNone
	}
	switch {
	case value > ref:
		return model.LabelBullish
	case value < ref:
		return model.LabelBearish
	default:
		return model.LabelNeutral
	}
}

// crossover has no neutral band: anything but strictly above is bearish.
func crossover(value, ref float64) model.Label {
	if !model.Defined(value, ref) {
		return model.LabelNone
	}
	if value > ref {
		return model.LabelBullish
	}
	return model.LabelBearish
}

func macdSignal(r *model.IndicatorRow) model.Label {
	return crossover(r.MACD, r.MACDSignal)
}

func kdCross(r *model.IndicatorRow) model.Label {
	return crossover(r.SlowK, r.SlowD)
}

func rsiCross(r *model.IndicatorRow) model.Label {
	return compare(r.RSI6, r.RSI12)
}

func rsiLevel(r *model.IndicatorRow) model.Label {
	if !model.Defined(r.RSI6) {
		return model.LabelNone
	}
	switch {
	case r.RSI6 < RSIOversold:
		return model.LabelOversold
	case r.RSI6 > RSIOverbought:
		return model.LabelOverbought
	default:
		return model.LabelNeutral
	}
}

// williams reads %R below -80 as a rebound setup and above -20 as exhausted.
func williams(r *model.IndicatorRow) model.Label {
	if !model.Defined(r.WR) {
		return model.LabelNone
	}
	switch {
	case r.WR < WROversold:
		return model.LabelBullish
	case r.WR > WROverbought:
		return model.LabelBearish
	default:
		return model.LabelNeutral
	}
}

// adxTrend only takes a side once ADX confirms a trend.
func adxTrend(r *model.IndicatorRow) model.Label {
	if !model.Defined(r.ADX) {
		return model.LabelNone
	}
	if r.ADX <= ADXTrending {
		return model.LabelNeutral
	}
	return crossover(r.PlusDI, r.MinusDI)
}
