package model

import "math"

// IndicatorRow is a PriceBar extended with the computed indicators.
// A NaN field means the indicator has not enough history at this row.
type IndicatorRow struct {
	PriceBar

	MA5  float64
	MA10 float64
	MA20 float64
	BBI  float64

	RSI6  float64
	RSI12 float64

	MACD       float64
	MACDSignal float64
	MACDHist   float64

	SlowK float64
	SlowD float64

	WR float64

	PlusDI  float64
	MinusDI float64
	ADX     float64
}

// Defined reports whether all given values are usable numbers.
func Defined(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
