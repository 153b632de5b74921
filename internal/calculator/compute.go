package calculator

import "FuturesLens/internal/model"

// Lookback periods of the fixed indicator set.
const (
	RSIShort   = 6
	RSILong    = 12
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
	StochFastK = 3
	StochSlowK = 3
	StochSlowD = 9
	WillRLen   = 14
	DMILen     = 14
)

// Compute returns one IndicatorRow per bar. bars is not modified; rows
// without enough history carry NaN in the affected columns.
func Compute(bars []model.PriceBar) []model.IndicatorRow {
	closes := extractCloses(bars)
	highs := extractHighs(bars)
	lows := extractLows(bars)

	ma5 := SMA(closes, 5)
	ma10 := SMA(closes, 10)
	ma20 := SMA(closes, 20)
	bbi := BBI(closes)
	rsi6 := RSI(closes, RSIShort)
	rsi12 := RSI(closes, RSILong)
	macd, macdSignal, macdHist := MACD(closes, MACDFast, MACDSlow, MACDSignal)
	slowK, slowD := Stoch(highs, lows, closes, StochFastK, StochSlowK, StochSlowD)
	wr := WillR(highs, lows, closes, WillRLen)
	plusDI, minusDI, adx := DMI(highs, lows, closes, DMILen)

	rows := make([]model.IndicatorRow, len(bars))
	for i, b := range bars {
		rows[i] = model.IndicatorRow{
			PriceBar:   b,
			MA5:        ma5[i],
			MA10:       ma10[i],
			MA20:       ma20[i],
			BBI:        bbi[i],
			RSI6:       rsi6[i],
			RSI12:      rsi12[i],
			MACD:       macd[i],
			MACDSignal: macdSignal[i],
			MACDHist:   macdHist[i],
			SlowK:      slowK[i],
			SlowD:      slowD[i],
			WR:         wr[i],
			PlusDI:     plusDI[i],
			MinusDI:    minusDI[i],
			ADX:        adx[i],
		}
	}
	return rows
}

// MovingAverages returns the chart overlay lines keyed by period.
func MovingAverages(bars []model.PriceBar, periods ...int) map[int][]float64 {
	closes := extractCloses(bars)
	out := make(map[int][]float64, len(periods))
	for _, p := range periods {
		out[p] = SMA(closes, p)
	}
	return out
}
