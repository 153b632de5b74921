package calculator

import (
	"math"

	"FuturesLens/internal/model"
)

// SMA computes the simple moving average of values over period.
// Rows whose window is short or contains an undefined value are NaN.
func SMA(values []float64, period int) []float64 {
	out := undefined(len(values))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		for j := i - period + 1; j <= i; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(period)
	}
	return out
}

// EMA computes the exponential moving average with alpha 2/(period+1),
// seeded with the SMA of the first period defined values.
func EMA(values []float64, period int) []float64 {
	out := undefined(len(values))
	if period <= 0 {
		return out
	}
	start := firstDefined(values)
	if start < 0 || len(values)-start < period {
		return out
	}
	seed := start + period - 1
	sum := 0.0
	for i := start; i <= seed; i++ {
		sum += values[i]
	}
	out[seed] = sum / float64(period)

	k := 2.0 / float64(period+1)
	for i := seed + 1; i < len(values); i++ {
		out[i] = (values[i]-out[i-1])*k + out[i-1]
	}
	return out
}

// BBI is the mean of the 3, 6, 12 and 24 period SMAs.
func BBI(closes []float64) []float64 {
	ma3 := SMA(closes, 3)
	ma6 := SMA(closes, 6)
	ma12 := SMA(closes, 12)
	ma24 := SMA(closes, 24)
	out := make([]float64, len(closes))
	for i := range closes {
		out[i] = (ma3[i] + ma6[i] + ma12[i] + ma24[i]) / 4
	}
	return out
}

func extractCloses(bars []model.PriceBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

func extractHighs(bars []model.PriceBar) []float64 {
	highs := make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
	}
	return highs
}

func extractLows(bars []model.PriceBar) []float64 {
	lows := make([]float64, len(bars))
	for i, b := range bars {
		lows[i] = b.Low
	}
	return lows
}

func undefined(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func firstDefined(values []float64) int {
	for i, v := range values {
		if !math.IsNaN(v) {
			return i
		}
	}
	return -1
}
