package calculator

import "math"

// Highest returns the trailing maximum of values over period bars.
func Highest(values []float64, period int) []float64 {
	return rolling(values, period, math.Inf(-1), math.Max)
}

// Lowest returns the trailing minimum of values over period bars.
func Lowest(values []float64, period int) []float64 {
	return rolling(values, period, math.Inf(1), math.Min)
}

func rolling(values []float64, period int, init float64, pick func(a, b float64) float64) []float64 {
	out := undefined(len(values))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		v := init
		for j := i - period + 1; j <= i; j++ {
			v = pick(v, values[j])
		}
		out[i] = v
	}
	return out
}

// rangePosition places close inside [low, high] scaled to [0, 100].
// A zero-width range reads 0.
func rangePosition(close, high, low float64) float64 {
	width := high - low
	if width == 0 {
		return 0
	}
	return (close - low) / width * 100
}
