package calculator

// Stoch computes the slow stochastic oscillator.
// Raw %K looks back fastK bars, slowK is its SMA over slowKPeriod and slowD
// the SMA of slowK over slowDPeriod.
func Stoch(highs, lows, closes []float64, fastK, slowKPeriod, slowDPeriod int) (slowK, slowD []float64) {
	hh := Highest(highs, fastK)
	ll := Lowest(lows, fastK)
	raw := undefined(len(closes))
	for i := range closes {
		if isNaN(hh[i]) || isNaN(ll[i]) {
			continue
		}
		raw[i] = rangePosition(closes[i], hh[i], ll[i])
	}
	slowK = SMA(raw, slowKPeriod)
	slowD = SMA(slowK, slowDPeriod)
	return slowK, slowD
}

// WillR computes Williams %R over period bars, in [-100, 0].
func WillR(highs, lows, closes []float64, period int) []float64 {
	hh := Highest(highs, period)
	ll := Lowest(lows, period)
	out := undefined(len(closes))
	for i := range closes {
		if isNaN(hh[i]) || isNaN(ll[i]) {
			continue
		}
		if hh[i] == ll[i] {
			out[i] = 0
			continue
		}
		out[i] = (hh[i] - closes[i]) / (hh[i] - ll[i]) * -100
	}
	return out
}

func isNaN(v float64) bool { return v != v }
