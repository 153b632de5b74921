package calculator

// MACD returns the macd line (fast EMA minus slow EMA), its signal EMA and
// the histogram.
func MACD(closes []float64, fast, slow, signal int) (macd, macdSignal, hist []float64) {
	if slow < fast {
		fast, slow = slow, fast
	}
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)

	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = fastEMA[i] - slowEMA[i]
	}
	macdSignal = EMA(macd, signal)
	hist = make([]float64, len(closes))
	for i := range closes {
		hist[i] = macd[i] - macdSignal[i]
	}
	return macd, macdSignal, hist
}
