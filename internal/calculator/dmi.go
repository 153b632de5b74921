package calculator

import "math"

// DMI computes Wilder's directional movement system: +DI, -DI and ADX.
// DI values start at index period, ADX at index 2*period-1.
func DMI(highs, lows, closes []float64, period int) (plusDI, minusDI, adx []float64) {
	n := len(closes)
	plusDI = undefined(n)
	minusDI = undefined(n)
	adx = undefined(n)
	if period <= 0 || n <= period {
		return plusDI, minusDI, adx
	}

	p := float64(period)
	// seed with period-1 raw values, the first Wilder step lands on index period
	var trSum, plusSum, minusSum float64
	for i := 1; i < period; i++ {
		tr, up, down := directionalMove(highs, lows, closes, i)
		trSum += tr
		plusSum += up
		minusSum += down
	}

	dx := undefined(n)
	for i := period; i < n; i++ {
		tr, up, down := directionalMove(highs, lows, closes, i)
		trSum = trSum - trSum/p + tr
		plusSum = plusSum - plusSum/p + up
		minusSum = minusSum - minusSum/p + down
		if trSum == 0 {
			plusDI[i], minusDI[i] = 0, 0
		} else {
			plusDI[i] = 100 * plusSum / trSum
			minusDI[i] = 100 * minusSum / trSum
		}
		if sum := plusDI[i] + minusDI[i]; sum != 0 {
			dx[i] = 100 * math.Abs(plusDI[i]-minusDI[i]) / sum
		} else {
			dx[i] = 0
		}
	}

	first := 2*period - 1
	if n <= first {
		return plusDI, minusDI, adx
	}
	sum := 0.0
	for i := period; i <= first; i++ {
		sum += dx[i]
	}
	adx[first] = sum / p
	for i := first + 1; i < n; i++ {
		adx[i] = (adx[i-1]*(p-1) + dx[i]) / p
	}
	return plusDI, minusDI, adx
}

// directionalMove returns the true range and the +DM/-DM of bar i.
func directionalMove(highs, lows, closes []float64, i int) (tr, plusDM, minusDM float64) {
	tr = math.Max(highs[i]-lows[i], math.Max(math.Abs(highs[i]-closes[i-1]), math.Abs(lows[i]-closes[i-1])))
	up := highs[i] - highs[i-1]
	down := lows[i-1] - lows[i]
	if up > down && up > 0 {
		plusDM = up
	}
	if down > up && down > 0 {
		minusDM = down
	}
	return tr, plusDM, minusDM
}
