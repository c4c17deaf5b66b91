package indicators

// RSI computes the Relative Strength Index as a plain windowed average: the
// gains and losses of the last `period` consecutive deltas, averaged, with
// no recursive carry-forward from earlier history. Recomputed fresh on
// every call. Requires len(prices) >= period+1.
func RSI(prices []float64, period int) (float64, bool) {
	if period <= 0 || len(prices) < period+1 {
		return 0, false
	}

	var sumGain, sumLoss float64
	start := len(prices) - period
	for i := start; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			sumGain += delta
		} else {
			sumLoss += -delta
		}
	}
	avgGain := sumGain / float64(period)
	avgLoss := sumLoss / float64(period)

	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}

// seriesAt computes RSI using only the first n prices, for callers that need
// a rolling window of RSI values (e.g. IsRSIRising).
func seriesAt(prices []float64, period, n int) (float64, bool) {
	if n > len(prices) {
		return 0, false
	}
	return RSI(prices[:n], period)
}

// IsRSIRising computes RSI at each of the last `lookback` points and reports
// whether the net change is a rise (true), a fall (false), or indeterminate
// (false, false) when the net change is smaller than 5 in magnitude.
func IsRSIRising(prices []float64, period, lookback int) (bool, bool) {
	if lookback < 2 || len(prices) < lookback {
		return false, false
	}
	start := len(prices) - lookback
	first, ok1 := seriesAt(prices, period, start+1)
	last, ok2 := seriesAt(prices, period, len(prices))
	if !ok1 || !ok2 {
		return false, false
	}
	diff := last - first
	if diff >= 5 {
		return true, true
	}
	if diff <= -5 {
		return false, true
	}
	return false, false
}
