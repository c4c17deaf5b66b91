// Package indicators provides pure, stateless functions over price/candle
// series: moving averages, RSI, ADX/+DI/-DI, ATR, and market-structure /
// volume analysis. Every function returns ok=false on insufficient data
// instead of panicking or erroring.
package indicators

// SMA is the arithmetic mean of the last period prices.
func SMA(prices []float64, period int) (float64, bool) {
	if period <= 0 || len(prices) < period {
		return 0, false
	}
	sum := 0.0
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return sum / float64(period), true
}

// EMA seeds with the SMA of the first period prices, then applies the
// standard smoothing recurrence over the remainder.
func EMA(prices []float64, period int) (float64, bool) {
	if period <= 0 || len(prices) < period {
		return 0, false
	}
	ema, ok := SMA(prices[:period], period)
	if !ok {
		return 0, false
	}
	alpha := 2.0 / float64(period+1)
	for _, p := range prices[period:] {
		ema += alpha * (p - ema)
	}
	return ema, true
}
