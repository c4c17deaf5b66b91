package indicators

import "solswing/internal/models"

// ADXResult bundles the average directional index with its directional
// components.
type ADXResult struct {
	ADX     float64
	PlusDI  float64
	MinusDI float64
}

// wilderSmooth seeds with the sum of the first `period` values, then folds
// the remainder in via the Wilder recurrence (s <- s - s/period + v).
func wilderSmooth(values []float64, period int) float64 {
	sum := 0.0
	for _, v := range values[:period] {
		sum += v
	}
	smoothed := sum
	for _, v := range values[period:] {
		smoothed = smoothed - (smoothed / float64(period)) + v
	}
	return smoothed
}

// ADX computes the Wilder-smoothed true range, +DM and -DM over period, then
// derives +DI/-DI and DX. ADX here is the current DX value, not further
// time-smoothed — a documented single-sample approximation, not a bug.
func ADX(candles []models.Candle, period int) (ADXResult, bool) {
	if period <= 0 || len(candles) < period+1 {
		return ADXResult{}, false
	}

	trs := make([]float64, 0, len(candles)-1)
	plusDMs := make([]float64, 0, len(candles)-1)
	minusDMs := make([]float64, 0, len(candles)-1)

	for i := 1; i < len(candles); i++ {
		cur, prev := candles[i], candles[i-1]
		tr := trueRange(cur, prev)
		trs = append(trs, tr)

		upMove := cur.High - prev.High
		downMove := prev.Low - cur.Low

		plusDM, minusDM := 0.0, 0.0
		if upMove > downMove && upMove > 0 {
			plusDM = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM = downMove
		}
		plusDMs = append(plusDMs, plusDM)
		minusDMs = append(minusDMs, minusDM)
	}

	if len(trs) < period {
		return ADXResult{}, false
	}

	smoothedTR := wilderSmooth(trs, period)
	smoothedPlusDM := wilderSmooth(plusDMs, period)
	smoothedMinusDM := wilderSmooth(minusDMs, period)

	if smoothedTR == 0 {
		return ADXResult{}, false
	}

	plusDI := 100 * smoothedPlusDM / smoothedTR
	minusDI := 100 * smoothedMinusDM / smoothedTR

	sum := plusDI + minusDI
	dx := 0.0
	if sum > 0 {
		dx = 100 * absf(plusDI-minusDI) / sum
	}

	return ADXResult{ADX: dx, PlusDI: plusDI, MinusDI: minusDI}, true
}

func trueRange(cur, prev models.Candle) float64 {
	hl := cur.High - cur.Low
	hc := absf(cur.High - prev.Close)
	lc := absf(cur.Low - prev.Close)
	return maxf(hl, maxf(hc, lc))
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
