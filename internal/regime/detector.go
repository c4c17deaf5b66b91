// Package regime implements the quantitative market-regime detector and the
// LLM-backed regime/strategy-selector overlay.
package regime

import (
	"solswing/internal/indicators"
	"solswing/internal/models"
)

// DetectorConfig tunes the single-rule quantitative detector.
type DetectorConfig struct {
	ADXPeriod          int
	ADXTrendThreshold  float64 // ADX above this implies a trending market
	DeclineWindow      int     // candles to look back for a sharp decline
	DeclineThreshold   float64 // e.g. -0.15: 15% drop over DeclineWindow
	RangeLookback      int
	RangeTouchesNeeded int
}

// DefaultDetectorConfig returns the detector's reference parameterization.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		ADXPeriod:          14,
		ADXTrendThreshold:  25,
		DeclineWindow:      10,
		DeclineThreshold:   -0.15,
		RangeLookback:      20,
		RangeTouchesNeeded: 2,
	}
}

// Detect classifies the current market regime from a candle history. It is
// total on sufficient data: every branch resolves to one of the four
// regimes, defaulting to ChoppyUnclear when no stronger signal fires.
func Detect(candles []models.Candle, cfg DetectorConfig) (models.MarketRegime, bool) {
	if len(candles) < cfg.ADXPeriod*2 {
		return "", false
	}

	adx, ok := indicators.ADX(candles, cfg.ADXPeriod)
	if !ok {
		return "", false
	}
	closes := closesOf(candles)
	decline := recentDecline(closes, cfg.DeclineWindow)

	trending := adx.ADX >= cfg.ADXTrendThreshold
	if trending && decline <= cfg.DeclineThreshold && adx.MinusDI > adx.PlusDI {
		return models.RegimeBearCrash, true
	}
	if trending && adx.PlusDI > adx.MinusDI {
		return models.RegimeBullTrend, true
	}
	if !trending && isRangeBound(closes, cfg.RangeLookback, cfg.RangeTouchesNeeded) {
		return models.RegimeChoppyClear, true
	}
	return models.RegimeChoppyUnclear, true
}

func closesOf(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// recentDecline returns the fractional change over the last `window` closes.
func recentDecline(closes []float64, window int) float64 {
	if len(closes) <= window {
		return 0
	}
	start := closes[len(closes)-window-1]
	end := closes[len(closes)-1]
	if start == 0 {
		return 0
	}
	return (end - start) / start
}

// isRangeBound reports whether the close series oscillates between an upper
// and lower band with at least touchesNeeded visits to each within the
// lookback window.
func isRangeBound(closes []float64, lookback, touchesNeeded int) bool {
	if len(closes) < lookback {
		return false
	}
	window := closes[len(closes)-lookback:]
	high, low := window[0], window[0]
	for _, c := range window {
		if c > high {
			high = c
		}
		if c < low {
			low = c
		}
	}
	if high == low {
		return false
	}
	band := (high - low) * 0.1 // within 10% of the extreme counts as a "touch"
	upperTouches, lowerTouches := 0, 0
	for _, c := range window {
		if c >= high-band {
			upperTouches++
		}
		if c <= low+band {
			lowerTouches++
		}
	}
	return upperTouches >= touchesNeeded && lowerTouches >= touchesNeeded
}
