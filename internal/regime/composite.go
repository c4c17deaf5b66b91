package regime

import (
	"solswing/internal/indicators"
	"solswing/internal/models"
)

// CompositeConfig tunes the additive-score regime detector.
type CompositeConfig struct {
	ADXPeriod            int
	ATRPeriod            int
	ATRSpikeLookback     int
	ATRSpikeThreshold    float64
	VolumeLookback       int
	StructureLookback    int
	RSIPeriod            int
	ConfirmationThreshold float64
}

// DefaultCompositeConfig returns the composite detector's reference parameterization.
func DefaultCompositeConfig() CompositeConfig {
	return CompositeConfig{
		ADXPeriod:             14,
		ATRPeriod:             14,
		ATRSpikeLookback:      10,
		ATRSpikeThreshold:     1.5,
		VolumeLookback:        10,
		StructureLookback:     20,
		RSIPeriod:             14,
		ConfirmationThreshold: 2.0,
	}
}

type scoreboard map[models.MarketRegime]float64

func (s scoreboard) add(regime models.MarketRegime, points float64) {
	s[regime] += points
}

// CompositeDetect scores each regime additively from several independent
// indicators (ATR spike, volume direction, market structure, RSI band, ADX
// strength) and commits to the highest-scoring regime only once its score
// clears ConfirmationThreshold; otherwise ChoppyUnclear.
func CompositeDetect(candles []models.Candle, cfg CompositeConfig) (models.MarketRegime, bool) {
	minNeeded := cfg.ADXPeriod * 2
	if cfg.StructureLookback > minNeeded {
		minNeeded = cfg.StructureLookback
	}
	if len(candles) < minNeeded {
		return "", false
	}

	scores := make(scoreboard)
	closes := closesOf(candles)

	adx, ok := indicators.ADX(candles, cfg.ADXPeriod)
	if ok {
		switch {
		case adx.ADX >= 25 && adx.PlusDI > adx.MinusDI:
			scores.add(models.RegimeBullTrend, 1.5)
		case adx.ADX >= 25 && adx.MinusDI > adx.PlusDI:
			scores.add(models.RegimeBearCrash, 1.5)
		default:
			scores.add(models.RegimeChoppyClear, 0.5)
			scores.add(models.RegimeChoppyUnclear, 0.5)
		}
	}

	if indicators.IsATRSpike(candles, cfg.ATRPeriod, cfg.ATRSpikeLookback, cfg.ATRSpikeThreshold) {
		scores.add(models.RegimeBearCrash, 1.0)
		scores.add(models.RegimeBullTrend, 0.5)
	}

	up, down := indicators.VolumeDirectionRatio(candles, cfg.VolumeLookback)
	if up > 0.6 {
		scores.add(models.RegimeBullTrend, 1.0)
	} else if down > 0.6 {
		scores.add(models.RegimeBearCrash, 1.0)
	} else {
		scores.add(models.RegimeChoppyClear, 0.5)
	}

	structure, ok := indicators.MarketStructure(closes, cfg.StructureLookback)
	if ok {
		switch structure {
		case indicators.StructureHigherHighsHigherLows:
			scores.add(models.RegimeBullTrend, 1.0)
		case indicators.StructureLowerHighsLowerLows:
			scores.add(models.RegimeBearCrash, 1.0)
		default:
			scores.add(models.RegimeChoppyClear, 1.0)
		}
	}

	if rsi, ok := indicators.RSI(closes, cfg.RSIPeriod); ok {
		switch {
		case rsi >= 60:
			scores.add(models.RegimeBullTrend, 0.5)
		case rsi <= 40:
			scores.add(models.RegimeBearCrash, 0.5)
		default:
			scores.add(models.RegimeChoppyClear, 0.5)
		}
	}

	best, bestScore := models.RegimeChoppyUnclear, 0.0
	for regime, score := range scores {
		if score > bestScore {
			best, bestScore = regime, score
		}
	}
	if bestScore < cfg.ConfirmationThreshold {
		return models.RegimeChoppyUnclear, true
	}
	return best, true
}
