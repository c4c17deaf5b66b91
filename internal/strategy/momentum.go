package strategy

import (
	"fmt"
	"time"

	"solswing/internal/indicators"
	"solswing/internal/models"
	"solswing/internal/tradeerr"
)

// MomentumConfig tunes the momentum strategy's thresholds. Zero-value
// instances are not usable; use DefaultMomentumConfig.
type MomentumConfig struct {
	RSIPeriod           int
	ShortMAPeriod       int
	LongMAPeriod        int
	VolumeLookback      int
	Oversold            float64
	Overbought          float64
	VolumeThreshold     float64
	PollIntervalMinutes int
}

// DefaultMomentumConfig returns the strategy's reference parameterization.
func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{
		RSIPeriod:           14,
		ShortMAPeriod:       9,
		LongMAPeriod:        21,
		VolumeLookback:      20,
		Oversold:            30,
		Overbought:          70,
		VolumeThreshold:     1.5,
		PollIntervalMinutes: 5,
	}
}

// Momentum buys breakouts confirmed by at least 3 of 4 signals (RSI below
// Oversold+10, short MA above long MA, price above short MA, volume spike)
// and sells when RSI is overbought and the MA cross has reversed.
type Momentum struct {
	cfg MomentumConfig
}

// NewMomentum constructs a momentum strategy with the given configuration.
func NewMomentum(cfg MomentumConfig) *Momentum {
	return &Momentum{cfg: cfg}
}

func (m *Momentum) Name() string { return "momentum" }

func (m *Momentum) MinCandlesRequired() int {
	n := m.cfg.LongMAPeriod
	if m.cfg.VolumeLookback > n {
		n = m.cfg.VolumeLookback
	}
	if m.cfg.RSIPeriod+1 > n {
		n = m.cfg.RSIPeriod + 1
	}
	return n
}

func (m *Momentum) SamplesNeeded(pollIntervalMinutes int) int {
	return m.MinCandlesRequired()
}

func (m *Momentum) LookbackHours() int {
	return m.MinCandlesRequired() * m.cfg.PollIntervalMinutes / 60
}

func (m *Momentum) SkipAutomaticExits() bool  { return false }
func (m *Momentum) SupportsAccumulation() bool { return false }

// GenerateSignal requires uniform candle spacing matching the configured
// poll interval before computing indicators: a gap in the feed silently
// skews every moving-average window, so it is reported as an error instead.
func (m *Momentum) GenerateSignal(candles []models.Candle) (models.Signal, error) {
	if len(candles) < m.MinCandlesRequired() {
		return models.SignalHold, fmt.Errorf("%w: momentum needs %d candles, got %d", tradeerr.ErrInsufficientData, m.MinCandlesRequired(), len(candles))
	}
	if err := validateUniformSpacing(candles, m.cfg.PollIntervalMinutes); err != nil {
		return models.SignalHold, err
	}

	closes := closesOf(candles)
	rsi, ok := indicators.RSI(closes, m.cfg.RSIPeriod)
	if !ok {
		return models.SignalHold, fmt.Errorf("%w: rsi unavailable", tradeerr.ErrInsufficientData)
	}
	shortMA, ok := indicators.SMA(closes, m.cfg.ShortMAPeriod)
	if !ok {
		return models.SignalHold, fmt.Errorf("%w: short ma unavailable", tradeerr.ErrInsufficientData)
	}
	longMA, ok := indicators.SMA(closes, m.cfg.LongMAPeriod)
	if !ok {
		return models.SignalHold, fmt.Errorf("%w: long ma unavailable", tradeerr.ErrInsufficientData)
	}
	avgVolume, ok := indicators.AverageVolume(candles, m.cfg.VolumeLookback)
	if !ok {
		return models.SignalHold, fmt.Errorf("%w: average volume unavailable", tradeerr.ErrInsufficientData)
	}

	last := candles[len(candles)-1]

	buyVotes := 0
	if rsi < m.cfg.Oversold+10 {
		buyVotes++
	}
	if shortMA > longMA {
		buyVotes++
	}
	if last.Close > shortMA {
		buyVotes++
	}
	if avgVolume > 0 && last.Volume/avgVolume > m.cfg.VolumeThreshold {
		buyVotes++
	}
	if buyVotes >= 3 {
		return models.SignalBuy, nil
	}

	if rsi > m.cfg.Overbought && shortMA < longMA {
		return models.SignalSell, nil
	}

	return models.SignalHold, nil
}

func closesOf(candles []models.Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}

// validateUniformSpacing rejects a candle series whose adjacent timestamps
// do not all differ by exactly the poll interval.
func validateUniformSpacing(candles []models.Candle, pollIntervalMinutes int) error {
	want := time.Duration(pollIntervalMinutes) * time.Minute
	for i := 1; i < len(candles); i++ {
		gap := candles[i].Timestamp.Sub(candles[i-1].Timestamp)
		if gap != want {
			return fmt.Errorf("%w: non-uniform candle spacing between index %d and %d: got %v, want %v",
				tradeerr.ErrValidation, i-1, i, gap, want)
		}
	}
	return nil
}
