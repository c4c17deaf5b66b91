package strategy

import (
	"fmt"

	"solswing/internal/indicators"
	"solswing/internal/models"
	"solswing/internal/tradeerr"
)

// MeanReversionConfig tunes the mean-reversion strategy's thresholds.
type MeanReversionConfig struct {
	MAPeriod           int
	RSIPeriod          int
	VolumeLookback     int
	OversoldThreshold  float64 // e.g. -0.08: price 8% below MA
	RSIExtreme         float64 // e.g. 20
	VolumeMultiplier   float64 // e.g. 2.0
}

// DefaultMeanReversionConfig returns the strategy's reference parameterization.
func DefaultMeanReversionConfig() MeanReversionConfig {
	return MeanReversionConfig{
		MAPeriod:          20,
		RSIPeriod:         14,
		VolumeLookback:    20,
		OversoldThreshold: -0.08,
		RSIExtreme:        20,
		VolumeMultiplier:  2.0,
	}
}

// MeanReversion buys sharp, volume-confirmed dislocations below the mean
// that show signs of slowing — never sells explicitly; exits are the
// position manager's job via take-profit, time stop, or stop loss.
type MeanReversion struct {
	cfg MeanReversionConfig
}

// NewMeanReversion constructs a mean-reversion strategy with the given configuration.
func NewMeanReversion(cfg MeanReversionConfig) *MeanReversion {
	return &MeanReversion{cfg: cfg}
}

func (s *MeanReversion) Name() string { return "mean_reversion" }

func (s *MeanReversion) MinCandlesRequired() int {
	n := s.cfg.MAPeriod
	if s.cfg.VolumeLookback > n {
		n = s.cfg.VolumeLookback
	}
	if s.cfg.RSIPeriod+1 > n {
		n = s.cfg.RSIPeriod + 1
	}
	return n + 2 // +2 for the two trailing down-moves compared for slowing momentum
}

func (s *MeanReversion) SamplesNeeded(pollIntervalMinutes int) int { return s.MinCandlesRequired() }
func (s *MeanReversion) LookbackHours() int                        { return s.MinCandlesRequired() }
func (s *MeanReversion) SkipAutomaticExits() bool                  { return false }
func (s *MeanReversion) SupportsAccumulation() bool                { return false }

func (s *MeanReversion) GenerateSignal(candles []models.Candle) (models.Signal, error) {
	if len(candles) < s.MinCandlesRequired() {
		return models.SignalHold, fmt.Errorf("%w: mean reversion needs %d candles, got %d", tradeerr.ErrInsufficientData, s.MinCandlesRequired(), len(candles))
	}

	closes := closesOf(candles)
	ma, ok := indicators.SMA(closes, s.cfg.MAPeriod)
	if !ok {
		return models.SignalHold, fmt.Errorf("%w: ma unavailable", tradeerr.ErrInsufficientData)
	}
	rsi, ok := indicators.RSI(closes, s.cfg.RSIPeriod)
	if !ok {
		return models.SignalHold, fmt.Errorf("%w: rsi unavailable", tradeerr.ErrInsufficientData)
	}
	avgVolume, ok := indicators.AverageVolume(candles, s.cfg.VolumeLookback)
	if !ok || avgVolume == 0 {
		return models.SignalHold, fmt.Errorf("%w: average volume unavailable", tradeerr.ErrInsufficientData)
	}

	last := candles[len(candles)-1]
	deviation := (last.Close - ma) / ma
	if !(deviation < s.cfg.OversoldThreshold) {
		return models.SignalHold, nil
	}
	if !(rsi < s.cfg.RSIExtreme) {
		return models.SignalHold, nil
	}
	if !(last.Volume/avgVolume > s.cfg.VolumeMultiplier) {
		return models.SignalHold, nil
	}
	if !momentumSlowing(candles) {
		return models.SignalHold, nil
	}

	return models.SignalBuy, nil
}

// momentumSlowing reports whether the most recent down-move is smaller in
// magnitude than the one before it — evidence this is not a falling knife.
func momentumSlowing(candles []models.Candle) bool {
	n := len(candles)
	lastMove := candles[n-1].Close - candles[n-2].Close
	priorMove := candles[n-2].Close - candles[n-3].Close
	if lastMove >= 0 || priorMove >= 0 {
		return false
	}
	return abs(lastMove) < abs(priorMove)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
