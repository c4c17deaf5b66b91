package strategy

import "solswing/internal/models"

// BuyAndHold always signals Buy and never exits automatically; the position
// manager must never force-close it via stop-loss, take-profit, or time
// stop.
type BuyAndHold struct{}

func (BuyAndHold) Name() string                   { return "buy_and_hold" }
func (BuyAndHold) MinCandlesRequired() int         { return 1 }
func (BuyAndHold) SamplesNeeded(int) int           { return 1 }
func (BuyAndHold) LookbackHours() int              { return 1 }
func (BuyAndHold) SkipAutomaticExits() bool        { return true }
func (BuyAndHold) SupportsAccumulation() bool      { return false }

func (BuyAndHold) GenerateSignal(candles []models.Candle) (models.Signal, error) {
	return models.SignalBuy, nil
}
