package strategy

import (
	"sync"
	"time"

	"solswing/internal/models"
)

// DCA buys at a fixed time interval regardless of price, folding each buy
// into the existing position. It is stateful: the only thing it remembers
// is the timestamp of its last buy.
type DCA struct {
	mu             sync.Mutex
	intervalHours  int
	lastBuy        *time.Time
}

// NewDCA constructs a dollar-cost-averaging strategy that buys every
// intervalHours.
func NewDCA(intervalHours int) *DCA {
	return &DCA{intervalHours: intervalHours}
}

func (d *DCA) Name() string                   { return "dca" }
func (d *DCA) MinCandlesRequired() int         { return 1 }
func (d *DCA) SamplesNeeded(int) int           { return 1 }
func (d *DCA) LookbackHours() int              { return 1 }
func (d *DCA) SkipAutomaticExits() bool        { return true }
func (d *DCA) SupportsAccumulation() bool      { return true }

// GenerateSignal emits Buy on the first call, and again whenever the current
// candle's timestamp is at least intervalHours past the last Buy.
func (d *DCA) GenerateSignal(candles []models.Candle) (models.Signal, error) {
	if len(candles) == 0 {
		return models.SignalHold, nil
	}
	current := candles[len(candles)-1].Timestamp

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.lastBuy == nil {
		d.lastBuy = &current
		return models.SignalBuy, nil
	}
	if current.Sub(*d.lastBuy) >= time.Duration(d.intervalHours)*time.Hour {
		d.lastBuy = &current
		return models.SignalBuy, nil
	}
	return models.SignalHold, nil
}
