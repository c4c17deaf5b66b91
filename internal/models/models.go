// Package models defines the core data types shared across the trading engine:
// candles, tokens, signals, positions, and the aggregate trading state consulted
// by the circuit breakers.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Candle is a single OHLCV bar for a token at a fixed granularity.
type Candle struct {
	Token     string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Token identifies a tradeable asset. MintAddress is the primary identity;
// Symbol is a display key only.
type Token struct {
	Symbol      string
	MintAddress string
	Name        string
	Decimals    int
}

// Signal is the tagged output of a strategy's market read.
type Signal string

const (
	SignalBuy  Signal = "Buy"
	SignalSell Signal = "Sell"
	SignalHold Signal = "Hold"
)

// Status is a position's lifecycle stage.
type Status string

const (
	StatusOpen   Status = "Open"
	StatusClosed Status = "Closed"
)

// ExitReason records why a position transitioned to Closed.
type ExitReason string

const (
	ExitStopLoss     ExitReason = "StopLoss"
	ExitTakeProfit   ExitReason = "TakeProfit"
	ExitTimeStop     ExitReason = "TimeStop"
	ExitManual       ExitReason = "Manual"
	ExitStrategySell ExitReason = "StrategySell"
)

// Position tracking constants, fixed per the design (configurability is a
// future extension, not implemented here).
const (
	StopLossPct        = 0.92 // stop_loss = entry_price * 0.92
	TrailingActivation = 1.12 // trailing stop activates once price >= entry * 1.12
	TrailingLockIn     = 0.95 // take_profit = trailing_high * 0.95 while active
	TimeStopDuration   = 14 * 24 * time.Hour
)

// Position is a single open or closed trade. The position manager is its sole
// owner and mutator; everything else references it by ID.
type Position struct {
	ID                uuid.UUID
	Token             string
	EntryPrice        float64
	Quantity          float64
	EntryTime         time.Time
	StopLoss          float64
	TakeProfit        *float64
	TrailingHigh      float64
	Status            Status
	RealizedPnL       *float64
	ExitPrice         *float64
	ExitTime          *time.Time
	ExitReason        *ExitReason
	AllowAccumulation bool
	TotalCostBasis    float64
}

// UnrealizedPnL computes mark-to-market P&L at the given price for an open
// position.
func (p *Position) UnrealizedPnL(price float64) float64 {
	return (price - p.EntryPrice) * p.Quantity
}

// UnrealizedPnLPct computes mark-to-market P&L as a fraction of entry cost.
func (p *Position) UnrealizedPnLPct(price float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	return (price - p.EntryPrice) / p.EntryPrice
}

// TradingState is the aggregate risk-relevant state consulted by the circuit
// breakers. PeakPortfolioValue is monotonically non-decreasing.
type TradingState struct {
	PortfolioValue     float64
	PeakPortfolioValue float64
	DailyPnL           float64
	ConsecutiveLosses  int
	DailyTrades        int
	LastReset          time.Time
}

// CircuitBreakers is immutable configuration for the risk gate.
type CircuitBreakers struct {
	MaxDailyLossPct      float64
	MaxDrawdownPct       float64
	MaxConsecutiveLosses int
	MaxPositionSizePct   float64
	MaxDailyTrades       int
}

// DefaultCircuitBreakers returns the spec's default thresholds.
func DefaultCircuitBreakers() CircuitBreakers {
	return CircuitBreakers{
		MaxDailyLossPct:      0.05,
		MaxDrawdownPct:       0.20,
		MaxConsecutiveLosses: 5,
		MaxPositionSizePct:   0.05,
		MaxDailyTrades:       10,
	}
}

// MarketRegime classifies the current market state for strategy selection.
type MarketRegime string

const (
	RegimeBullTrend     MarketRegime = "BullTrend"
	RegimeBearCrash     MarketRegime = "BearCrash"
	RegimeChoppyClear   MarketRegime = "ChoppyClear"
	RegimeChoppyUnclear MarketRegime = "ChoppyUnclear"
)
