// Package circuit implements the risk gate consulted before every Buy: an
// ordered set of threshold checks over the aggregate trading state.
package circuit

import (
	"solswing/internal/models"
)

// Kind names which breaker tripped.
type Kind string

const (
	KindNone               Kind = ""
	KindDailyLoss          Kind = "DailyLoss"
	KindMaxDrawdown        Kind = "MaxDrawdown"
	KindConsecutiveLosses  Kind = "ConsecutiveLosses"
	KindDailyTradeLimit    Kind = "DailyTradeLimit"
)

// Check evaluates the breakers in a fixed order — daily loss, max drawdown,
// consecutive losses, daily trade limit — and returns the first one tripped.
// Order matters only for which Kind is reported; a caller only needs to know
// whether trading is currently permitted.
func Check(state models.TradingState, cfg models.CircuitBreakers) (tripped bool, kind Kind) {
	if dailyLossTripped(state, cfg) {
		return true, KindDailyLoss
	}
	if drawdownTripped(state, cfg) {
		return true, KindMaxDrawdown
	}
	if state.ConsecutiveLosses >= cfg.MaxConsecutiveLosses {
		return true, KindConsecutiveLosses
	}
	if state.DailyTrades >= cfg.MaxDailyTrades {
		return true, KindDailyTradeLimit
	}
	return false, KindNone
}

func dailyLossTripped(state models.TradingState, cfg models.CircuitBreakers) bool {
	if state.PortfolioValue <= 0 {
		return false
	}
	lossPct := -state.DailyPnL / state.PortfolioValue
	return lossPct >= cfg.MaxDailyLossPct
}

func drawdownTripped(state models.TradingState, cfg models.CircuitBreakers) bool {
	if state.PeakPortfolioValue <= 0 {
		return false
	}
	drawdown := (state.PeakPortfolioValue - state.PortfolioValue) / state.PeakPortfolioValue
	return drawdown >= cfg.MaxDrawdownPct
}

// MaxPositionSize returns the largest position notional permitted by the
// risk gate's position-sizing limit, given the current portfolio value.
func MaxPositionSize(state models.TradingState, cfg models.CircuitBreakers) float64 {
	return state.PortfolioValue * cfg.MaxPositionSizePct
}
