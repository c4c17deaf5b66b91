// Package position implements the position manager: position lifecycle
// (open, accumulate, exit, close), the trailing-stop state machine, and the
// aggregate trading state the circuit breakers consult.
package position

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"solswing/internal/models"
	"solswing/internal/tradeerr"
)

func newPositionID() uuid.UUID {
	return uuid.New()
}

// Manager owns every position and the aggregate trading state derived from
// them. It is the sole mutator of both; everything else references a
// position by ID and reads state through it.
type Manager struct {
	positions map[string]*models.Position // keyed by token; one open position per token
	closed    []models.Position
	state     models.TradingState
}

// NewManager creates a manager seeded with the given starting portfolio
// value. PeakPortfolioValue starts equal to PortfolioValue.
func NewManager(initialPortfolioValue float64) *Manager {
	return &Manager{
		positions: make(map[string]*models.Position),
		state: models.TradingState{
			PortfolioValue:     initialPortfolioValue,
			PeakPortfolioValue: initialPortfolioValue,
			LastReset:          time.Now(),
		},
	}
}

// WithPositions rebuilds a manager from persisted state after a restart.
// Open positions are restored live; closed positions are kept as history and
// their realized P&L is added to the portfolio value, raising the peak where
// it sets a new high. The rolling figures (daily P&L, daily trades,
// consecutive losses) are not recomputed here.
func WithPositions(initialPortfolioValue float64, open []models.Position, closed []models.Position) *Manager {
	m := NewManager(initialPortfolioValue)
	for i := range open {
		p := open[i]
		m.positions[p.Token] = &p
	}
	for _, p := range closed {
		if p.RealizedPnL == nil {
			continue
		}
		m.state.PortfolioValue += *p.RealizedPnL
		if m.state.PortfolioValue > m.state.PeakPortfolioValue {
			m.state.PeakPortfolioValue = m.state.PortfolioValue
		}
	}
	m.closed = append(m.closed, closed...)
	return m
}

// OpenPositionAt opens a new position, or — if one is already open for the
// token and the strategy allows accumulation — folds the purchase into the
// existing position at a cost-weighted average entry price. stop_loss is
// recomputed from the new blended entry price (entry_price * StopLossPct)
// and trailing_high is raised to the accumulation price if it set a new
// high, on every accumulation.
func (m *Manager) OpenPositionAt(now time.Time, token string, price, quantity float64, allowAccumulation bool) (*models.Position, error) {
	if existing, ok := m.positions[token]; ok {
		if !existing.AllowAccumulation || !allowAccumulation {
			return nil, fmt.Errorf("%w: position already open for %s and accumulation not permitted", tradeerr.ErrInvariant, token)
		}
		addedCost := price * quantity
		newCostBasis := existing.TotalCostBasis + addedCost
		newQuantity := existing.Quantity + quantity
		existing.EntryPrice = newCostBasis / newQuantity
		existing.Quantity = newQuantity
		existing.TotalCostBasis = newCostBasis
		existing.StopLoss = existing.EntryPrice * models.StopLossPct
		existing.TrailingHigh = math.Max(existing.TrailingHigh, price)
		return existing, nil
	}

	p := &models.Position{
		ID:                newPositionID(),
		Token:             token,
		EntryPrice:        price,
		Quantity:          quantity,
		EntryTime:         now,
		StopLoss:          price * models.StopLossPct,
		TrailingHigh:      price,
		Status:            models.StatusOpen,
		AllowAccumulation: allowAccumulation,
		TotalCostBasis:    price * quantity,
	}
	m.positions[token] = p
	m.state.DailyTrades++
	return p, nil
}

// UpdateTrailingStop advances the trailing-stop state machine for an open
// position given the current price. The stop is inactive until price
// reaches entry * TrailingActivation; once active, TrailingHigh is a
// high-water mark and TakeProfit = TrailingHigh * TrailingLockIn can only
// rise, never fall.
func UpdateTrailingStop(p *models.Position, price float64) {
	activationPrice := p.EntryPrice * models.TrailingActivation
	active := p.TakeProfit != nil

	if !active && price < activationPrice {
		return
	}

	if price > p.TrailingHigh {
		p.TrailingHigh = price
	}
	newTakeProfit := p.TrailingHigh * models.TrailingLockIn
	if p.TakeProfit == nil || newTakeProfit > *p.TakeProfit {
		p.TakeProfit = &newTakeProfit
	}
}

// ShouldExitAt evaluates an open position's exit conditions in order:
// stop-loss, take-profit (trailing stop), then time stop. Returns the first
// reason triggered, or ok=false if none apply.
func ShouldExitAt(now time.Time, p *models.Position, price float64) (reason models.ExitReason, ok bool) {
	if price <= p.StopLoss {
		return models.ExitStopLoss, true
	}
	if p.TakeProfit != nil && price <= *p.TakeProfit {
		return models.ExitTakeProfit, true
	}
	if now.Sub(p.EntryTime) >= models.TimeStopDuration {
		return models.ExitTimeStop, true
	}
	return "", false
}

// ClosePositionAt closes an open position, recording realized P&L and
// updating the rolling trading-state figures the circuit breakers read:
// daily P&L, consecutive losses (reset to zero on a win, incremented on a
// loss), and the portfolio value / peak portfolio value.
func (m *Manager) ClosePositionAt(now time.Time, token string, price float64, reason models.ExitReason) (models.Position, error) {
	p, ok := m.positions[token]
	if !ok {
		return models.Position{}, fmt.Errorf("%w: no open position for %s", tradeerr.ErrInvariant, token)
	}

	pnl := p.UnrealizedPnL(price)
	p.Status = models.StatusClosed
	p.RealizedPnL = &pnl
	p.ExitPrice = &price
	p.ExitTime = &now
	p.ExitReason = &reason

	m.state.PortfolioValue += pnl
	if m.state.PortfolioValue > m.state.PeakPortfolioValue {
		m.state.PeakPortfolioValue = m.state.PortfolioValue
	}
	m.state.DailyPnL += pnl
	if pnl < 0 {
		m.state.ConsecutiveLosses++
	} else {
		m.state.ConsecutiveLosses = 0
	}

	closed := *p
	m.closed = append(m.closed, closed)
	delete(m.positions, token)
	return closed, nil
}

// CheckExitsAt evaluates and closes every open position whose exit
// conditions are met, updating trailing stops for the rest. Must run before
// signal generation each tick: closing a stale position first keeps the
// strategy's read of "is this token currently held" accurate for the same
// tick's entry decision.
func (m *Manager) CheckExitsAt(now time.Time, prices map[string]float64) []models.Position {
	var closed []models.Position
	for token, p := range m.positions {
		price, ok := prices[token]
		if !ok {
			continue
		}
		UpdateTrailingStop(p, price)
		if reason, exit := ShouldExitAt(now, p, price); exit {
			result, err := m.ClosePositionAt(now, token, price, reason)
			if err == nil {
				closed = append(closed, result)
			}
		}
	}
	return closed
}

// Open returns the currently open position for a token, if any.
func (m *Manager) Open(token string) (models.Position, bool) {
	p, ok := m.positions[token]
	if !ok {
		return models.Position{}, false
	}
	return *p, true
}

// OpenTokens returns the set of tokens currently holding an open position.
func (m *Manager) OpenTokens() []string {
	tokens := make([]string, 0, len(m.positions))
	for t := range m.positions {
		tokens = append(tokens, t)
	}
	return tokens
}

// Closed returns every closed position, oldest first.
func (m *Manager) Closed() []models.Position {
	return append([]models.Position(nil), m.closed...)
}

// State returns a snapshot of the aggregate trading state.
func (m *Manager) State() models.TradingState {
	return m.state
}

// PortfolioValue returns mark-to-market portfolio value: realized value plus
// unrealized P&L on every open position at the given prices.
func (m *Manager) PortfolioValue(prices map[string]float64) float64 {
	value := m.state.PortfolioValue
	for token, p := range m.positions {
		if price, ok := prices[token]; ok {
			value += p.UnrealizedPnL(price)
		}
	}
	return value
}

// ResetDaily clears the rolling daily figures (daily P&L, daily trade
// count). Called once per UTC day boundary by the live loop.
func (m *Manager) ResetDaily(now time.Time) {
	m.state.DailyPnL = 0
	m.state.DailyTrades = 0
	m.state.LastReset = now
}
