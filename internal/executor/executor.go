// Package executor implements the decision layer between a strategy's
// signal and the position manager: it decides what to do, but never
// mutates position state itself.
package executor

import (
	"fmt"

	"solswing/internal/circuit"
	"solswing/internal/models"
	"solswing/internal/position"
)

// ActionKind is the executor's decision for a given signal.
type ActionKind string

const (
	ActionExecute ActionKind = "Execute"
	ActionClose   ActionKind = "Close"
	ActionSkip    ActionKind = "Skip"
)

// Action is the executor's output: what the caller should do next, with
// enough detail to perform it. Quantity is set only for ActionExecute; ID
// and ExitReason are set only for ActionClose.
type Action struct {
	Kind       ActionKind
	Quantity   float64
	PositionID string
	ExitReason models.ExitReason
	Reason     string
}

// strategySellProfitThreshold is the minimum unrealized P&L fraction a
// strategy Sell must clear before the executor treats it as a profit-take;
// below it, exits are left to the position manager's stop-loss/time-stop
// machinery.
const strategySellProfitThreshold = 0.05

// ProcessSignal turns a strategy's signal into an action, consulting the
// position manager and circuit breakers but never mutating either — the
// caller applies the action with the same price/timestamp used to produce
// it.
func ProcessSignal(mgr *position.Manager, breakers models.CircuitBreakers, signal models.Signal, token string, price float64) Action {
	switch signal {
	case models.SignalBuy:
		return processBuy(mgr, breakers, token, price)
	case models.SignalSell:
		return processSell(mgr, token, price)
	default:
		return Action{Kind: ActionSkip, Reason: "hold"}
	}
}

func processBuy(mgr *position.Manager, breakers models.CircuitBreakers, token string, price float64) Action {
	if existing, ok := mgr.Open(token); ok && !existing.AllowAccumulation {
		return Action{Kind: ActionSkip, Reason: "already open"}
	}

	state := mgr.State()
	if tripped, kind := circuit.Check(state, breakers); tripped {
		return Action{Kind: ActionSkip, Reason: fmt.Sprintf("circuit breaker: %s", kind)}
	}

	if price <= 0 {
		return Action{Kind: ActionSkip, Reason: "invalid price"}
	}
	maxNotional := circuit.MaxPositionSize(state, breakers)
	quantity := maxNotional / price
	return Action{Kind: ActionExecute, Quantity: quantity}
}

func processSell(mgr *position.Manager, token string, price float64) Action {
	p, ok := mgr.Open(token)
	if !ok {
		return Action{Kind: ActionSkip, Reason: "no position"}
	}

	pct := p.UnrealizedPnLPct(price)
	if pct < strategySellProfitThreshold {
		return Action{Kind: ActionSkip, Reason: fmt.Sprintf("only %.1f%% profit", pct*100)}
	}
	return Action{Kind: ActionClose, PositionID: p.ID.String(), ExitReason: models.ExitStrategySell}
}
