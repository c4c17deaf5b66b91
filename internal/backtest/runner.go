// Package backtest implements the deterministic historical simulation
// runner and its derived performance metrics.
package backtest

import (
	"fmt"

	"solswing/internal/circuit"
	"solswing/internal/executor"
	"solswing/internal/models"
	"solswing/internal/position"
	"solswing/internal/strategy"
	"solswing/internal/tradeerr"
)

// Runner simulates a single strategy against historical candles. Every
// position and metric timestamp comes from the candles themselves (the
// manager's LastReset is the only wall-clock read, and no metric uses it), so
// identical inputs produce bit-identical metrics.
type Runner struct {
	Strategy            strategy.Strategy
	Token               string
	PollIntervalMinutes int
	TransactionCostPct  float64
	InitialPortfolio    float64
	Breakers            models.CircuitBreakers
}

// Result is everything a run produces: the final manager state (for
// inspection) and the derived metrics.
type Result struct {
	ClosedPositions     []models.Position
	CircuitBreakerTrips int
	Metrics             Metrics
}

// Run executes the simulation in full, from the first index with enough
// history through a forced close of every remaining open position at the
// final candle.
func (r *Runner) Run(candles []models.Candle) (Result, error) {
	samplesNeeded := r.Strategy.SamplesNeeded(r.PollIntervalMinutes)
	if len(candles) < samplesNeeded {
		return Result{}, fmt.Errorf("%w: backtest needs %d candles, got %d", tradeerr.ErrInsufficientData, samplesNeeded, len(candles))
	}

	mgr := position.NewManager(r.InitialPortfolio)
	breakerTrips := 0

	for i := samplesNeeded - 1; i < len(candles); i++ {
		window := candles[i-samplesNeeded+1 : i+1]
		price := candles[i].Close
		now := candles[i].Timestamp

		if !r.Strategy.SkipAutomaticExits() {
			mgr.CheckExitsAt(now, map[string]float64{r.Token: price})
		}

		signal, err := r.Strategy.GenerateSignal(window)
		if err != nil {
			continue // a transient precondition failure (e.g. insufficient data) yields Hold for this tick
		}

		action := executor.ProcessSignal(mgr, r.Breakers, signal, r.Token, price)
		switch action.Kind {
		case executor.ActionExecute:
			mgr.OpenPositionAt(now, r.Token, price, action.Quantity, r.Strategy.SupportsAccumulation())
		case executor.ActionClose:
			mgr.ClosePositionAt(now, r.Token, price, action.ExitReason)
		case executor.ActionSkip:
			if tripped, _ := circuit.Check(mgr.State(), r.Breakers); tripped && signal == models.SignalBuy {
				breakerTrips++
			}
		}
	}

	if _, stillOpen := mgr.Open(r.Token); stillOpen {
		last := candles[len(candles)-1]
		mgr.ClosePositionAt(last.Timestamp, r.Token, last.Close, models.ExitManual)
	}

	closed := mgr.Closed()
	metrics := ComputeMetrics(closed, r.InitialPortfolio, mgr.State().PortfolioValue, r.TransactionCostPct, breakerTrips)

	return Result{
		ClosedPositions:     closed,
		CircuitBreakerTrips: breakerTrips,
		Metrics:             metrics,
	}, nil
}
