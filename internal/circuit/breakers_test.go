package circuit

import (
	"testing"

	"solswing/internal/models"
)

func defaultState() models.TradingState {
	return models.TradingState{
		PortfolioValue:     10000,
		PeakPortfolioValue: 10000,
	}
}

func TestCheckPassesHealthyState(t *testing.T) {
	tripped, kind := Check(defaultState(), models.DefaultCircuitBreakers())
	if tripped {
		t.Fatalf("expected no trip, got %v", kind)
	}
}

func TestCheckDailyLossOrderedFirst(t *testing.T) {
	state := defaultState()
	state.DailyPnL = -600 // 6% of 10000, exceeds 5% default
	state.ConsecutiveLosses = 10 // would also trip, but daily loss must report first
	tripped, kind := Check(state, models.DefaultCircuitBreakers())
	if !tripped || kind != KindDailyLoss {
		t.Fatalf("expected DailyLoss trip first, got tripped=%v kind=%v", tripped, kind)
	}
}

func TestCheckMaxDrawdown(t *testing.T) {
	state := defaultState()
	state.PeakPortfolioValue = 10000
	state.PortfolioValue = 7500 // 25% drawdown, exceeds 20% default
	tripped, kind := Check(state, models.DefaultCircuitBreakers())
	if !tripped || kind != KindMaxDrawdown {
		t.Fatalf("expected MaxDrawdown trip, got tripped=%v kind=%v", tripped, kind)
	}
}

func TestCheckConsecutiveLosses(t *testing.T) {
	state := defaultState()
	state.ConsecutiveLosses = 5
	tripped, kind := Check(state, models.DefaultCircuitBreakers())
	if !tripped || kind != KindConsecutiveLosses {
		t.Fatalf("expected ConsecutiveLosses trip, got tripped=%v kind=%v", tripped, kind)
	}
}

func TestCheckDailyTradeLimit(t *testing.T) {
	state := defaultState()
	state.DailyTrades = 10
	tripped, kind := Check(state, models.DefaultCircuitBreakers())
	if !tripped || kind != KindDailyTradeLimit {
		t.Fatalf("expected DailyTradeLimit trip, got tripped=%v kind=%v", tripped, kind)
	}
}

func TestMaxPositionSize(t *testing.T) {
	state := defaultState()
	cfg := models.DefaultCircuitBreakers()
	got := MaxPositionSize(state, cfg)
	want := 500.0 // 5% of 10000
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
