package backtest

import (
	"math"
	"testing"
	"time"

	"solswing/internal/models"
	"solswing/internal/strategy"
)

func flatCandles(n int, pollMinutes int) []models.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		out[i] = models.Candle{
			Token: "SOL", Timestamp: base.Add(time.Duration(i*pollMinutes) * time.Minute),
			Open: 100, High: 101, Low: 99, Close: 100, Volume: 1000,
		}
	}
	return out
}

func TestRunnerInsufficientCandlesFails(t *testing.T) {
	r := &Runner{
		Strategy:            strategy.BuyAndHold{},
		Token:               "SOL",
		PollIntervalMinutes: 5,
		InitialPortfolio:    10000,
		Breakers:            models.DefaultCircuitBreakers(),
	}
	if _, err := r.Run(nil); err == nil {
		t.Fatal("expected insufficient data error")
	}
}

func TestRunnerForceClosesAtEndOfRun(t *testing.T) {
	r := &Runner{
		Strategy:            strategy.BuyAndHold{},
		Token:               "SOL",
		PollIntervalMinutes: 5,
		InitialPortfolio:    10000,
		Breakers:            models.DefaultCircuitBreakers(),
	}
	candles := flatCandles(5, 5)
	result, err := r.Run(candles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.ClosedPositions) != 1 {
		t.Fatalf("expected one forced close at end of run, got %d", len(result.ClosedPositions))
	}
	if *result.ClosedPositions[0].ExitReason != models.ExitManual {
		t.Fatalf("expected Manual exit reason, got %v", *result.ClosedPositions[0].ExitReason)
	}
}

func TestComputeMetricsEmptyRun(t *testing.T) {
	m := ComputeMetrics(nil, 10000, 10000, 0.001, 0)
	if !math.IsNaN(m.ProfitFactor) {
		t.Fatalf("expected NaN profit factor for no trades, got %v", m.ProfitFactor)
	}
}

func TestComputeMetricsWinRateAndProfitFactor(t *testing.T) {
	entryTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	exitTime := entryTime.Add(2 * time.Hour)
	winPnL, lossPnL := 100.0, -40.0
	winReason, lossReason := models.ExitTakeProfit, models.ExitStopLoss

	closed := []models.Position{
		{
			EntryPrice: 100, Quantity: 1, EntryTime: entryTime,
			ExitPrice: floatPtr(110), ExitTime: &exitTime, ExitReason: &winReason, RealizedPnL: &winPnL,
		},
		{
			EntryPrice: 100, Quantity: 1, EntryTime: entryTime,
			ExitPrice: floatPtr(60), ExitTime: &exitTime, ExitReason: &lossReason, RealizedPnL: &lossPnL,
		},
	}

	m := ComputeMetrics(closed, 10000, 10060, 0, 0)
	if m.WinCount != 1 || m.LossCount != 1 {
		t.Fatalf("expected 1 win and 1 loss, got win=%d loss=%d", m.WinCount, m.LossCount)
	}
	if m.WinRatePct != 50 {
		t.Fatalf("expected 50%% win rate, got %v", m.WinRatePct)
	}
	wantPF := 100.0 / 40.0
	if m.ProfitFactor != wantPF {
		t.Fatalf("expected profit factor %v, got %v", wantPF, m.ProfitFactor)
	}
}

func TestComputeMetricsTransactionCostAppliedSymmetrically(t *testing.T) {
	entryTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	exitTime := entryTime.Add(time.Hour)
	pnl := 100.0
	reason := models.ExitTakeProfit

	closed := []models.Position{
		{
			EntryPrice: 100, Quantity: 1, EntryTime: entryTime,
			ExitPrice: floatPtr(200), ExitTime: &exitTime, ExitReason: &reason, RealizedPnL: &pnl,
		},
	}
	feeRate := 0.01
	m := ComputeMetrics(closed, 10000, 10100, feeRate, 0)

	wantFee := (100*1 + 200*1) * feeRate / 2
	wantNetWin := pnl - wantFee
	if m.AverageWin != wantNetWin {
		t.Fatalf("expected average win %v after fee, got %v", wantNetWin, m.AverageWin)
	}
}

func floatPtr(f float64) *float64 { return &f }
