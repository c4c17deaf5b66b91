package strategy

import (
	"errors"
	"testing"
	"time"

	"solswing/internal/models"
	"solswing/internal/tradeerr"
)

func uniformCandles(n int, pollMinutes int, closeFn func(i int) float64, volumeFn func(i int) float64) []models.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		c := closeFn(i)
		out[i] = models.Candle{
			Token:     "SOL",
			Timestamp: base.Add(time.Duration(i*pollMinutes) * time.Minute),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    volumeFn(i),
		}
	}
	return out
}

func TestMomentumRejectsNonUniformSpacing(t *testing.T) {
	m := NewMomentum(DefaultMomentumConfig())
	candles := uniformCandles(m.MinCandlesRequired()+1, 5, func(i int) float64 { return 100 }, func(i int) float64 { return 1000 })
	candles[5].Timestamp = candles[5].Timestamp.Add(time.Minute) // break uniformity
	_, err := m.GenerateSignal(candles)
	if !errors.Is(err, tradeerr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMomentumBuyOnBreakoutWithVolumeConfirmation(t *testing.T) {
	cfg := DefaultMomentumConfig()
	m := NewMomentum(cfg)
	n := m.MinCandlesRequired() + 1
	candles := uniformCandles(n, cfg.PollIntervalMinutes,
		func(i int) float64 { return 100 + float64(i)*0.5 }, // steady uptrend: short MA > long MA, price > short MA
		func(i int) float64 {
			if i == n-1 {
				return 5000 // volume spike on the last candle
			}
			return 1000
		})
	signal, err := m.GenerateSignal(candles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signal != models.SignalBuy {
		t.Fatalf("expected Buy, got %v", signal)
	}
}

func TestMomentumInsufficientData(t *testing.T) {
	m := NewMomentum(DefaultMomentumConfig())
	_, err := m.GenerateSignal(uniformCandles(2, 5, func(i int) float64 { return 100 }, func(i int) float64 { return 1 }))
	if !errors.Is(err, tradeerr.ErrInsufficientData) {
		t.Fatalf("expected insufficient data error, got %v", err)
	}
}

func TestMeanReversionRequiresAllFourConditions(t *testing.T) {
	cfg := DefaultMeanReversionConfig()
	mr := NewMeanReversion(cfg)
	n := mr.MinCandlesRequired() + 1

	// Flat series with a sharp final drop whose magnitude is smaller than the
	// prior drop (momentum slowing), deep below the moving average, with a
	// volume spike on the final candle.
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100
	}
	closes[n-3] = 100
	closes[n-2] = 85 // big drop
	closes[n-1] = 80 // smaller drop than the previous one

	candles := make([]models.Candle, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		v := 1000.0
		if i == n-1 {
			v = 3000
		}
		candles[i] = models.Candle{
			Token: "SOL", Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open: closes[i], High: closes[i] + 1, Low: closes[i] - 1, Close: closes[i], Volume: v,
		}
	}

	signal, err := mr.GenerateSignal(candles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signal != models.SignalBuy {
		t.Fatalf("expected Buy on confirmed oversold bounce setup, got %v", signal)
	}
}

func TestMeanReversionNeverSells(t *testing.T) {
	mr := NewMeanReversion(DefaultMeanReversionConfig())
	n := mr.MinCandlesRequired() + 1
	candles := uniformCandles(n, 60, func(i int) float64 { return 100 + float64(i) }, func(i int) float64 { return 1000 })
	signal, err := mr.GenerateSignal(candles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signal == models.SignalSell {
		t.Fatal("mean reversion must never emit Sell")
	}
}

func TestBuyAndHoldAlwaysBuys(t *testing.T) {
	bh := BuyAndHold{}
	if !bh.SkipAutomaticExits() {
		t.Fatal("expected buy-and-hold to skip automatic exits")
	}
	signal, err := bh.GenerateSignal(nil)
	if err != nil || signal != models.SignalBuy {
		t.Fatalf("expected Buy, got %v err=%v", signal, err)
	}
}

func TestDCABuysFirstCallThenOnInterval(t *testing.T) {
	d := NewDCA(168)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	first := []models.Candle{{Token: "SOL", Timestamp: base, Close: 100}}
	signal, err := d.GenerateSignal(first)
	if err != nil || signal != models.SignalBuy {
		t.Fatalf("expected first call to Buy, got %v err=%v", signal, err)
	}

	tooSoon := []models.Candle{{Token: "SOL", Timestamp: base.Add(24 * time.Hour), Close: 100}}
	signal, _ = d.GenerateSignal(tooSoon)
	if signal != models.SignalHold {
		t.Fatalf("expected Hold before interval elapses, got %v", signal)
	}

	dueAgain := []models.Candle{{Token: "SOL", Timestamp: base.Add(168 * time.Hour), Close: 100}}
	signal, _ = d.GenerateSignal(dueAgain)
	if signal != models.SignalBuy {
		t.Fatalf("expected Buy once interval elapses, got %v", signal)
	}

	if !d.SupportsAccumulation() || !d.SkipAutomaticExits() {
		t.Fatal("expected DCA to support accumulation and skip automatic exits")
	}
}
