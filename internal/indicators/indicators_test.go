package indicators

import (
	"testing"
	"time"

	"solswing/internal/models"
)

func TestSMA(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5}
	got, ok := SMA(prices, 3)
	if !ok {
		t.Fatal("expected ok")
	}
	if got != 4 {
		t.Fatalf("expected 4, got %v", got)
	}
	if _, ok := SMA(prices, 10); ok {
		t.Fatal("expected insufficient data")
	}
}

func TestEMASeedsWithSMA(t *testing.T) {
	prices := []float64{10, 10, 10, 10}
	got, ok := EMA(prices, 4)
	if !ok || got != 10 {
		t.Fatalf("flat series should hold EMA at 10, got %v ok=%v", got, ok)
	}
}

func TestRSIFlatSeriesIsHundred(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 100
	}
	got, ok := RSI(prices, 14)
	if !ok {
		t.Fatal("expected ok")
	}
	// avg_loss == 0 => RSI == 100 per spec, even on flat data (no losses).
	if got != 100 {
		t.Fatalf("expected 100 for flat series, got %v", got)
	}
}

func TestRSIInsufficientData(t *testing.T) {
	if _, ok := RSI([]float64{1, 2, 3}, 14); ok {
		t.Fatal("expected insufficient data")
	}
}

func candleSeries(n int, closeFn func(i int) float64) []models.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		c := closeFn(i)
		out[i] = models.Candle{
			Token:     "SOL",
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	return out
}

func TestATRWilderSmoothing(t *testing.T) {
	candles := candleSeries(30, func(i int) float64 { return 100 + float64(i) })
	atr, ok := ATR(candles, 14)
	if !ok {
		t.Fatal("expected ok")
	}
	if atr <= 0 {
		t.Fatalf("expected positive ATR, got %v", atr)
	}
}

func TestADXReturnsCurrentDXNotFurtherSmoothed(t *testing.T) {
	candles := candleSeries(40, func(i int) float64 { return 100 + float64(i)*2 })
	res, ok := ADX(candles, 14)
	if !ok {
		t.Fatal("expected ok")
	}
	if res.PlusDI <= res.MinusDI {
		t.Fatalf("uptrend should have +DI > -DI, got +DI=%v -DI=%v", res.PlusDI, res.MinusDI)
	}
	wantDX := 100 * absf(res.PlusDI-res.MinusDI) / (res.PlusDI + res.MinusDI)
	if res.ADX != wantDX {
		t.Fatalf("expected ADX to equal the current DX %v, got %v", wantDX, res.ADX)
	}
}

func TestIsVolumeSpike(t *testing.T) {
	candles := candleSeries(10, func(i int) float64 { return 100 })
	candles[len(candles)-1].Volume = 5000
	if !IsVolumeSpike(candles, 5, 1.5) {
		t.Fatal("expected volume spike")
	}
}

func TestVolumeDirectionRatioZeroVolume(t *testing.T) {
	candles := candleSeries(5, func(i int) float64 { return 100 })
	for i := range candles {
		candles[i].Volume = 0
	}
	up, down := VolumeDirectionRatio(candles, 3)
	if up != 0.5 || down != 0.5 {
		t.Fatalf("expected (0.5, 0.5) for zero volume, got (%v, %v)", up, down)
	}
}

func TestMarketStructureInsufficientLookback(t *testing.T) {
	closes := []float64{100, 101, 100}
	if _, ok := MarketStructure(closes, 10); ok {
		t.Fatal("expected insufficient lookback")
	}
}
