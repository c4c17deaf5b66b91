package regime

import (
	"context"
	"testing"
	"time"

	"solswing/internal/models"
	"solswing/internal/oracle"
)

func trendingCandles(n int, step float64) []models.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	price := 100.0
	for i := 0; i < n; i++ {
		price += step
		out[i] = models.Candle{
			Token: "SOL", Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open: price, High: price + 1, Low: price - 1, Close: price, Volume: 1000,
		}
	}
	return out
}

func TestDetectBullTrend(t *testing.T) {
	candles := trendingCandles(60, 1.5)
	regime, ok := Detect(candles, DefaultDetectorConfig())
	if !ok {
		t.Fatal("expected ok")
	}
	if regime != models.RegimeBullTrend {
		t.Fatalf("expected BullTrend, got %v", regime)
	}
}

func TestDetectInsufficientData(t *testing.T) {
	if _, ok := Detect(trendingCandles(5, 1), DefaultDetectorConfig()); ok {
		t.Fatal("expected insufficient data")
	}
}

func TestCompositeDetectIsTotalFunction(t *testing.T) {
	candles := trendingCandles(60, 0.01) // nearly flat: should not force a strong-trend regime
	regime, ok := CompositeDetect(candles, DefaultCompositeConfig())
	if !ok {
		t.Fatal("expected composite detector to resolve on sufficient data")
	}
	if regime == "" {
		t.Fatal("expected a concrete regime value")
	}
}

// fakeTransport is an in-memory oracle.ChatTransport used so overlay tests
// never reach a live model.
type fakeTransport struct {
	calls    int
	response string
	err      error
}

func (f *fakeTransport) Chat(ctx context.Context, messages []oracle.ChatMessage) (string, error) {
	f.calls++
	return f.response, f.err
}

func TestOverlayDetectRegimeParsesAndClamps(t *testing.T) {
	transport := &fakeTransport{response: "```json\nREGIME=BullTrend\nCONFIDENCE=1.5\n```"}
	overlay := NewOverlay(transport)
	overlay.limiter.SetLimit(1e9) // avoid the real 2.5s floor in the unit test

	result, err := overlay.DetectRegime(context.Background(), time.Now(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Regime != models.RegimeBullTrend {
		t.Fatalf("expected BullTrend, got %v", result.Regime)
	}
	if result.Confidence != 1 {
		t.Fatalf("expected confidence clamped to 1, got %v", result.Confidence)
	}
}

func TestOverlayUnknownRegimeFallsBackToChoppyUnclear(t *testing.T) {
	transport := &fakeTransport{response: "REGIME=Sideways\nCONFIDENCE=0.4"}
	overlay := NewOverlay(transport)
	overlay.limiter.SetLimit(1e9)

	result, err := overlay.DetectRegime(context.Background(), time.Now(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Regime != models.RegimeChoppyUnclear {
		t.Fatalf("expected fallback to ChoppyUnclear, got %v", result.Regime)
	}
}

func TestOverlayUnknownStrategyFallsBackToDCA(t *testing.T) {
	transport := &fakeTransport{response: "STRATEGY=scalping\nCONFIDENCE=0.9\nRATIONALE=test"}
	overlay := NewOverlay(transport)
	overlay.limiter.SetLimit(1e9)

	result, err := overlay.SelectStrategy(context.Background(), time.Now(), "ctx", "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Strategy != "dca" {
		t.Fatalf("expected fallback to dca, got %v", result.Strategy)
	}
}

func TestOverlayCachesByCandleTimestamp(t *testing.T) {
	transport := &fakeTransport{response: "REGIME=BullTrend\nCONFIDENCE=0.8"}
	overlay := NewOverlay(transport)
	overlay.limiter.SetLimit(1e9)

	ts := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	if _, err := overlay.DetectRegime(context.Background(), ts, "prompt"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := overlay.DetectRegime(context.Background(), ts, "prompt"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if transport.calls != 1 {
		t.Fatalf("expected cached second call, transport invoked %d times", transport.calls)
	}
}
