package candle

import (
	"testing"
	"time"
)

func TestGranularityForRange(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want Granularity
	}{
		{12 * time.Hour, Granularity5Min},
		{30 * 24 * time.Hour, GranularityHour},
		{200 * 24 * time.Hour, GranularityDay},
	}
	for _, c := range cases {
		if got := GranularityForRange(c.d); got != c.want {
			t.Fatalf("GranularityForRange(%v) = %v, want %v", c.d, got, c.want)
		}
	}
}

func TestToCandlesBucketsAndSynthesizesOHLC(t *testing.T) {
	base := int64(1_700_000_100) // a multiple of 300, so all four points share one bucket
	points := [][2]float64{
		{float64(base * 1000), 10},
		{float64((base + 60) * 1000), 12},
		{float64((base + 120) * 1000), 8},
		{float64((base + 180) * 1000), 11},
	}
	candles := ToCandles("SOL", points, Granularity5Min)
	if len(candles) != 1 {
		t.Fatalf("expected single bucket, got %d", len(candles))
	}
	c := candles[0]
	if c.Open != 10 || c.Close != 11 || c.High != 12 || c.Low != 8 || c.Volume != 0 {
		t.Fatalf("unexpected OHLC synthesis: %+v", c)
	}
}

func TestToCandlesKeepsLastOnDuplicateTimestamp(t *testing.T) {
	ts := float64(1_700_000_000_000)
	points := [][2]float64{{ts, 10}, {ts, 20}}
	candles := ToCandles("SOL", points, Granularity5Min)
	if len(candles) != 1 {
		t.Fatalf("expected one bucket, got %d", len(candles))
	}
	if candles[0].Open != 20 || candles[0].Close != 20 {
		t.Fatalf("expected duplicate timestamp resolved to last value, got %+v", candles[0])
	}
}

func TestToCandlesFillsGapsWithFlatCandles(t *testing.T) {
	base := int64(1_700_000_000)
	interval := int64(Granularity5Min)
	points := [][2]float64{
		{float64(base * 1000), 10},
		{float64((base + 3*interval) * 1000), 15},
	}
	candles := ToCandles("SOL", points, Granularity5Min)
	if len(candles) != 4 {
		t.Fatalf("expected 4 candles (1 real + 2 gap-filled + 1 real), got %d", len(candles))
	}
	for _, c := range candles[1:3] {
		if c.Open != 10 || c.High != 10 || c.Low != 10 || c.Close != 10 {
			t.Fatalf("expected flat gap-fill candle at last close, got %+v", c)
		}
	}
	if candles[3].Close != 15 {
		t.Fatalf("expected final bucket close 15, got %+v", candles[3])
	}
}

func TestToCandlesEmptyInput(t *testing.T) {
	if got := ToCandles("SOL", nil, Granularity5Min); got != nil {
		t.Fatalf("expected nil for empty input, got %+v", got)
	}
}
