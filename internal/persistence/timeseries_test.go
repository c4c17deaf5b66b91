package persistence

import (
	"testing"
	"time"

	"solswing/internal/models"
)

// These cover the pure encode/decode helpers only. SaveCandles/LoadCandles
// require a live Redis instance and are exercised by integration tests run
// outside this module.
func TestCandleEncodeDecodeRoundTrip(t *testing.T) {
	c := models.Candle{
		Token:     "SOL",
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Open:      100.5,
		High:      101.25,
		Low:       99.75,
		Close:     100.9,
		Volume:    12345.6,
	}
	member := encodeCandle(c)
	got, err := decodeCandle(c.Token, member)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Open != c.Open || got.High != c.High || got.Low != c.Low || got.Close != c.Close || got.Volume != c.Volume {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, c)
	}
	if !got.Timestamp.Equal(c.Timestamp) {
		t.Fatalf("timestamp mismatch: got %v, want %v", got.Timestamp, c.Timestamp)
	}
}

func TestDecodeCandleRejectsMalformedMember(t *testing.T) {
	if _, err := decodeCandle("SOL", "not-enough-fields"); err == nil {
		t.Fatal("expected error for malformed member")
	}
}

func TestDecodeAllSortsChronologically(t *testing.T) {
	later := encodeCandle(models.Candle{Timestamp: time.Unix(200, 0), Open: 1, High: 1, Low: 1, Close: 1})
	earlier := encodeCandle(models.Candle{Timestamp: time.Unix(100, 0), Open: 1, High: 1, Low: 1, Close: 1})

	out, err := decodeAll("SOL", []string{later, earlier})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 || !out[0].Timestamp.Before(out[1].Timestamp) {
		t.Fatalf("expected chronological order, got %+v", out)
	}
}
