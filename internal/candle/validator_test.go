package candle

import (
	"errors"
	"testing"
	"time"

	"solswing/internal/models"
	"solswing/internal/tradeerr"
)

func validCandle() models.Candle {
	return models.Candle{
		Token:     "SOL",
		Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Open:      10,
		High:      12,
		Low:       9,
		Close:     11,
		Volume:    100,
	}
}

func TestValidateAcceptsWellFormedCandle(t *testing.T) {
	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if err := Validate(validCandle(), now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsNonPositivePrice(t *testing.T) {
	c := validCandle()
	c.Close = 0
	assertValidationError(t, c)
}

func TestValidateRejectsNegativeVolume(t *testing.T) {
	c := validCandle()
	c.Volume = -1
	assertValidationError(t, c)
}

func TestValidateRejectsHighBelowLow(t *testing.T) {
	c := validCandle()
	c.High = 5
	c.Low = 9
	assertValidationError(t, c)
}

func TestValidateRejectsHighBelowOpenOrClose(t *testing.T) {
	c := validCandle()
	c.High = 10.5
	c.Close = 11
	assertValidationError(t, c)
}

func TestValidateRejectsLowAboveOpenOrClose(t *testing.T) {
	c := validCandle()
	c.Low = 10.5
	c.Open = 10
	assertValidationError(t, c)
}

func TestValidateRejectsFutureTimestamp(t *testing.T) {
	c := validCandle()
	now := c.Timestamp.Add(-time.Hour)
	if err := Validate(c, now); !errors.Is(err, tradeerr.ErrValidation) {
		t.Fatalf("expected validation error for future timestamp, got %v", err)
	}
}

func assertValidationError(t *testing.T, c models.Candle) {
	t.Helper()
	now := c.Timestamp.Add(time.Hour)
	if err := Validate(c, now); !errors.Is(err, tradeerr.ErrValidation) {
		t.Fatalf("expected tradeerr.ErrValidation, got %v", err)
	}
}
