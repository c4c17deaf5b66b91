package candle

import (
	"fmt"
	"time"

	"solswing/internal/models"
	"solswing/internal/tradeerr"
)

// Validate rejects a candle that violates any invariant: non-positive O/H/L/C,
// negative volume, high < low, high < max(open, close), low > min(open,
// close), or a timestamp in the future. Each rejection carries a
// human-readable reason and wraps tradeerr.ErrValidation.
func Validate(c models.Candle, now time.Time) error {
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return fmt.Errorf("%w: candle %s@%s: non-positive price (O=%v H=%v L=%v C=%v)",
			tradeerr.ErrValidation, c.Token, c.Timestamp, c.Open, c.High, c.Low, c.Close)
	}
	if c.Volume < 0 {
		return fmt.Errorf("%w: candle %s@%s: negative volume %v", tradeerr.ErrValidation, c.Token, c.Timestamp, c.Volume)
	}
	if c.High < c.Low {
		return fmt.Errorf("%w: candle %s@%s: high %v < low %v", tradeerr.ErrValidation, c.Token, c.Timestamp, c.High, c.Low)
	}
	if c.High < c.Open || c.High < c.Close {
		return fmt.Errorf("%w: candle %s@%s: high %v below open/close (O=%v C=%v)",
			tradeerr.ErrValidation, c.Token, c.Timestamp, c.High, c.Open, c.Close)
	}
	if c.Low > c.Open || c.Low > c.Close {
		return fmt.Errorf("%w: candle %s@%s: low %v above open/close (O=%v C=%v)",
			tradeerr.ErrValidation, c.Token, c.Timestamp, c.Low, c.Open, c.Close)
	}
	if c.Timestamp.After(now) {
		return fmt.Errorf("%w: candle %s@%s: timestamp in the future", tradeerr.ErrValidation, c.Token, c.Timestamp)
	}
	return nil
}
