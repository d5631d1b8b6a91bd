package market

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidCandle = errors.New("invalid candle")

// Candle represents one OHLC minute bar in integer ticks.
type Candle struct {
	Time  time.Time
	Open  Price
	High  Price
	Low   Price
	Close Price
}

// Validate checks Low <= {Open, Close} <= High.
func (c Candle) Validate() error {
	if c.High < c.Low {
		return fmt.Errorf("%w: high %d < low %d", ErrInvalidCandle, c.High, c.Low)
	}
	if c.Open < c.Low || c.Open > c.High {
		return fmt.Errorf("%w: open %d outside [%d,%d]", ErrInvalidCandle, c.Open, c.Low, c.High)
	}
	if c.Close < c.Low || c.Close > c.High {
		return fmt.Errorf("%w: close %d outside [%d,%d]", ErrInvalidCandle, c.Close, c.Low, c.High)
	}
	return nil
}

// Up reports whether the candle closed above its open.
func (c Candle) Up() bool { return c.Close > c.Open }

// Down reports whether the candle closed below its open.
func (c Candle) Down() bool { return c.Close < c.Open }

// Flat reports open == close.
func (c Candle) Flat() bool { return c.Close == c.Open }
