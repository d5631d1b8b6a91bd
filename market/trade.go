package market

import (
	"fmt"
	"strings"
	"time"
)

type Side int8

const (
	Long  Side = +1
	Short Side = -1
)

// Sign returns +1 for long and -1 for short.
func (s Side) Sign() int64 { return int64(s) }

func (s Side) String() string {
	switch s {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return fmt.Sprintf("side(%d)", int8(s))
	}
}

// ParseSide accepts the broker report letters (C/V) as well as buy/sell and
// long/short spellings.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c", "buy", "b", "long", "l":
		return Long, nil
	case "v", "sell", "s", "short":
		return Short, nil
	default:
		return 0, fmt.Errorf("unknown side %q", s)
	}
}

// TradeIntent is a single historical entry to be replayed. It is treated
// as a value: corrections produce a copy.
type TradeIntent struct {
	Symbol     string
	Time       time.Time
	Side       Side
	EntryPrice Price
	Quantity   int
}

// WithEntry returns a copy of the trade with a different entry price.
func (t TradeIntent) WithEntry(p Price) TradeIntent {
	t.EntryPrice = p
	return t
}
