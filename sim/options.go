package sim

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TieBreak decides which level wins when a candle touches both the stop and
// the next pending target.
type TieBreak int

const (
	// CandleDirection lets the stop win on a candle moving against the
	// position or on a flat candle, and the target win otherwise.
	CandleDirection TieBreak = iota
	StopFirst
	TargetFirst
)

func (tb TieBreak) String() string {
	switch tb {
	case CandleDirection:
		return "candle-direction"
	case StopFirst:
		return "stop-first"
	case TargetFirst:
		return "target-first"
	default:
		return fmt.Sprintf("tiebreak(%d)", int(tb))
	}
}

func ParseTieBreak(s string) (TieBreak, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "candle-direction", "candle", "direction":
		return CandleDirection, nil
	case "stop-first", "stop":
		return StopFirst, nil
	case "target-first", "target":
		return TargetFirst, nil
	default:
		return 0, fmt.Errorf("unknown tie-break %q (supported: candle-direction, stop-first, target-first)", s)
	}
}

// Window bounds how far forward a trade may run.
type Window int

const (
	// SameDay stops at the last candle of the trade's calendar day.
	SameDay Window = iota
	// Unrestricted runs until the end of the loaded history.
	Unrestricted
)

func (w Window) String() string {
	switch w {
	case SameDay:
		return "same-day"
	case Unrestricted:
		return "unrestricted"
	default:
		return fmt.Sprintf("window(%d)", int(w))
	}
}

func ParseWindow(s string) (Window, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "same-day", "sameday", "day":
		return SameDay, nil
	case "unrestricted", "forward", "all":
		return Unrestricted, nil
	default:
		return 0, fmt.Errorf("unknown window %q (supported: same-day, unrestricted)", s)
	}
}

const DefaultEntryTolerance int32 = 50

type Options struct {
	// PointValue is the currency amount per point per contract. Zero means 1.
	PointValue decimal.Decimal
	TieBreak   TieBreak
	Window     Window
	// EntryTolerance is the largest distance, in points, an entry may sit
	// outside the first candle's range and still be clamped onto it.
	EntryTolerance int32
	Logger         *zap.Logger
}

func DefaultOptions() Options {
	return Options{
		PointValue:     decimal.NewFromInt(1),
		TieBreak:       CandleDirection,
		Window:         SameDay,
		EntryTolerance: DefaultEntryTolerance,
		Logger:         zap.NewNop(),
	}
}
