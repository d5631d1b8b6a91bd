// Package ingest reads broker and exchange CSV exports into candles and
// trade intents.
package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rustyeddy/exitsweep/market"
)

// Rounding decides what happens to the sub-tick fraction of a quote.
type Rounding int

const (
	// Truncate drops the fraction. Historical results were produced this
	// way, so it is the default.
	Truncate Rounding = iota
	// Round rounds half away from zero.
	Round
)

func ParseRounding(s string) (Rounding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "truncate", "trunc":
		return Truncate, nil
	case "round":
		return Round, nil
	default:
		return 0, fmt.Errorf("unknown rounding %q (supported: truncate, round)", s)
	}
}

// NumberStyle tells ParsePrice which separators a file uses.
type NumberStyle int

const (
	// DecimalComma is the pt-BR style "133.615,00".
	DecimalComma NumberStyle = iota
	// DecimalPoint is the exchange style "133615.50".
	DecimalPoint
)

// ParsePrice converts a formatted quote into integer ticks.
func ParsePrice(s string, style NumberStyle, r Rounding) (market.Price, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty price")
	}

	thousands, decimal := ".", ","
	if style == DecimalPoint {
		thousands, decimal = ",", "."
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	intPart, frac, _ := strings.Cut(s, decimal)
	intPart = strings.ReplaceAll(intPart, thousands, "")
	if intPart == "" {
		intPart = "0"
	}

	v, err := strconv.ParseInt(intPart, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bad price %q: %w", s, err)
	}
	for _, ch := range frac {
		if ch < '0' || ch > '9' {
			return 0, fmt.Errorf("bad price %q: fraction %q", s, frac)
		}
	}

	if r == Round && frac != "" && frac[0] >= '5' {
		v++
	}
	if neg {
		v = -v
	}
	return market.Price(v), nil
}
