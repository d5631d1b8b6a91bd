package ingest

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/exitsweep/market"
)

// Columns of the Profit operations report.
const (
	colSymbol = iota
	colOpened
	colClosed
	colDuration
	colBuyQty
	colSellQty
	colSide
	colBuyPrice
	colSellPrice
	tradeColumns
)

type TradeResult struct {
	Trades   []market.TradeIntent
	BadLines int
}

// ReadTrades reads a Profit operations report. The account preamble and the
// header row before the first trade are skipped silently; unparsable lines
// after that are counted. Longs enter at the buy price and shorts at the
// sell price, falling back to the buy price when it is blank.
func ReadTrades(r io.Reader, opts Options) (TradeResult, error) {
	var res TradeResult
	cr := newReader(r, ';')

	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return res, fmt.Errorf("line %d: %w", line, err)
		}

		t, err := parseTrade(rec, opts)
		if err != nil {
			if len(res.Trades) > 0 && !blank(rec) {
				res.BadLines++
			}
			continue
		}
		res.Trades = append(res.Trades, t)
	}
}

func parseTrade(rec []string, opts Options) (market.TradeIntent, error) {
	if len(rec) < tradeColumns {
		return market.TradeIntent{}, fmt.Errorf("need %d columns, got %d", tradeColumns, len(rec))
	}

	opened, err := time.ParseInLocation(profitLayout, strings.TrimSpace(rec[colOpened]), opts.loc())
	if err != nil {
		return market.TradeIntent{}, err
	}

	side, err := market.ParseSide(rec[colSide])
	if err != nil {
		return market.TradeIntent{}, err
	}

	qty, err := quantity(rec[colBuyQty])
	if err != nil || qty == 0 {
		qty, err = quantity(rec[colSellQty])
		if err != nil {
			return market.TradeIntent{}, err
		}
	}

	priceCol := rec[colBuyPrice]
	if side == market.Short && strings.TrimSpace(rec[colSellPrice]) != "" {
		priceCol = rec[colSellPrice]
	}
	entry, err := ParsePrice(priceCol, DecimalComma, opts.Rounding)
	if err != nil {
		return market.TradeIntent{}, err
	}

	return market.TradeIntent{
		Symbol:     strings.TrimSpace(rec[colSymbol]),
		Time:       opened,
		Side:       side,
		EntryPrice: entry,
		Quantity:   qty,
	}, nil
}

func quantity(s string) (int, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ".", "")
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
