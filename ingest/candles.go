package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/exitsweep/market"
)

const (
	profitLayout = "02/01/2006 15:04:05"
	mt5Layout    = "2006.01.02 15:04"
)

// CandleResult carries the parsed candles and how many lines were dropped.
type CandleResult struct {
	Candles  []market.Candle
	BadLines int
}

// Options control number parsing for every reader in the package.
type Options struct {
	Location *time.Location
	Rounding Rounding
}

func (o Options) loc() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

func newReader(r io.Reader, comma rune) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	return cr
}

// ReadProfitCandles reads the Profit history export:
//
//	WINJ25;10/03/2025;09:00:00;133.615,00;133.700,00;133.500,00;133.650,00;...
//
// A leading header line is skipped. Any other unparsable line is counted.
func ReadProfitCandles(r io.Reader, opts Options) (CandleResult, error) {
	var res CandleResult
	cr := newReader(r, ';')

	for line := 0; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return res, fmt.Errorf("line %d: %w", line+1, err)
		}
		if len(rec) < 7 {
			if !blank(rec) {
				res.BadLines++
			}
			continue
		}

		ts, err := time.ParseInLocation(profitLayout, strings.TrimSpace(rec[1])+" "+strings.TrimSpace(rec[2]), opts.loc())
		if err != nil {
			if line > 0 {
				res.BadLines++
			}
			continue
		}

		c, err := ohlcFrom(rec[3:7], DecimalComma, opts.Rounding)
		if err != nil {
			res.BadLines++
			continue
		}
		c.Time = ts
		res.Candles = append(res.Candles, c)
	}
}

// ReadBarCandles reads comma separated exchange bars, time,open,high,low,close
// with optional extra columns. The time column is either Unix seconds or the
// MetaTrader "2006.01.02 15:04" form.
func ReadBarCandles(r io.Reader, opts Options) (CandleResult, error) {
	var res CandleResult
	cr := newReader(r, ',')

	for line := 0; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return res, fmt.Errorf("line %d: %w", line+1, err)
		}
		if len(rec) < 5 {
			if !blank(rec) {
				res.BadLines++
			}
			continue
		}

		ts, err := parseBarTime(rec[0], opts.loc())
		if err != nil {
			if line > 0 {
				res.BadLines++
			}
			continue
		}

		c, err := ohlcFrom(rec[1:5], DecimalPoint, opts.Rounding)
		if err != nil {
			res.BadLines++
			continue
		}
		c.Time = ts
		res.Candles = append(res.Candles, c)
	}
}

func parseBarTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).In(loc), nil
	}
	return time.ParseInLocation(mt5Layout, s, loc)
}

func ohlcFrom(cols []string, style NumberStyle, r Rounding) (market.Candle, error) {
	var px [4]market.Price
	for i, s := range cols {
		p, err := ParsePrice(s, style, r)
		if err != nil {
			return market.Candle{}, err
		}
		px[i] = p
	}
	return market.Candle{Open: px[0], High: px[1], Low: px[2], Close: px[3]}, nil
}

func blank(rec []string) bool {
	for _, s := range rec {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}
