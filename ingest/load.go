package ingest

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/exitsweep/market"
	"go.uber.org/zap"
)

// Format names a candle file layout.
type Format string

const (
	FormatProfit Format = "profit"
	FormatBars   Format = "bars"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatProfit:
		return FormatProfit, nil
	case FormatBars, "unix", "mt5":
		return FormatBars, nil
	default:
		return "", fmt.Errorf("unknown candle format %q (supported: profit, bars)", s)
	}
}

// LoadCandles opens path, decodes it from charset and parses it with the
// reader for format.
func LoadCandles(path string, format Format, charset string, opts Options, log *zap.Logger) ([]market.Candle, error) {
	if log == nil {
		log = zap.NewNop()
	}

	f, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candles: %w", err)
	}
	defer f.Close()

	r, err := Decode(f, charset)
	if err != nil {
		return nil, err
	}

	var res CandleResult
	switch format {
	case FormatBars:
		res, err = ReadBarCandles(r, opts)
	default:
		res, err = ReadProfitCandles(r, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("read candles %s: %w", path, err)
	}

	log.Info("candles loaded",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Int("candles", len(res.Candles)),
		zap.Int("bad_lines", res.BadLines),
	)
	if len(res.Candles) == 0 {
		return nil, fmt.Errorf("no candles found in %s", path)
	}
	return res.Candles, nil
}

// LoadTrades opens and parses a Profit operations report.
func LoadTrades(path, charset string, opts Options, log *zap.Logger) ([]market.TradeIntent, error) {
	if log == nil {
		log = zap.NewNop()
	}

	f, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trades: %w", err)
	}
	defer f.Close()

	r, err := Decode(f, charset)
	if err != nil {
		return nil, err
	}

	res, err := ReadTrades(r, opts)
	if err != nil {
		return nil, fmt.Errorf("read trades %s: %w", path, err)
	}

	log.Info("trades loaded",
		zap.String("path", path),
		zap.Int("trades", len(res.Trades)),
		zap.Int("bad_lines", res.BadLines),
	)
	return res.Trades, nil
}
