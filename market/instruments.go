// market/instruments.go
package market

import (
	"strings"

	"github.com/shopspring/decimal"
)

// InstrumentMeta carries the contract constants a simulation needs.
type InstrumentMeta struct {
	Name       string
	Currency   string
	TickSize   Price
	PointValue decimal.Decimal // currency per point per contract
}

var Instruments = map[string]InstrumentMeta{
	"WIN": {
		Name:       "WIN",
		Currency:   "BRL",
		TickSize:   5,
		PointValue: decimal.RequireFromString("0.20"),
	},
	"IND": {
		Name:       "IND",
		Currency:   "BRL",
		TickSize:   5,
		PointValue: decimal.RequireFromString("1.00"),
	},
	"WDO": {
		Name:       "WDO",
		Currency:   "BRL",
		TickSize:   1,
		PointValue: decimal.RequireFromString("10.00"),
	},
	"DOL": {
		Name:       "DOL",
		Currency:   "BRL",
		TickSize:   1,
		PointValue: decimal.RequireFromString("50.00"),
	},
}

// LookupInstrument resolves a contract code such as "WINJ25" to its root
// ("WIN") by trying the longest known prefix.
func LookupInstrument(symbol string) (InstrumentMeta, bool) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if m, ok := Instruments[s]; ok {
		return m, true
	}
	best := ""
	for name := range Instruments {
		if strings.HasPrefix(s, name) && len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return InstrumentMeta{}, false
	}
	return Instruments[best], true
}
