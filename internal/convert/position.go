package convert

import (
	"sort"
	"strings"

	"github.com/flexledger/flexledger/internal/model"
	"github.com/flexledger/flexledger/internal/normalize"
)

// positionSnapshot records the cumulative signed quantity held after a
// trade settled on Date (canonical YYYY-MM-DD).
type positionSnapshot struct {
	Date     string
	Quantity float64
}

// PositionIndex answers "how many shares of symbol were held on date",
// derived once per batch from the buy/sell rows in date order and read-only
// afterwards.
type PositionIndex struct {
	bySymbol map[string][]positionSnapshot
}

// NewPositionIndex scans classified rows for equity trades and builds the
// per-symbol running totals. Buys add, sells subtract.
func NewPositionIndex(rows []model.ClassifiedRow) *PositionIndex {
	type trade struct {
		symbol string
		date   string
		qty    float64
	}
	var trades []trade
	for _, cr := range rows {
		if cr.Kind != model.KindStockBuy && cr.Kind != model.KindStockSell {
			continue
		}
		symbol := strings.ToUpper(cr.Row.Get(model.ColSymbol))
		date := normalize.CanonicalDate(cr.Row.Get(model.ColTradeDate))
		if symbol == "" || date == "" {
			continue
		}
		qty, ok := normalize.Number(cr.Row.Get(model.ColQuantity))
		if !ok {
			continue
		}
		if qty < 0 {
			qty = -qty
		}
		if cr.Kind == model.KindStockSell {
			qty = -qty
		}
		trades = append(trades, trade{symbol: symbol, date: date, qty: qty})
	}

	sort.SliceStable(trades, func(i, j int) bool { return trades[i].date < trades[j].date })

	idx := &PositionIndex{bySymbol: make(map[string][]positionSnapshot)}
	running := make(map[string]float64)
	for _, tr := range trades {
		running[tr.symbol] += tr.qty
		idx.bySymbol[tr.symbol] = append(idx.bySymbol[tr.symbol], positionSnapshot{
			Date:     tr.date,
			Quantity: running[tr.symbol],
		})
	}
	return idx
}

// At returns the most recent cumulative position for symbol at or before
// date, or 0 when no trade precedes it.
func (p *PositionIndex) At(symbol, date string) float64 {
	snaps := p.bySymbol[strings.ToUpper(symbol)]
	date = normalize.CanonicalDate(date)
	pos := 0.0
	for _, s := range snaps {
		if s.Date > date {
			break
		}
		pos = s.Quantity
	}
	return pos
}
