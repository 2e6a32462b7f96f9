package convert

import (
	"sort"
	"strings"

	"github.com/flexledger/flexledger/internal/model"
	"github.com/flexledger/flexledger/internal/normalize"
)

// maxPlausibleRate guards against rates that are really amounts leaking
// into the rate column.
const maxPlausibleRate = 1000

type rateEntry struct {
	Date string
	Rate float64
}

// RateIndex holds realized conversion rates keyed by "BASE/QUOTE", built
// once per batch from executed currency-conversion trades and read-only
// afterwards. Both each rate and its reciprocal are stored under swapped
// keys.
type RateIndex struct {
	byPair map[string][]rateEntry
}

// NewRateIndex scans classified rows for conversion details and records
// their rates. Non-positive or implausibly large rates are dropped.
func NewRateIndex(rows []model.ClassifiedRow) *RateIndex {
	idx := &RateIndex{byPair: make(map[string][]rateEntry)}
	for _, cr := range rows {
		if cr.Kind != model.KindFXDeposit && cr.Kind != model.KindFXWithdrawal {
			continue
		}
		pair := strings.ToUpper(cr.Row.Get(model.ColSymbol))
		parts := strings.SplitN(pair, ".", 2)
		if len(parts) != 2 {
			continue
		}
		rate, ok := normalize.Number(cr.Row.Get(model.ColTradePrice))
		if !ok || rate <= 0 || rate > maxPlausibleRate {
			continue
		}
		date := normalize.CanonicalDate(cr.Row.Get(model.ColTradeDate))
		if date == "" {
			date = normalize.CanonicalDate(cr.Row.Get(model.ColReportDate))
		}
		idx.add(parts[0], parts[1], date, rate)
		idx.add(parts[1], parts[0], date, 1/rate)
	}
	for _, entries := range idx.byPair {
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })
	}
	return idx
}

func (r *RateIndex) add(base, quote, date string, rate float64) {
	key := base + "/" + quote
	r.byPair[key] = append(r.byPair[key], rateEntry{Date: date, Rate: rate})
}

// Lookup returns the chronologically closest rate for base→quote at or
// before date. When no entry precedes the date, the first future entry is
// used as a last resort. The boolean result is false when the pair was
// never observed.
func (r *RateIndex) Lookup(base, quote, date string) (float64, bool) {
	if strings.EqualFold(base, quote) {
		return 1, true
	}
	entries := r.byPair[strings.ToUpper(base)+"/"+strings.ToUpper(quote)]
	if len(entries) == 0 {
		return 0, false
	}
	date = normalize.CanonicalDate(date)
	best := -1
	for i, e := range entries {
		if e.Date <= date {
			best = i
		} else {
			break
		}
	}
	if best == -1 {
		return entries[0].Rate, true
	}
	return entries[best].Rate, true
}
