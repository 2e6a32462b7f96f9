// Package dedup removes activities whose content fingerprint already exists
// in a previously-stored ledger or earlier in the same batch.
//
// Fingerprints use a type-dependent field subset because stores zero out
// quantity and unit price for non-trade types, and they absorb
// floating-point noise (6 decimal places) and timezone skew (date-only
// comparison) so a re-imported activity matches its persisted twin.
package dedup

import (
	"fmt"
	"math"
	"strings"

	"github.com/flexledger/flexledger/internal/convert"
	"github.com/flexledger/flexledger/internal/model"
	"github.com/flexledger/flexledger/internal/normalize"
)

// Fingerprint derives the deterministic identity string for an activity.
// Two activities representing the same logical transaction fingerprint
// identically even when one came from storage with different formatting.
func Fingerprint(a model.Activity) string {
	date := normalize.DateOnly(a.Date)
	symbol := canon(a.Symbol)
	typ := canon(string(a.Type))
	ccy := canon(a.Currency)
	fee := round6(a.Fee)

	switch a.Type {
	case model.ActivityBuy, model.ActivitySell:
		return join(date, symbol, typ, round6(a.Quantity), round6(a.UnitPrice), fee, ccy)
	case model.ActivityDividend:
		// The per-share rate survives storage better than the computed
		// amount, which differs between reconstruction strategies.
		rate := round6(a.Amount)
		if _, perShare, ok := convert.ParsePerShare(a.Comment); ok {
			rate = round6(perShare)
		}
		return join(date, symbol, typ, rate, fee, ccy)
	case model.ActivityFee:
		// Comment distinguishes same-day same-amount fees from different
		// source trades, e.g. multiple FX commissions.
		return join(date, symbol, typ, round6(a.Amount), canon(a.Comment), fee, ccy)
	default:
		return join(date, symbol, typ, round6(a.Amount), fee, ccy)
	}
}

// Filter partitions batch into activities not yet known and duplicates. A
// record is a duplicate when its fingerprint matches a persisted record or
// an earlier record already accepted from the same batch; first occurrence
// wins.
func Filter(batch, existing []model.Activity) (unique, duplicates []model.Activity) {
	seen := make(map[string]bool, len(existing)+len(batch))
	for _, a := range existing {
		seen[Fingerprint(a)] = true
	}
	for _, a := range batch {
		fp := Fingerprint(a)
		if seen[fp] {
			duplicates = append(duplicates, a)
			continue
		}
		seen[fp] = true
		unique = append(unique, a)
	}
	return unique, duplicates
}

func canon(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func round6(v float64) string {
	return fmt.Sprintf("%.6f", math.Round(v*1e6)/1e6)
}

func join(fields ...string) string {
	return strings.Join(fields, "|")
}
