// Package fxsplit rewrites activities that represent a currency conversion
// into linked withdrawal/deposit pairs against two currency sub-ledgers.
package fxsplit

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/flexledger/flexledger/internal/model"
)

// pairPattern is the strict conversion-symbol shape: three letters, a dot,
// three letters. A plain dotted instrument symbol (share class or listing
// suffix) must not match unless its comment names a conversion.
var pairPattern = regexp.MustCompile(`^[A-Z]{3}\.[A-Z]{3}$`)

var conversionKeywords = []string{"CURRENCY CONVERSION", "FX CONVERSION", "FOREX"}

// SkipReason explains why a detected conversion could not be split.
type SkipReason struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"` // source-account-missing, target-account-missing, unparseable-pair
}

// Split rewrites each conversion activity into a withdrawal in the source
// currency and a deposit in the target currency, both linked by a shared
// comment. Non-matching activities pass through unchanged in their input
// order; conversions expand to two consecutive records in place.
//
// A conversion whose source or target currency has no configured sub-ledger
// is dropped whole: emitting one side would corrupt the double entry.
func Split(activities []model.Activity, currencies []string) ([]model.Activity, []SkipReason) {
	configured := make(map[string]bool, len(currencies))
	for _, c := range currencies {
		configured[strings.ToUpper(c)] = true
	}

	var out []model.Activity
	var skipped []SkipReason
	for _, a := range activities {
		if !isConversion(a) {
			out = append(out, a)
			continue
		}

		source, target, ok := splitPair(a.Symbol)
		if !ok {
			skipped = append(skipped, SkipReason{Symbol: a.Symbol, Reason: "unparseable-pair"})
			continue
		}
		if !configured[source] {
			skipped = append(skipped, SkipReason{Symbol: a.Symbol, Reason: "source-account-missing"})
			continue
		}
		if !configured[target] {
			skipped = append(skipped, SkipReason{Symbol: a.Symbol, Reason: "target-account-missing"})
			continue
		}

		sourceAmount := abs(a.Quantity)
		targetAmount := abs(a.Amount)
		if a.UnitPrice > 0 {
			targetAmount = sourceAmount * a.UnitPrice
		}

		link := fmt.Sprintf("Currency conversion %s>%s on %s", source, target, a.Date)
		if a.Comment != "" {
			link = a.Comment
		}

		out = append(out,
			model.Activity{
				Date:      a.Date,
				Symbol:    model.CashSymbol(source),
				Type:      model.ActivityWithdrawal,
				Quantity:  sourceAmount,
				UnitPrice: 1,
				Amount:    sourceAmount,
				Fee:       0,
				Currency:  source,
				Comment:   link,
			},
			model.Activity{
				Date:      a.Date,
				Symbol:    model.CashSymbol(target),
				Type:      model.ActivityDeposit,
				Quantity:  targetAmount,
				UnitPrice: 1,
				Amount:    targetAmount,
				Fee:       0,
				Currency:  target,
				Comment:   link,
			},
		)
	}
	return out, skipped
}

func isConversion(a model.Activity) bool {
	symbol := strings.ToUpper(strings.TrimSpace(a.Symbol))
	if pairPattern.MatchString(symbol) {
		return true
	}
	if !strings.Contains(symbol, ".") {
		return false
	}
	comment := strings.ToUpper(a.Comment)
	for _, kw := range conversionKeywords {
		if strings.Contains(comment, kw) {
			return true
		}
	}
	return false
}

func splitPair(symbol string) (source, target string, ok bool) {
	parts := strings.SplitN(strings.ToUpper(strings.TrimSpace(symbol)), ".", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	source, target = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if len(source) != 3 || len(target) != 3 {
		return "", "", false
	}
	return source, target, true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
