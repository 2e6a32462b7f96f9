// Package convert reconstructs each classified row's true settlement
// currency and amount, producing one normalized activity per row.
//
// The source reports most cash flows as base-currency equivalents. Recovery
// runs through ordered fallbacks: direct base-currency read, per-unit rate
// times the historical position, FX-rate conversion, and finally the
// literal reported amount with a warning.
package convert

import (
	"fmt"
	"log"
	"math"
	"regexp"
	"strings"

	"github.com/flexledger/flexledger/internal/model"
	"github.com/flexledger/flexledger/internal/normalize"
)

// maxPerShare bounds the parsed dividend-per-share rate; values beyond it
// are treated as parse noise, not money.
const maxPerShare = 10000

var perSharePattern = regexp.MustCompile(`CASH DIVIDEND\s+([A-Z]{3})\s+([0-9]*\.?[0-9]+)\s+PER SHARE`)

// perShareLoosePattern tolerates descriptions that drop the "per Share" suffix.
var perShareLoosePattern = regexp.MustCompile(`CASH DIVIDEND\s+([A-Z]{3})\s+([0-9]*\.?[0-9]+)`)

var trailingNumberPattern = regexp.MustCompile(`([0-9][0-9,.]*)\s*$`)

// ParsePerShare extracts the dividend currency and per-share rate from a
// free-text description like "Cash Dividend USD 0.25 per Share".
func ParsePerShare(description string) (currency string, perShare float64, ok bool) {
	upper := strings.ToUpper(description)
	m := perSharePattern.FindStringSubmatch(upper)
	if m == nil {
		m = perShareLoosePattern.FindStringSubmatch(upper)
	}
	if m == nil {
		return "", 0, false
	}
	v, valid := normalize.Number(m[2])
	if !valid || v <= 0 || v > maxPerShare {
		return "", 0, false
	}
	return m[1], v, true
}

// Result is the outcome of converting one batch of classified rows.
type Result struct {
	Activities []model.Activity
	Warnings   []string
	Skipped    map[string]int
}

// Converter turns classified rows into normalized activities. Position and
// rate indexes are built once per batch and read-only afterwards.
type Converter struct {
	base       string
	exchanges  ExchangeTable
	currencies map[string]bool
	positions  *PositionIndex
	rates      *RateIndex
}

// NewConverter builds a converter for one batch. rows must be the complete
// classified batch so the position history and rate table cover every
// lookup the conversion will make. currencies lists the configured
// sub-ledger currencies; rows resolving to any other currency are dropped
// with a warning.
func NewConverter(base string, exchanges ExchangeTable, currencies []string, rows []model.ClassifiedRow) *Converter {
	set := make(map[string]bool, len(currencies))
	for _, c := range currencies {
		set[strings.ToUpper(c)] = true
	}
	return &Converter{
		base:       strings.ToUpper(base),
		exchanges:  exchanges,
		currencies: set,
		positions:  NewPositionIndex(rows),
		rates:      NewRateIndex(rows),
	}
}

// ConvertAll converts every classified row. Skip-classified rows are
// aggregated into counts; a row that panics during conversion is logged
// with its payload and excluded without aborting the batch.
func (c *Converter) ConvertAll(rows []model.ClassifiedRow) Result {
	res := Result{Skipped: make(map[string]int)}
	for _, cr := range rows {
		if cr.Kind.IsSkip() {
			res.Skipped[cr.Reason]++
			continue
		}
		c.convertOne(cr, &res)
	}
	return res
}

func (c *Converter) convertOne(cr model.ClassifiedRow, res *Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("row conversion failed: %v (row=%v)", r, cr.Row)
			res.Skipped["conversion error"]++
		}
	}()

	act, ok := c.convertRow(cr, res)
	if !ok {
		return
	}
	res.Activities = append(res.Activities, act)
}

func (c *Converter) convertRow(cr model.ClassifiedRow, res *Result) (model.Activity, bool) {
	row := cr.Row

	date := normalize.CanonicalDate(row.Get(model.ColTradeDate))
	if _, ok := normalize.ParseDate(date); !ok {
		date = normalize.CanonicalDate(row.Get(model.ColReportDate))
	}
	if _, ok := normalize.ParseDate(date); !ok {
		// Never default to "today": a wrong date silently corrupts
		// position lookups and fingerprints.
		res.Skipped["missing date"]++
		return model.Activity{}, false
	}

	symbol := strings.ToUpper(row.Get(model.ColSymbol))
	comment := row.Get(model.ColActivityDescription)
	if comment == "" {
		comment = row.Get(model.ColDescription)
	}
	literal := math.Abs(normalize.NumberOr(row.Get(model.ColAmount), 0))
	commission := math.Abs(normalize.NumberOr(row.Get(model.ColIBCommission), 0))

	act := model.Activity{
		Date:    date,
		Symbol:  symbol,
		Comment: comment,
		Fee:     commission,
	}

	switch cr.Kind {
	case model.KindStockBuy, model.KindStockSell:
		act.Type = model.ActivityBuy
		if cr.Kind == model.KindStockSell {
			act.Type = model.ActivitySell
		}
		act.Quantity = math.Abs(normalize.NumberOr(row.Get(model.ColQuantity), 0))
		act.UnitPrice = math.Abs(normalize.NumberOr(row.Get(model.ColTradePrice), 0))
		act.Amount = math.Abs(act.Quantity * act.UnitPrice)
		act.Fee = commission + math.Abs(normalize.NumberOr(row.Get(model.ColTaxes), 0))
		act.Currency = c.tradeCurrency(row)

	case model.KindFXDeposit, model.KindFXWithdrawal:
		// Currency-pair symbols are deferred to the FX splitter, which
		// resolves both legs or drops the conversion whole.
		act.Type = model.ActivityDeposit
		if cr.Kind == model.KindFXWithdrawal {
			act.Type = model.ActivityWithdrawal
		}
		act.Quantity = math.Abs(normalize.NumberOr(row.Get(model.ColQuantity), 0))
		act.UnitPrice = math.Abs(normalize.NumberOr(row.Get(model.ColTradePrice), 0))
		act.Amount = act.Quantity * act.UnitPrice
		act.Currency = c.base
		return act, true

	case model.KindDividendPayment:
		act.Type = model.ActivityDividend
		act.Currency, act.Amount = c.dividendAmount(row, symbol, date, literal, comment, res)

	case model.KindDividendTax:
		act.Type = model.ActivityDividendTax
		act.Currency, act.Amount = c.taxAmount(row, symbol, date, literal, comment, res)

	case model.KindFee:
		act.Type = model.ActivityFee
		act.Currency, act.Amount = c.feeAmount(row, date, literal, res)

	case model.KindDeposit:
		act.Type = model.ActivityDeposit
		act.Currency, act.Amount = c.base, literal
	case model.KindWithdrawal:
		act.Type = model.ActivityWithdrawal
		act.Currency, act.Amount = c.base, literal
	case model.KindTransferIn:
		act.Type = model.ActivityTransferIn
		act.Currency, act.Amount = c.base, literal
	case model.KindTransferOut:
		act.Type = model.ActivityTransferOut
		act.Currency, act.Amount = c.base, literal
	case model.KindInterest:
		act.Type = model.ActivityInterest
		act.Currency, act.Amount = c.base, literal

	default:
		res.Skipped["unhandled classification"]++
		return model.Activity{}, false
	}

	if !c.currencies[act.Currency] {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("no account configured for currency %s, dropping %s %s", act.Currency, act.Type, symbol))
		res.Skipped["missing account"]++
		return model.Activity{}, false
	}

	if !act.Type.IsTrade() {
		// Storage convention: cash flows repurpose quantity/unitPrice so
		// the host ledger can treat every row the same way.
		act.Quantity = act.Amount
		act.UnitPrice = 1
		if act.Symbol == "" || strings.HasPrefix(act.Symbol, "$CASH-") {
			act.Symbol = model.CashSymbol(act.Currency)
		}
		if act.Type == model.ActivityFee && symbol != "" && !strings.HasPrefix(symbol, "$CASH-") {
			act.Symbol = symbol
		}
	}
	return act, true
}

// tradeCurrency maps the listing exchange to its home currency, falling
// back to the report's base currency.
func (c *Converter) tradeCurrency(row model.RawRow) string {
	if ccy := c.exchanges.Currency(row.Get(model.ColListingExchange)); ccy != "" {
		return ccy
	}
	return c.base
}

// dividendAmount recovers a dividend's settlement currency and amount.
// Preference order: literal when already in base currency, position times
// per-share rate, FX conversion of the literal, then the literal unchanged
// with a warning.
func (c *Converter) dividendAmount(row model.RawRow, symbol, date string, literal float64, comment string, res *Result) (string, float64) {
	ccy, perShare, ok := ParsePerShare(comment)
	if !ok || ccy == c.base {
		return c.base, literal
	}

	if pos := c.positions.At(symbol, date); pos > 0 && perShare > 0 {
		return ccy, pos * perShare
	}
	if rate, found := c.rates.Lookup(c.base, ccy, date); found {
		return ccy, literal * rate
	}
	res.Warnings = append(res.Warnings,
		fmt.Sprintf("dividend %s on %s: no position or FX rate, using literal %s amount", symbol, date, c.base))
	return ccy, literal
}

// taxAmount recovers a withholding tax's currency and amount. The stored
// column holds a base-currency equivalent; the true amount is derived by
// reconstructing the gross dividend and applying the implied tax ratio,
// falling back progressively to FX conversion and the literal value.
func (c *Converter) taxAmount(row model.RawRow, symbol, date string, literal float64, comment string, res *Result) (string, float64) {
	ccy, perShare, ok := ParsePerShare(comment)
	if !ok || ccy == c.base {
		return c.base, literal
	}

	pos := c.positions.At(symbol, date)
	gross := pos * perShare
	if gross > 0 {
		if rate, found := c.rates.Lookup(ccy, c.base, date); found {
			if estBaseGross := gross * rate; estBaseGross > 0 {
				ratio := literal / estBaseGross
				return ccy, gross * ratio
			}
		}
	}
	if rate, found := c.rates.Lookup(c.base, ccy, date); found {
		return ccy, literal * rate
	}
	res.Warnings = append(res.Warnings,
		fmt.Sprintf("tax %s on %s: no position or FX rate, using literal %s amount", symbol, date, c.base))
	return ccy, literal
}

// feeAmount handles the three fee variants: transaction tax (true amount is
// the trailing number of the description), exchange-priced ADR fees
// (converted to the security's trading currency), and plain fees in the
// base currency.
func (c *Converter) feeAmount(row model.RawRow, date string, literal float64, res *Result) (string, float64) {
	code := strings.ToUpper(row.Get(model.ColActivityCode))
	exCcy := c.exchanges.Currency(row.Get(model.ColListingExchange))

	if code == model.CodeTransactionTax {
		ccy := c.base
		if exCcy != "" {
			ccy = exCcy
		}
		desc := row.Get(model.ColActivityDescription)
		if m := trailingNumberPattern.FindStringSubmatch(desc); m != nil {
			if v, ok := normalize.Number(m[1]); ok {
				return ccy, math.Abs(v)
			}
		}
		return ccy, literal
	}

	if code == model.CodeOtherFee && exCcy != "" && exCcy != c.base {
		if rate, found := c.rates.Lookup(c.base, exCcy, date); found {
			return exCcy, literal * rate
		}
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("fee on %s: no FX rate for %s/%s, using literal amount", date, c.base, exCcy))
		return exCcy, literal
	}

	// Synthetic commission rows carry no activity code and are already
	// denominated in the currency the commission was charged in.
	if ccy := strings.ToUpper(row.Get(model.ColCurrencyPrimary)); code == "" && ccy != "" {
		return ccy, literal
	}

	return c.base, literal
}
