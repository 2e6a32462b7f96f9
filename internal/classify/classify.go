// Package classify assigns each merged report row one of the canonical
// activity classifications, relocating fields for rows whose source section
// stores data under different columns.
//
// Rules are evaluated in a fixed priority order, first match wins: several
// field patterns overlap across categories (a dividend row carries an
// activity code that also appears in fee sections, conversion rows look
// like trades), so ordering is part of the contract.
package classify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/flexledger/flexledger/internal/model"
	"github.com/flexledger/flexledger/internal/normalize"
)

// countryTaxPattern matches withholding descriptions like "- US TAX".
// Exactly two uppercase letters: non-standard jurisdiction codes fall
// through to the remaining rules instead of matching here.
var countryTaxPattern = regexp.MustCompile(`- [A-Z]{2} TAX`)

// Classifier classifies merged rows against the report's base currency.
type Classifier struct {
	baseCurrency string
}

// New creates a Classifier for a report denominated in baseCurrency.
func New(baseCurrency string) *Classifier {
	return &Classifier{baseCurrency: strings.ToUpper(baseCurrency)}
}

// ClassifyAll classifies every row. FX conversion detail rows may expand
// into multiple output rows, so the result can be longer than the input.
func (c *Classifier) ClassifyAll(rows []model.RawRow) []model.ClassifiedRow {
	var out []model.ClassifiedRow
	for _, row := range rows {
		out = append(out, c.Classify(row)...)
	}
	return out
}

// Classify classifies one merged row. Most rows map to exactly one
// classified row; FX conversion details expand into a commission fee row
// plus the conversion row, linked by a shared comment token.
func (c *Classifier) Classify(row model.RawRow) []model.ClassifiedRow {
	row = row.Clone()

	code := strings.ToUpper(row.Get(model.ColActivityCode))
	level := strings.ToUpper(row.Get(model.ColLevelOfDetail))
	txType := row.Get(model.ColTransactionType)
	desc := upperDesc(row)

	// 1. Internal cash transfers carry an explicit direction marker.
	if t := row.Get(model.ColType); (t == "TransferIn" || t == "TransferOut") &&
		strings.EqualFold(row.Get(model.ColAssetClass), "CASH") {
		amt, ok := normalize.Number(row.Get(model.ColAmount))
		if !ok || amt == 0 {
			return skip(row, model.KindSkipZeroAmount, "zero-amount cash transfer")
		}
		kind := model.KindTransferIn
		if t == "TransferOut" {
			kind = model.KindTransferOut
		}
		c.relocateCash(row)
		return one(row, kind)
	}

	// 2. Balance/position summaries and fully empty rows.
	if level == model.LevelSummary || level == model.LevelPosition {
		return skip(row, model.KindSkipSummary, "summary row")
	}
	if rowEmpty(row) {
		return skip(row, model.KindSkipSummary, "empty row")
	}

	// 3. Base-currency-equivalent duplicates. Dividends and the two tax
	// codes exist only at this reporting level and must pass through; an
	// "other fees" credit at this level is a refund already counted in the
	// detail section.
	if level == model.LevelBaseSummary {
		switch code {
		case model.CodeDividend, model.CodeTransactionTax, model.CodeSalesTax:
			// falls through to the dividend/fee rules below
		case model.CodeOtherFee:
			if amt, ok := normalize.Number(row.Get(model.ColAmount)); ok && amt > 0 {
				return skip(row, model.KindSkipBaseCurrency, "base-currency fee credit")
			}
		default:
			return skip(row, model.KindSkipBaseCurrency, "base-currency duplicate")
		}
	}

	// 4. Currency conversions: the summary row duplicates the detail row.
	if txType == model.TxTypeFXTrade {
		if level != model.LevelDetail {
			return skip(row, model.KindSkipConversionSummary, "conversion summary row")
		}
		return c.classifyConversion(row)
	}

	// 5. Equity trades.
	if txType == model.TxTypeExchTrade {
		switch strings.ToUpper(row.Get(model.ColBuySell)) {
		case "BUY":
			absTradeFields(row)
			return one(row, model.KindStockBuy)
		case "SELL":
			absTradeFields(row)
			return one(row, model.KindStockSell)
		}
	}

	// 6. Dividend family.
	if strings.Contains(desc, "CASH DIVIDEND") || code == model.CodeDividend || code == model.CodeWithholdingTax {
		c.relocateDividend(row)
		switch {
		case strings.Contains(desc, "- FEE"):
			return one(row, model.KindFee)
		case code == model.CodeWithholdingTax || countryTaxPattern.MatchString(desc):
			return one(row, model.KindDividendTax)
		default:
			return one(row, model.KindDividendPayment)
		}
	}

	// 7. Fee family.
	if code == model.CodeOtherFee || code == model.CodeSalesTax ||
		strings.Contains(desc, "FEE") || strings.Contains(desc, "CHARGE") || strings.Contains(desc, "VAT") {
		return one(row, model.KindFee)
	}

	// 8. Deposits and withdrawals. Only the detail level is authoritative;
	// the same codes reappear in a secondary section and are stale there.
	if (code == model.CodeDeposit || code == model.CodeWithdrawal) && level == model.LevelDetail {
		amt, ok := normalize.Number(row.Get(model.ColAmount))
		if !ok || amt == 0 {
			return skip(row, model.KindSkipZeroAmount, "zero-amount cash movement")
		}
		c.relocateCash(row)
		if amt > 0 {
			return one(row, model.KindDeposit)
		}
		return one(row, model.KindWithdrawal)
	}

	// 9. Interest: credit is income, debit is margin interest charged to
	// the account and books as a fee.
	if code == model.CodeCreditInterest || code == model.CodeDebitInterest || strings.Contains(desc, "INTEREST") {
		amt, _ := normalize.Number(row.Get(model.ColAmount))
		c.relocateCash(row)
		if code == model.CodeDebitInterest || amt < 0 {
			return one(row, model.KindFee)
		}
		return one(row, model.KindInterest)
	}

	// 10. Transaction tax (stamp duty etc.), distinct from withholding.
	if code == model.CodeTransactionTax {
		return one(row, model.KindFee)
	}

	// 11. Stale duplicate activity codes from the secondary section.
	if (code == model.CodeBuy || code == model.CodeSell ||
		code == model.CodeDeposit || code == model.CodeWithdrawal) && txType != model.TxTypeExchTrade {
		return skip(row, model.KindSkipStale, "stale secondary-section code")
	}

	// 12. FX translation adjustments are non-cash accounting entries.
	if code == model.CodeFXTranslation {
		return skip(row, model.KindSkipFXTranslation, "fx translation adjustment")
	}

	return skip(row, model.KindSkipUnknown, "unrecognized row")
}

// classifyConversion validates an FX detail row and expands it into a
// commission fee row (when a commission exists, charged in its own
// currency) plus the conversion row. All emitted rows share a linking token
// in their descriptions for later matching.
func (c *Classifier) classifyConversion(row model.RawRow) []model.ClassifiedRow {
	money, okMoney := normalize.Number(row.Get(model.ColTradeMoney))
	rate, okRate := normalize.Number(row.Get(model.ColTradePrice))
	if !okMoney || money == 0 || !okRate || rate == 0 {
		return skip(row, model.KindSkipUnparseable, "conversion without amount or rate")
	}

	pair := strings.ToUpper(strings.TrimSpace(row.Get(model.ColSymbol)))
	parts := strings.SplitN(pair, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return skip(row, model.KindSkipUnparseable, "conversion with unparseable pair")
	}

	qty, _ := normalize.Number(row.Get(model.ColQuantity))
	qty = abs(qty)
	if qty == 0 {
		qty = abs(money) / abs(rate)
	}

	link := "FX " + pair
	if id := row.Get(model.ColTradeID); id != "" {
		link += " #" + id
	}

	var out []model.ClassifiedRow

	if comm, ok := normalize.Number(row.Get(model.ColIBCommission)); ok && comm != 0 {
		feeRow := row.Clone()
		commCcy := strings.ToUpper(row.Get(model.ColIBCommissionCurrency))
		if commCcy == "" {
			commCcy = c.baseCurrency
		}
		feeRow[model.ColAmount] = fmt.Sprintf("%f", abs(comm))
		feeRow[model.ColCurrencyPrimary] = commCcy
		feeRow[model.ColIBCommission] = "0"
		feeRow[model.ColSymbol] = model.CashSymbol(commCcy)
		feeRow[model.ColQuantity] = "0"
		feeRow[model.ColTradePrice] = "0"
		feeRow[model.ColDescription] = "Conversion commission " + link
		feeRow[model.ColTransactionType] = ""
		out = append(out, model.ClassifiedRow{Kind: model.KindFee, Row: feeRow})
	}

	// Normalize so the pair always reads source.target with quantity in the
	// source currency and the rate quoting target per source. A buy of the
	// first leg pays the second: flip the pair.
	kind := model.KindFXDeposit
	sell := strings.EqualFold(row.Get(model.ColBuySell), "SELL")
	buy := strings.EqualFold(row.Get(model.ColBuySell), "BUY")
	if !sell && !buy {
		buy = money < 0
		sell = !buy
	}
	if buy {
		kind = model.KindFXWithdrawal
		parts[0], parts[1] = parts[1], parts[0]
		qty = qty * abs(rate)
		rate = 1 / abs(rate)
	}

	conv := row.Clone()
	conv[model.ColSymbol] = parts[0] + "." + parts[1]
	conv[model.ColQuantity] = fmt.Sprintf("%f", qty)
	conv[model.ColTradePrice] = fmt.Sprintf("%f", abs(rate))
	conv[model.ColDescription] = "Currency conversion " + link
	out = append(out, model.ClassifiedRow{Kind: kind, Row: conv})
	return out
}

// relocateDividend copies the dividend section's shifted fields into their
// canonical columns: the amount arrives under the trade-date column, the
// date under the settle-date column, and the exchange under its own name.
func (c *Classifier) relocateDividend(row model.RawRow) {
	if _, ok := normalize.Number(row.Get(model.ColAmount)); !ok {
		if v, ok := normalize.Number(row.Get(model.ColTradeDate)); ok {
			row[model.ColAmount] = fmt.Sprintf("%f", v)
		}
	}
	if d := row.Get(model.ColSettleDate); d != "" {
		if _, isNum := normalize.Number(row.Get(model.ColTradeDate)); isNum || row.Get(model.ColTradeDate) == "" {
			row[model.ColTradeDate] = d
		}
	}
	if row.Get(model.ColListingExchange) == "" {
		row[model.ColListingExchange] = row.Get(model.ColExchange)
	}
}

// relocateCash zeroes quantity and unit price and assigns the synthetic
// cash placeholder symbol for the row's currency.
func (c *Classifier) relocateCash(row model.RawRow) {
	ccy := strings.ToUpper(row.Get(model.ColCurrencyPrimary))
	if ccy == "" {
		ccy = c.baseCurrency
	}
	row[model.ColQuantity] = "0"
	row[model.ColTradePrice] = "0"
	row[model.ColSymbol] = model.CashSymbol(ccy)
}

func absTradeFields(row model.RawRow) {
	for _, col := range []string{model.ColQuantity, model.ColTradePrice, model.ColIBCommission} {
		if v, ok := normalize.Number(row.Get(col)); ok {
			row[col] = fmt.Sprintf("%f", abs(v))
		}
	}
}

func upperDesc(row model.RawRow) string {
	d := row.Get(model.ColActivityDescription)
	if d == "" {
		d = row.Get(model.ColDescription)
	}
	return strings.ToUpper(d)
}

func rowEmpty(row model.RawRow) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func one(row model.RawRow, kind model.RowKind) []model.ClassifiedRow {
	return []model.ClassifiedRow{{Kind: kind, Row: row}}
}

func skip(row model.RawRow, kind model.RowKind, reason string) []model.ClassifiedRow {
	return []model.ClassifiedRow{{Kind: kind, Reason: reason, Row: row}}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
