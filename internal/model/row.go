package model

// Column names of the merged report table. Sections of the raw export carry
// different subsets; the section package merges them under this superset and
// the classifier relocates values for sections that shift columns.
const (
	ColClientAccountID      = "ClientAccountID"
	ColCurrencyPrimary      = "CurrencyPrimary"
	ColFXRateToBase         = "FXRateToBase"
	ColAssetClass           = "AssetClass"
	ColSymbol               = "Symbol"
	ColDescription          = "Description"
	ColISIN                 = "ISIN"
	ColListingExchange      = "ListingExchange"
	ColExchange             = "Exchange"
	ColTradeID              = "TradeID"
	ColDateTime             = "Date/Time"
	ColTradeDate            = "TradeDate"
	ColSettleDate           = "SettleDate"
	ColReportDate           = "ReportDate"
	ColTransactionType      = "TransactionType"
	ColBuySell              = "Buy/Sell"
	ColQuantity             = "Quantity"
	ColTradePrice           = "TradePrice"
	ColTradeMoney           = "TradeMoney"
	ColProceeds             = "Proceeds"
	ColIBCommission         = "IBCommission"
	ColTaxes                = "Taxes"
	ColIBCommissionCurrency = "IBCommissionCurrency"
	ColAmount               = "Amount"
	ColActivityCode         = "ActivityCode"
	ColActivityDescription  = "ActivityDescription"
	ColLevelOfDetail        = "LevelOfDetail"
	ColType                 = "Type"
	ColDirection            = "Direction"
)

// LevelOfDetail values.
const (
	LevelDetail      = "DETAIL"
	LevelBaseSummary = "BASE_SUMMARY"
	LevelSummary     = "SUMMARY"
	LevelPosition    = "POSITION"
)

// ActivityCode values seen in the cash-activity sections.
const (
	CodeDividend       = "DIV"
	CodeWithholdingTax = "FRTAX"
	CodeTransactionTax = "STTAX"
	CodeSalesTax       = "STAX"
	CodeOtherFee       = "OFEE"
	CodeDeposit        = "DEP"
	CodeWithdrawal     = "WITH"
	CodeCreditInterest = "CINT"
	CodeDebitInterest  = "DINT"
	CodeFXTranslation  = "FXTRANS"
	CodeBuy            = "BUY"
	CodeSell           = "SELL"
)

// TransactionType values of the trade-anchor section.
const (
	TxTypeExchTrade = "ExchTrade"
	TxTypeFXTrade   = "FXTrade"
)

// RawRow is one merged report row: column name to raw string value.
// Absent columns read as "".
type RawRow map[string]string

// Get returns the value for a column, or "" when absent.
func (r RawRow) Get(col string) string {
	return r[col]
}

// Clone returns an independent copy of the row.
func (r RawRow) Clone() RawRow {
	out := make(RawRow, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// RowKind is the canonical classification assigned to a merged row.
type RowKind string

const (
	KindStockBuy        RowKind = "STOCK_BUY"
	KindStockSell       RowKind = "STOCK_SELL"
	KindDividendPayment RowKind = "DIVIDEND_PAYMENT"
	KindDividendTax     RowKind = "DIVIDEND_TAX"
	KindFee             RowKind = "FEE"
	KindDeposit         RowKind = "DEPOSIT"
	KindWithdrawal      RowKind = "WITHDRAWAL"
	KindTransferIn      RowKind = "TRANSFER_IN"
	KindTransferOut     RowKind = "TRANSFER_OUT"
	KindInterest        RowKind = "INTEREST"
	KindFXDeposit       RowKind = "FX_DEPOSIT"
	KindFXWithdrawal    RowKind = "FX_WITHDRAWAL"

	KindSkipSummary           RowKind = "SKIP_SUMMARY"
	KindSkipBaseCurrency      RowKind = "SKIP_BASE_CURRENCY"
	KindSkipConversionSummary RowKind = "SKIP_CONVERSION_SUMMARY"
	KindSkipZeroAmount        RowKind = "SKIP_ZERO_AMOUNT"
	KindSkipStale             RowKind = "SKIP_STALE"
	KindSkipFXTranslation     RowKind = "SKIP_FX_TRANSLATION"
	KindSkipUnparseable       RowKind = "SKIP_UNPARSEABLE"
	KindSkipUnknown           RowKind = "SKIP_UNKNOWN"
)

// IsSkip reports whether the kind is a skip classification rather than an
// importable activity.
func (k RowKind) IsSkip() bool {
	switch k {
	case KindSkipSummary, KindSkipBaseCurrency, KindSkipConversionSummary,
		KindSkipZeroAmount, KindSkipStale, KindSkipFXTranslation,
		KindSkipUnparseable, KindSkipUnknown:
		return true
	}
	return false
}

// ClassifiedRow is a merged row annotated with its classification. Skip
// kinds carry a human-readable reason that is aggregated into counts.
type ClassifiedRow struct {
	Kind   RowKind
	Reason string
	Row    RawRow
}
