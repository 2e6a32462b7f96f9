package testutil

import (
	"strconv"

	"github.com/flexledger/flexledger/internal/model"
)

// RowBuilder provides a fluent interface for creating merged report rows.
//
// Example usage:
//
//	// Simple trade row with defaults
//	row := testutil.NewTradeRow("AAPL", "BUY").Build()
//
//	// Customized row
//	row := testutil.NewTradeRow("AAPL", "BUY").
//	    WithCurrency("USD").
//	    WithQuantity(10).
//	    WithColumn(model.ColTradeDate, "2024-03-01").
//	    Build()
type RowBuilder struct {
	row model.RawRow
}

// NewRow creates an empty RowBuilder.
func NewRow() *RowBuilder {
	return &RowBuilder{row: model.RawRow{
		model.ColClientAccountID: "U1234567",
	}}
}

// NewTradeRow creates a builder for a trade-anchor row with sensible defaults.
func NewTradeRow(symbol, buySell string) *RowBuilder {
	b := NewRow()
	b.row[model.ColCurrencyPrimary] = "USD"
	b.row[model.ColAssetClass] = "STK"
	b.row[model.ColSymbol] = symbol
	b.row[model.ColListingExchange] = "NYSE"
	b.row[model.ColTradeDate] = "2024-03-01"
	b.row[model.ColTransactionType] = model.TxTypeExchTrade
	b.row[model.ColBuySell] = buySell
	b.row[model.ColQuantity] = "10"
	b.row[model.ColTradePrice] = "100"
	b.row[model.ColIBCommission] = "-1"
	b.row[model.ColLevelOfDetail] = model.LevelDetail
	return b
}

// NewCashRow creates a builder for a cash-activity row with sensible defaults.
func NewCashRow(code string, amount float64) *RowBuilder {
	b := NewRow()
	b.row[model.ColCurrencyPrimary] = "EUR"
	b.row[model.ColActivityCode] = code
	b.row[model.ColAmount] = strconv.FormatFloat(amount, 'f', -1, 64)
	b.row[model.ColReportDate] = "2024-03-01"
	b.row[model.ColLevelOfDetail] = model.LevelDetail
	return b
}

// WithColumn sets an arbitrary column value.
func (b *RowBuilder) WithColumn(col, value string) *RowBuilder {
	b.row[col] = value
	return b
}

// WithCurrency sets the primary currency.
func (b *RowBuilder) WithCurrency(currency string) *RowBuilder {
	b.row[model.ColCurrencyPrimary] = currency
	return b
}

// WithQuantity sets the trade quantity.
func (b *RowBuilder) WithQuantity(quantity float64) *RowBuilder {
	b.row[model.ColQuantity] = strconv.FormatFloat(quantity, 'f', -1, 64)
	return b
}

// WithPrice sets the trade price.
func (b *RowBuilder) WithPrice(price float64) *RowBuilder {
	b.row[model.ColTradePrice] = strconv.FormatFloat(price, 'f', -1, 64)
	return b
}

// WithDate sets the trade date.
func (b *RowBuilder) WithDate(date string) *RowBuilder {
	b.row[model.ColTradeDate] = date
	return b
}

// WithDescription sets the activity description.
func (b *RowBuilder) WithDescription(desc string) *RowBuilder {
	b.row[model.ColActivityDescription] = desc
	return b
}

// WithLevel sets the level of detail.
func (b *RowBuilder) WithLevel(level string) *RowBuilder {
	b.row[model.ColLevelOfDetail] = level
	return b
}

// Build returns the constructed row.
func (b *RowBuilder) Build() model.RawRow {
	return b.row.Clone()
}

// ActivityBuilder provides a fluent interface for creating normalized
// activities for splitter and dedup tests.
//
// Example usage:
//
//	activity := testutil.NewActivity(model.ActivityBuy).
//	    WithSymbol("AAPL").
//	    WithAmount(1000).
//	    Build()
type ActivityBuilder struct {
	activity model.Activity
}

// NewActivity creates an ActivityBuilder with sensible defaults.
func NewActivity(activityType model.ActivityType) *ActivityBuilder {
	return &ActivityBuilder{activity: model.Activity{
		ID:        MakeID(),
		Date:      "2024-03-01",
		Symbol:    "AAPL",
		Type:      activityType,
		Quantity:  10,
		UnitPrice: 100,
		Amount:    1000,
		Fee:       1,
		Currency:  "USD",
	}}
}

// WithDate sets the activity date (YYYY-MM-DD).
func (b *ActivityBuilder) WithDate(date string) *ActivityBuilder {
	b.activity.Date = date
	return b
}

// WithSymbol sets the security symbol.
func (b *ActivityBuilder) WithSymbol(symbol string) *ActivityBuilder {
	b.activity.Symbol = symbol
	return b
}

// WithQuantity sets the quantity.
func (b *ActivityBuilder) WithQuantity(quantity float64) *ActivityBuilder {
	b.activity.Quantity = quantity
	return b
}

// WithUnitPrice sets the unit price.
func (b *ActivityBuilder) WithUnitPrice(price float64) *ActivityBuilder {
	b.activity.UnitPrice = price
	return b
}

// WithAmount sets the total amount.
func (b *ActivityBuilder) WithAmount(amount float64) *ActivityBuilder {
	b.activity.Amount = amount
	return b
}

// WithFee sets the fee.
func (b *ActivityBuilder) WithFee(fee float64) *ActivityBuilder {
	b.activity.Fee = fee
	return b
}

// WithCurrency sets the currency.
func (b *ActivityBuilder) WithCurrency(currency string) *ActivityBuilder {
	b.activity.Currency = currency
	return b
}

// WithComment sets the comment.
func (b *ActivityBuilder) WithComment(comment string) *ActivityBuilder {
	b.activity.Comment = comment
	return b
}

// Build returns the constructed activity.
func (b *ActivityBuilder) Build() model.Activity {
	return b.activity
}
