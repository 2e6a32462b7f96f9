package model

// ActivityType is the canonical type of a normalized ledger activity.
type ActivityType string

const (
	ActivityBuy         ActivityType = "BUY"
	ActivitySell        ActivityType = "SELL"
	ActivityDividend    ActivityType = "DIVIDEND"
	ActivityDividendTax ActivityType = "DIVIDEND_TAX"
	ActivityFee         ActivityType = "FEE"
	ActivityDeposit     ActivityType = "DEPOSIT"
	ActivityWithdrawal  ActivityType = "WITHDRAWAL"
	ActivityTransferIn  ActivityType = "TRANSFER_IN"
	ActivityTransferOut ActivityType = "TRANSFER_OUT"
	ActivityInterest    ActivityType = "INTEREST"
)

// IsTrade reports whether the type carries a real quantity and unit price.
// Every other type stores quantity == amount and unitPrice == 1 so the host
// ledger can treat cash flows uniformly.
func (t ActivityType) IsTrade() bool {
	return t == ActivityBuy || t == ActivitySell
}

// Activity is the canonical normalized transaction handed to the host
// ledger. Amount is always non-negative and denominated in Currency.
type Activity struct {
	ID        string       `json:"id,omitempty"`
	AccountID string       `json:"accountId,omitempty"`
	Date      string       `json:"date"`
	Symbol    string       `json:"symbol"`
	Type      ActivityType `json:"activityType"`
	Quantity  float64      `json:"quantity"`
	UnitPrice float64      `json:"unitPrice"`
	Amount    float64      `json:"amount"`
	Fee       float64      `json:"fee"`
	Currency  string       `json:"currency"`
	Comment   string       `json:"comment,omitempty"`
}

// CashSymbol returns the synthetic placeholder symbol used for cash
// positions in a given currency.
func CashSymbol(currency string) string {
	return "$CASH-" + currency
}
