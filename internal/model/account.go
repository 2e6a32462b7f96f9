package model

import "time"

// Account is one currency-scoped sub-ledger in the host ledger.
type Account struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Group    string `json:"group,omitempty"`
}

// AccountPreview describes a target sub-ledger the orchestrator will either
// reuse (Existing set) or create. Existing is refreshed against the live
// ledger before every import.
type AccountPreview struct {
	Currency string   `json:"currency"`
	Name     string   `json:"name"`
	Group    string   `json:"group,omitempty"`
	Existing *Account `json:"existingAccount,omitempty"`
}

// GroupSummary counts the activities in a transaction group by family.
type GroupSummary struct {
	Trades      int `json:"trades"`
	Dividends   int `json:"dividends"`
	Deposits    int `json:"deposits"`
	Withdrawals int `json:"withdrawals"`
	Fees        int `json:"fees"`
	Other       int `json:"other"`
}

// TransactionGroup is the per-currency output of an import: the activities
// assigned to one sub-ledger plus summary counts.
type TransactionGroup struct {
	Currency   string       `json:"currency"`
	AccountID  string       `json:"accountId,omitempty"`
	Activities []Activity   `json:"activities"`
	Summary    GroupSummary `json:"summary"`
}

// Summarize recomputes the summary counts from the group's activities.
func (g *TransactionGroup) Summarize() {
	s := GroupSummary{}
	for _, a := range g.Activities {
		switch a.Type {
		case ActivityBuy, ActivitySell:
			s.Trades++
		case ActivityDividend, ActivityDividendTax:
			s.Dividends++
		case ActivityDeposit, ActivityTransferIn:
			s.Deposits++
		case ActivityWithdrawal, ActivityTransferOut:
			s.Withdrawals++
		case ActivityFee:
			s.Fees++
		default:
			s.Other++
		}
	}
	g.Summary = s
}

// ImportResult is what one pipeline run produced: grouped activities ready
// for the host ledger plus everything that was skipped, deduplicated, or
// failed along the way.
type ImportResult struct {
	RunID          string             `json:"runId"`
	Source         string             `json:"source"`
	Groups         []TransactionGroup `json:"groups"`
	Imported       int                `json:"imported"`
	Duplicates     int                `json:"duplicates"`
	SkipCounts     map[string]int     `json:"skipCounts,omitempty"`
	Warnings       []string           `json:"warnings,omitempty"`
	FailedAccounts []string           `json:"failedAccounts,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
}

// ConfirmResult reports what a confirmed import pushed to the host ledger.
type ConfirmResult struct {
	Imported int       `json:"imported"`
	Failed   []string  `json:"failed,omitempty"`
	Accounts []Account `json:"accounts"`
}

// ImportRun is the persisted record of one import invocation.
type ImportRun struct {
	ID             string    `json:"id"`
	Source         string    `json:"source"`
	Imported       int       `json:"imported"`
	Duplicates     int       `json:"duplicates"`
	Skipped        int       `json:"skipped"`
	Warnings       int       `json:"warnings"`
	FailedAccounts []string  `json:"failedAccounts,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}
