package request

import "github.com/flexledger/flexledger/internal/model"

// ConfirmImportRequest carries a previewed batch back for pushing to the
// host ledger.
type ConfirmImportRequest struct {
	Groups []model.TransactionGroup `json:"groups"`
}
