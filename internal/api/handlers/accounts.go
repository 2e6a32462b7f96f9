package handlers

import (
	"errors"
	"net/http"

	"github.com/flexledger/flexledger/internal/api/response"
	"github.com/flexledger/flexledger/internal/apperrors"
	"github.com/flexledger/flexledger/internal/service"
)

// AccountHandler handles HTTP requests for account preview endpoints.
type AccountHandler struct {
	importService *service.ImportService
}

// NewAccountHandler creates a new AccountHandler with the provided service dependency.
func NewAccountHandler(importService *service.ImportService) *AccountHandler {
	return &AccountHandler{
		importService: importService,
	}
}

// Preview handles GET requests to list the sub-accounts an import would
// target, refreshed against the live ledger.
//
// Endpoint: GET /api/accounts/preview
// Response: 200 OK with array of AccountPreview
// Error: 502 Bad Gateway if the ledger cannot be reached
func (h *AccountHandler) Preview(w http.ResponseWriter, r *http.Request) {
	previews, err := h.importService.PreviewAccounts(r.Context())
	if err != nil {
		if errors.Is(err, apperrors.ErrLedgerUnavailable) {
			response.RespondError(w, http.StatusBadGateway, apperrors.ErrLedgerUnavailable.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to preview accounts", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, previews)
}
