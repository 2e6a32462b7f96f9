package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/flexledger/flexledger/internal/api/request"
	"github.com/flexledger/flexledger/internal/api/response"
	"github.com/flexledger/flexledger/internal/model"
	"github.com/flexledger/flexledger/internal/service"
	"github.com/flexledger/flexledger/internal/validation"
)

// FlexConfigHandler handles HTTP requests for provider credential endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the flexConfigService.
type FlexConfigHandler struct {
	flexConfigService *service.FlexConfigService
}

// NewFlexConfigHandler creates a new FlexConfigHandler with the provided service dependency.
func NewFlexConfigHandler(flexConfigService *service.FlexConfigService) *FlexConfigHandler {
	return &FlexConfigHandler{
		flexConfigService: flexConfigService,
	}
}

// GetConfig handles GET requests to retrieve the provider configuration.
// The token itself is never returned, only whether one is configured.
//
// Endpoint: GET /api/flex/config
// Response: 200 OK with FlexConfig
func (h *FlexConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	config, err := h.flexConfigService.GetConfig()
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve flex config", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, config)
}

// UpdateConfig handles PUT requests to store provider credentials.
//
// Endpoint: PUT /api/flex/config
// Response: 200 OK with the stored FlexConfig
// Error: 400 Bad Request on validation failure
func (h *FlexConfigHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateFlexConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdateFlexConfig(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	cfg := &model.FlexConfig{}
	if req.FlexQueryID != nil {
		cfg.QueryID = *req.FlexQueryID
	}
	if req.AutoImportEnabled != nil {
		cfg.AutoImportEnabled = *req.AutoImportEnabled
	}
	if req.TokenExpiresAt != nil {
		expires, err := validation.ParseTime(*req.TokenExpiresAt)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
			return
		}
		cfg.TokenExpiresAt = &expires
	}

	if err := h.flexConfigService.UpdateConfig(cfg, req.FlexToken); err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to store flex config", err.Error())
		return
	}

	stored, err := h.flexConfigService.GetConfig()
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve flex config", err.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, stored)
}

// DeleteConfig handles DELETE requests to remove the stored credentials.
//
// Endpoint: DELETE /api/flex/config
// Response: 204 No Content
func (h *FlexConfigHandler) DeleteConfig(w http.ResponseWriter, r *http.Request) {
	if err := h.flexConfigService.DeleteConfig(); err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to delete flex config", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}
