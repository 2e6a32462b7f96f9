package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/flexledger/flexledger/internal/api/request"
	"github.com/flexledger/flexledger/internal/api/response"
	"github.com/flexledger/flexledger/internal/apperrors"
	"github.com/flexledger/flexledger/internal/service"
)

// maxUploadBytes caps a single CSV upload.
const maxUploadBytes = 32 << 20

// ImportHandler handles HTTP requests for import endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the importService.
type ImportHandler struct {
	importService *service.ImportService
}

// NewImportHandler creates a new ImportHandler with the provided service dependency.
func NewImportHandler(importService *service.ImportService) *ImportHandler {
	return &ImportHandler{
		importService: importService,
	}
}

// UploadCSV handles POST requests to run the pipeline over an uploaded
// activity export. Accepts a multipart "file" field or a raw CSV body.
//
// Endpoint: POST /api/import/csv
// Response: 200 OK with the import preview
// Error: 400 Bad Request if the upload is empty
// Error: 422 Unprocessable Entity if the export has no usable sections
// Error: 500 Internal Server Error if the pipeline fails
func (h *ImportHandler) UploadCSV(w http.ResponseWriter, r *http.Request) {
	raw, err := readUpload(r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "failed to read upload", err.Error())
		return
	}

	result, err := h.importService.ImportCSV(r.Context(), raw)
	if err != nil {
		respondImportError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// SyncFlex handles POST requests to fetch a fresh report from the provider
// and run the pipeline over it.
//
// Endpoint: POST /api/import/flex
// Response: 200 OK with the import preview
// Error: 400 Bad Request if no provider credentials are configured
// Error: 502 Bad Gateway if the provider fetch fails
func (h *ImportHandler) SyncFlex(w http.ResponseWriter, r *http.Request) {
	result, err := h.importService.SyncFromFlex(r.Context())
	if err != nil {
		if errors.Is(err, apperrors.ErrFlexConfigNotFound) || errors.Is(err, apperrors.ErrMissingFlexToken) {
			response.RespondError(w, http.StatusBadRequest, "flex sync not configured", err.Error())
			return
		}
		if errors.Is(err, apperrors.ErrReportFetchTimeout) || errors.Is(err, apperrors.ErrReportRateLimited) {
			response.RespondError(w, http.StatusBadGateway, "provider fetch failed", err.Error())
			return
		}
		respondImportError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// Confirm handles POST requests to push a previewed batch to the host ledger.
//
// Endpoint: POST /api/import/confirm
// Response: 200 OK with per-item results
// Error: 400 Bad Request if the body carries no groups
// Error: 502 Bad Gateway if the ledger cannot be reached
func (h *ImportHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req request.ConfirmImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if len(req.Groups) == 0 {
		response.RespondError(w, http.StatusBadRequest, "validation failed", "groups must not be empty")
		return
	}

	result, err := h.importService.Confirm(r.Context(), req.Groups)
	if err != nil {
		if errors.Is(err, apperrors.ErrLedgerUnavailable) {
			response.RespondError(w, http.StatusBadGateway, "ledger import failed", err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to confirm import", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// Runs handles GET requests to list recent import runs.
//
// Endpoint: GET /api/import/runs?limit=N
// Response: 200 OK with array of ImportRun
func (h *ImportHandler) Runs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.RespondError(w, http.StatusBadRequest, "invalid limit parameter", raw)
			return
		}
		limit = parsed
	}

	runs, err := h.importService.GetRuns(limit)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve import runs", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, runs)
}

// Run handles GET requests to retrieve a single import run.
//
// Endpoint: GET /api/import/runs/{uuid}
// Response: 200 OK with ImportRun
// Error: 400 Bad Request if the run ID is invalid (validated by middleware)
// Error: 404 Not Found if the run does not exist
func (h *ImportHandler) Run(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "uuid")

	run, err := h.importService.GetRun(runID)
	if err != nil {
		if errors.Is(err, apperrors.ErrImportRunNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrImportRunNotFound.Error(), runID)
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve import run", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, run)
}

func respondImportError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrEmptyUpload):
		response.RespondError(w, http.StatusBadRequest, apperrors.ErrEmptyUpload.Error(), "")
	case errors.Is(err, apperrors.ErrNoSectionsFound), errors.Is(err, apperrors.ErrNoTradeAnchor):
		response.RespondError(w, http.StatusUnprocessableEntity, "unusable activity export", err.Error())
	default:
		response.RespondError(w, http.StatusInternalServerError, "import failed", err.Error())
	}
}

// readUpload extracts the CSV payload from a multipart "file" field, or
// from the raw body when the request is not multipart.
func readUpload(r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return "", err
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return "", err
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
