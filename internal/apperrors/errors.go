package apperrors

import "errors"

// Structural failures are fatal for a batch: no meaningful partial result
// exists without a trade-shaped anchor section.
var (
	// ErrNoSectionsFound indicates the raw export contained no parseable
	// report section.
	ErrNoSectionsFound = errors.New("no report sections found")

	// ErrNoTradeAnchor indicates no section carried the trade columns the
	// merge anchors on.
	ErrNoTradeAnchor = errors.New("no trade-shaped anchor section found")
)

// Domain entity errors represent missing or invalid entities in the system.
var (
	// ErrFlexConfigNotFound indicates provider credentials have not been
	// configured.
	ErrFlexConfigNotFound = errors.New("flex configuration not found")

	// ErrImportRunNotFound indicates an import run with the given ID does
	// not exist.
	ErrImportRunNotFound = errors.New("import run not found")

	// ErrAccountNotFound indicates a sub-ledger account lookup returned no
	// results.
	ErrAccountNotFound = errors.New("account not found")
)

// Business logic errors represent validation failures or constraint
// violations.
var (
	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrEmptyID indicates that a required ID parameter is empty or missing.
	ErrEmptyID = errors.New("ID cannot be empty")

	// ErrEmptyUpload indicates an import request carried no CSV payload.
	ErrEmptyUpload = errors.New("upload contains no data")

	// ErrInvalidCurrency indicates a currency parameter is missing or not a
	// three-letter code.
	ErrInvalidCurrency = errors.New("invalid currency code")

	// ErrMissingFlexToken indicates a flex sync was requested without a
	// stored provider token.
	ErrMissingFlexToken = errors.New("flex token not configured")
)

// Collaborator failures represent external services misbehaving. Account
// fetch failures are partial-failure tolerant: deduplication proceeds on
// whatever data loaded and the caller is told the result is incomplete.
var (
	// ErrLedgerUnavailable indicates the host ledger could not be reached.
	ErrLedgerUnavailable = errors.New("host ledger unavailable")

	// ErrReportNotReady indicates the provider is still generating the
	// requested report (retryable).
	ErrReportNotReady = errors.New("report not ready")

	// ErrReportRateLimited indicates the provider throttled the poll
	// (retryable).
	ErrReportRateLimited = errors.New("report fetch rate limited")

	// ErrReportFetchTimeout indicates polling exhausted its retry budget or
	// wall-clock deadline.
	ErrReportFetchTimeout = errors.New("report fetch timed out")
)
