// Package ledger is the HTTP client for the host portfolio ledger: the
// destination store the pipeline imports into. The ledger owns accounts and
// activities; this package only reads and appends.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/flexledger/flexledger/internal/apperrors"
	"github.com/flexledger/flexledger/internal/model"
)

// Client defines the host ledger operations the pipeline consumes. This
// interface enables dependency injection and testing with mock
// implementations.
type Client interface {
	GetAccounts(ctx context.Context) ([]model.Account, error)
	GetAll(ctx context.Context, accountID string) ([]model.Activity, error)
	Import(ctx context.Context, activities []model.Activity) (ImportReply, error)
	CreateAccount(ctx context.Context, account model.Account) (model.Account, error)
}

// ImportReply reports per-item results of a ledger import.
type ImportReply struct {
	Imported int      `json:"imported"`
	Failed   []string `json:"failed,omitempty"`
}

// HTTPClient talks JSON to the ledger's REST API.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewHTTPClient creates a ledger client for the given base URL. apiKey may
// be empty when the ledger does not require one.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// GetAccounts lists every account in the ledger.
func (c *HTTPClient) GetAccounts(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	if err := c.do(ctx, http.MethodGet, "/api/v1/account", nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// GetAll fetches the activities stored for one account, used as the
// persisted side of deduplication.
func (c *HTTPClient) GetAll(ctx context.Context, accountID string) ([]model.Activity, error) {
	var activities []model.Activity
	path := "/api/v1/activity?accountId=" + url.QueryEscape(accountID)
	if err := c.do(ctx, http.MethodGet, path, nil, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// Import appends activities to the ledger.
func (c *HTTPClient) Import(ctx context.Context, activities []model.Activity) (ImportReply, error) {
	var reply ImportReply
	payload := map[string][]model.Activity{"activities": activities}
	if err := c.do(ctx, http.MethodPost, "/api/v1/import", payload, &reply); err != nil {
		return ImportReply{}, err
	}
	return reply, nil
}

// CreateAccount creates a currency sub-ledger and returns it with its
// assigned ID.
func (c *HTTPClient) CreateAccount(ctx context.Context, account model.Account) (model.Account, error) {
	var created model.Account
	if err := c.do(ctx, http.MethodPost, "/api/v1/account", account, &created); err != nil {
		return model.Account{}, err
	}
	return created, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrLedgerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ledger returned status %d for %s %s", resp.StatusCode, method, path)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode ledger response: %w", err)
	}
	return nil
}
