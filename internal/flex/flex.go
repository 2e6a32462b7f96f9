// Package flex fetches raw activity reports from the provider's pull-based
// reporting API: request a report, poll until ready, download the CSV.
package flex

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/flexledger/flexledger/internal/apperrors"
)

// Client defines the interface for fetching the raw activity report.
// This interface enables dependency injection and testing with mock
// implementations.
type Client interface {
	FetchReport(ctx context.Context, token, queryID string) (string, error)
}

// ReportClient polls the provider's flex web service with exponential
// backoff, bounded by both a retry count and a wall-clock deadline.
type ReportClient struct {
	httpClient *http.Client
	baseURL    string
	codes      ErrorCodeTable

	initialBackoff time.Duration
	maxBackoff     time.Duration
	maxAttempts    int
	deadline       time.Duration
}

// NewReportClient creates a client for the given service base URL with the
// default error-code table and polling bounds.
func NewReportClient(baseURL string) *ReportClient {
	return &ReportClient{
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		codes:          DefaultErrorCodes(),
		initialBackoff: 2 * time.Second,
		maxBackoff:     30 * time.Second,
		maxAttempts:    10,
		deadline:       5 * time.Minute,
	}
}

// WithErrorCodes substitutes the error-code table.
func (c *ReportClient) WithErrorCodes(codes ErrorCodeTable) *ReportClient {
	c.codes = codes
	return c
}

// FetchReport requests report generation and polls until the CSV payload is
// served. Codes marked retryable in the table are polled through; any other
// code is terminal.
func (c *ReportClient) FetchReport(ctx context.Context, token, queryID string) (string, error) {
	if token == "" || queryID == "" {
		return "", apperrors.ErrMissingFlexToken
	}

	ctx, cancel := context.WithTimeout(ctx, c.deadline)
	defer cancel()

	ref, downloadURL, err := c.requestGeneration(ctx, token, queryID)
	if err != nil {
		return "", err
	}
	return c.poll(ctx, token, ref, downloadURL)
}

func (c *ReportClient) requestGeneration(ctx context.Context, token, queryID string) (ref, downloadURL string, err error) {
	reqURL := fmt.Sprintf("%s/SendRequest?t=%s&q=%s&v=3", c.baseURL, url.QueryEscape(token), url.QueryEscape(queryID))
	body, err := c.get(ctx, reqURL)
	if err != nil {
		return "", "", err
	}

	var resp statementResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return "", "", fmt.Errorf("failed to decode generation response: %w", err)
	}
	if resp.ErrorCode != nil {
		return "", "", c.codeError(*resp.ErrorCode)
	}
	if !strings.EqualFold(resp.Status, "success") || resp.ReferenceCode == "" {
		return "", "", fmt.Errorf("report generation request failed with status %q", resp.Status)
	}
	downloadURL = resp.URL
	if downloadURL == "" {
		downloadURL = c.baseURL + "/GetStatement"
	}
	return resp.ReferenceCode, downloadURL, nil
}

func (c *ReportClient) poll(ctx context.Context, token, ref, downloadURL string) (string, error) {
	reqURL := fmt.Sprintf("%s?t=%s&q=%s&v=3", downloadURL, url.QueryEscape(token), url.QueryEscape(ref))

	backoff := c.initialBackoff
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", apperrors.ErrReportFetchTimeout, ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > c.maxBackoff {
				backoff = c.maxBackoff
			}
		}

		body, err := c.get(ctx, reqURL)
		if err != nil {
			return "", err
		}

		// The poll endpoint serves either the CSV payload or the XML
		// status envelope.
		if !looksLikeEnvelope(body) {
			return string(body), nil
		}

		var resp statementResponse
		if err := xml.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to decode poll response: %w", err)
		}
		if resp.ErrorCode == nil {
			return "", fmt.Errorf("poll returned envelope without error code, status %q", resp.Status)
		}
		if c.codes.Retryable[*resp.ErrorCode] {
			continue
		}
		return "", c.codeError(*resp.ErrorCode)
	}
	return "", apperrors.ErrReportFetchTimeout
}

func (c *ReportClient) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned HTTP %d", resp.StatusCode)
	}
	return body, nil
}

func (c *ReportClient) codeError(code int) error {
	msg, ok := c.codes.Messages[code]
	if !ok {
		msg = "unknown provider error"
	}
	switch code {
	case 1018, 1019:
		return fmt.Errorf("%w: code %d: %s", apperrors.ErrReportNotReady, code, msg)
	case 1021:
		return fmt.Errorf("%w: code %d: %s", apperrors.ErrReportRateLimited, code, msg)
	}
	return fmt.Errorf("provider error %d: %s", code, msg)
}

func looksLikeEnvelope(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	return strings.HasPrefix(trimmed, "<FlexStatementResponse") ||
		strings.HasPrefix(trimmed, "<?xml")
}
