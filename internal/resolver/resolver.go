// Package resolver resolves provider tickers and ISINs to market symbols.
// Resolution is batched and best-effort: unresolved rows keep their
// original symbol so a lookup outage never blocks an import.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/flexledger/flexledger/internal/model"
)

// Resolver defines the symbol resolution interface consumed by the
// pipeline.
type Resolver interface {
	Resolve(ctx context.Context, rows []model.RawRow) []model.RawRow
}

// Noop passes rows through unresolved, used when no lookup service is
// configured.
type Noop struct{}

// Resolve returns rows unchanged.
func (Noop) Resolve(_ context.Context, rows []model.RawRow) []model.RawRow { return rows }

// lookupReply is the lookup service's response shape.
type lookupReply struct {
	Items []struct {
		Symbol   string `json:"symbol"`
		Currency string `json:"currency"`
	} `json:"items"`
}

// HTTPResolver queries a symbol-lookup endpoint, caching responses so
// repeated imports of overlapping files do not re-query the service.
type HTTPResolver struct {
	httpClient *http.Client
	baseURL    string
	cache      *gocache.Cache
}

// NewHTTPResolver creates a resolver against the given lookup service.
func NewHTTPResolver(baseURL string) *HTTPResolver {
	return &HTTPResolver{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		cache:      gocache.New(12*time.Hour, 1*time.Hour),
	}
}

// Resolve replaces each row's symbol with the market symbol the lookup
// service returns for its ISIN (preferred) or ticker. Rows that fail to
// resolve keep their original symbol.
func (r *HTTPResolver) Resolve(ctx context.Context, rows []model.RawRow) []model.RawRow {
	for _, row := range rows {
		query := row.Get(model.ColISIN)
		if query == "" {
			query = row.Get(model.ColSymbol)
		}
		if query == "" || strings.Contains(row.Get(model.ColSymbol), ".") {
			// Currency pairs and dotted listings are not securities the
			// lookup service knows.
			continue
		}

		symbol, ok := r.lookup(ctx, query)
		if ok && symbol != "" {
			row[model.ColSymbol] = symbol
		}
	}
	return rows
}

func (r *HTTPResolver) lookup(ctx context.Context, query string) (string, bool) {
	if cached, found := r.cache.Get(query); found {
		return cached.(string), true
	}

	reqURL := fmt.Sprintf("%s/v1/symbol/lookup?query=%s", r.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", false
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		log.Printf("symbol lookup failed for %q: %v", strings.ReplaceAll(query, "\n", ""), err)
		return "", false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		return "", false
	}
	var reply lookupReply
	if err := json.Unmarshal(body, &reply); err != nil || len(reply.Items) == 0 {
		return "", false
	}

	symbol := reply.Items[0].Symbol
	r.cache.Set(query, symbol, gocache.DefaultExpiration)
	return symbol, true
}
