// Package ratesapi is the HTTP client for the remote rate-data provider.
// It maps transport and response failures onto the domain error taxonomy;
// fallback policy lives a layer up, in pkg/rates.
package ratesapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/finvoq/fxcache/config"
	"github.com/finvoq/fxcache/pkg/currency"
	"github.com/finvoq/fxcache/pkg/domain"
)

// ProviderName identifies this client in wrapped errors and logs.
const ProviderName = "ratesdata"

// Client calls the provider's current-rates and historical-rates endpoints.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// ratesResponse is the provider's wire shape for both endpoints.
type ratesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
	// Error is populated on constrained API tiers when a date has no data.
	Error string `json:"error,omitempty"`
}

// New creates a provider client from config.
func New(cfg config.Provider, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiKey:     cfg.ApiKey,
		baseURL:    strings.TrimRight(cfg.ApiUrl, "/"),
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		logger:     logger.With("component", "rates_api"),
	}
}

// LiveRates fetches the current full rate table for base.
func (c *Client) LiveRates(ctx context.Context, base currency.Code) (*domain.RateTable, error) {
	query := url.Values{}
	query.Set("api_key", c.apiKey)
	query.Set("base", base.String())

	table, err := c.fetch(ctx, c.baseURL+"/api/rates?"+query.Encode(), base, domain.LiveTable)
	if err != nil {
		return nil, &domain.ProviderError{Provider: ProviderName, Err: err}
	}
	return table, nil
}

// HistoricalRates fetches the full rate table for base as of the given
// normalized YYYY-MM-DD date. A 404 or a "no data" body is reported as
// ErrRateUnavailable; that is an expected outcome on constrained API tiers,
// not an exceptional one.
func (c *Client) HistoricalRates(ctx context.Context, base currency.Code, date string) (*domain.RateTable, error) {
	query := url.Values{}
	query.Set("api_key", c.apiKey)
	query.Set("date", date)
	query.Set("base", base.String())

	table, err := c.fetch(ctx, c.baseURL+"/api/historical/rates?"+query.Encode(), base, date)
	if err != nil {
		return nil, &domain.ProviderError{Provider: ProviderName, Err: err}
	}
	return table, nil
}

// Healthy probes the current-rates endpoint.
func (c *Client) Healthy(ctx context.Context) bool {
	_, err := c.LiveRates(ctx, currency.Default)
	return err == nil
}

func (c *Client) fetch(ctx context.Context, rawURL string, base currency.Code, asOf string) (*domain.RateTable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrNetwork, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: no data for %s", domain.ErrRateUnavailable, asOf)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", domain.ErrNetwork, resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", domain.ErrInvalidResponse, err)
	}
	if body.Error != "" {
		// Reachable provider telling us it has nothing for this date.
		return nil, fmt.Errorf("%w: %s", domain.ErrRateUnavailable, body.Error)
	}
	if len(body.Rates) == 0 {
		return nil, fmt.Errorf("%w: empty rate map", domain.ErrInvalidResponse)
	}

	rates := make(map[currency.Code]float64, len(body.Rates))
	for code, rate := range body.Rates {
		rates[currency.Code(code)] = rate
	}

	c.logger.Debug("fetched rate table", "base", base, "as_of", asOf, "count", len(rates))
	return domain.NewRateTable(base, rates, asOf), nil
}
