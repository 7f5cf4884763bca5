package ratesapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finvoq/fxcache/config"
	"github.com/finvoq/fxcache/pkg/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(config.Provider{
		ApiKey:      "test-key",
		ApiUrl:      srv.URL,
		HTTPTimeout: 2 * time.Second,
	}, nil)
}

func TestLiveRates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/rates", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "USD", r.URL.Query().Get("base"))
		_, _ = w.Write([]byte(`{"base":"USD","rates":{"EUR":0.85,"GBP":0.73}}`))
	})

	table, err := client.LiveRates(context.Background(), "USD")
	require.NoError(t, err)
	assert.Equal(t, domain.LiveTable, table.AsOf)
	assert.Equal(t, 0.85, table.Rates["EUR"])
	assert.Equal(t, 1.0, table.Rates["USD"], "base rate is injected")
}

func TestHistoricalRates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/historical/rates", r.URL.Path)
		assert.Equal(t, "2024-03-15", r.URL.Query().Get("date"))
		_, _ = w.Write([]byte(`{"base":"USD","rates":{"EUR":0.91}}`))
	})

	table, err := client.HistoricalRates(context.Background(), "USD", "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", table.AsOf)
	assert.Equal(t, 0.91, table.Rates["EUR"])
}

func TestHistoricalRatesNoData(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "404 response",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
		},
		{
			name: "no-data body on constrained tier",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"error":"no data for 2024-03-15"}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			_, err := client.HistoricalRates(context.Background(), "USD", "2024-03-15")
			require.ErrorIs(t, err, domain.ErrRateUnavailable)

			var provErr *domain.ProviderError
			require.ErrorAs(t, err, &provErr)
			assert.Equal(t, ProviderName, provErr.Provider)
		})
	}
}

func TestLiveRatesFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantErr: domain.ErrNetwork,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"base":`))
			},
			wantErr: domain.ErrInvalidResponse,
		},
		{
			name: "empty rate map",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"base":"USD","rates":{}}`))
			},
			wantErr: domain.ErrInvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			_, err := client.LiveRates(context.Background(), "USD")
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLiveRatesConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := New(config.Provider{ApiUrl: url, HTTPTimeout: time.Second}, nil)
	_, err := client.LiveRates(context.Background(), "USD")
	require.ErrorIs(t, err, domain.ErrNetwork)
}
