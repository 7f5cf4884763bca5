package rates

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infrakv "github.com/finvoq/fxcache/infra/kv"
	"github.com/finvoq/fxcache/pkg/currency"
	"github.com/finvoq/fxcache/pkg/domain"
	"github.com/finvoq/fxcache/pkg/kv"
)

type fakeClient struct {
	mu        sync.Mutex
	liveCalls int
	histCalls int
	liveRates map[currency.Code]float64
	liveErr   error
	histRates map[currency.Code]float64
	histErr   error
}

func (f *fakeClient) LiveRates(_ context.Context, base currency.Code) (*domain.RateTable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.liveCalls++
	if f.liveErr != nil {
		return nil, f.liveErr
	}
	return domain.NewRateTable(base, f.liveRates, domain.LiveTable), nil
}

func (f *fakeClient) HistoricalRates(_ context.Context, base currency.Code, date string) (*domain.RateTable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histCalls++
	if f.histErr != nil {
		return nil, f.histErr
	}
	return domain.NewRateTable(base, f.histRates, date), nil
}

func (f *fakeClient) calls() (live, hist int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.liveCalls, f.histCalls
}

type noopLimiter struct{ acquired int }

func (l *noopLimiter) Acquire(context.Context) error {
	l.acquired++
	return nil
}

var pastDate = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func newTestSource(client ProviderClient, store kv.Store) (*Source, *noopLimiter) {
	limiter := &noopLimiter{}
	if store == nil {
		store = infrakv.NewMemory()
	}
	return NewSource(client, limiter, store, currency.Default, 10*time.Minute, nil), limiter
}

func TestLiveRatesMemoized(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{liveRates: map[currency.Code]float64{"EUR": 0.85}}
	source, limiter := newTestSource(client, nil)

	first, err := source.LiveRates(ctx)
	require.NoError(t, err)
	second, err := source.LiveRates(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	live, _ := client.calls()
	assert.Equal(t, 1, live, "second lookup must come from the memo")
	assert.Equal(t, 1, limiter.acquired, "limiter is only consulted for network calls")
}

func TestLiveRatesMirrorSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	store := infrakv.NewMemory()

	client := &fakeClient{liveRates: map[currency.Code]float64{"EUR": 0.85}}
	source, _ := newTestSource(client, store)
	_, err := source.LiveRates(ctx)
	require.NoError(t, err)

	// A fresh source over the same store simulates a process restart.
	restarted, _ := newTestSource(client, store)
	table, err := restarted.LiveRates(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0.85, table.Rates["EUR"])
	live, _ := client.calls()
	assert.Equal(t, 1, live, "restart must be served from the persisted mirror")
}

func TestHistoricalRates(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{histRates: map[currency.Code]float64{"EUR": 0.91}}
	source, _ := newTestSource(client, nil)

	table, err := source.HistoricalRates(ctx, pastDate)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", table.AsOf)
	assert.Equal(t, 0.91, table.Rates["EUR"])

	_, err = source.HistoricalRates(ctx, pastDate)
	require.NoError(t, err)
	_, hist := client.calls()
	assert.Equal(t, 1, hist)
}

func TestHistoricalRatesFutureDateUsesLive(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{liveRates: map[currency.Code]float64{"EUR": 0.85}}
	source, _ := newTestSource(client, nil)

	table, err := source.HistoricalRates(ctx, time.Now().AddDate(0, 0, 7))
	require.NoError(t, err)

	assert.Equal(t, domain.LiveTable, table.AsOf)
	live, hist := client.calls()
	assert.Equal(t, 1, live)
	assert.Zero(t, hist, "a future date has no historical rate to ask for")
}

func TestHistoricalRatesNoDataFallsBackToLive(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{
		histErr:   fmt.Errorf("%w: no data", domain.ErrRateUnavailable),
		liveRates: map[currency.Code]float64{"EUR": 0.85},
	}
	source, _ := newTestSource(client, nil)

	table, err := source.HistoricalRates(ctx, pastDate)
	require.NoError(t, err)
	assert.Equal(t, domain.LiveTable, table.AsOf)

	// The live table was pinned under the historical key: the same date must
	// not re-attempt the historical endpoint.
	_, err = source.HistoricalRates(ctx, pastDate)
	require.NoError(t, err)
	live, hist := client.calls()
	assert.Equal(t, 1, hist)
	assert.Equal(t, 1, live)
}

func TestHistoricalRatesNetworkErrorFallsBackToLive(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{
		histErr:   fmt.Errorf("%w: boom", domain.ErrNetwork),
		liveRates: map[currency.Code]float64{"EUR": 0.85},
	}
	source, _ := newTestSource(client, nil)

	table, err := source.HistoricalRates(ctx, pastDate)
	require.NoError(t, err)
	assert.Equal(t, domain.LiveTable, table.AsOf)
}

func TestHistoricalRatesBothTiersFail(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{
		histErr: fmt.Errorf("%w: boom", domain.ErrNetwork),
		liveErr: fmt.Errorf("%w: boom", domain.ErrNetwork),
	}
	source, _ := newTestSource(client, nil)

	_, err := source.HistoricalRates(ctx, pastDate)
	require.ErrorIs(t, err, domain.ErrNetwork)
}
