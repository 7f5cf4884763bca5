// Package rates layers the caching, throttling, and fallback policy on top
// of the raw provider client. Source memoizes full rate tables; Chain turns
// table lookups into a single rate that is always produced.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/finvoq/fxcache/pkg/currency"
	"github.com/finvoq/fxcache/pkg/domain"
	"github.com/finvoq/fxcache/pkg/kv"
)

// ProviderClient is the slice of the HTTP client the source depends on.
type ProviderClient interface {
	LiveRates(ctx context.Context, base currency.Code) (*domain.RateTable, error)
	HistoricalRates(ctx context.Context, base currency.Code, date string) (*domain.RateTable, error)
}

// RateLimiter gates every outbound provider call.
type RateLimiter interface {
	Acquire(ctx context.Context) error
}

// Source fetches full rate tables for "now" or for a calendar date, with a
// short-TTL in-process memo plus a persisted mirror so a process restart
// does not immediately re-hit the provider.
type Source struct {
	client  ProviderClient
	limiter RateLimiter
	store   kv.Store
	base    currency.Code
	ttl     time.Duration
	logger  *slog.Logger

	mu   sync.Mutex
	memo map[string]memoEntry

	now func() time.Time
}

type memoEntry struct {
	table    *domain.RateTable
	cachedAt time.Time
}

// storedTable is the persisted mirror shape.
type storedTable struct {
	Table    *domain.RateTable `json:"table"`
	CachedAt time.Time         `json:"cached_at"`
}

// NewSource creates a rate source. base is the currency every fetched table
// is expressed against; ttl bounds how long a memoized table is trusted.
func NewSource(
	client ProviderClient,
	limiter RateLimiter,
	store kv.Store,
	base currency.Code,
	ttl time.Duration,
	logger *slog.Logger,
) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		client:  client,
		limiter: limiter,
		store:   store,
		base:    base,
		ttl:     ttl,
		logger:  logger.With("component", "rate_source"),
		memo:    make(map[string]memoEntry),
		now:     time.Now,
	}
}

// Base returns the base currency tables are fetched against.
func (s *Source) Base() currency.Code { return s.base }

// LiveRates returns the current rate table, from the memo or the persisted
// mirror when fresh, otherwise from the provider behind the rate limiter.
func (s *Source) LiveRates(ctx context.Context) (*domain.RateTable, error) {
	const key = domain.LiveTable

	if table, ok := s.cached(ctx, key); ok {
		return table, nil
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	table, err := s.client.LiveRates(ctx, s.base)
	if err != nil {
		s.logger.Warn("live rate fetch failed", "base", s.base, "error", err)
		return nil, err
	}

	s.remember(ctx, key, table)
	s.logger.Info("live rates fetched", "base", s.base, "count", len(table.Rates))
	return table, nil
}

// HistoricalRates returns the rate table in effect on date. Today and future
// dates delegate to LiveRates, since no historical rate exists for them.
// When the provider has no data for the date, the live table is cached under
// the historical key so the same date never re-attempts a historical lookup.
func (s *Source) HistoricalRates(ctx context.Context, date time.Time) (*domain.RateTable, error) {
	today := dayStart(s.now())
	if date.IsZero() || !date.Before(today) {
		return s.LiveRates(ctx)
	}

	dateKey := date.Format(domain.DateLayout)
	if table, ok := s.cached(ctx, dateKey); ok {
		return table, nil
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	table, err := s.client.HistoricalRates(ctx, s.base, dateKey)
	if err == nil {
		s.remember(ctx, dateKey, table)
		s.logger.Info("historical rates fetched", "base", s.base, "date", dateKey)
		return table, nil
	}

	if errors.Is(err, domain.ErrRateUnavailable) {
		s.logger.Info("no historical data for date, using live rates", "date", dateKey)
	} else {
		s.logger.Warn("historical rate fetch failed, falling back to live rates",
			"date", dateKey, "error", err)
	}

	live, liveErr := s.LiveRates(ctx)
	if liveErr != nil {
		return nil, err
	}
	// Pin the live table under the historical key so this date does not
	// retry the historical endpoint while the memo is fresh.
	s.remember(ctx, dateKey, live)
	return live, nil
}

// Static returns the hardcoded approximate table.
func (s *Source) Static() *domain.RateTable {
	return newStaticTable()
}

func (s *Source) cached(ctx context.Context, key string) (*domain.RateTable, bool) {
	s.mu.Lock()
	entry, ok := s.memo[key]
	s.mu.Unlock()
	if ok && s.now().Sub(entry.cachedAt) < s.ttl {
		return entry.table, true
	}

	// Memo miss: the persisted mirror may still be fresh (process restart).
	raw, found, err := s.store.Get(ctx, s.mirrorKey(key))
	if err != nil || !found {
		return nil, false
	}
	var stored storedTable
	if err := json.Unmarshal([]byte(raw), &stored); err != nil || stored.Table == nil {
		return nil, false
	}
	if s.now().Sub(stored.CachedAt) >= s.ttl {
		return nil, false
	}

	s.mu.Lock()
	s.memo[key] = memoEntry{table: stored.Table, cachedAt: stored.CachedAt}
	s.mu.Unlock()
	s.logger.Debug("rate table restored from mirror", "key", key)
	return stored.Table, true
}

func (s *Source) remember(ctx context.Context, key string, table *domain.RateTable) {
	cachedAt := s.now()

	s.mu.Lock()
	s.memo[key] = memoEntry{table: table, cachedAt: cachedAt}
	s.mu.Unlock()

	raw, err := json.Marshal(storedTable{Table: table, CachedAt: cachedAt})
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, s.mirrorKey(key), string(raw)); err != nil {
		s.logger.Warn("failed to persist rate table mirror", "key", key, "error", err)
	}
}

func (s *Source) mirrorKey(key string) string {
	return "rates:" + s.base.String() + ":" + key
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
