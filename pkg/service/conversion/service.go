// Package conversion is the public entry point of the subsystem: it
// converts single amounts or batches, consulting the conversion cache
// first, resolving misses through the fallback chain, and writing results
// back. Nothing here fails in normal operation; failures degrade into
// lower-confidence results.
package conversion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/finvoq/fxcache/pkg/cache"
	"github.com/finvoq/fxcache/pkg/currency"
	"github.com/finvoq/fxcache/pkg/domain"
	"github.com/finvoq/fxcache/pkg/money"
	"github.com/finvoq/fxcache/pkg/settings"
)

// RateResolver produces a usable rate for any request; the fallback chain
// implements it.
type RateResolver interface {
	Resolve(ctx context.Context, from, to currency.Code, asOf time.Time) (float64, domain.RateOrigin)
}

// Service converts amounts between currencies using historical rates.
type Service struct {
	resolver RateResolver
	cache    *cache.Cache
	settings settings.Provider
	logger   *slog.Logger

	// inflight collapses concurrent misses on the same cache key so a
	// burst of identical lookups hits the provider once.
	inflight singleflight.Group

	now func() time.Time
}

// New creates the conversion service.
func New(resolver RateResolver, c *cache.Cache, sp settings.Provider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		resolver: resolver,
		cache:    c,
		settings: sp,
		logger:   logger.With("component", "conversion_service"),
		now:      time.Now,
	}
}

// ConvertOne converts a single amount. The only returned errors are
// malformed currency codes; every lookup failure degrades into the result
// instead.
func (s *Service) ConvertOne(ctx context.Context, req domain.ConversionRequest) (domain.ConversionResult, error) {
	target, hash := s.settingsContext(ctx)
	return s.convert(ctx, req, target, hash)
}

// ConvertBatch converts a batch concurrently. The target currency is
// resolved once for the whole batch, and the returned slice is aligned
// positionally with the input regardless of completion order. A single
// item's failure never fails the batch.
func (s *Service) ConvertBatch(ctx context.Context, reqs []domain.ConversionRequest) ([]domain.ConversionResult, error) {
	results := make([]domain.ConversionResult, len(reqs))
	if len(reqs) == 0 {
		return results, nil
	}

	target, hash := s.settingsContext(ctx)

	var wg sync.WaitGroup
	for i, req := range reqs {
		to := req.To
		if to == "" {
			to = target
		}
		if req.From == to {
			results[i] = s.identityResult(req, to)
			continue
		}

		wg.Add(1)
		go func(i int, req domain.ConversionRequest) {
			defer wg.Done()
			result, err := s.convert(ctx, req, target, hash)
			if err != nil {
				s.logger.Error("batch item degraded to identity result",
					"request_id", req.RequestID, "error", err)
				result = s.identityResult(req, to)
			}
			results[i] = result
		}(i, req)
	}
	wg.Wait()

	return results, nil
}

// InvalidateCache clears every cached conversion; called on logout and on
// hard-reset settings changes.
func (s *Service) InvalidateCache(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}

// CacheStats reports cache observability counters.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

func (s *Service) convert(ctx context.Context, req domain.ConversionRequest, target currency.Code, hash string) (domain.ConversionResult, error) {
	to := req.To
	if to == "" {
		to = target
	}
	if !req.From.IsValid() {
		return domain.ConversionResult{}, fmt.Errorf("invalid source currency %q", req.From)
	}
	if !to.IsValid() {
		return domain.ConversionResult{}, fmt.Errorf("invalid target currency %q", to)
	}

	dateKey := s.dateKey(req.AsOf)
	if req.From == to {
		return s.identityResult(req, to), nil
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	key := cache.Key(requestID, req.Amount, req.From, to, dateKey, hash)
	if entry, ok := s.cache.Get(key, hash); ok {
		s.logger.Debug("conversion served from cache", "key", key)
		return entry.Result, nil
	}

	value, _, _ := s.inflight.Do(key, func() (any, error) {
		rate, origin := s.resolver.Resolve(ctx, req.From, to, req.AsOf)
		result := domain.ConversionResult{
			OriginalAmount:   req.Amount,
			OriginalCurrency: req.From,
			ConvertedAmount:  money.Convert(req.Amount, rate),
			TargetCurrency:   to,
			ExchangeRate:     rate,
			ConversionDate:   dateKey,
			WasConverted:     origin == domain.OriginHistorical || origin == domain.OriginLive,
			Source:           origin,
		}
		s.cache.Put(ctx, &cache.Entry{
			Result:       result,
			RequestID:    requestID,
			Key:          key,
			SettingsHash: hash,
		})
		return result, nil
	})
	return value.(domain.ConversionResult), nil
}

// settingsContext resolves the reporting currency once and derives the
// settings hash from it. An unavailable settings provider means USD, never
// an error.
func (s *Service) settingsContext(ctx context.Context) (currency.Code, string) {
	target, err := s.settings.TargetCurrency(ctx)
	if err != nil || !target.IsValid() {
		s.logger.Warn("target currency unavailable, defaulting",
			"default", currency.Default, "error", err)
		target = currency.Default
	}
	return target, settings.Hash(target)
}

func (s *Service) identityResult(req domain.ConversionRequest, to currency.Code) domain.ConversionResult {
	return domain.ConversionResult{
		OriginalAmount:   req.Amount,
		OriginalCurrency: req.From,
		ConvertedAmount:  req.Amount,
		TargetCurrency:   to,
		ExchangeRate:     1,
		ConversionDate:   s.dateKey(req.AsOf),
		WasConverted:     false,
		Source:           domain.OriginIdentity,
	}
}

func (s *Service) dateKey(asOf time.Time) string {
	if asOf.IsZero() {
		asOf = s.now()
	}
	return asOf.Format(domain.DateLayout)
}
