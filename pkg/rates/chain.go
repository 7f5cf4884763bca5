package rates

import (
	"context"
	"log/slog"
	"time"

	"github.com/finvoq/fxcache/pkg/currency"
	"github.com/finvoq/fxcache/pkg/domain"
)

// Chain resolves a single from→to rate through three tiers: historical
// lookup, live lookup, then the static table. Every tier failure falls
// through to the next; the chain itself never fails, it only degrades.
type Chain struct {
	source *Source
	logger *slog.Logger
}

// NewChain wraps a source in the fallback policy.
func NewChain(source *Source, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{source: source, logger: logger.With("component", "fallback_chain")}
}

// Resolve produces a usable rate for from→to as of the given date, plus the
// origin tier that produced it. Same-currency requests short-circuit before
// any tier runs.
func (c *Chain) Resolve(ctx context.Context, from, to currency.Code, asOf time.Time) (float64, domain.RateOrigin) {
	if from == to {
		return 1, domain.OriginIdentity
	}

	// Tier 1: historical. The source already delegates today/future dates
	// to the live endpoint and substitutes the live table when the provider
	// has no data for the date; table.AsOf records what actually happened.
	table, err := c.source.HistoricalRates(ctx, asOf)
	if err == nil {
		rate, crossErr := table.Cross(from, to)
		if crossErr == nil {
			return rate, originOf(table)
		}
		c.logger.Warn("rate missing from table, escalating",
			"from", from, "to", to, "as_of", table.AsOf, "error", crossErr)
	}

	// Tier 2: live. Reached when the historical tier errored outright or
	// its table lacked one of the currencies.
	table, err = c.source.LiveRates(ctx)
	if err == nil {
		if rate, crossErr := table.Cross(from, to); crossErr == nil {
			return rate, domain.OriginLive
		}
	} else {
		c.logger.Warn("live tier failed, falling back to static table",
			"from", from, "to", to, "error", err)
	}

	// Tier 3: static. Never fails; an unknown pair degrades to the identity
	// rate rather than surfacing an error.
	if rate, crossErr := c.source.Static().Cross(from, to); crossErr == nil {
		return rate, domain.OriginStatic
	}
	c.logger.Error("currency pair absent from static table, using identity rate",
		"from", from, "to", to)
	return 1, domain.OriginStatic
}

func originOf(table *domain.RateTable) domain.RateOrigin {
	if table.AsOf == domain.LiveTable {
		return domain.OriginLive
	}
	return domain.OriginHistorical
}
