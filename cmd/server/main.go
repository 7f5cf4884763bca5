package main

import (
	"context"
	"fmt"
	"log/slog"

	log "github.com/charmbracelet/log"

	"github.com/finvoq/fxcache/config"
	infrakv "github.com/finvoq/fxcache/infra/kv"
	"github.com/finvoq/fxcache/infra/provider/ratesapi"
	"github.com/finvoq/fxcache/pkg/cache"
	"github.com/finvoq/fxcache/pkg/currency"
	"github.com/finvoq/fxcache/pkg/kv"
	"github.com/finvoq/fxcache/pkg/ratelimit"
	"github.com/finvoq/fxcache/pkg/rates"
	"github.com/finvoq/fxcache/pkg/service/conversion"
	"github.com/finvoq/fxcache/pkg/settings"
	"github.com/finvoq/fxcache/webapi"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	logger := slog.Default()

	cfg, err := config.Load(logger)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store := newStore(cfg, logger)

	base, err := currency.Parse(cfg.Provider.BaseCurrency)
	if err != nil {
		return fmt.Errorf("invalid base currency: %w", err)
	}
	target, err := currency.Parse(cfg.Settings.TargetCurrency)
	if err != nil {
		return fmt.Errorf("invalid target currency: %w", err)
	}

	limiter := ratelimit.New(cfg.Provider.RateLimitDelay)
	client := ratesapi.New(cfg.Provider, logger)
	source := rates.NewSource(client, limiter, store, base, cfg.Provider.TableTTL, logger)
	chain := rates.NewChain(source, logger)

	conversions := cache.New(context.Background(), store, cfg.Cache, logger)
	targets := settings.NewMemory(target)
	svc := conversion.New(chain, conversions, targets, logger)

	app := webapi.NewApp(svc, targets, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	logger.Info("starting server", "env", cfg.Env, "addr", addr)
	return app.Listen(addr)
}

// newStore prefers Redis and falls back to an in-process store, so the
// subsystem stays usable without a cache server; persistence is simply
// lost across restarts in that mode.
func newStore(cfg *config.App, logger *slog.Logger) kv.Store {
	store, err := infrakv.NewRedis(cfg.Redis.URL, cfg.Redis.Prefix, logger)
	if err != nil {
		logger.Warn("redis unavailable, using in-memory store", "error", err)
		return infrakv.NewMemory()
	}
	return store
}
