package config

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Provider configures the remote rate-data provider client.
type Provider struct {
	ApiKey         string        `envconfig:"API_KEY"`
	ApiUrl         string        `envconfig:"API_URL" default:"https://api.ratesdata.io"`
	BaseCurrency   string        `envconfig:"BASE_CURRENCY" default:"USD"`
	HTTPTimeout    time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`
	RateLimitDelay time.Duration `envconfig:"RATE_LIMIT_DELAY" default:"2s"`
	TableTTL       time.Duration `envconfig:"TABLE_TTL" default:"10m"`
}

// Cache configures the persistent conversion cache.
type Cache struct {
	MaxAge       time.Duration `envconfig:"MAX_AGE" default:"168h"`
	MaxSize      int           `envconfig:"MAX_SIZE" default:"1000"`
	CleanupEvery int           `envconfig:"CLEANUP_EVERY" default:"25"`
	Version      string        `envconfig:"VERSION" default:"v1"`
}

type Redis struct {
	URL    string `envconfig:"URL" default:"redis://localhost:6379/0"`
	Prefix string `envconfig:"PREFIX" default:"fxcache:"`
}

type Settings struct {
	TargetCurrency string `envconfig:"TARGET_CURRENCY" default:"USD"`
}

type App struct {
	Env      string   `envconfig:"APP_ENV" default:"development"`
	Host     string   `envconfig:"APP_HOST" default:"localhost"`
	Port     int      `envconfig:"APP_PORT" default:"3000"`
	Provider Provider `envconfig:"PROVIDER"`
	Cache    Cache    `envconfig:"CACHE"`
	Redis    Redis    `envconfig:"REDIS"`
	Settings Settings `envconfig:"SETTINGS"`
}

// Load reads configuration from the environment, optionally seeded from a
// .env file. A missing .env file is not an error.
func Load(logger *slog.Logger, envFiles ...string) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if len(envFiles) == 0 {
		if err := godotenv.Load(); err != nil {
			logger.Warn("No .env file found, using system environment variables")
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		logger.Warn("Failed to load env files, using system environment variables", "files", envFiles)
	}

	cfg := &App{}
	if err := envconfig.Process("FX", cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	logger.Info(
		"configuration loaded",
		"env", cfg.Env,
		"provider_url", maskApiKeyInUrl(cfg.Provider.ApiUrl),
		"provider_key", maskApiKey(cfg.Provider.ApiKey),
		"cache_max_age", cfg.Cache.MaxAge,
		"cache_max_size", cfg.Cache.MaxSize,
	)
	return cfg, nil
}

func maskApiKey(key string) string {
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}

var apiKeyInUrlRx = regexp.MustCompile(`(api_key=)[^&]+`)

func maskApiKeyInUrl(url string) string {
	return apiKeyInUrlRx.ReplaceAllString(url, `${1}[MASKED]`)
}
