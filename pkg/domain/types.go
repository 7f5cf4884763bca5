package domain

import (
	"time"

	"github.com/finvoq/fxcache/pkg/currency"
)

// DateLayout is the normalized calendar-date form used for provider calls
// and cache keys.
const DateLayout = "2006-01-02"

// RateOrigin identifies which tier of the fallback chain produced a rate.
type RateOrigin string

const (
	// OriginIdentity marks a same-currency no-op, no rate was looked up.
	OriginIdentity RateOrigin = "identity"
	// OriginHistorical marks a provider-confirmed rate for the requested date.
	OriginHistorical RateOrigin = "historical"
	// OriginLive marks the current rate, used for today/future dates or when
	// the provider has no data for the requested date.
	OriginLive RateOrigin = "live"
	// OriginStatic marks the hardcoded approximate table, used when every
	// network tier failed.
	OriginStatic RateOrigin = "static"
)

// ConversionRequest asks for an amount recorded in one currency on a past
// date to be expressed in another currency. RequestID identifies the
// originating business record (an invoice, an expense line) and feeds into
// the cache key.
type ConversionRequest struct {
	Amount    float64       `json:"amount"`
	From      currency.Code `json:"from_currency"`
	To        currency.Code `json:"to_currency"`
	AsOf      time.Time     `json:"as_of_date"`
	RequestID string        `json:"request_id"`
}

// ConversionResult is the only output shape of the subsystem. WasConverted
// false signals a same-currency no-op or a degraded fallback; true only
// promises that some non-identity rate was applied.
type ConversionResult struct {
	OriginalAmount   float64       `json:"original_amount"`
	OriginalCurrency currency.Code `json:"original_currency"`
	ConvertedAmount  float64       `json:"converted_amount"`
	TargetCurrency   currency.Code `json:"target_currency"`
	ExchangeRate     float64       `json:"exchange_rate"`
	ConversionDate   string        `json:"conversion_date"`
	WasConverted     bool          `json:"was_converted"`
	Source           RateOrigin    `json:"source"`
}
