package domain

import "errors"

// Failure taxonomy for rate lookups. Every one of these is absorbed inside
// the conversion subsystem; callers of the conversion service only ever see
// a degraded result, never an error.
var (
	// ErrNetwork indicates the provider request could not be sent or received.
	ErrNetwork = errors.New("rate provider unreachable")

	// ErrRateUnavailable indicates the provider is reachable but has no data
	// for the requested date or currency.
	ErrRateUnavailable = errors.New("exchange rate unavailable")

	// ErrInvalidResponse indicates a malformed or empty rate table was returned.
	ErrInvalidResponse = errors.New("invalid rate provider response")

	// ErrSettingsUnavailable indicates the target currency could not be determined.
	ErrSettingsUnavailable = errors.New("settings unavailable")
)

// ProviderError wraps an error from a named rate provider.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return "provider " + e.Provider + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
