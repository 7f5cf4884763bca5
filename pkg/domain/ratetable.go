package domain

import (
	"fmt"
	"math"

	"github.com/finvoq/fxcache/pkg/currency"
)

// AsOf markers for tables that are not tied to a historical date.
const (
	LiveTable   = "live"
	StaticTable = "static"
)

// RateTable holds a full set of rates relative to one base currency, for a
// specific date or for "now". Rates[Base] is always 1; constructors inject
// it rather than trusting the provider response.
type RateTable struct {
	Base  currency.Code             `json:"base"`
	Rates map[currency.Code]float64 `json:"rates"`
	AsOf  string                    `json:"as_of"`
}

// NewRateTable builds a table from a provider rate map, injecting the
// base rate of 1.
func NewRateTable(base currency.Code, rates map[currency.Code]float64, asOf string) *RateTable {
	m := make(map[currency.Code]float64, len(rates)+1)
	for code, r := range rates {
		m[code] = r
	}
	m[base] = 1
	return &RateTable{Base: base, Rates: m, AsOf: asOf}
}

// Cross computes the from→to rate by triangulating through the table's base
// currency. A missing, zero, or non-finite rate for either side is reported
// as ErrRateUnavailable so the caller escalates to the next fallback tier
// instead of producing Inf or NaN.
func (t *RateTable) Cross(from, to currency.Code) (float64, error) {
	if from == to {
		return 1, nil
	}

	fromRate, okFrom := t.Rates[from]
	toRate, okTo := t.Rates[to]
	if !okFrom || !okTo || !usable(fromRate) || !usable(toRate) {
		return 0, fmt.Errorf("%w: no %s/%s rate in %s table", ErrRateUnavailable, from, to, t.AsOf)
	}

	switch {
	case from == t.Base:
		return toRate, nil
	case to == t.Base:
		return 1 / fromRate, nil
	default:
		return toRate / fromRate, nil
	}
}

func usable(rate float64) bool {
	return rate > 0 && !math.IsNaN(rate) && !math.IsInf(rate, 0)
}
