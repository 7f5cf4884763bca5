package rates

import (
	"github.com/finvoq/fxcache/pkg/currency"
	"github.com/finvoq/fxcache/pkg/domain"
)

// staticRates are approximate rates for major currencies, USD base. They are
// the last fallback tier, used only when both network tiers fail outright,
// so reported totals stay usable instead of blocking on a dead provider.
var staticRates = map[currency.Code]float64{
	"EUR": 0.92,
	"GBP": 0.79,
	"JPY": 149.50,
	"CHF": 0.88,
	"CAD": 1.36,
	"AUD": 1.52,
	"NZD": 1.64,
	"CNY": 7.24,
	"INR": 83.10,
	"SEK": 10.45,
	"NOK": 10.60,
	"DKK": 6.86,
	"PLN": 3.98,
	"MXN": 17.05,
	"BRL": 4.97,
	"ZAR": 18.70,
	"SGD": 1.34,
	"HKD": 7.82,
}

func newStaticTable() *domain.RateTable {
	return domain.NewRateTable(currency.Default, staticRates, domain.StaticTable)
}
