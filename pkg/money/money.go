// Package money holds the arithmetic for applying an exchange rate to a
// monetary amount. Amounts cross the subsystem boundary as float64, so the
// multiplication goes through decimal to keep cent rounding exact.
package money

import "github.com/shopspring/decimal"

// CentPrecision is the number of decimal places converted amounts are
// rounded to.
const CentPrecision = 2

// Convert applies rate to amount and rounds to cent precision.
func Convert(amount, rate float64) float64 {
	converted := decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(rate))
	return converted.Round(CentPrecision).InexactFloat64()
}
