package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finvoq/fxcache/pkg/currency"
)

func usdTable() *RateTable {
	return NewRateTable("USD", map[currency.Code]float64{
		"EUR": 0.85,
		"GBP": 0.73,
	}, "2024-03-15")
}

func TestNewRateTableInjectsBase(t *testing.T) {
	table := NewRateTable("USD", map[currency.Code]float64{"EUR": 0.85}, LiveTable)
	assert.Equal(t, 1.0, table.Rates["USD"])

	// A provider-supplied base rate is overridden, not trusted.
	table = NewRateTable("USD", map[currency.Code]float64{"USD": 42}, LiveTable)
	assert.Equal(t, 1.0, table.Rates["USD"])
}

func TestCross(t *testing.T) {
	tests := []struct {
		name     string
		from, to currency.Code
		want     float64
	}{
		{name: "from base", from: "USD", to: "EUR", want: 0.85},
		{name: "to base", from: "GBP", to: "USD", want: 1 / 0.73},
		{name: "triangulated", from: "EUR", to: "GBP", want: 0.73 / 0.85},
		{name: "same currency", from: "EUR", to: "EUR", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := usdTable().Cross(tt.from, tt.to)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestCrossUnavailableRates(t *testing.T) {
	table := NewRateTable("USD", map[currency.Code]float64{
		"EUR": 0.85,
		"XXX": 0,
		"YYY": math.NaN(),
		"ZZZ": math.Inf(1),
	}, LiveTable)

	for _, to := range []currency.Code{"XXX", "YYY", "ZZZ", "JPY"} {
		_, err := table.Cross("EUR", to)
		require.ErrorIs(t, err, ErrRateUnavailable, "to=%s", to)
	}

	// A zero rate must never produce Inf via the inverse path.
	_, err := table.Cross("XXX", "USD")
	require.ErrorIs(t, err, ErrRateUnavailable)
}
