package webapi

import (
	"fmt"
	"time"

	"github.com/finvoq/fxcache/pkg/currency"
	"github.com/finvoq/fxcache/pkg/domain"
)

// ConvertRequest is the wire shape for a single conversion.
type ConvertRequest struct {
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	From      string  `json:"from_currency" validate:"required,len=3,alpha"`
	To        string  `json:"to_currency" validate:"omitempty,len=3,alpha"`
	AsOf      string  `json:"as_of_date" validate:"omitempty,datetime=2006-01-02"`
	RequestID string  `json:"request_id" validate:"omitempty,max=128"`
}

// BatchConvertRequest wraps a batch of conversions.
type BatchConvertRequest struct {
	Items []ConvertRequest `json:"items" validate:"required,min=1,max=500,dive"`
}

// SetCurrencyRequest changes the reporting currency. HardReset additionally
// clears the conversion cache instead of relying on key-shadowing.
type SetCurrencyRequest struct {
	Currency  string `json:"currency" validate:"required,len=3,alpha"`
	HardReset bool   `json:"hard_reset"`
}

func (r ConvertRequest) toDomain() (domain.ConversionRequest, error) {
	from, err := currency.Parse(r.From)
	if err != nil {
		return domain.ConversionRequest{}, err
	}

	var to currency.Code
	if r.To != "" {
		if to, err = currency.Parse(r.To); err != nil {
			return domain.ConversionRequest{}, err
		}
	}

	var asOf time.Time
	if r.AsOf != "" {
		if asOf, err = time.Parse(domain.DateLayout, r.AsOf); err != nil {
			return domain.ConversionRequest{}, fmt.Errorf("invalid as_of_date %q", r.AsOf)
		}
	}

	return domain.ConversionRequest{
		Amount:    r.Amount,
		From:      from,
		To:        to,
		AsOf:      asOf,
		RequestID: r.RequestID,
	}, nil
}
