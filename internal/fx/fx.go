// Package fx normalises amounts into the dataset's reporting currency.
package fx

import (
	"fmt"

	"github.com/shopspring/decimal"

	"cfo-copilot/internal/dataset"
)

// MissingRateError reports that no FX rate exists for a currency at or
// before the requested period. It must reach the caller: substituting zero
// here would silently corrupt every aggregate computed downstream.
type MissingRateError struct {
	Currency string
	Period   dataset.Period
}

func (e *MissingRateError) Error() string {
	return fmt.Sprintf("no %s rate recorded at or before %s", e.Currency, e.Period)
}

// RateFor resolves the rate converting one unit of currency into the
// reporting currency for a period. An exact (period, currency) match wins;
// otherwise the nearest strictly-prior period's rate is used, since close
// processes often lag FX publication. The reporting currency itself is
// always 1.
func RateFor(currency string, period dataset.Period, data *dataset.Context) (decimal.Decimal, error) {
	if currency == data.BaseCurrency() {
		return decimal.NewFromInt(1), nil
	}

	earliest, ok := data.EarliestRatePeriod(currency)
	if !ok || period.Before(earliest) {
		return decimal.Decimal{}, &MissingRateError{Currency: currency, Period: period}
	}

	for p := period; !p.Before(earliest); p = p.AddMonths(-1) {
		if rate, ok := data.Rate(p, currency); ok {
			return rate, nil
		}
	}

	return decimal.Decimal{}, &MissingRateError{Currency: currency, Period: period}
}

// ToReporting converts an amount from its native currency into the
// reporting currency at the given period.
func ToReporting(amount decimal.Decimal, currency string, period dataset.Period, data *dataset.Context) (decimal.Decimal, error) {
	if currency == data.BaseCurrency() {
		return amount, nil
	}
	rate, err := RateFor(currency, period, data)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return amount.Mul(rate), nil
}

// FromReporting converts a reporting-currency amount back into a native
// currency at the given period, using the same rate resolution as
// ToReporting.
func FromReporting(amount decimal.Decimal, currency string, period dataset.Period, data *dataset.Context) (decimal.Decimal, error) {
	if currency == data.BaseCurrency() {
		return amount, nil
	}
	rate, err := RateFor(currency, period, data)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if rate.IsZero() {
		return decimal.Decimal{}, &MissingRateError{Currency: currency, Period: period}
	}
	return amount.Div(rate), nil
}
