// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package suggestion

import (
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is the fiat currency suggestions are priced in.
const DefaultCurrency = "USD"

// ErrInvalidRate is returned when an exchange rate isn't positive.
var ErrInvalidRate = errors.New("invalid exchange rate")

// satsPerBTC converts satoshis to bitcoin.
var satsPerBTC = decimal.NewFromInt(btcutil.SatoshiPerBitcoin)

// RateSource provides the exchange rate of bitcoin to a fiat currency.
type RateSource interface {
	// ExchangeRate returns the price of one bitcoin in fiat.
	ExchangeRate(ctx context.Context) (decimal.Decimal, error)
}

// StaticRate is a RateSource that always returns the same rate.
type StaticRate struct {
	// Rate is the price of one bitcoin in fiat.
	Rate decimal.Decimal
}

// ExchangeRate returns the static rate.
func (r *StaticRate) ExchangeRate(context.Context) (decimal.Decimal, error) {
	return r.Rate, nil
}

// A compile-time assertion to ensure StaticRate implements RateSource.
var _ RateSource = (*StaticRate)(nil)

// ToFiat converts an amount to fiat at the given rate.
func ToFiat(amt btcutil.Amount, rate decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(amt)).Mul(rate).Div(satsPerBTC)
}

// FormatFiat renders a fiat value rounded to cents with grouped thousands,
// e.g. "1,234.57 USD".
func FormatFiat(value decimal.Decimal, currency string) string {
	rounded := value.Round(2)

	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}

	whole := rounded.Truncate(0)
	cents := rounded.Sub(whole).Shift(2).IntPart()

	return fmt.Sprintf("%s%s.%02d %s", sign, humanize.Comma(whole.IntPart()),
		cents, currency)
}

// validateRate checks that an exchange rate is usable.
func validateRate(rate decimal.Decimal) error {
	if !rate.IsPositive() {
		return fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}

	return nil
}
