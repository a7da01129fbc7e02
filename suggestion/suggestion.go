// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package suggestion

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcwallet/wallet/txauthor"
	"github.com/btcsuite/changeless/coinselect"
	"github.com/shopspring/decimal"
)

var (
	// ErrMissingSelector is returned when a generator has no selector.
	ErrMissingSelector = errors.New("missing selector")

	// ErrMissingMaterializer is returned when a generator has no
	// materializer.
	ErrMissingMaterializer = errors.New("missing materializer")

	// ErrMissingRateSource is returned when a generator has no rate
	// source.
	ErrMissingRateSource = errors.New("missing rate source")
)

// Suggestion is a changeless alternative to a payment, ready to be presented
// to the user.
type Suggestion struct {
	// Tx is the unsigned transaction of the suggestion.
	Tx *txauthor.AuthoredTx

	// Candidate is the selection the transaction spends.
	Candidate coinselect.Candidate

	// Amount is what the destination receives.
	Amount btcutil.Amount

	// AmountFiat is Amount converted to fiat.
	AmountFiat decimal.Decimal

	// Difference is the fiat value of Amount minus the amount originally
	// requested.
	Difference decimal.Decimal

	// AmountText renders Amount, e.g. "0.0012 BTC".
	AmountText string

	// AmountFiatText renders AmountFiat, e.g. "36.00 USD".
	AmountFiatText string

	// DifferenceText renders Difference, e.g. "1.20 USD More".
	DifferenceText string
}

// newSuggestion prices a materialized candidate.
func newSuggestion(original btcutil.Amount, c coinselect.Candidate,
	tx *txauthor.AuthoredTx, rate decimal.Decimal,
	currency string) *Suggestion {

	amount := c.DestinationAmount()
	amountFiat := ToFiat(amount, rate)
	difference := amountFiat.Sub(ToFiat(original, rate))

	var differenceText string
	if difference.IsPositive() {
		differenceText = FormatFiat(difference, currency) + " More"
	} else {
		differenceText = FormatFiat(difference.Abs(), currency) + " Less"
	}

	return &Suggestion{
		Tx:             tx,
		Candidate:      c,
		Amount:         amount,
		AmountFiat:     amountFiat,
		Difference:     difference,
		AmountText:     amount.String(),
		AmountFiatText: FormatFiat(amountFiat, currency),
		DifferenceText: differenceText,
	}
}

// Generator turns the candidates of a selection run into suggestions.
type Generator struct {
	// Selector finds the changeless selections.
	Selector *coinselect.Selector

	// Materializer builds the transaction of each selection.
	Materializer coinselect.TxMaterializer

	// Rates provides the exchange rate used to price the suggestions.
	Rates RateSource

	// Currency is the fiat currency of the rate. It defaults to
	// DefaultCurrency.
	Currency string
}

// Suggestions starts a selection run for the request and returns the
// resulting suggestions. The exchange rate is read once, before the first
// suggestion, so that every suggestion of the batch is priced the same.
// Selections that can't be materialized are skipped. The run ends when the
// sequence is exhausted, when the caller stops iterating or when ctx is
// cancelled.
func (g *Generator) Suggestions(ctx context.Context, pool *coinselect.Pool,
	req *coinselect.Request) (iter.Seq[*Suggestion], error) {

	switch {
	case g.Selector == nil:
		return nil, ErrMissingSelector

	case g.Materializer == nil:
		return nil, ErrMissingMaterializer

	case g.Rates == nil:
		return nil, ErrMissingRateSource
	}

	rate, err := g.Rates.ExchangeRate(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch exchange rate: %w", err)
	}

	if err := validateRate(rate); err != nil {
		return nil, err
	}

	currency := g.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	stream, err := g.Selector.Search(ctx, pool, req)
	if err != nil {
		return nil, err
	}

	log.Debugf("Generating suggestions for %v at %v %s/BTC", req.Target,
		rate, currency)

	return func(yield func(*Suggestion) bool) {
		defer stream.Close()

		for candidate := range stream.All() {
			tx, err := g.Materializer.Materialize(
				&candidate, req.Destination, req.FeeRate,
			)
			if err != nil {
				log.Warnf("Skipping selection %v: %v", &candidate,
					err)

				continue
			}

			suggestion := newSuggestion(
				req.Target, candidate, tx, rate, currency,
			)
			if !yield(suggestion) {
				return
			}
		}

		for _, fault := range stream.Faults() {
			log.Debugf("Selection run fault: %v", fault)
		}
	}, nil
}
