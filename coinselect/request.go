// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselect

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/changeless/pkg/btcunit"
)

var (
	// ErrInvalidRequest is the parent of every error returned when a
	// selection request is rejected before any search begins.
	ErrInvalidRequest = errors.New("invalid selection request")

	// ErrNilRequest is returned when a nil request is submitted.
	ErrNilRequest = fmt.Errorf("%w: nil request", ErrInvalidRequest)

	// ErrInvalidTarget is returned when the target amount isn't positive.
	ErrInvalidTarget = fmt.Errorf("%w: target amount must be positive",
		ErrInvalidRequest)

	// ErrInvalidFeeRate is returned when the fee rate isn't positive.
	ErrInvalidFeeRate = fmt.Errorf("%w: fee rate must be positive",
		ErrInvalidRequest)

	// ErrFeeRateTooLarge is returned when the fee rate is larger than
	// btcunit.DefaultMaxFeeRate.
	ErrFeeRateTooLarge = fmt.Errorf("%w: fee rate too large",
		ErrInvalidRequest)

	// ErrMissingDestination is returned when the request carries no
	// destination script.
	ErrMissingDestination = fmt.Errorf("%w: missing destination",
		ErrInvalidRequest)

	// ErrInvalidStrategy is returned when a strategy carries invalid
	// parameters or is not one of the supported strategies.
	ErrInvalidStrategy = fmt.Errorf("%w: invalid strategy",
		ErrInvalidRequest)
)

// Request describes one changeless selection run. A request must not be
// modified once it has been submitted to Search.
type Request struct {
	// Target is the amount the destination must receive at least. This
	// field is required.
	Target btcutil.Amount

	// FeeRate is the fee rate of the resulting transaction, expressed in
	// sat/kvb. This field is required.
	FeeRate btcunit.SatPerKVByte

	// Destination is the output script paying the recipient. The script
	// is expected to have been validated by the caller already. This
	// field is required.
	Destination []byte

	// Strategies optionally overrides the strategies configured on the
	// selector for this request only, e.g. to pin the seed of a random
	// search.
	Strategies []Strategy
}

// validateRequest performs a series of checks on a request to ensure it is
// well-formed. It is called synchronously before any search is started.
func validateRequest(req *Request) error {
	if req == nil {
		return ErrNilRequest
	}

	if req.Target <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidTarget, req.Target)
	}

	if req.FeeRate.LessThanOrEqual(btcunit.ZeroSatPerKVByte) {
		return fmt.Errorf("%w: got %v", ErrInvalidFeeRate, req.FeeRate)
	}

	// Ensure the fee rate is not "insane". This prevents users from
	// accidentally paying exorbitant fees.
	if req.FeeRate.GreaterThan(btcunit.DefaultMaxFeeRate) {
		return fmt.Errorf("%w: fee rate of %s is too high, max sane "+
			"fee rate is %s", ErrFeeRateTooLarge, req.FeeRate,
			btcunit.DefaultMaxFeeRate)
	}

	if len(req.Destination) == 0 {
		return ErrMissingDestination
	}

	return validateStrategies(req.Strategies)
}
