// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package btcunit provides a set of types for dealing with bitcoin fee rates
// and transaction sizes using exact integer arithmetic.
package btcunit

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/btcsuite/btcd/btcutil"
)

const (
	// kilo is a generic multiplier for kilo units.
	kilo = 1000
)

var (
	// ErrFeeOverflow is returned when a fee calculation does not fit into
	// an int64 amount.
	ErrFeeOverflow = errors.New("fee calculation overflows")

	// ErrNegativeFeeRate is returned when a fee is requested for a
	// negative fee rate.
	ErrNegativeFeeRate = errors.New("negative fee rate")
)

var (
	// ZeroSatPerKVByte is a fee rate of 0 sat/kvb.
	ZeroSatPerKVByte = SatPerKVByte(0)

	// DefaultMaxFeeRate is the maximum fee rate in sat/kvb that is
	// considered sane. This is currently set to 1000 sat/vb (1,000,000
	// sat/kvb).
	//
	//nolint:mnd // 1M sat/kvb default max fee.
	DefaultMaxFeeRate = SatPerKVByte(1_000_000)
)

// SatPerVByte represents a fee rate in sat/vbyte.
type SatPerVByte btcutil.Amount

// NewSatPerVByte creates a new fee rate in sat/vb.
func NewSatPerVByte(rate btcutil.Amount) SatPerVByte {
	return SatPerVByte(rate)
}

// ToSatPerKVByte converts the fee rate to sat/kvb. The conversion is exact.
func (s SatPerVByte) ToSatPerKVByte() SatPerKVByte {
	return SatPerKVByte(s * kilo)
}

// String returns a human-readable string of the fee rate.
func (s SatPerVByte) String() string {
	return fmt.Sprintf("%d sat/vb", int64(s))
}

// SatPerKVByte represents a fee rate in sat/kvb. This is the unit expected by
// the txauthor and txrules packages.
type SatPerKVByte btcutil.Amount

// NewSatPerKVByte creates a new fee rate in sat/kvb.
func NewSatPerKVByte(rate btcutil.Amount) SatPerKVByte {
	return SatPerKVByte(rate)
}

// Val returns the fee rate as a plain amount per kilo-vbyte.
func (s SatPerKVByte) Val() btcutil.Amount {
	return btcutil.Amount(s)
}

// FeeForVSize calculates the fee resulting from this fee rate and the given
// virtual size. The result is rounded down, matching
// txrules.FeeForSerializeSize, so that fees computed here agree with the ones
// computed while authoring a transaction.
func (s SatPerKVByte) FeeForVSize(vb VByte) (btcutil.Amount, error) {
	if s < 0 {
		return 0, fmt.Errorf("%w: %v", ErrNegativeFeeRate, s)
	}

	hi, lo := bits.Mul64(uint64(s), vb.Val())
	if hi != 0 || lo > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %v for %v", ErrFeeOverflow, s, vb)
	}

	fee := btcutil.Amount(lo / kilo)

	// txrules charges the relay fee itself for a non-empty fee rate that
	// would otherwise round down to nothing.
	if fee == 0 && s > 0 {
		fee = btcutil.Amount(s)
	}

	// Like txrules, never ask for more than the total supply.
	if fee > btcutil.MaxSatoshi {
		fee = btcutil.MaxSatoshi
	}

	return fee, nil
}

// GreaterThan returns true if the fee rate is greater than the other fee rate.
func (s SatPerKVByte) GreaterThan(other SatPerKVByte) bool {
	return s > other
}

// LessThanOrEqual returns true if the fee rate is less than or equal to the
// other fee rate.
func (s SatPerKVByte) LessThanOrEqual(other SatPerKVByte) bool {
	return s <= other
}

// String returns a human-readable string of the fee rate.
func (s SatPerKVByte) String() string {
	return fmt.Sprintf("%d sat/kvb", int64(s))
}
