// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselect

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/mempool"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/wallet/txsizes"
	"github.com/lightningnetwork/lnd/fn/v2"
)

const (
	// DefaultExhaustiveMaxInputs is the largest subset size explored by
	// the default exhaustive strategy.
	DefaultExhaustiveMaxInputs = 4

	// DefaultExhaustiveMaxAttempts is the number of subsets the default
	// exhaustive strategy visits before giving up.
	DefaultExhaustiveMaxAttempts = 500_000

	// DefaultRandomMaxInputs is the largest subset size proposed by the
	// default random strategy.
	DefaultRandomMaxInputs = 8

	// DefaultRandomAttempts is the number of shuffles performed by the
	// default random strategy.
	DefaultRandomAttempts = 1000

	// DefaultPrefetchDepth is the number of candidates each parallel
	// branch may compute ahead of the consumer.
	DefaultPrefetchDepth = 16
)

var (
	// ErrInvalidConfig is returned when a selector is created from an
	// invalid configuration.
	ErrInvalidConfig = errors.New("invalid selector config")

	// ErrNoStrategies is returned when the configuration carries no
	// strategy.
	ErrNoStrategies = fmt.Errorf("%w: at least one strategy is required",
		ErrInvalidConfig)

	// ErrMissingFeeEstimator is returned when the configuration carries no
	// fee estimator.
	ErrMissingFeeEstimator = fmt.Errorf("%w: missing fee estimator",
		ErrInvalidConfig)
)

// Config holds the policy parameters of a Selector. The values are captured
// when a run starts and never re-read while it is in progress.
type Config struct {
	// DustThreshold is the smallest excess that would warrant a change
	// output. When unset it is derived for every request from the relay
	// dust limit of the destination script.
	DustThreshold fn.Option[btcutil.Amount]

	// Strategies are run in order for every request that doesn't
	// override them.
	Strategies []Strategy

	// FeeEstimator prices a selection.
	FeeEstimator FeeEstimator

	// Parallel runs the strategies of a request concurrently. Candidates
	// are still delivered in strategy order.
	Parallel bool

	// PrefetchDepth bounds the number of candidates a parallel branch
	// computes ahead of the consumer. Zero means unbuffered.
	PrefetchDepth int
}

// DefaultConfig returns a configuration running an exhaustive search
// followed by a random one, priced for P2WKH inputs paying to a P2WKH output.
func DefaultConfig() *Config {
	return &Config{
		Strategies: []Strategy{
			&ExhaustiveStrategy{
				MaxInputs:   DefaultExhaustiveMaxInputs,
				MaxAttempts: DefaultExhaustiveMaxAttempts,
			},
			&RandomStrategy{
				MaxInputs: DefaultRandomMaxInputs,
				Attempts:  DefaultRandomAttempts,
			},
		},
		FeeEstimator: &VSizeFeeEstimator{
			InputType:        InputP2WKH,
			OutputScriptSize: txsizes.P2WPKHPkScriptSize,
		},
		PrefetchDepth: DefaultPrefetchDepth,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}

	var dustErr error
	c.DustThreshold.WhenSome(func(dust btcutil.Amount) {
		if dust < 0 {
			dustErr = fmt.Errorf("%w: dust threshold must not be "+
				"negative, got %v", ErrInvalidConfig, dust)
		}
	})
	if dustErr != nil {
		return dustErr
	}

	if len(c.Strategies) == 0 {
		return ErrNoStrategies
	}

	if err := validateStrategies(c.Strategies); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if c.FeeEstimator == nil {
		return ErrMissingFeeEstimator
	}

	if c.PrefetchDepth < 0 {
		return fmt.Errorf("%w: prefetch depth must not be negative, "+
			"got %d", ErrInvalidConfig, c.PrefetchDepth)
	}

	return nil
}

// dustThreshold returns the dust threshold of a run paying to destination.
// Unless configured, it is the relay dust limit of an output carrying the
// destination script.
func (c *Config) dustThreshold(destination []byte) btcutil.Amount {
	return c.DustThreshold.UnwrapOrFunc(func() btcutil.Amount {
		txOut := &wire.TxOut{PkScript: destination}

		return btcutil.Amount(mempool.GetDustThreshold(txOut))
	})
}
