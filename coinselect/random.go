// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselect

import (
	"context"
	"fmt"
	"iter"
	"math/rand"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// RandomStrategy repeatedly shuffles the pool and accumulates coins in the
// shuffled order until the target and the fee are covered, proposing the
// resulting subset when it has at most MaxInputs coins. It scales to pools
// that are too large for an exhaustive search.
type RandomStrategy struct {
	// MaxInputs is the largest subset size proposed. It must be
	// positive.
	MaxInputs int

	// Attempts is the number of shuffles performed. It must be positive.
	Attempts int

	// Seed optionally seeds the random source. Two runs with the same
	// pool, request and seed propose the same subsets. When unset a fresh
	// seed is drawn and logged.
	Seed fn.Option[int64]
}

// String returns the name of the strategy.
func (s *RandomStrategy) String() string {
	return "random"
}

// isStrategy implements the Strategy interface.
func (*RandomStrategy) isStrategy() {}

// validate checks the policy parameters of the strategy.
func (s *RandomStrategy) validate() error {
	if s.MaxInputs <= 0 {
		return fmt.Errorf("%w: %v max inputs must be positive, got %d",
			ErrInvalidStrategy, s, s.MaxInputs)
	}

	if s.Attempts <= 0 {
		return fmt.Errorf("%w: %v attempts must be positive, got %d",
			ErrInvalidStrategy, s, s.Attempts)
	}

	return nil
}

// proposals samples subsets of the view.
func (s *RandomStrategy) proposals(ctx context.Context,
	view *searchView) iter.Seq2[[]int, error] {

	return func(yield func([]int, error) bool) {
		seed := s.Seed.UnwrapOrFunc(rand.Int63)
		if s.Seed.IsNone() {
			log.Debugf("Random strategy using seed %d", seed)
		}
		rng := rand.New(rand.NewSource(seed))

		// Skip coins that don't pay for their own input.
		marginal, err := view.marginalFee()
		if err != nil {
			yield(nil, err)
			return
		}

		// Start from the sorted order so the permutation only depends
		// on the seed and not on the order the pool was built in.
		perm := make([]int, 0, len(view.order))
		for _, idx := range view.order {
			if view.amount(idx) <= marginal {
				continue
			}
			perm = append(perm, idx)
		}

		if len(perm) == 0 {
			return
		}

		for attempt := 0; attempt < s.Attempts; attempt++ {
			if ctx.Err() != nil {
				return
			}

			rng.Shuffle(len(perm), func(i, j int) {
				perm[i], perm[j] = perm[j], perm[i]
			})

			var sum btcutil.Amount
			for size := 1; size <= len(perm) && size <= s.MaxInputs; size++ {
				sum, err = addAmounts(sum, view.amount(perm[size-1]))
				if err != nil {
					yield(nil, err)
					return
				}

				fee, err := view.fee(size)
				if err != nil {
					yield(nil, err)
					return
				}

				if sum-fee < view.target {
					continue
				}

				if !yield(perm[:size], nil) {
					return
				}

				break
			}
		}
	}
}
