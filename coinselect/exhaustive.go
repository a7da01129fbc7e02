// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselect

import (
	"context"
	"fmt"
	"iter"

	"github.com/btcsuite/btcd/btcutil"
)

// ExhaustiveStrategy explores the subsets of the pool in increasing size
// order, singletons first, up to MaxInputs coins. Within a size the coins are
// combined in descending amount order and branches that can no longer land
// inside the changeless window are pruned, which keeps the search tractable
// for small wallets.
type ExhaustiveStrategy struct {
	// MaxInputs is the largest subset size explored. It must be positive.
	MaxInputs int

	// MaxAttempts bounds the number of subsets visited, partial or
	// complete. Zero means unbounded.
	MaxAttempts int
}

// String returns the name of the strategy.
func (s *ExhaustiveStrategy) String() string {
	return "exhaustive"
}

// isStrategy implements the Strategy interface.
func (*ExhaustiveStrategy) isStrategy() {}

// validate checks the policy parameters of the strategy.
func (s *ExhaustiveStrategy) validate() error {
	if s.MaxInputs <= 0 {
		return fmt.Errorf("%w: %v max inputs must be positive, got %d",
			ErrInvalidStrategy, s, s.MaxInputs)
	}

	if s.MaxAttempts < 0 {
		return fmt.Errorf("%w: %v max attempts must not be negative, "+
			"got %d", ErrInvalidStrategy, s, s.MaxAttempts)
	}

	return nil
}

// proposals enumerates the feasible subsets of the view.
//
// Coins are visited in the order of view.order, i.e. by descending amount.
// For a subset size k every feasible total lies in [floor, ceiling) where
// floor = target + fee(k) and ceiling = floor + dust. Since amounts are never
// negative a partial subset at or above the ceiling can't be completed, and
// because the next sibling is never larger we only skip that coin. When even
// the largest coins left can't lift a partial subset up to the floor, none of
// the later siblings can either and the whole level is abandoned.
func (s *ExhaustiveStrategy) proposals(ctx context.Context,
	view *searchView) iter.Seq2[[]int, error] {

	return func(yield func([]int, error) bool) {
		n := len(view.order)
		maxInputs := min(s.MaxInputs, n)

		// prefix[i] is the sum of the i largest coins.
		prefix := make([]btcutil.Amount, n+1)
		for i, idx := range view.order {
			sum, err := addAmounts(prefix[i], view.amount(idx))
			if err != nil {
				yield(nil, err)
				return
			}
			prefix[i+1] = sum
		}

		var (
			attempts int
			chosen   = make([]int, 0, maxInputs)
		)

		for size := 1; size <= maxInputs; size++ {
			if ctx.Err() != nil {
				return
			}

			floor, ceiling, err := view.window(size)
			if err != nil {
				yield(nil, err)
				return
			}

			// Not even the largest coins reach the floor at this
			// size, but a larger subset might.
			if prefix[size] < floor {
				continue
			}

			log.Tracef("Exploring subsets of size %d in [%v, %v)",
				size, floor, ceiling)

			// walk extends the chosen subset with coins from start
			// on. It returns false once the search must stop.
			var walk func(start int, sum btcutil.Amount) bool
			walk = func(start int, sum btcutil.Amount) bool {
				remaining := size - len(chosen)

				for i := start; i <= n-remaining; i++ {
					if s.MaxAttempts > 0 &&
						attempts >= s.MaxAttempts {

						return false
					}

					if ctx.Err() != nil {
						return false
					}

					// None of these sums can overflow as they
					// are bounded by prefix[n].
					next := sum + view.amount(view.order[i])
					if next >= ceiling {
						continue
					}

					best := next + prefix[i+remaining] -
						prefix[i+1]
					if best < floor {
						break
					}

					attempts++
					chosen = append(chosen, view.order[i])

					cont := true
					if remaining == 1 {
						cont = yield(chosen, nil)
					} else {
						cont = walk(i+1, next)
					}

					chosen = chosen[:len(chosen)-1]
					if !cont {
						return false
					}
				}

				return true
			}

			if !walk(0, 0) {
				if s.MaxAttempts > 0 && attempts >= s.MaxAttempts {
					log.Debugf("Exhaustive search stopped after "+
						"%d attempts", attempts)
				}

				return
			}
		}
	}
}
