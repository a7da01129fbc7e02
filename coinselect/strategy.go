// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselect

import (
	"context"
	"fmt"
	"iter"
)

// Strategy is one search policy for proposing candidate subsets. The set of
// strategies is closed: the only implementations are ExhaustiveStrategy and
// RandomStrategy.
type Strategy interface {
	fmt.Stringer

	// isStrategy is a marker method that seals the interface.
	isStrategy()

	// validate checks the policy parameters of the strategy.
	validate() error
}

// proposals returns the sequence of subsets the strategy proposes for the
// given view. Each subset is a slice of pool indices that is only valid until
// the next iteration; a non-nil error ends the sequence.
func proposals(ctx context.Context, strategy Strategy,
	view *searchView) iter.Seq2[[]int, error] {

	switch s := strategy.(type) {
	case *ExhaustiveStrategy:
		return s.proposals(ctx, view)

	case *RandomStrategy:
		return s.proposals(ctx, view)

	default:
		return func(yield func([]int, error) bool) {
			yield(nil, fmt.Errorf("%w: unsupported strategy %T",
				ErrInvalidStrategy, strategy))
		}
	}
}

// validateStrategies checks every strategy of the list. An empty list is
// valid.
func validateStrategies(strategies []Strategy) error {
	for i, strategy := range strategies {
		if strategy == nil {
			return fmt.Errorf("%w: strategy %d is nil",
				ErrInvalidStrategy, i)
		}

		switch strategy.(type) {
		case *ExhaustiveStrategy, *RandomStrategy:

		default:
			return fmt.Errorf("%w: unsupported strategy %T",
				ErrInvalidStrategy, strategy)
		}

		if err := strategy.validate(); err != nil {
			return err
		}
	}

	return nil
}
