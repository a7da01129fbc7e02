// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselect

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// branch is the private queue of a strategy running in parallel mode.
type branch struct {
	strategy Strategy
	results  chan Candidate

	// err is only read once results has been closed.
	err error
}

// runParallel runs every strategy in its own goroutine on a private fork of
// the view. The queues are drained in strategy order, so the consumer sees
// the same sequence as in sequential mode.
func (r *run) runParallel(ctx context.Context, emit func(Candidate) bool) {
	ctx, cancel := context.WithCancel(ctx)

	var group errgroup.Group
	defer func() {
		cancel()
		_ = group.Wait()
	}()

	branches := make([]*branch, 0, len(r.strategies))
	for _, strategy := range r.strategies {
		b := &branch{
			strategy: strategy,
			results:  make(chan Candidate, r.depth),
		}
		branches = append(branches, b)

		view := r.view.fork()
		group.Go(func() error {
			defer close(b.results)

			_, b.err = searchStrategy(
				ctx, b.strategy, view,
				func(candidate Candidate) bool {
					select {
					case b.results <- candidate:
						return true

					case <-ctx.Done():
						return false
					}
				},
			)

			return nil
		})
	}

	for _, b := range branches {
		if ctx.Err() != nil {
			return
		}

		for candidate := range b.results {
			if !emit(candidate) {
				return
			}
		}

		if b.err != nil {
			r.onFault(fmt.Errorf("%v: %w", b.strategy, b.err))
		}
	}
}
