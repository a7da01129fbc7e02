// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselect

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/davecgh/go-spew/spew"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// ErrStrategyFault is wrapped by every error that aborted a strategy, such as
// a failing fee estimator, an amount overflow or a panic. A fault only ends
// the strategy that raised it; the run carries on with the next one.
var ErrStrategyFault = errors.New("strategy fault")

// Selector searches a coin pool for changeless selections. A Selector is
// immutable once created and can serve any number of concurrent runs.
type Selector struct {
	cfg Config
}

// New creates a selector from the given configuration.
func New(cfg *Config) (*Selector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	selector := &Selector{cfg: *cfg}
	selector.cfg.Strategies = slices.Clone(cfg.Strategies)

	return selector, nil
}

// run holds everything a single selection run needs. It is created when the
// run starts and dropped once the stream is closed.
type run struct {
	view       *searchView
	strategies []Strategy
	parallel   bool
	depth      int

	// onFault is called for every strategy fault, from the goroutine
	// that drives the stream.
	onFault func(error)
}

// Search validates the request and returns the lazy stream of changeless
// selections found in the pool. A nil or empty pool results in an empty
// stream. The search stops when the stream is exhausted, when it is closed or
// when ctx is cancelled; none of these is reported as an error. A stream
// that isn't drained must be closed, or ctx cancelled.
func (s *Selector) Search(ctx context.Context, pool *Pool,
	req *Request) (*Stream, error) {

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	strategies := s.cfg.Strategies
	if len(req.Strategies) > 0 {
		strategies = slices.Clone(req.Strategies)
	}

	dust := s.cfg.dustThreshold(req.Destination)

	log.Debugf("Searching %d coins for changeless selections of %v at "+
		"%v (dust=%v, strategies=%v)", pool.Len(), req.Target,
		req.FeeRate, dust, strategies)

	log.Tracef("Selection request: %v", newLogClosure(func() string {
		return spew.Sdump(req)
	}))

	ctx, cancel := context.WithCancel(ctx)
	stream := &Stream{}

	r := &run{
		view: newSearchView(
			pool, req, dust, s.cfg.FeeEstimator,
		),
		strategies: strategies,
		parallel:   s.cfg.Parallel,
		depth:      s.cfg.PrefetchDepth,
		onFault: func(err error) {
			log.Errorf("Strategy aborted: %v", err)
			stream.faults = append(stream.faults, err)
		},
	}

	// The run context is released as soon as the sequence ends, so a
	// stream drained with Next doesn't need to be closed.
	candidates := r.candidates(ctx)
	next, stop := iter.Pull(func(yield func(Candidate) bool) {
		defer cancel()

		candidates(yield)
	})
	stream.next = next
	stream.stop = func() {
		cancel()
		stop()
	}

	return stream, nil
}

// candidates returns the sequence of deduplicated candidates of the run.
func (r *run) candidates(ctx context.Context) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		var (
			seen  = fn.NewSet[string]()
			count int
		)

		emit := func(candidate Candidate) bool {
			key := candidate.key()
			if seen.Contains(key) {
				log.Tracef("Skipping duplicate selection %v",
					&candidate)

				return true
			}
			seen.Add(key)

			if ctx.Err() != nil {
				return false
			}

			count++

			return yield(candidate)
		}

		if r.parallel {
			r.runParallel(ctx, emit)
		} else {
			r.runSequential(ctx, emit)
		}

		log.Debugf("Selection run finished after %d candidates",
			count)
	}
}

// runSequential drives the strategies one after the other.
func (r *run) runSequential(ctx context.Context, emit func(Candidate) bool) {
	for _, strategy := range r.strategies {
		if ctx.Err() != nil {
			return
		}

		cont, err := searchStrategy(ctx, strategy, r.view, emit)
		if err != nil {
			r.onFault(fmt.Errorf("%v: %w", strategy, err))
		}

		if !cont {
			return
		}
	}
}

// searchStrategy feeds the feasible proposals of a strategy to emit. It
// returns false when emit asked to stop, and a non-nil error when the
// strategy had to be aborted.
func searchStrategy(ctx context.Context, strategy Strategy, view *searchView,
	emit func(Candidate) bool) (cont bool, err error) {

	defer func() {
		if p := recover(); p != nil {
			cont = true
			err = fmt.Errorf("%w: panic: %v", ErrStrategyFault, p)
		}
	}()

	log.Debugf("Running %v strategy", strategy)

	for subset, err := range proposals(ctx, strategy, view) {
		if err != nil {
			return true, fmt.Errorf("%w: %w", ErrStrategyFault, err)
		}

		candidate, ok, err := view.evaluate(subset)
		if err != nil {
			return true, fmt.Errorf("%w: %w", ErrStrategyFault, err)
		}

		if !ok {
			continue
		}

		candidate.Strategy = strategy.String()
		if !emit(candidate) {
			return false, nil
		}
	}

	return true, nil
}

// Stream is the lazy, finite sequence of candidates of one selection run. It
// can be consumed only once and is not safe for concurrent use.
type Stream struct {
	next   func() (Candidate, bool)
	stop   func()
	faults []error
}

// Next returns the next candidate. It returns false once the stream is
// exhausted, closed or its context has been cancelled.
func (s *Stream) Next() (Candidate, bool) {
	return s.next()
}

// All returns an iterator over the remaining candidates. The stream is
// closed when the loop ends, including when the caller breaks out of it.
func (s *Stream) All() iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		defer s.Close()

		for {
			candidate, ok := s.Next()
			if !ok || !yield(candidate) {
				return
			}
		}
	}
}

// Close stops the search and releases its resources. It is safe to call
// Close more than once.
func (s *Stream) Close() {
	s.stop()
}

// Faults returns the strategy faults encountered so far. Each of them wraps
// ErrStrategyFault.
func (s *Stream) Faults() []error {
	return slices.Clone(s.faults)
}
