// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselect

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/changeless/pkg/btcunit"
)

var (
	// ErrAmountOverflow is returned when summing amounts doesn't fit into
	// an int64.
	ErrAmountOverflow = errors.New("amount overflow")

	// ErrEmptySubset is returned when a strategy proposes an empty
	// subset.
	ErrEmptySubset = errors.New("empty subset")

	// ErrSubsetOutOfRange is returned when a strategy proposes a coin
	// that isn't part of the pool.
	ErrSubsetOutOfRange = errors.New("subset index out of range")
)

// searchView is the state of a single selection run shared by its
// strategies: a read-only view of the pool plus the parameters captured when
// the run was created. The fee cache makes a view unsafe for concurrent use;
// parallel strategies each work on their own fork.
type searchView struct {
	pool      *Pool
	target    btcutil.Amount
	feeRate   btcunit.SatPerKVByte
	dust      btcutil.Amount
	estimator FeeEstimator

	// order holds the pool indices sorted by descending amount, ties
	// broken by outpoint so that every run sees the same order.
	order []int

	// fees caches the fee of spending a given number of inputs into a
	// single output.
	fees map[int]btcutil.Amount
}

// newSearchView creates the view of a run over the given pool.
func newSearchView(pool *Pool, req *Request, dust btcutil.Amount,
	estimator FeeEstimator) *searchView {

	if pool == nil {
		pool = &Pool{}
	}

	order := make([]int, pool.Len())
	for i := range order {
		order[i] = i
	}

	slices.SortStableFunc(order, func(a, b int) int {
		coinA, coinB := pool.coin(a), pool.coin(b)
		if c := cmp.Compare(coinB.Amount(), coinA.Amount()); c != 0 {
			return c
		}

		hashA, hashB := coinA.OutPoint.Hash, coinB.OutPoint.Hash
		if c := bytes.Compare(hashA[:], hashB[:]); c != 0 {
			return c
		}

		return cmp.Compare(coinA.OutPoint.Index, coinB.OutPoint.Index)
	})

	return &searchView{
		pool:      pool,
		target:    req.Target,
		feeRate:   req.FeeRate,
		dust:      dust,
		estimator: estimator,
		order:     order,
		fees:      make(map[int]btcutil.Amount),
	}
}

// fork returns a view sharing the read-only state of this one with a private
// fee cache.
func (v *searchView) fork() *searchView {
	forked := *v
	forked.fees = make(map[int]btcutil.Amount)

	return &forked
}

// amount returns the value of the coin at the given pool index.
func (v *searchView) amount(i int) btcutil.Amount {
	return v.pool.coin(i).Amount()
}

// fee returns the fee of spending numInputs inputs into a single output.
func (v *searchView) fee(numInputs int) (btcutil.Amount, error) {
	if fee, ok := v.fees[numInputs]; ok {
		return fee, nil
	}

	fee, err := v.estimator.EstimateFee(numInputs, 1, v.feeRate)
	if err != nil {
		return 0, fmt.Errorf("unable to estimate fee for %d inputs: "+
			"%w", numInputs, err)
	}

	v.fees[numInputs] = fee

	return fee, nil
}

// marginalFee returns the fee added by a single input. A coin worth no more
// than that doesn't yield positively.
func (v *searchView) marginalFee() (btcutil.Amount, error) {
	base, err := v.fee(0)
	if err != nil {
		return 0, err
	}

	one, err := v.fee(1)
	if err != nil {
		return 0, err
	}

	return one - base, nil
}

// window returns the range [floor, ceiling) the total of a subset of
// numInputs coins must fall into to be a changeless selection.
func (v *searchView) window(numInputs int) (btcutil.Amount, btcutil.Amount,
	error) {

	fee, err := v.fee(numInputs)
	if err != nil {
		return 0, 0, err
	}

	floor, err := addAmounts(v.target, fee)
	if err != nil {
		return 0, 0, err
	}

	ceiling, err := addAmounts(floor, v.dust)
	if err != nil {
		return 0, 0, err
	}

	return floor, ceiling, nil
}

// evaluate applies the feasibility rule to the subset of pool indices. The
// subset slice may be reused by the caller; the returned candidate holds its
// own copy of the coins.
func (v *searchView) evaluate(subset []int) (Candidate, bool, error) {
	if len(subset) == 0 {
		return Candidate{}, false, ErrEmptySubset
	}

	var total btcutil.Amount
	for _, i := range subset {
		if i < 0 || i >= v.pool.Len() {
			return Candidate{}, false, fmt.Errorf("%w: %d",
				ErrSubsetOutOfRange, i)
		}

		var err error
		total, err = addAmounts(total, v.amount(i))
		if err != nil {
			return Candidate{}, false, err
		}
	}

	fee, err := v.fee(len(subset))
	if err != nil {
		return Candidate{}, false, err
	}

	// The selection must pay for the target and its own fee.
	net := total - fee
	if net < v.target {
		return Candidate{}, false, nil
	}

	// Anything at or above the dust threshold would warrant a change
	// output, which is not what we're looking for.
	slack := net - v.target
	if slack >= v.dust {
		return Candidate{}, false, nil
	}

	coins := make([]Coin, 0, len(subset))
	for _, i := range subset {
		coins = append(coins, *v.pool.coin(i))
	}

	return Candidate{
		Coins: coins,
		Total: total,
		Fee:   fee,
		Slack: slack,
	}, true, nil
}

// addAmounts returns a+b, or an error if the sum overflows.
func addAmounts(a, b btcutil.Amount) (btcutil.Amount, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, fmt.Errorf("%w: %d + %d", ErrAmountOverflow, a, b)
	}

	return a + b, nil
}
