package coinselect

import (
	"errors"
	"math"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// TestEvaluate walks through the feasibility rule on a small pool: with a
// strict dust threshold nothing qualifies, while a looser one accepts the
// single coin that leaves little enough on the table.
func TestEvaluate(t *testing.T) {
	t.Parallel()

	pool := makePool(t, 100, 150, 300)
	req := testRequest(250)

	testCases := []struct {
		name   string
		subset []int
		dust   btcutil.Amount
		ok     bool
		slack  btcutil.Amount
	}{
		{
			name:   "single coin below target",
			subset: []int{1},
			dust:   5,
		},
		{
			name:   "pair below target once the fee is paid",
			subset: []int{0, 1},
			dust:   5,
		},
		{
			name:   "excess would warrant change",
			subset: []int{2},
			dust:   5,
		},
		{
			name:   "excess right at the threshold",
			subset: []int{2},
			dust:   40,
		},
		{
			name:   "excess below a loose threshold",
			subset: []int{2},
			dust:   50,
			ok:     true,
			slack:  40,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			view := newSearchView(
				pool, req, tc.dust, &FlatFeeEstimator{Fee: 10},
			)

			c, ok, err := view.evaluate(tc.subset)
			require.NoError(t, err)
			require.Equal(t, tc.ok, ok)

			if !ok {
				return
			}

			require.Equal(t, btcutil.Amount(300), c.Total)
			require.Equal(t, btcutil.Amount(10), c.Fee)
			require.Equal(t, tc.slack, c.Slack)
			require.Equal(t, btcutil.Amount(290), c.DestinationAmount())
		})
	}
}

// TestEvaluateErrors checks that malformed subsets and failing estimators are
// reported.
func TestEvaluateErrors(t *testing.T) {
	t.Parallel()

	pool := makePool(t, 100, 150, 300)
	req := testRequest(250)
	view := newSearchView(pool, req, 50, &FlatFeeEstimator{Fee: 10})

	_, _, err := view.evaluate(nil)
	require.ErrorIs(t, err, ErrEmptySubset)

	_, _, err = view.evaluate([]int{3})
	require.ErrorIs(t, err, ErrSubsetOutOfRange)

	_, _, err = view.evaluate([]int{-1})
	require.ErrorIs(t, err, ErrSubsetOutOfRange)

	errEstimate := errors.New("estimate failed")
	estimator := &mockFeeEstimator{}
	estimator.On("EstimateFee", 1, 1, req.FeeRate).Return(
		btcutil.Amount(0), errEstimate,
	)

	view = newSearchView(pool, req, 50, estimator)
	_, _, err = view.evaluate([]int{2})
	require.ErrorIs(t, err, errEstimate)
	estimator.AssertExpectations(t)
}

// TestViewFeeCache checks that each subset size is priced only once per
// view, and that forks don't share their cache.
func TestViewFeeCache(t *testing.T) {
	t.Parallel()

	pool := makePool(t, 100, 150, 300)
	req := testRequest(250)

	estimator := &mockFeeEstimator{}
	estimator.On("EstimateFee", mock.Anything, 1, req.FeeRate).Return(
		btcutil.Amount(10), nil,
	)

	view := newSearchView(pool, req, 50, estimator)
	for range 3 {
		_, _, err := view.evaluate([]int{2})
		require.NoError(t, err)
	}
	estimator.AssertNumberOfCalls(t, "EstimateFee", 1)

	forked := view.fork()
	_, _, err := forked.evaluate([]int{1})
	require.NoError(t, err)
	estimator.AssertNumberOfCalls(t, "EstimateFee", 2)
}

// TestViewOrder checks that coins are ordered by descending amount with ties
// broken by outpoint, whatever the order of the pool.
func TestViewOrder(t *testing.T) {
	t.Parallel()

	coins := []Coin{
		makeCoin(1, 200), makeCoin(2, 500), makeCoin(3, 200),
		makeCoin(4, 900),
	}
	reversed := []Coin{coins[3], coins[2], coins[1], coins[0]}

	poolA, err := NewPool(coins...)
	require.NoError(t, err)
	poolB, err := NewPool(reversed...)
	require.NoError(t, err)

	req := testRequest(100)
	fee := &FlatFeeEstimator{Fee: 1}
	viewA := newSearchView(poolA, req, 10, fee)
	viewB := newSearchView(poolB, req, 10, fee)

	for i := range viewA.order {
		coinA := viewA.pool.coin(viewA.order[i])
		coinB := viewB.pool.coin(viewB.order[i])
		require.Equal(t, coinA.OutPoint, coinB.OutPoint)

		if i > 0 {
			prev := viewA.pool.coin(viewA.order[i-1])
			require.GreaterOrEqual(t, prev.Amount(), coinA.Amount())
		}
	}
}

// TestAddAmounts checks the overflow detection of amount sums.
func TestAddAmounts(t *testing.T) {
	t.Parallel()

	sum, err := addAmounts(1, 2)
	require.NoError(t, err)
	require.Equal(t, btcutil.Amount(3), sum)

	_, err = addAmounts(math.MaxInt64, 1)
	require.ErrorIs(t, err, ErrAmountOverflow)

	_, err = addAmounts(math.MinInt64, -1)
	require.ErrorIs(t, err, ErrAmountOverflow)

	sum, err = addAmounts(math.MaxInt64, -1)
	require.NoError(t, err)
	require.Equal(t, btcutil.Amount(math.MaxInt64-1), sum)
}
