package coinselect

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// TestExhaustiveScenario runs the exhaustive strategy on the reference pool:
// with a dust threshold of 5 no changeless selection exists, with 50 the
// single 300 coin qualifies.
func TestExhaustiveScenario(t *testing.T) {
	t.Parallel()

	pool := makePool(t, 100, 150, 300)
	req := testRequest(250)
	strategy := &ExhaustiveStrategy{MaxInputs: 3}

	candidates, faults := search(t, flatConfig(10, 5, strategy), pool, req)
	require.Empty(t, candidates)
	require.Empty(t, faults)

	candidates, faults = search(t, flatConfig(10, 50, strategy), pool, req)
	require.Empty(t, faults)
	require.Len(t, candidates, 1)
	require.Equal(t, []btcutil.Amount{300}, amountsOf(candidates[0]))
	require.Equal(t, btcutil.Amount(40), candidates[0].Slack)
	require.Equal(t, "exhaustive", candidates[0].Strategy)
}

// TestExhaustiveOrder checks that subsets are proposed in increasing size
// order and that all feasible subsets up to the size limit are found.
func TestExhaustiveOrder(t *testing.T) {
	t.Parallel()

	// With a flat fee of 10, a target of 990 and a dust threshold of 20,
	// a subset is feasible when its total lies in [1000, 1020).
	pool := makePool(t, 1000, 1010, 500, 505, 510, 250, 260, 240, 2000)
	req := testRequest(990)

	candidates, faults := search(
		t, flatConfig(10, 20, &ExhaustiveStrategy{MaxInputs: 4}),
		pool, req,
	)
	require.Empty(t, faults)
	requireFeasible(t, candidates, 990, 20)

	got := make([][]btcutil.Amount, 0, len(candidates))
	for _, c := range candidates {
		got = append(got, amountsOf(c))
	}

	require.Equal(t, [][]btcutil.Amount{
		// Singletons, largest first.
		{1010},
		{1000},

		// Pairs.
		{505, 510},
		{500, 510},
		{500, 505},

		// Triples.
		{240, 260, 510},
		{240, 250, 510},
		{250, 260, 505},
		{240, 260, 505},
		{250, 260, 500},
		{240, 260, 500},
	}, got)

	for i := 1; i < len(candidates); i++ {
		require.LessOrEqual(
			t, len(candidates[i-1].Coins), len(candidates[i].Coins),
		)
	}
}

// TestExhaustiveBound checks that the exhaustive strategy never looks at
// subsets larger than its limit and terminates when nothing is feasible.
func TestExhaustiveBound(t *testing.T) {
	t.Parallel()

	amounts := make([]btcutil.Amount, 0, 20)
	for range 20 {
		amounts = append(amounts, 1000)
	}
	pool := makePool(t, amounts...)

	testCases := []struct {
		name   string
		target btcutil.Amount
	}{
		{
			name:   "target out of reach",
			target: 1_000_000,
		},
		{
			name:   "reachable target always leaving change",
			target: 2500,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := testRequest(tc.target)

			estimator := &mockFeeEstimator{}
			estimator.On(
				"EstimateFee", mock.Anything, 1, req.FeeRate,
			).Return(btcutil.Amount(10), nil)

			cfg := flatConfig(
				0, 5, &ExhaustiveStrategy{MaxInputs: 3},
			)
			cfg.FeeEstimator = estimator

			candidates, faults := search(t, cfg, pool, req)
			require.Empty(t, candidates)
			require.Empty(t, faults)

			for _, call := range estimator.Calls {
				numInputs := call.Arguments.Int(0)
				require.LessOrEqual(t, numInputs, 3)
				require.Positive(t, numInputs)
			}
		})
	}
}

// TestExhaustiveMaxAttempts checks that the attempt budget stops the search.
func TestExhaustiveMaxAttempts(t *testing.T) {
	t.Parallel()

	// Every single coin is feasible.
	pool := makePool(t, 300, 301, 302)
	req := testRequest(250)

	candidates, _ := search(
		t, flatConfig(10, 100, &ExhaustiveStrategy{MaxInputs: 3}),
		pool, req,
	)
	require.Len(t, candidates, 3)

	candidates, _ = search(
		t, flatConfig(10, 100, &ExhaustiveStrategy{
			MaxInputs:   3,
			MaxAttempts: 1,
		}),
		pool, req,
	)
	require.Len(t, candidates, 1)
	require.Equal(t, []btcutil.Amount{302}, amountsOf(candidates[0]))
}

// TestExhaustiveSizeLimit checks that a selection needing more coins than
// allowed isn't found.
func TestExhaustiveSizeLimit(t *testing.T) {
	t.Parallel()

	pool := makePool(t, 100, 100, 100, 100)
	req := testRequest(390)

	candidates, _ := search(
		t, flatConfig(10, 5, &ExhaustiveStrategy{MaxInputs: 3}),
		pool, req,
	)
	require.Empty(t, candidates)

	candidates, _ = search(
		t, flatConfig(10, 5, &ExhaustiveStrategy{MaxInputs: 4}),
		pool, req,
	)
	require.Len(t, candidates, 1)
	require.Len(t, candidates[0].Coins, 4)
}
