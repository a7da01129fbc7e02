package coinselect

import (
	"bytes"
	"encoding/binary"
	"slices"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/changeless/pkg/btcunit"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// testFeeRate is a fee rate of 10 sat/vb.
var testFeeRate = btcunit.NewSatPerVByte(10).ToSatPerKVByte()

// p2wkhScript returns a P2WKH output script whose witness program is derived
// from seed.
func p2wkhScript(seed byte) []byte {
	script := []byte{txscript.OP_0, txscript.OP_DATA_20}
	return append(script, bytes.Repeat([]byte{seed}, 20)...)
}

// makeCoin returns a P2WKH coin of the given amount. Coins created with
// different ids have different outpoints.
func makeCoin(id uint32, amount btcutil.Amount) Coin {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], id)

	return Coin{
		TxOut: wire.TxOut{
			Value:    int64(amount),
			PkScript: p2wkhScript(byte(id)),
		},
		OutPoint: wire.OutPoint{
			Hash:  chainhash.HashH(buf[:]),
			Index: id % 3,
		},
		Confirmations: int64(id),
	}
}

// makePool returns a pool holding one coin per amount.
func makePool(t *testing.T, amounts ...btcutil.Amount) *Pool {
	t.Helper()

	coins := make([]Coin, 0, len(amounts))
	for i, amount := range amounts {
		coins = append(coins, makeCoin(uint32(i+1), amount))
	}

	pool, err := NewPool(coins...)
	require.NoError(t, err)

	return pool
}

// testRequest returns a request paying target to a P2WKH script.
func testRequest(target btcutil.Amount) *Request {
	return &Request{
		Target:      target,
		FeeRate:     testFeeRate,
		Destination: p2wkhScript(0xaa),
	}
}

// flatConfig returns a config charging a flat fee with the given dust
// threshold and strategies.
func flatConfig(fee, dust btcutil.Amount, strategies ...Strategy) *Config {
	return &Config{
		DustThreshold: fn.Some(dust),
		Strategies:    strategies,
		FeeEstimator:  &FlatFeeEstimator{Fee: fee},
	}
}

// search runs a selection to completion and returns the candidates found.
func search(t *testing.T, cfg *Config, pool *Pool,
	req *Request) ([]Candidate, []error) {

	t.Helper()

	selector, err := New(cfg)
	require.NoError(t, err)

	stream, err := selector.Search(t.Context(), pool, req)
	require.NoError(t, err)

	candidates := slices.Collect(stream.All())

	return candidates, stream.Faults()
}

// amountsOf returns the amounts of the coins of a candidate, sorted.
func amountsOf(c Candidate) []btcutil.Amount {
	amounts := make([]btcutil.Amount, 0, len(c.Coins))
	for _, coin := range c.Coins {
		amounts = append(amounts, coin.Amount())
	}
	slices.Sort(amounts)

	return amounts
}

// keysOf returns the outpoint keys of the candidates in order.
func keysOf(candidates []Candidate) []string {
	keys := make([]string, 0, len(candidates))
	for _, c := range candidates {
		keys = append(keys, c.key())
	}

	return keys
}

// requireFeasible asserts that every candidate satisfies the changeless rule
// and that no two candidates spend the same set of coins.
func requireFeasible(t *testing.T, candidates []Candidate,
	target, dust btcutil.Amount) {

	t.Helper()

	seen := make(map[string]struct{})
	for _, c := range candidates {
		require.NotEmpty(t, c.Coins)

		var total btcutil.Amount
		for _, coin := range c.Coins {
			total += coin.Amount()
		}
		require.Equal(t, total, c.Total)

		require.GreaterOrEqual(t, c.Total-c.Fee, target)
		require.Less(t, c.Total-c.Fee-target, dust)
		require.Equal(t, c.Total-c.Fee-target, c.Slack)

		_, dup := seen[c.key()]
		require.False(t, dup, "duplicate candidate %v", &c)
		seen[c.key()] = struct{}{}
	}
}

// mockFeeEstimator is a mock implementation of the FeeEstimator interface.
type mockFeeEstimator struct {
	mock.Mock
}

// EstimateFee implements the FeeEstimator interface.
func (m *mockFeeEstimator) EstimateFee(numInputs, numOutputs int,
	feeRate btcunit.SatPerKVByte) (btcutil.Amount, error) {

	args := m.Called(numInputs, numOutputs, feeRate)
	return args.Get(0).(btcutil.Amount), args.Error(1)
}

// panickingFeeEstimator charges a flat fee but panics when asked to price a
// transaction without inputs.
type panickingFeeEstimator struct {
	fee btcutil.Amount
}

// EstimateFee implements the FeeEstimator interface.
func (p *panickingFeeEstimator) EstimateFee(numInputs, _ int,
	_ btcunit.SatPerKVByte) (btcutil.Amount, error) {

	if numInputs == 0 {
		panic("no inputs")
	}

	return p.fee, nil
}
