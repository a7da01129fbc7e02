package btcunit

import (
	"math"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcwallet/wallet/txrules"
	"github.com/stretchr/testify/require"
)

// TestFeeRateConversions checks that the conversion between the different fee
// rate units is exact.
func TestFeeRateConversions(t *testing.T) {
	t.Parallel()

	require.Equal(t, NewSatPerKVByte(1000), NewSatPerVByte(1).ToSatPerKVByte())
	require.Equal(
		t, NewSatPerKVByte(12_000), NewSatPerVByte(12).ToSatPerKVByte(),
	)
	require.Equal(t, btcutil.Amount(2500), NewSatPerKVByte(2500).Val())
	require.Equal(t, btcutil.Amount(0), ZeroSatPerKVByte.Val())
}

// TestFeeForVSize checks the fee calculation against the relay fee arithmetic
// used while authoring transactions.
func TestFeeForVSize(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		rate SatPerKVByte
		size int
	}{
		{
			name: "1 sat/vb",
			rate: NewSatPerVByte(1).ToSatPerKVByte(),
			size: 141,
		},
		{
			name: "fractional rate rounds down",
			rate: NewSatPerKVByte(1_234),
			size: 223,
		},
		{
			name: "tiny fee is bumped to the rate",
			rate: NewSatPerKVByte(3),
			size: 10,
		},
		{
			name: "zero rate",
			rate: ZeroSatPerKVByte,
			size: 500,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fee, err := tc.rate.FeeForVSize(NewVByteFromInt(tc.size))
			require.NoError(t, err)

			expected := txrules.FeeForSerializeSize(
				tc.rate.Val(), tc.size,
			)
			require.Equal(t, expected, fee)
		})
	}
}

// TestFeeForVSizeOverflow makes sure an overflowing fee is reported instead of
// silently wrapping around.
func TestFeeForVSizeOverflow(t *testing.T) {
	t.Parallel()

	rate := NewSatPerKVByte(math.MaxInt64 / 2)

	_, err := rate.FeeForVSize(NewVByteFromInt(10))
	require.ErrorIs(t, err, ErrFeeOverflow)

	_, err = NewSatPerKVByte(-1).FeeForVSize(NewVByteFromInt(10))
	require.ErrorIs(t, err, ErrNegativeFeeRate)

	// A fee above the total supply is capped.
	fee, err := NewSatPerKVByte(math.MaxInt64 / 1000).FeeForVSize(
		NewVByteFromInt(1000),
	)
	require.NoError(t, err)
	require.Equal(t, btcutil.Amount(btcutil.MaxSatoshi), fee)
}

// TestFeeRateStringer tests the stringer methods of the fee rate types.
func TestFeeRateStringer(t *testing.T) {
	t.Parallel()

	require.Equal(t, "12 sat/vb", NewSatPerVByte(12).String())
	require.Equal(t, "12000 sat/kvb", NewSatPerKVByte(12_000).String())
	require.True(t, NewSatPerKVByte(2).GreaterThan(NewSatPerKVByte(1)))
	require.True(t, ZeroSatPerKVByte.LessThanOrEqual(ZeroSatPerKVByte))
	require.False(t, DefaultMaxFeeRate.GreaterThan(NewSatPerKVByte(1_000_000)))
	require.True(t, DefaultMaxFeeRate.LessThanOrEqual(
		NewSatPerVByte(1000).ToSatPerKVByte(),
	))
}
