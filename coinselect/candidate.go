// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselect

import (
	"fmt"
	"slices"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/coinset"
	"github.com/btcsuite/btcd/wire"
)

// Candidate is a changeless selection: a non-empty set of coins whose total,
// minus the fee of spending them into a single output, covers the target
// while leaving less than the dust threshold on the table. A candidate is
// owned by whoever received it; the selector keeps no reference to it.
type Candidate struct {
	// Coins are the selected coins, in the order the strategy proposed
	// them.
	Coins []Coin

	// Total is the sum of the values of the selected coins.
	Total btcutil.Amount

	// Fee is the fee of spending the selected coins into a single
	// output.
	Fee btcutil.Amount

	// Slack is the excess over the target once the fee has been paid.
	// It is always smaller than the dust threshold of the run.
	Slack btcutil.Amount

	// Strategy names the strategy that found the candidate.
	Strategy string
}

// DestinationAmount returns the amount the destination receives when the
// whole selection, minus the fee, is sent to it.
func (c *Candidate) DestinationAmount() btcutil.Amount {
	return c.Total - c.Fee
}

// Outpoints returns the outpoints spent by the candidate.
func (c *Candidate) Outpoints() []wire.OutPoint {
	outpoints := make([]wire.OutPoint, 0, len(c.Coins))
	for _, coin := range c.Coins {
		outpoints = append(outpoints, coin.OutPoint)
	}

	return outpoints
}

// CoinSet returns the selected coins as a coinset.CoinSet.
func (c *Candidate) CoinSet() *coinset.CoinSet {
	coins := make([]coinset.Coin, 0, len(c.Coins))
	for i := range c.Coins {
		coins = append(coins, selectable{coin: &c.Coins[i]})
	}

	return coinset.NewCoinSet(coins)
}

// String returns a short description of the candidate.
func (c *Candidate) String() string {
	return fmt.Sprintf("%d inputs, total=%v, fee=%v, slack=%v (%s)",
		len(c.Coins), c.Total, c.Fee, c.Slack, c.Strategy)
}

// key returns a key identifying the set of outpoints spent by the candidate
// regardless of their order.
func (c *Candidate) key() string {
	outpoints := make([]string, 0, len(c.Coins))
	for _, coin := range c.Coins {
		outpoints = append(outpoints, coin.OutPoint.String())
	}
	slices.Sort(outpoints)

	return strings.Join(outpoints, ",")
}
