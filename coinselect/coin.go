// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselect

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/coinset"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

var (
	// ErrDuplicatedUtxo is returned when a UTXO is specified multiple
	// times in the same coin pool.
	ErrDuplicatedUtxo = errors.New("duplicated utxo")

	// ErrInvalidCoinAmount is returned when a coin carries a negative
	// amount or one larger than the total supply.
	ErrInvalidCoinAmount = errors.New("invalid coin amount")
)

// Coin represents a spendable UTXO which is available for coin selection. A
// coin is a value object: the selector never mutates it.
type Coin struct {
	wire.TxOut
	wire.OutPoint

	// Confirmations is the number of confirmations of the transaction
	// that created the output.
	Confirmations int64

	// Label is an optional, human-readable label attached to the coin.
	Label string

	// AnonScore is optional privacy metadata, e.g. the anonymity set the
	// coin belongs to. The selector carries it along but doesn't use it.
	AnonScore int
}

// Amount returns the value of the coin.
func (c *Coin) Amount() btcutil.Amount {
	return btcutil.Amount(c.TxOut.Value)
}

// String returns a short description of the coin.
func (c *Coin) String() string {
	return fmt.Sprintf("%v (%v)", c.OutPoint, c.Amount())
}

// selectable adapts a Coin to the coinset.Coin interface.
type selectable struct {
	coin *Coin
}

// Hash returns the hash of the transaction that created the coin.
func (s selectable) Hash() *chainhash.Hash {
	return &s.coin.OutPoint.Hash
}

// Index returns the output index of the coin.
func (s selectable) Index() uint32 {
	return s.coin.OutPoint.Index
}

// Value returns the value of the coin.
func (s selectable) Value() btcutil.Amount {
	return s.coin.Amount()
}

// PkScript returns the output script of the coin.
func (s selectable) PkScript() []byte {
	return s.coin.TxOut.PkScript
}

// NumConfs returns the number of confirmations of the coin.
func (s selectable) NumConfs() int64 {
	return s.coin.Confirmations
}

// ValueAge returns the product of the value and the confirmations.
func (s selectable) ValueAge() int64 {
	return s.coin.TxOut.Value * s.coin.Confirmations
}

// A compile-time assertion to ensure selectable implements coinset.Coin.
var _ coinset.Coin = selectable{}

// Pool is the read-only set of coins available for one or more selection
// runs. A pool is unique by outpoint and may be shared by concurrent runs
// without locking since nothing ever mutates it.
type Pool struct {
	coins []Coin
	total btcutil.Amount
}

// NewPool creates a pool from the given coins. The slice is copied, so the
// caller is free to reuse it.
func NewPool(coins ...Coin) (*Pool, error) {
	pool := &Pool{
		coins: make([]Coin, 0, len(coins)),
	}

	seen := make(map[wire.OutPoint]struct{}, len(coins))
	for _, coin := range coins {
		if _, ok := seen[coin.OutPoint]; ok {
			return nil, fmt.Errorf("%w: %v", ErrDuplicatedUtxo,
				coin.OutPoint)
		}
		seen[coin.OutPoint] = struct{}{}

		amt := coin.Amount()
		if amt < 0 || amt > btcutil.MaxSatoshi {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCoinAmount,
				&coin)
		}

		// Each amount is bounded by the total supply, so this sum
		// can't overflow for any realistic pool.
		pool.total += amt

		// Copy the script so later changes by the caller can't leak
		// into the pool.
		coin.TxOut.PkScript = append([]byte(nil), coin.TxOut.PkScript...)
		pool.coins = append(pool.coins, coin)
	}

	return pool, nil
}

// Len returns the number of coins in the pool. A nil pool is empty.
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}

	return len(p.coins)
}

// Coins returns a copy of the coins in the pool.
func (p *Pool) Coins() []Coin {
	if p == nil {
		return nil
	}

	coins := make([]Coin, len(p.coins))
	copy(coins, p.coins)

	return coins
}

// TotalValue returns the sum of the values of all coins in the pool.
func (p *Pool) TotalValue() btcutil.Amount {
	if p == nil {
		return 0
	}

	return p.total
}

// Filter returns a new pool holding only the coins that have at least
// minConfs confirmations.
func (p *Pool) Filter(minConfs int64) *Pool {
	filtered := &Pool{}
	for _, coin := range p.Coins() {
		if coin.Confirmations < minConfs {
			continue
		}

		filtered.coins = append(filtered.coins, coin)
		filtered.total += coin.Amount()
	}

	return filtered
}

// coin returns a pointer to the coin at the given index. The pointer must be
// treated as read-only.
func (p *Pool) coin(i int) *Coin {
	return &p.coins[i]
}
