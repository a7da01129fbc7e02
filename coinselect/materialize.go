// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselect

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/coinset"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/wallet/txauthor"
	"github.com/btcsuite/btcwallet/wallet/txrules"
	"github.com/btcsuite/changeless/pkg/btcunit"
)

var (
	// ErrChangeRequired is returned when the transaction built from a
	// candidate would need a change output after all.
	ErrChangeRequired = errors.New("transaction requires a change output")

	// ErrNilCandidate is returned when a nil candidate is materialized.
	ErrNilCandidate = errors.New("nil candidate")
)

// TxMaterializer turns an accepted candidate into an unsigned transaction
// paying the destination. Materializing can fail for reasons the selector
// can't foresee, in which case the caller is free to discard the candidate
// and pull the next one.
type TxMaterializer interface {
	// Materialize builds the unsigned transaction spending the coins of
	// the candidate to the destination at the given fee rate.
	Materialize(c *Candidate, destination []byte,
		feeRate btcunit.SatPerKVByte) (*txauthor.AuthoredTx, error)
}

// AuthorMaterializer builds transactions with the txauthor package. The whole
// selection minus the fee is sent to the destination, so the recipient
// receives the slack and no change output is ever created.
type AuthorMaterializer struct {
	// TxVersion is the version of the transactions built. Zero selects
	// wire.TxVersion.
	TxVersion int32
}

// Materialize builds the unsigned transaction of the candidate.
func (m *AuthorMaterializer) Materialize(c *Candidate, destination []byte,
	feeRate btcunit.SatPerKVByte) (*txauthor.AuthoredTx, error) {

	if c == nil {
		return nil, ErrNilCandidate
	}

	output := wire.NewTxOut(int64(c.DestinationAmount()), destination)
	err := txrules.CheckOutput(output, txrules.DefaultRelayFeePerKb)
	if err != nil {
		return nil, fmt.Errorf("invalid destination output: %w", err)
	}

	version := m.TxVersion
	if version == 0 {
		version = wire.TxVersion
	}

	// The inputs are fixed by the candidate, so the input source returns
	// the same set no matter the amount requested.
	template := coinset.NewMsgTxWithInputCoins(version, c.CoinSet())
	inputSource := constantInputSource(c, template.TxIn)

	// A zero sized change script keeps the size estimate of txauthor in
	// line with the one used during the search, so the change amount it
	// computes is the difference between both fees. txauthor asks for a
	// script before deciding whether change is needed at all.
	changeSource := &txauthor.ChangeSource{
		ScriptSize: 0,
		NewScript: func() ([]byte, error) {
			return []byte{}, nil
		},
	}

	tx, err := txauthor.NewUnsignedTransaction(
		[]*wire.TxOut{output}, feeRate.Val(), inputSource,
		changeSource,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to build transaction for %v: %w",
			c, err)
	}

	if tx.ChangeIndex >= 0 {
		return nil, fmt.Errorf("%w: %v left over by %v",
			ErrChangeRequired,
			btcutil.Amount(tx.Tx.TxOut[tx.ChangeIndex].Value), c)
	}

	tx.Tx.Version = version

	log.Debugf("Materialized %v as tx %v", c, tx.Tx.TxHash())

	return tx, nil
}

// constantInputSource returns an input source that always provides the coins
// of the candidate.
func constantInputSource(c *Candidate,
	inputs []*wire.TxIn) txauthor.InputSource {

	scripts := make([][]byte, 0, len(c.Coins))
	values := make([]btcutil.Amount, 0, len(c.Coins))
	for _, coin := range c.Coins {
		scripts = append(scripts, coin.PkScript)
		values = append(values, coin.Amount())
	}

	return func(target btcutil.Amount) (btcutil.Amount, []*wire.TxIn,
		[]btcutil.Amount, [][]byte, error) {

		return c.Total, inputs, values, scripts, nil
	}
}

// A compile-time assertion to ensure AuthorMaterializer implements the
// TxMaterializer interface.
var _ TxMaterializer = (*AuthorMaterializer)(nil)
