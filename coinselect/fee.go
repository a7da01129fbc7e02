// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselect

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/wallet/txsizes"
	"github.com/btcsuite/changeless/pkg/btcunit"
)

var (
	// ErrNegativeCount is returned when a fee is requested for a negative
	// number of inputs or outputs.
	ErrNegativeCount = errors.New("negative input or output count")

	// ErrUnknownInputType is returned when the fee estimator is
	// configured with an input type it can't size.
	ErrUnknownInputType = errors.New("unknown input type")
)

// FeeEstimator converts an input and output count into an absolute fee for a
// given fee rate. Implementations must be pure and monotonically
// non-decreasing in the number of inputs.
type FeeEstimator interface {
	// EstimateFee returns the fee of a transaction spending numInputs
	// inputs into numOutputs outputs at the given fee rate.
	EstimateFee(numInputs, numOutputs int,
		feeRate btcunit.SatPerKVByte) (btcutil.Amount, error)
}

// InputType describes the script type assumed for every input when sizing a
// transaction.
type InputType uint8

const (
	// InputP2WKH sizes inputs as native segwit P2WKH spends.
	InputP2WKH InputType = iota

	// InputP2TR sizes inputs as taproot key spends.
	InputP2TR

	// InputNestedP2WKH sizes inputs as P2SH wrapped P2WKH spends.
	InputNestedP2WKH

	// InputP2PKH sizes inputs as legacy P2PKH spends.
	InputP2PKH
)

// String returns the string representation of an input type.
func (t InputType) String() string {
	switch t {
	case InputP2WKH:
		return "p2wkh"

	case InputP2TR:
		return "p2tr"

	case InputNestedP2WKH:
		return "np2wkh"

	case InputP2PKH:
		return "p2pkh"

	default:
		return "unknown input type"
	}
}

// InputTypeFromScript classifies a previous output script the same way the
// txauthor package does when it sizes a transaction.
func InputTypeFromScript(pkScript []byte) InputType {
	switch {
	case txscript.IsPayToScriptHash(pkScript):
		return InputNestedP2WKH

	case txscript.IsPayToWitnessPubKeyHash(pkScript):
		return InputP2WKH

	case txscript.IsPayToTaproot(pkScript):
		return InputP2TR

	default:
		return InputP2PKH
	}
}

// VSizeFeeEstimator estimates fees from the virtual size computed by the
// txsizes package. Every input is assumed to be of InputType and every
// output to carry a script of OutputScriptSize bytes.
type VSizeFeeEstimator struct {
	// InputType is the script type assumed for all inputs.
	InputType InputType

	// OutputScriptSize is the size in bytes of each output script.
	OutputScriptSize int
}

// NewVSizeFeeEstimator creates a fee estimator for the given input type and
// destination script.
func NewVSizeFeeEstimator(inputType InputType,
	destination []byte) *VSizeFeeEstimator {

	return &VSizeFeeEstimator{
		InputType:        inputType,
		OutputScriptSize: len(destination),
	}
}

// EstimateFee returns the fee of a transaction spending numInputs inputs into
// numOutputs outputs at the given fee rate.
func (e *VSizeFeeEstimator) EstimateFee(numInputs, numOutputs int,
	feeRate btcunit.SatPerKVByte) (btcutil.Amount, error) {

	if numInputs < 0 || numOutputs < 0 {
		return 0, fmt.Errorf("%w: inputs=%d, outputs=%d",
			ErrNegativeCount, numInputs, numOutputs)
	}

	var p2pkh, p2tr, p2wpkh, nested int
	switch e.InputType {
	case InputP2WKH:
		p2wpkh = numInputs

	case InputP2TR:
		p2tr = numInputs

	case InputNestedP2WKH:
		nested = numInputs

	case InputP2PKH:
		p2pkh = numInputs

	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownInputType,
			e.InputType)
	}

	// Only the script length matters for the size estimate.
	outputs := make([]*wire.TxOut, 0, numOutputs)
	for i := 0; i < numOutputs; i++ {
		outputs = append(outputs, &wire.TxOut{
			PkScript: make([]byte, e.OutputScriptSize),
		})
	}

	vsize := txsizes.EstimateVirtualSize(
		p2pkh, p2tr, p2wpkh, nested, outputs, 0,
	)

	return feeRate.FeeForVSize(btcunit.NewVByteFromInt(vsize))
}

// FlatFeeEstimator charges the same fee for every selection regardless of its
// size or the fee rate. It is mostly useful for tests and for callers that
// have already negotiated an absolute fee.
type FlatFeeEstimator struct {
	// Fee is the absolute fee charged for every selection.
	Fee btcutil.Amount
}

// EstimateFee returns the flat fee.
func (e *FlatFeeEstimator) EstimateFee(numInputs, numOutputs int,
	_ btcunit.SatPerKVByte) (btcutil.Amount, error) {

	if numInputs < 0 || numOutputs < 0 {
		return 0, fmt.Errorf("%w: inputs=%d, outputs=%d",
			ErrNegativeCount, numInputs, numOutputs)
	}

	return e.Fee, nil
}

// A compile-time assertion to ensure that all fee estimators implement the
// FeeEstimator interface.
var _ FeeEstimator = (*VSizeFeeEstimator)(nil)
var _ FeeEstimator = (*FlatFeeEstimator)(nil)
