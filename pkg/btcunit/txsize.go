package btcunit

import "fmt"

// VByte defines a unit to express the transaction size. One virtual byte is
// 1/4th of a weight unit, rounded up. The tx virtual bytes is calculated
// using `TxWeight / 4`.
type VByte struct {
	vb uint64
}

// NewVByteFromInt creates a new VByte from the int sizes returned by the
// txsizes package. Negative sizes are treated as zero.
func NewVByteFromInt(val int) VByte {
	if val < 0 {
		return VByte{}
	}

	return VByte{vb: uint64(val)}
}

// Val returns the size in vbytes.
func (v VByte) Val() uint64 {
	return v.vb
}

// String returns the string representation of the virtual byte.
func (v VByte) String() string {
	return fmt.Sprintf("%d vb", v.vb)
}
