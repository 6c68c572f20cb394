// Package nybble packs small integer fields into 4-bit slots of a byte slice.
//
// Field i lives in byte i/2: even indices occupy the low nybble, odd indices
// the high nybble. A trailing unused high nybble is always zero, so an array of
// n fields encodes to exactly (n+1)/2 bytes.
//
// Layouts are described by a Schema, an ordered list of named fields each
// declaring its own slot count. Offsets are computed once when the schema is
// built.
package nybble

import (
	"fmt"

	"github.com/opd-ai/envelope/cryptoerr"
)

// MaxValue is the largest value a single slot holds.
const MaxValue = 0x0F

// Array is a fixed-length sequence of 4-bit values.
type Array struct {
	data []byte
	n    int
}

// NewArray returns a zeroed array of n slots.
func NewArray(n int) *Array {
	if n < 0 {
		n = 0
	}
	return &Array{data: make([]byte, ByteLen(n)), n: n}
}

// FromBytes decodes an array of n slots. The input length must be exactly
// ByteLen(n) and any padding nybble must be zero.
func FromBytes(b []byte, n int) (*Array, error) {
	if n < 0 || len(b) != ByteLen(n) {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "nybble array of %d slots needs %d bytes, got %d", n, ByteLen(n), len(b))
	}
	if n%2 == 1 && b[len(b)-1]>>4 != 0 {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "non-zero padding nybble")
	}
	data := make([]byte, len(b))
	copy(data, b)
	return &Array{data: data, n: n}, nil
}

// ByteLen returns the encoded length of n slots.
func ByteLen(n int) int {
	return (n + 1) / 2
}

// Len returns the number of slots.
func (a *Array) Len() int {
	return a.n
}

// Get returns slot i. It panics if i is out of range, like a slice index.
func (a *Array) Get(i int) uint8 {
	if i < 0 || i >= a.n {
		panic(fmt.Sprintf("nybble: index %d out of range [0,%d)", i, a.n))
	}
	b := a.data[i/2]
	if i%2 == 0 {
		return b & 0x0F
	}
	return b >> 4
}

// Set stores v in slot i.
func (a *Array) Set(i int, v uint8) error {
	if i < 0 || i >= a.n {
		return cryptoerr.Logicf("nybble index %d out of range [0,%d)", i, a.n)
	}
	if v > MaxValue {
		return cryptoerr.Logicf("nybble value %d does not fit in 4 bits", v)
	}
	idx := i / 2
	if i%2 == 0 {
		a.data[idx] = (a.data[idx] & 0xF0) | v
	} else {
		a.data[idx] = (a.data[idx] & 0x0F) | v<<4
	}
	return nil
}

// Bytes returns a copy of the encoded array.
func (a *Array) Bytes() []byte {
	out := make([]byte, len(a.data))
	copy(out, a.data)
	return out
}
