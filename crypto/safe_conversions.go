package crypto

import (
	"encoding/binary"
	"math"

	"github.com/opd-ai/envelope/cryptoerr"
)

// safeIntToUint32 converts a loop counter, rejecting values that would wrap.
//
// CWE-190: Integer Overflow or Wraparound
func safeIntToUint32(val int) (uint32, error) {
	if val < 0 || uint64(val) > math.MaxUint32 {
		return 0, cryptoerr.Logicf("counter %d does not fit in 32 bits", val)
	}
	return uint32(val), nil
}

// CounterBytes encodes n as the 4-byte big-endian counter mixed into
// key-derivation rounds.
func CounterBytes(n int) ([]byte, error) {
	v, err := safeIntToUint32(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, v)
	return out, nil
}
