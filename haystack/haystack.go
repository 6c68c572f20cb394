// Package haystack hides a short byte sequence (the needle) inside a longer one
// (the haystack) so that the result looks like the haystack alone.
//
// The first haystack byte is the mask. The needle is spliced in at
// 1 + (mask>>4 & 0x0F), after the mask-derived prefix of the haystack, and is
// preceded by its length. A signature byte leads the blob. Every byte that does
// not belong to the haystack is XORed with the mask:
//
//	blob = sig^mask ‖ haystack[:pos] ‖ len^mask ‖ needle^mask ‖ haystack[pos:]
//
// Unhide recovers both parts exactly.
package haystack

import (
	"github.com/opd-ai/envelope/crypto"
	"github.com/opd-ai/envelope/cryptoerr"
	"github.com/opd-ai/envelope/limits"
)

// Signature marks a hidden blob once unmasked.
const Signature byte = 0x5b

// position returns where the needle is spliced for a given mask byte.
func position(mask byte) int {
	return 1 + int((mask>>4)&0x0F)
}

// Hide embeds needle into haystack. It fails with a Logic error when the needle
// is longer than limits.MaxNeedle or the haystack shorter than limits.MinHaystack.
// Neither input is modified.
func Hide(needle, haystack []byte) ([]byte, error) {
	if len(needle) > limits.MaxNeedle {
		return nil, cryptoerr.Logicf("needle of %d bytes exceeds %d", len(needle), limits.MaxNeedle)
	}
	if len(haystack) < limits.MinHaystack {
		return nil, cryptoerr.Logicf("haystack of %d bytes is shorter than %d", len(haystack), limits.MinHaystack)
	}

	mask := haystack[0]
	pos := position(mask)

	blob := make([]byte, 0, len(haystack)+len(needle)+limits.HiddenOverhead)
	blob = append(blob, Signature^mask)
	blob = append(blob, haystack[:pos]...)
	blob = append(blob, byte(len(needle))^mask)
	for _, b := range needle {
		blob = append(blob, b^mask)
	}
	blob = append(blob, haystack[pos:]...)
	return blob, nil
}

// Unhide splits a blob produced by Hide into its needle and haystack. Malformed
// input fails with cryptoerr.ErrInvalidFormat. The returned slices are fresh
// copies.
func Unhide(blob []byte) (needle, haystack []byte, err error) {
	if len(blob) < limits.MinHiddenBlob {
		return nil, nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "blob of %d bytes is shorter than %d", len(blob), limits.MinHiddenBlob)
	}

	mask := blob[1]
	if blob[0]^mask != Signature {
		crypto.NewPackageLogger("haystack", "Unhide").
			WithPreview(blob, "blob").
			Debug("Signature byte mismatch")
		return nil, nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "needle not found")
	}

	pos := position(mask)
	lenIdx := 1 + pos
	n := int(blob[lenIdx] ^ mask)
	start := lenIdx + 1
	end := start + n
	if end > len(blob) || len(blob)-limits.HiddenOverhead-n < limits.MinHaystack {
		return nil, nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "needle length %d overruns blob of %d bytes", n, len(blob))
	}

	needle = make([]byte, n)
	for i := range needle {
		needle[i] = blob[start+i] ^ mask
	}

	haystack = make([]byte, 0, len(blob)-limits.HiddenOverhead-n)
	haystack = append(haystack, blob[1:lenIdx]...)
	haystack = append(haystack, blob[end:]...)
	return needle, haystack, nil
}
