package catalog

import (
	"github.com/opd-ai/envelope/cryptoerr"
)

// DigestType identifies a hash function.
type DigestType uint8

// Digest types. Ids are stable across versions.
const (
	DigestSHA256     DigestType = 1
	DigestSHA384     DigestType = 2
	DigestSHA512_256 DigestType = 3
	DigestSHA3_256   DigestType = 4
	DigestBLAKE2b256 DigestType = 5
	DigestBLAKE2s256 DigestType = 6
)

var digestTypes = []DigestType{
	DigestSHA256,
	DigestSHA384,
	DigestSHA512_256,
	DigestSHA3_256,
	DigestBLAKE2b256,
	DigestBLAKE2s256,
}

// DigestTypes returns all digest types ordered by id.
func DigestTypes() []DigestType {
	out := make([]DigestType, len(digestTypes))
	copy(out, digestTypes)
	return out
}

// DigestTypeFromID looks up a digest type.
func DigestTypeFromID(id uint8) (DigestType, error) {
	for _, t := range digestTypes {
		if uint8(t) == id {
			return t, nil
		}
	}
	return 0, cryptoerr.Wrapf(cryptoerr.ErrUnknownAlgorithm, "digest type %d", id)
}

// ID returns the stable numeric id.
func (t DigestType) ID() uint8 {
	return uint8(t)
}

// Valid reports whether t is a known variant.
func (t DigestType) Valid() bool {
	_, err := DigestTypeFromID(uint8(t))
	return err == nil
}

// String returns the algorithm name.
func (t DigestType) String() string {
	switch t {
	case DigestSHA256:
		return "SHA-256"
	case DigestSHA384:
		return "SHA-384"
	case DigestSHA512_256:
		return "SHA-512/256"
	case DigestSHA3_256:
		return "SHA3-256"
	case DigestBLAKE2b256:
		return "BLAKE2b-256"
	case DigestBLAKE2s256:
		return "BLAKE2s-256"
	default:
		return "Unknown"
	}
}

// Size returns the digest length in bytes.
func (t DigestType) Size() int {
	switch t {
	case DigestSHA256, DigestSHA512_256, DigestSHA3_256, DigestBLAKE2b256, DigestBLAKE2s256:
		return 32
	case DigestSHA384:
		return 48
	default:
		return 0
	}
}
