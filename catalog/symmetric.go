package catalog

import (
	"github.com/opd-ai/envelope/cryptoerr"
)

// SymmetricKeyType identifies a cascade stage cipher.
type SymmetricKeyType uint8

// Symmetric key types. Ids are stable across versions.
const (
	SymAES      SymmetricKeyType = 1
	SymTwofish  SymmetricKeyType = 2
	SymBlowfish SymmetricKeyType = 3
	SymCAST5    SymmetricKeyType = 4
	SymXTEA     SymmetricKeyType = 5
	SymChaCha20 SymmetricKeyType = 6
)

var symmetricKeyTypes = []SymmetricKeyType{
	SymAES,
	SymTwofish,
	SymBlowfish,
	SymCAST5,
	SymXTEA,
	SymChaCha20,
}

// SymmetricKeyTypes returns all symmetric key types ordered by id.
func SymmetricKeyTypes() []SymmetricKeyType {
	out := make([]SymmetricKeyType, len(symmetricKeyTypes))
	copy(out, symmetricKeyTypes)
	return out
}

// SymmetricKeyTypeFromID looks up a symmetric key type.
func SymmetricKeyTypeFromID(id uint8) (SymmetricKeyType, error) {
	for _, t := range symmetricKeyTypes {
		if uint8(t) == id {
			return t, nil
		}
	}
	return 0, cryptoerr.Wrapf(cryptoerr.ErrUnknownAlgorithm, "symmetric key type %d", id)
}

// ID returns the stable numeric id.
func (t SymmetricKeyType) ID() uint8 {
	return uint8(t)
}

// Valid reports whether t is a known variant.
func (t SymmetricKeyType) Valid() bool {
	_, err := SymmetricKeyTypeFromID(uint8(t))
	return err == nil
}

// String returns the algorithm name. The name is mixed into key derivation, so
// it must never change for an existing id.
func (t SymmetricKeyType) String() string {
	switch t {
	case SymAES:
		return "AES"
	case SymTwofish:
		return "Twofish"
	case SymBlowfish:
		return "Blowfish"
	case SymCAST5:
		return "CAST5"
	case SymXTEA:
		return "XTEA"
	case SymChaCha20:
		return "ChaCha20"
	default:
		return "Unknown"
	}
}

// KeyLength returns the key length in bytes. Restricted keys use the shorter
// length where the algorithm has one.
func (t SymmetricKeyType) KeyLength(restricted bool) int {
	switch t {
	case SymAES, SymTwofish:
		if restricted {
			return 16
		}
		return 32
	case SymBlowfish:
		if restricted {
			return 16
		}
		return 56
	case SymCAST5, SymXTEA:
		return 16
	case SymChaCha20:
		// ChaCha20 only defines 256-bit keys.
		return 32
	default:
		return 0
	}
}

// BlockSize returns the cipher block size in bytes, or 0 for stream ciphers.
func (t SymmetricKeyType) BlockSize() int {
	switch t {
	case SymAES, SymTwofish:
		return 16
	case SymBlowfish, SymCAST5, SymXTEA:
		return 8
	default:
		return 0
	}
}

// ValidKeyLength reports whether n is the full or restricted key length of t.
func (t SymmetricKeyType) ValidKeyLength(n int) bool {
	return n > 0 && (n == t.KeyLength(false) || n == t.KeyLength(true))
}
