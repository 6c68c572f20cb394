package catalog

import (
	"github.com/opd-ai/envelope/cryptoerr"
)

// AsymKeyType identifies an asymmetric key-pair algorithm.
type AsymKeyType uint8

// Asymmetric key types. Ids are stable across versions.
const (
	AsymRSA2048   AsymKeyType = 1
	AsymECP256    AsymKeyType = 2
	AsymECP384    AsymKeyType = 3
	AsymECP521    AsymKeyType = 4
	AsymSecp256k1 AsymKeyType = 5
	AsymX25519    AsymKeyType = 6
)

var asymKeyTypes = []AsymKeyType{
	AsymRSA2048,
	AsymECP256,
	AsymECP384,
	AsymECP521,
	AsymSecp256k1,
	AsymX25519,
}

// AsymKeyTypes returns all asymmetric key types ordered by id.
func AsymKeyTypes() []AsymKeyType {
	out := make([]AsymKeyType, len(asymKeyTypes))
	copy(out, asymKeyTypes)
	return out
}

// AsymKeyTypeFromID looks up an asymmetric key type.
func AsymKeyTypeFromID(id uint8) (AsymKeyType, error) {
	for _, t := range asymKeyTypes {
		if uint8(t) == id {
			return t, nil
		}
	}
	return 0, cryptoerr.Wrapf(cryptoerr.ErrUnknownAlgorithm, "asymmetric key type %d", id)
}

// ID returns the stable numeric id.
func (t AsymKeyType) ID() uint8 {
	return uint8(t)
}

// Valid reports whether t is a known variant.
func (t AsymKeyType) Valid() bool {
	_, err := AsymKeyTypeFromID(uint8(t))
	return err == nil
}

// String returns the variant name.
func (t AsymKeyType) String() string {
	switch t {
	case AsymRSA2048:
		return "RSA2048"
	case AsymECP256:
		return "ECP256"
	case AsymECP384:
		return "ECP384"
	case AsymECP521:
		return "ECP521"
	case AsymSecp256k1:
		return "Secp256k1"
	case AsymX25519:
		return "X25519"
	default:
		return "Unknown"
	}
}

// Algorithm returns the key algorithm family name.
func (t AsymKeyType) Algorithm() string {
	switch t {
	case AsymRSA2048:
		return "RSA"
	case AsymECP256, AsymECP384, AsymECP521, AsymSecp256k1:
		return "EC"
	case AsymX25519:
		return "XDH"
	default:
		return ""
	}
}

// Curve returns the curve name, or "" for non-elliptic types.
func (t AsymKeyType) Curve() string {
	switch t {
	case AsymECP256:
		return "P-256"
	case AsymECP384:
		return "P-384"
	case AsymECP521:
		return "P-521"
	case AsymSecp256k1:
		return "secp256k1"
	case AsymX25519:
		return "Curve25519"
	default:
		return ""
	}
}

// KeySize returns the key size in bits.
func (t AsymKeyType) KeySize() int {
	switch t {
	case AsymRSA2048:
		return 2048
	case AsymECP256, AsymSecp256k1, AsymX25519:
		return 256
	case AsymECP384:
		return 384
	case AsymECP521:
		return 521
	default:
		return 0
	}
}

// Elliptic reports whether keys of this type support key agreement.
func (t AsymKeyType) Elliptic() bool {
	switch t {
	case AsymECP256, AsymECP384, AsymECP521, AsymSecp256k1, AsymX25519:
		return true
	default:
		return false
	}
}

// SignatureAlgorithm returns the signature scheme used by keys of this type.
func (t AsymKeyType) SignatureAlgorithm() string {
	switch t {
	case AsymRSA2048:
		return "SHA256withRSA/PSS"
	case AsymECP256:
		return "SHA256withECDSA"
	case AsymECP384:
		return "SHA384withECDSA"
	case AsymECP521:
		return "SHA512withECDSA"
	case AsymSecp256k1:
		return "KECCAK256withECDSA"
	case AsymX25519:
		return "Ed25519ph"
	default:
		return ""
	}
}

// AgreementAlgorithm returns the key-agreement scheme, or "" for non-elliptic types.
func (t AsymKeyType) AgreementAlgorithm() string {
	switch t {
	case AsymECP256, AsymECP384, AsymECP521, AsymSecp256k1:
		return "ECDH"
	case AsymX25519:
		return "X25519"
	default:
		return ""
	}
}
