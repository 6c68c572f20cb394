package crypto

import (
	"crypto/elliptic"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/flynn/noise"
	"github.com/opd-ai/envelope/catalog"
	"github.com/opd-ai/envelope/cryptoerr"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/curve25519"
)

// KeyAgreement computes a shared secret from an own private key and a peer's
// public key, both in their catalog encodings.
type KeyAgreement interface {
	Name() string
	SharedSecret(private, peerPublic []byte) ([]byte, error)
}

func keyAgreement(t catalog.AsymKeyType) (KeyAgreement, error) {
	if curve, ok := nistCurve(t); ok {
		return nistAgreement{t: t, curve: curve}, nil
	}
	switch t {
	case catalog.AsymSecp256k1:
		return secp256k1Agreement{}, nil
	case catalog.AsymX25519:
		return x25519Agreement{}, nil
	case catalog.AsymRSA2048:
		return nil, cryptoerr.Logicf("%s keys do not support key agreement", t)
	default:
		return nil, cryptoerr.Wrapf(cryptoerr.ErrUnknownAlgorithm, "asymmetric key type %d", t)
	}
}

type nistAgreement struct {
	t     catalog.AsymKeyType
	curve elliptic.Curve
}

func (a nistAgreement) Name() string { return "ECDH/" + a.t.Curve() }

func (a nistAgreement) SharedSecret(private, peerPublic []byte) ([]byte, error) {
	priv, err := parseECPrivate(a.t, a.curve, private)
	if err != nil {
		return nil, err
	}
	pub, err := parseECPublic(a.t, a.curve, peerPublic)
	if err != nil {
		return nil, err
	}

	ecdhPriv, err := priv.ECDH()
	if err != nil {
		return nil, cryptoerr.Crypto("convert private key for ECDH", err)
	}
	ecdhPub, err := pub.ECDH()
	if err != nil {
		return nil, cryptoerr.Crypto("convert public key for ECDH", err)
	}
	return deriveShared(a.Name(), func() ([]byte, error) {
		return ecdhPriv.ECDH(ecdhPub)
	})
}

type secp256k1Agreement struct{}

func (secp256k1Agreement) Name() string { return "ECDH/secp256k1" }

func (secp256k1Agreement) SharedSecret(private, peerPublic []byte) ([]byte, error) {
	priv, err := ethcrypto.ToECDSA(private)
	if err != nil {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "secp256k1 private key: %v", err)
	}
	pub, err := parseSecp256k1Public(peerPublic)
	if err != nil {
		return nil, err
	}

	scalar := priv.D.FillBytes(make([]byte, 32))
	defer ZeroBytes(scalar)

	return deriveShared("ECDH/secp256k1", func() ([]byte, error) {
		x, _ := ethcrypto.S256().ScalarMult(pub.X, pub.Y, scalar)
		if x == nil || x.Sign() == 0 {
			return nil, cryptoerr.Crypto("secp256k1 scalar multiplication", nil)
		}
		return x.FillBytes(make([]byte, 32)), nil
	})
}

type x25519Agreement struct{}

func (x25519Agreement) Name() string { return "X25519" }

func (x25519Agreement) SharedSecret(private, peerPublic []byte) ([]byte, error) {
	if len(private) != X25519PrivateKeySize {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "X25519 private key of %d bytes", len(private))
	}
	if len(peerPublic) != X25519PublicKeySize {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "X25519 public key of %d bytes", len(peerPublic))
	}

	// Create copies of the keys to prevent modification
	privateCopy := make([]byte, X25519PrivateKeySize)
	copy(privateCopy, private)
	defer ZeroBytes(privateCopy)
	publicCopy := make([]byte, curve25519.PointSize)
	copy(publicCopy, peerPublic[:curve25519.PointSize])

	return deriveShared("X25519", func() ([]byte, error) {
		return noise.DH25519.DH(privateCopy, publicCopy)
	})
}

// deriveShared runs an agreement and normalizes its failure.
func deriveShared(name string, agree func() ([]byte, error)) ([]byte, error) {
	logrus.WithFields(logrus.Fields{
		"function":  "SharedSecret",
		"agreement": name,
	}).Debug("Computing shared secret")

	secret, err := agree()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":  "SharedSecret",
			"agreement": name,
			"error":     err.Error(),
		}).Error("Key agreement failed")
		return nil, cryptoerr.Crypto(name+" key agreement", err)
	}
	return secret, nil
}
