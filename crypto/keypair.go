package crypto

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/subtle"
	"crypto/x509"
	"io"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/flynn/noise"
	"github.com/opd-ai/envelope/catalog"
	"github.com/opd-ai/envelope/cryptoerr"
	"golang.org/x/crypto/curve25519"
)

// X25519 key sizes. The public encoding carries the X25519 key followed by the
// Ed25519 verification key derived from the same seed.
const (
	X25519PrivateKeySize = curve25519.ScalarSize
	X25519PublicKeySize  = curve25519.PointSize + ed25519.PublicKeySize
)

// rsaBits is the modulus size of catalog.AsymRSA2048.
const rsaBits = 2048

// KeyPair holds the encoded forms of an asymmetric key pair. Private is nil for
// a public-only pair.
type KeyPair struct {
	Type    catalog.AsymKeyType
	Public  []byte
	Private []byte
}

// HasPrivate reports whether the private half is present.
func (kp *KeyPair) HasPrivate() bool {
	return kp != nil && len(kp.Private) > 0
}

// PublicOnly returns a copy without the private half.
func (kp *KeyPair) PublicOnly() *KeyPair {
	pub := make([]byte, len(kp.Public))
	copy(pub, kp.Public)
	return &KeyPair{Type: kp.Type, Public: pub}
}

// Equal compares both encodings; private halves in constant time.
func (kp *KeyPair) Equal(other *KeyPair) bool {
	if kp == nil || other == nil {
		return kp == other
	}
	return kp.Type == other.Type &&
		subtle.ConstantTimeCompare(kp.Public, other.Public) == 1 &&
		len(kp.Private) == len(other.Private) &&
		subtle.ConstantTimeCompare(kp.Private, other.Private) == 1
}

func nistCurve(t catalog.AsymKeyType) (elliptic.Curve, bool) {
	switch t {
	case catalog.AsymECP256:
		return elliptic.P256(), true
	case catalog.AsymECP384:
		return elliptic.P384(), true
	case catalog.AsymECP521:
		return elliptic.P521(), true
	default:
		return nil, false
	}
}

func generateKeyPair(t catalog.AsymKeyType, rnd io.Reader) (*KeyPair, error) {
	logger := NewLogger("GenerateKeyPair").WithField("key_type", t.String())
	logger.Entry("generating key pair")
	defer logger.Exit()

	kp, err := newKeyPair(t, rnd)
	if err != nil {
		logger.WithError(err, "generate_key_pair").Error("Key pair generation failed")
		return nil, err
	}
	logger.WithPreview(kp.Public, "public_key").Debug("Key pair generated")
	return kp, nil
}

func newKeyPair(t catalog.AsymKeyType, rnd io.Reader) (*KeyPair, error) {
	if curve, ok := nistCurve(t); ok {
		priv, err := ecdsa.GenerateKey(curve, rnd)
		if err != nil {
			return nil, cryptoerr.Crypto("generate "+t.String()+" key", err)
		}
		return encodeECDSA(t, priv)
	}

	switch t {
	case catalog.AsymRSA2048:
		priv, err := rsa.GenerateKey(rnd, rsaBits)
		if err != nil {
			return nil, cryptoerr.Crypto("generate RSA key", err)
		}
		return encodeRSA(priv)

	case catalog.AsymSecp256k1:
		return generateSecp256k1(rnd)

	case catalog.AsymX25519:
		dh, err := noise.DH25519.GenerateKeypair(rnd)
		if err != nil {
			return nil, cryptoerr.Crypto("generate X25519 key", err)
		}
		defer ZeroBytes(dh.Private)
		return encodeX25519(dh.Private)

	default:
		return nil, cryptoerr.Wrapf(cryptoerr.ErrUnknownAlgorithm, "asymmetric key type %d", t)
	}
}

func generateSecp256k1(rnd io.Reader) (*KeyPair, error) {
	scalar := make([]byte, 32)
	defer ZeroBytes(scalar)

	// Rejection sampling: ToECDSA refuses zero and scalars >= N.
	for attempt := 0; attempt < 64; attempt++ {
		if _, err := io.ReadFull(rnd, scalar); err != nil {
			return nil, cryptoerr.Crypto("generate secp256k1 key", err)
		}
		priv, err := ethcrypto.ToECDSA(scalar)
		if err != nil {
			continue
		}
		return &KeyPair{
			Type:    catalog.AsymSecp256k1,
			Public:  ethcrypto.FromECDSAPub(&priv.PublicKey),
			Private: ethcrypto.FromECDSA(priv),
		}, nil
	}
	return nil, cryptoerr.Crypto("generate secp256k1 key", nil)
}

func encodeRSA(priv *rsa.PrivateKey) (*KeyPair, error) {
	pub, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, cryptoerr.Crypto("encode RSA public key", err)
	}
	return &KeyPair{
		Type:    catalog.AsymRSA2048,
		Public:  pub,
		Private: x509.MarshalPKCS1PrivateKey(priv),
	}, nil
}

func encodeECDSA(t catalog.AsymKeyType, priv *ecdsa.PrivateKey) (*KeyPair, error) {
	der, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		return nil, cryptoerr.Crypto("encode "+t.String()+" private key", err)
	}
	pub, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, cryptoerr.Crypto("encode "+t.String()+" public key", err)
	}
	return &KeyPair{Type: t, Public: pub, Private: der}, nil
}

func encodeX25519(private []byte) (*KeyPair, error) {
	if len(private) != X25519PrivateKeySize {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "X25519 private key of %d bytes", len(private))
	}
	dhPub, err := curve25519.X25519(private, curve25519.Basepoint)
	if err != nil {
		return nil, cryptoerr.Crypto("derive X25519 public key", err)
	}
	signing := ed25519.NewKeyFromSeed(private)
	defer ZeroBytes(signing)

	pub := make([]byte, 0, X25519PublicKeySize)
	pub = append(pub, dhPub...)
	pub = append(pub, signing.Public().(ed25519.PublicKey)...)

	priv := make([]byte, X25519PrivateKeySize)
	copy(priv, private)
	return &KeyPair{Type: catalog.AsymX25519, Public: pub, Private: priv}, nil
}

func deriveKeyPair(t catalog.AsymKeyType, private, public []byte) (*KeyPair, error) {
	if len(private) == 0 {
		if err := validatePublic(t, public); err != nil {
			return nil, err
		}
		pub := make([]byte, len(public))
		copy(pub, public)
		return &KeyPair{Type: t, Public: pub}, nil
	}

	kp, err := keyPairFromPrivate(t, private)
	if err != nil {
		return nil, err
	}
	if public != nil && subtle.ConstantTimeCompare(kp.Public, public) != 1 {
		_ = WipeKeyPair(kp)
		err := cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "%s public key does not match private key", t)
		NewLogger("DeriveKeyPair").WithCaller().
			WithPreview(public, "public_key").
			WithError(err, "derive_key_pair").
			Warn("Rejected mismatched key pair")
		return nil, err
	}
	return kp, nil
}

func keyPairFromPrivate(t catalog.AsymKeyType, private []byte) (*KeyPair, error) {
	if curve, ok := nistCurve(t); ok {
		priv, err := parseECPrivate(t, curve, private)
		if err != nil {
			return nil, err
		}
		return encodeECDSA(t, priv)
	}

	switch t {
	case catalog.AsymRSA2048:
		priv, err := parseRSAPrivate(private)
		if err != nil {
			return nil, err
		}
		return encodeRSA(priv)

	case catalog.AsymSecp256k1:
		priv, err := ethcrypto.ToECDSA(private)
		if err != nil {
			return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "secp256k1 private key: %v", err)
		}
		return &KeyPair{
			Type:    t,
			Public:  ethcrypto.FromECDSAPub(&priv.PublicKey),
			Private: ethcrypto.FromECDSA(priv),
		}, nil

	case catalog.AsymX25519:
		return encodeX25519(private)

	default:
		return nil, cryptoerr.Wrapf(cryptoerr.ErrUnknownAlgorithm, "asymmetric key type %d", t)
	}
}

func validatePublic(t catalog.AsymKeyType, public []byte) error {
	if curve, ok := nistCurve(t); ok {
		_, err := parseECPublic(t, curve, public)
		return err
	}

	switch t {
	case catalog.AsymRSA2048:
		_, err := parseRSAPublic(public)
		return err
	case catalog.AsymSecp256k1:
		_, err := parseSecp256k1Public(public)
		return err
	case catalog.AsymX25519:
		if len(public) != X25519PublicKeySize {
			return cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "X25519 public key of %d bytes", len(public))
		}
		return nil
	default:
		return cryptoerr.Wrapf(cryptoerr.ErrUnknownAlgorithm, "asymmetric key type %d", t)
	}
}

func parseRSAPrivate(der []byte) (*rsa.PrivateKey, error) {
	priv, err := x509.ParsePKCS1PrivateKey(der)
	if err != nil {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "RSA private key: %v", err)
	}
	if priv.N.BitLen() != rsaBits {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "RSA modulus of %d bits", priv.N.BitLen())
	}
	return priv, nil
}

func parseRSAPublic(der []byte) (*rsa.PublicKey, error) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "RSA public key: %v", err)
	}
	pub, ok := key.(*rsa.PublicKey)
	if !ok || pub.N.BitLen() != rsaBits {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "not an RSA-%d public key", rsaBits)
	}
	return pub, nil
}

func parseECPrivate(t catalog.AsymKeyType, curve elliptic.Curve, der []byte) (*ecdsa.PrivateKey, error) {
	priv, err := x509.ParseECPrivateKey(der)
	if err != nil {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "%s private key: %v", t, err)
	}
	if priv.Curve != curve {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "%s private key on curve %s", t, priv.Curve.Params().Name)
	}
	return priv, nil
}

func parseECPublic(t catalog.AsymKeyType, curve elliptic.Curve, der []byte) (*ecdsa.PublicKey, error) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "%s public key: %v", t, err)
	}
	pub, ok := key.(*ecdsa.PublicKey)
	if !ok || pub.Curve != curve {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "not a %s public key", t)
	}
	return pub, nil
}

func parseSecp256k1Public(raw []byte) (*ecdsa.PublicKey, error) {
	pub, err := ethcrypto.UnmarshalPubkey(raw)
	if err != nil {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "secp256k1 public key: %v", err)
	}
	return pub, nil
}
