package crypto

import (
	stdcrypto "crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"io"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/opd-ai/envelope/catalog"
	"github.com/opd-ai/envelope/cryptoerr"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/sha3"
)

// Entry is anything that can stream the bytes it wants signed.
type Entry interface {
	WriteSigned(w io.Writer) error
}

// BytesEntry signs a fixed byte slice.
type BytesEntry []byte

// WriteSigned writes the slice.
func (b BytesEntry) WriteSigned(w io.Writer) error {
	_, err := w.Write(b)
	return err
}

// Signer accumulates message bytes and produces a signature.
type Signer interface {
	io.Writer
	Sign() ([]byte, error)
}

// Verifier accumulates message bytes and checks a signature.
type Verifier interface {
	io.Writer
	Verify(signature []byte) (bool, error)
}

// SignatureScheme creates signers and verifiers for one key type.
type SignatureScheme interface {
	Name() string
	NewSigner(private []byte, rnd io.Reader) (Signer, error)
	NewVerifier(public []byte) (Verifier, error)
}

// SignEntry streams e into a new signer.
func SignEntry(scheme SignatureScheme, private []byte, rnd io.Reader, e Entry) ([]byte, error) {
	signer, err := scheme.NewSigner(private, rnd)
	if err != nil {
		return nil, err
	}
	if err := e.WriteSigned(signer); err != nil {
		return nil, cryptoerr.Crypto("stream entry into signer", err)
	}
	return signer.Sign()
}

// VerifyEntry streams e into a new verifier.
func VerifyEntry(scheme SignatureScheme, public []byte, e Entry, signature []byte) (bool, error) {
	verifier, err := scheme.NewVerifier(public)
	if err != nil {
		return false, err
	}
	if err := e.WriteSigned(verifier); err != nil {
		return false, cryptoerr.Crypto("stream entry into verifier", err)
	}
	return verifier.Verify(signature)
}

func signatureScheme(t catalog.AsymKeyType) (SignatureScheme, error) {
	switch t {
	case catalog.AsymRSA2048:
		return rsaPSS{}, nil
	case catalog.AsymECP256:
		return nistECDSA{t: t, curve: elliptic.P256(), digest: sha256.New}, nil
	case catalog.AsymECP384:
		return nistECDSA{t: t, curve: elliptic.P384(), digest: sha512.New384}, nil
	case catalog.AsymECP521:
		return nistECDSA{t: t, curve: elliptic.P521(), digest: sha512.New}, nil
	case catalog.AsymSecp256k1:
		return secp256k1ECDSA{}, nil
	case catalog.AsymX25519:
		return ed25519ph{}, nil
	default:
		return nil, cryptoerr.Wrapf(cryptoerr.ErrUnknownAlgorithm, "asymmetric key type %d", t)
	}
}

// hashingState buffers a message as a running digest.
type hashingState struct {
	h hash.Hash
}

func (s *hashingState) Write(p []byte) (int, error) {
	return s.h.Write(p)
}

type signFunc func(digest []byte) ([]byte, error)
type verifyFunc func(digest, signature []byte) bool

type hashSigner struct {
	hashingState
	sign signFunc
}

func (s *hashSigner) Sign() ([]byte, error) {
	return s.sign(s.h.Sum(nil))
}

type hashVerifier struct {
	hashingState
	verify verifyFunc
}

func (v *hashVerifier) Verify(signature []byte) (bool, error) {
	if len(signature) == 0 {
		return false, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "empty signature")
	}
	return v.verify(v.h.Sum(nil), signature), nil
}

type rsaPSS struct{}

func (rsaPSS) Name() string { return catalog.AsymRSA2048.SignatureAlgorithm() }

func (rsaPSS) NewSigner(private []byte, rnd io.Reader) (Signer, error) {
	priv, err := parseRSAPrivate(private)
	if err != nil {
		return nil, err
	}
	return &hashSigner{
		hashingState: hashingState{h: sha256.New()},
		sign: func(digest []byte) ([]byte, error) {
			sig, err := rsa.SignPSS(orDefault(rnd), priv, stdcrypto.SHA256, digest, nil)
			if err != nil {
				return nil, cryptoerr.Crypto("RSA-PSS sign", err)
			}
			return sig, nil
		},
	}, nil
}

func (rsaPSS) NewVerifier(public []byte) (Verifier, error) {
	pub, err := parseRSAPublic(public)
	if err != nil {
		return nil, err
	}
	return &hashVerifier{
		hashingState: hashingState{h: sha256.New()},
		verify: func(digest, signature []byte) bool {
			return rsa.VerifyPSS(pub, stdcrypto.SHA256, digest, signature, nil) == nil
		},
	}, nil
}

type nistECDSA struct {
	t      catalog.AsymKeyType
	curve  elliptic.Curve
	digest func() hash.Hash
}

func (s nistECDSA) Name() string { return s.t.SignatureAlgorithm() }

func (s nistECDSA) NewSigner(private []byte, rnd io.Reader) (Signer, error) {
	priv, err := parseECPrivate(s.t, s.curve, private)
	if err != nil {
		return nil, err
	}
	return &hashSigner{
		hashingState: hashingState{h: s.digest()},
		sign: func(digest []byte) ([]byte, error) {
			sig, err := ecdsa.SignASN1(orDefault(rnd), priv, digest)
			if err != nil {
				return nil, cryptoerr.Crypto(s.Name()+" sign", err)
			}
			return sig, nil
		},
	}, nil
}

func (s nistECDSA) NewVerifier(public []byte) (Verifier, error) {
	pub, err := parseECPublic(s.t, s.curve, public)
	if err != nil {
		return nil, err
	}
	return &hashVerifier{
		hashingState: hashingState{h: s.digest()},
		verify: func(digest, signature []byte) bool {
			return ecdsa.VerifyASN1(pub, digest, signature)
		},
	}, nil
}

// secp256k1ECDSA signs Keccak-256 digests with recoverable signatures.
type secp256k1ECDSA struct{}

func (secp256k1ECDSA) Name() string { return catalog.AsymSecp256k1.SignatureAlgorithm() }

func (s secp256k1ECDSA) NewSigner(private []byte, _ io.Reader) (Signer, error) {
	priv, err := ethcrypto.ToECDSA(private)
	if err != nil {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "secp256k1 private key: %v", err)
	}
	return &hashSigner{
		hashingState: hashingState{h: sha3.NewLegacyKeccak256()},
		sign: func(digest []byte) ([]byte, error) {
			sig, err := ethcrypto.Sign(digest, priv)
			if err != nil {
				return nil, cryptoerr.Crypto(s.Name()+" sign", err)
			}
			return sig, nil
		},
	}, nil
}

func (secp256k1ECDSA) NewVerifier(public []byte) (Verifier, error) {
	if _, err := parseSecp256k1Public(public); err != nil {
		return nil, err
	}
	pub := make([]byte, len(public))
	copy(pub, public)
	return &hashVerifier{
		hashingState: hashingState{h: sha3.NewLegacyKeccak256()},
		verify: func(digest, signature []byte) bool {
			// VerifySignature takes [R || S] without the recovery id.
			if len(signature) != ethcrypto.SignatureLength {
				return false
			}
			return ethcrypto.VerifySignature(pub, digest, signature[:ethcrypto.RecoveryIDOffset])
		},
	}, nil
}

// ed25519ph signs SHA-512 prehashed messages with the Ed25519 key seeded by
// the X25519 private key.
type ed25519ph struct{}

var ed25519phOptions = &ed25519.Options{Hash: stdcrypto.SHA512}

func (ed25519ph) Name() string { return catalog.AsymX25519.SignatureAlgorithm() }

func (s ed25519ph) NewSigner(private []byte, _ io.Reader) (Signer, error) {
	if len(private) != X25519PrivateKeySize {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "X25519 private key of %d bytes", len(private))
	}
	seed := make([]byte, X25519PrivateKeySize)
	copy(seed, private)
	return &hashSigner{
		hashingState: hashingState{h: sha512.New()},
		sign: func(digest []byte) ([]byte, error) {
			// Convert the 32-byte seed to the 64-byte form ed25519 expects.
			edPrivateKey := ed25519.NewKeyFromSeed(seed)
			defer ZeroAll(edPrivateKey, seed)
			sig, err := edPrivateKey.Sign(nil, digest, ed25519phOptions)
			if err != nil {
				return nil, cryptoerr.Crypto(s.Name()+" sign", err)
			}
			return sig, nil
		},
	}, nil
}

func (ed25519ph) NewVerifier(public []byte) (Verifier, error) {
	if len(public) != X25519PublicKeySize {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "X25519 public key of %d bytes", len(public))
	}
	edPublicKey := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(edPublicKey, public[curve25519.PointSize:])
	return &hashVerifier{
		hashingState: hashingState{h: sha512.New()},
		verify: func(digest, signature []byte) bool {
			return ed25519.VerifyWithOptions(edPublicKey, digest, signature, ed25519phOptions) == nil
		},
	}, nil
}
