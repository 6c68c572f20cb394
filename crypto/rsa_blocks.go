package crypto

import (
	"crypto/rsa"
	"crypto/sha256"
	"io"

	"github.com/opd-ai/envelope/catalog"
	"github.com/opd-ai/envelope/cryptoerr"
)

// RSA-OAEP-SHA256 block sizes for a 2048-bit modulus.
const (
	RSACipherBlockSize = rsaBits / 8
	RSAPlainBlockSize  = RSACipherBlockSize - 2*sha256.Size - 2
)

// BlockFunc transforms one block.
type BlockFunc func(block []byte) ([]byte, error)

// BlockCipher encrypts with a public key and decrypts with a private key, one
// block at a time.
type BlockCipher interface {
	PlainBlockSize() int
	CipherBlockSize() int
	NewEncrypter(public []byte, rnd io.Reader) (BlockFunc, error)
	NewDecrypter(private []byte) (BlockFunc, error)
}

func blockCipher(t catalog.AsymKeyType) (BlockCipher, error) {
	switch t {
	case catalog.AsymRSA2048:
		return rsaOAEP{}, nil
	default:
		if t.Valid() {
			return nil, cryptoerr.Logicf("%s keys have no block cipher", t)
		}
		return nil, cryptoerr.Wrapf(cryptoerr.ErrUnknownAlgorithm, "asymmetric key type %d", t)
	}
}

type rsaOAEP struct{}

func (rsaOAEP) PlainBlockSize() int  { return RSAPlainBlockSize }
func (rsaOAEP) CipherBlockSize() int { return RSACipherBlockSize }

func (rsaOAEP) NewEncrypter(public []byte, rnd io.Reader) (BlockFunc, error) {
	pub, err := parseRSAPublic(public)
	if err != nil {
		return nil, err
	}
	return func(block []byte) ([]byte, error) {
		if len(block) > RSAPlainBlockSize {
			return nil, cryptoerr.Logicf("RSA block of %d bytes exceeds %d", len(block), RSAPlainBlockSize)
		}
		out, err := rsa.EncryptOAEP(sha256.New(), orDefault(rnd), pub, block, nil)
		if err != nil {
			return nil, cryptoerr.Crypto("RSA-OAEP encrypt", err)
		}
		return out, nil
	}, nil
}

func (rsaOAEP) NewDecrypter(private []byte) (BlockFunc, error) {
	priv, err := parseRSAPrivate(private)
	if err != nil {
		return nil, err
	}
	return func(block []byte) ([]byte, error) {
		if len(block) != RSACipherBlockSize {
			return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "RSA block of %d bytes", len(block))
		}
		out, err := rsa.DecryptOAEP(sha256.New(), nil, priv, block, nil)
		if err != nil {
			return nil, cryptoerr.Crypto("RSA-OAEP decrypt", err)
		}
		return out, nil
	}, nil
}
