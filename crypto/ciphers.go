package crypto

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/opd-ai/envelope/catalog"
	"github.com/opd-ai/envelope/cryptoerr"
	"golang.org/x/crypto/blowfish"
	"golang.org/x/crypto/cast5"
	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/twofish"
	"golang.org/x/crypto/xtea"
)

// StageCipher is one length-preserving stage of an encryption cascade.
type StageCipher interface {
	// Type is the catalog cipher this stage runs.
	Type() catalog.SymmetricKeyType

	// Key returns the stage key.
	Key() *SymmetricKey

	// IVSize is how many leading bytes of the stage IV are consumed.
	IVSize() int

	// Encrypt returns the ciphertext of src under iv.
	Encrypt(iv, src []byte) ([]byte, error)

	// Decrypt returns the plaintext of src under iv.
	Decrypt(iv, src []byte) ([]byte, error)
}

// ChaCha20NonceSize is the IV prefix a ChaCha20 stage consumes.
const ChaCha20NonceSize = chacha20.NonceSize

func newStageCipher(t catalog.SymmetricKeyType, key *SymmetricKey) (StageCipher, error) {
	if key == nil || key.Type != t {
		return nil, cryptoerr.Logicf("stage %s needs a %s key", t, t)
	}
	switch t {
	case catalog.SymChaCha20:
		if key.Len() != chacha20.KeySize {
			return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "ChaCha20 key of %d bytes", key.Len())
		}
		return &streamStage{key: key}, nil
	case catalog.SymAES, catalog.SymTwofish, catalog.SymBlowfish, catalog.SymCAST5, catalog.SymXTEA:
		block, err := newBlock(t, key.key)
		if err != nil {
			return nil, cryptoerr.Crypto("init "+t.String(), err)
		}
		return &ctrStage{key: key, block: block}, nil
	default:
		return nil, cryptoerr.Wrapf(cryptoerr.ErrUnknownAlgorithm, "symmetric key type %d", t)
	}
}

func newBlock(t catalog.SymmetricKeyType, key []byte) (cipher.Block, error) {
	switch t {
	case catalog.SymAES:
		return aes.NewCipher(key)
	case catalog.SymTwofish:
		return twofish.NewCipher(key)
	case catalog.SymBlowfish:
		return blowfish.NewCipher(key)
	case catalog.SymCAST5:
		return cast5.NewCipher(key)
	case catalog.SymXTEA:
		return xtea.NewCipher(key)
	default:
		return nil, cryptoerr.Wrapf(cryptoerr.ErrUnknownAlgorithm, "block cipher %d", t)
	}
}

// ctrStage runs a block cipher in counter mode.
type ctrStage struct {
	key   *SymmetricKey
	block cipher.Block
}

func (s *ctrStage) Type() catalog.SymmetricKeyType { return s.key.Type }
func (s *ctrStage) Key() *SymmetricKey             { return s.key }
func (s *ctrStage) IVSize() int                    { return s.block.BlockSize() }

func (s *ctrStage) Encrypt(iv, src []byte) ([]byte, error) {
	return s.xor(iv, src)
}

func (s *ctrStage) Decrypt(iv, src []byte) ([]byte, error) {
	return s.xor(iv, src)
}

func (s *ctrStage) xor(iv, src []byte) ([]byte, error) {
	if len(iv) < s.IVSize() {
		return nil, cryptoerr.Logicf("%s stage needs %d IV bytes, got %d", s.key.Type, s.IVSize(), len(iv))
	}
	dst := make([]byte, len(src))
	cipher.NewCTR(s.block, iv[:s.IVSize()]).XORKeyStream(dst, src)
	return dst, nil
}

// streamStage runs ChaCha20 keyed per call.
type streamStage struct {
	key *SymmetricKey
}

func (s *streamStage) Type() catalog.SymmetricKeyType { return s.key.Type }
func (s *streamStage) Key() *SymmetricKey             { return s.key }
func (s *streamStage) IVSize() int                    { return ChaCha20NonceSize }

func (s *streamStage) Encrypt(iv, src []byte) ([]byte, error) {
	return s.xor(iv, src)
}

func (s *streamStage) Decrypt(iv, src []byte) ([]byte, error) {
	return s.xor(iv, src)
}

func (s *streamStage) xor(iv, src []byte) ([]byte, error) {
	if len(iv) < ChaCha20NonceSize {
		return nil, cryptoerr.Logicf("ChaCha20 stage needs %d IV bytes, got %d", ChaCha20NonceSize, len(iv))
	}
	c, err := chacha20.NewUnauthenticatedCipher(s.key.key, iv[:ChaCha20NonceSize])
	if err != nil {
		return nil, cryptoerr.Crypto("init ChaCha20", err)
	}
	dst := make([]byte, len(src))
	c.XORKeyStream(dst, src)
	return dst, nil
}
