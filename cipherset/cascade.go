package cipherset

import (
	"bytes"
	"io"

	"github.com/opd-ai/envelope/catalog"
	"github.com/opd-ai/envelope/crypto"
	"github.com/opd-ai/envelope/cryptoerr"
	"github.com/opd-ai/envelope/haystack"
	"github.com/opd-ai/envelope/limits"
	"github.com/opd-ai/envelope/mode"
	"github.com/sirupsen/logrus"
)

// padBlock is the granularity of the single pad applied before the cascade.
const padBlock = 16

// RotateIV returns iv rotated left by (7*id) mod len(iv) positions, the IV
// seen by the stage running cipher t.
func RotateIV(iv []byte, t catalog.SymmetricKeyType) []byte {
	n := len(iv)
	out := make([]byte, n)
	if n == 0 {
		return out
	}
	by := (7 * int(t.ID())) % n
	for i := range out {
		out[i] = iv[(i+by)%n]
	}
	return out
}

// stagesFor resolves the stages of an encryption mode under the lock.
func (cs *CipherSet) stagesFor(types []catalog.SymmetricKeyType) ([]crypto.StageCipher, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	out := make([]crypto.StageCipher, len(types))
	for i, t := range types {
		stage, ok := cs.stages[t]
		if !ok {
			return nil, cryptoerr.Logicf("cipher set has no %s stage", t)
		}
		out[i] = stage
	}
	return out, nil
}

// EncryptBytes encrypts plaintext under a fresh random IV and cascade order,
// returning a self-describing blob. Empty plaintext is allowed.
func (cs *CipherSet) EncryptBytes(plaintext []byte) ([]byte, error) {
	if err := limits.ValidateProcessingBuffer(plaintext); err != nil {
		return nil, err
	}
	rnd := cs.cfg.RandReader()

	iv := make([]byte, limits.IVSize)
	if _, err := io.ReadFull(rnd, iv); err != nil {
		return nil, cryptoerr.Crypto("generate IV", err)
	}
	m, err := mode.NewEncryptionMode(rnd, cs.cfg.CipherSteps, cs.restricted)
	if err != nil {
		return nil, err
	}
	stages, err := cs.stagesFor(m.Types())
	if err != nil {
		return nil, err
	}

	data := pad(plaintext)
	for _, stage := range stages {
		out, err := stage.Encrypt(RotateIV(iv, stage.Type()), data)
		crypto.ZeroBytes(data)
		if err != nil {
			return nil, err
		}
		data = out
	}

	needle := append(m.Encode(), iv...)
	blob, err := haystack.Hide(needle, data)
	if err != nil {
		return nil, err
	}

	if logger := crypto.NewPackageLogger("cipherset", "EncryptBytes"); logger.DebugEnabled() {
		logger.WithFields(logrus.Fields{
			"steps":      m.Steps(),
			"plain_size": len(plaintext),
		}).WithPreview(blob, "blob").Debug("Encrypted payload")
	}
	return blob, nil
}

// DecryptBytes reverses EncryptBytes.
func (cs *CipherSet) DecryptBytes(blob []byte) ([]byte, error) {
	if err := limits.ValidateProcessingBuffer(blob); err != nil {
		return nil, err
	}
	needle, data, err := haystack.Unhide(blob)
	if err != nil {
		return nil, err
	}
	m, iv, err := mode.ParseEncryptionMode(needle)
	if err != nil {
		return nil, err
	}
	if len(iv) != limits.IVSize {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "IV of %d bytes", len(iv))
	}
	if m.Restricted() != cs.restricted {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "blob restricted=%t, cipher set restricted=%t",
			m.Restricted(), cs.restricted)
	}
	if len(data)%padBlock != 0 {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "ciphertext of %d bytes is not block aligned", len(data))
	}
	stages, err := cs.stagesFor(m.Types())
	if err != nil {
		return nil, err
	}

	for i := len(stages) - 1; i >= 0; i-- {
		out, err := stages[i].Decrypt(RotateIV(iv, stages[i].Type()), data)
		if i != len(stages)-1 {
			crypto.ZeroBytes(data)
		}
		if err != nil {
			return nil, err
		}
		data = out
	}

	plaintext, err := unpad(data)
	if err != nil {
		crypto.ZeroBytes(data)
		crypto.NewPackageLogger("cipherset", "DecryptBytes").
			WithField("steps", m.Steps()).
			WithError(err, "unpad").
			Warn("Rejected blob with bad padding")
		return nil, err
	}
	return plaintext, nil
}

// pad appends PKCS#7 padding to a fresh copy of b.
func pad(b []byte) []byte {
	n := padBlock - len(b)%padBlock
	out := make([]byte, len(b), len(b)+n)
	copy(out, b)
	return append(out, bytes.Repeat([]byte{byte(n)}, n)...)
}

// unpad strips PKCS#7 padding in place.
func unpad(b []byte) ([]byte, error) {
	if len(b) == 0 || len(b)%padBlock != 0 {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "padded length %d", len(b))
	}
	n := int(b[len(b)-1])
	if n == 0 || n > padBlock {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "bad padding")
	}
	for _, v := range b[len(b)-n:] {
		if int(v) != n {
			return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "bad padding")
		}
	}
	crypto.ZeroBytes(b[len(b)-n:])
	return b[:len(b)-n], nil
}
