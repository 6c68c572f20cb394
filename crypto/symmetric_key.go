package crypto

import (
	"crypto/subtle"
	"io"

	"github.com/opd-ai/envelope/catalog"
	"github.com/opd-ai/envelope/cryptoerr"
)

// SymmetricKey is raw key material for one catalog cipher.
type SymmetricKey struct {
	Type catalog.SymmetricKeyType
	key  []byte
}

// NewSymmetricKey copies raw into a key of type t. The length must be the full
// or restricted length of t.
func NewSymmetricKey(t catalog.SymmetricKeyType, raw []byte) (*SymmetricKey, error) {
	if !t.Valid() {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrUnknownAlgorithm, "symmetric key type %d", t)
	}
	if !t.ValidKeyLength(len(raw)) {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "%s key of %d bytes", t, len(raw))
	}
	key := make([]byte, len(raw))
	copy(key, raw)
	return &SymmetricKey{Type: t, key: key}, nil
}

func generateSecretKey(t catalog.SymmetricKeyType, length int, rnd io.Reader) (*SymmetricKey, error) {
	if !t.ValidKeyLength(length) {
		return nil, cryptoerr.Logicf("%s does not take %d-byte keys", t, length)
	}
	raw := make([]byte, length)
	defer ZeroBytes(raw)
	if _, err := io.ReadFull(rnd, raw); err != nil {
		return nil, cryptoerr.Crypto("generate secret key", err)
	}
	return NewSymmetricKey(t, raw)
}

// Bytes returns a copy of the key material.
func (k *SymmetricKey) Bytes() []byte {
	out := make([]byte, len(k.key))
	copy(out, k.key)
	return out
}

// Len returns the key length in bytes.
func (k *SymmetricKey) Len() int {
	return len(k.key)
}

// Restricted reports whether the key uses the restricted length of a type
// whose full length differs.
func (k *SymmetricKey) Restricted() bool {
	return len(k.key) == k.Type.KeyLength(true) && len(k.key) != k.Type.KeyLength(false)
}

// Equal compares type and material in constant time.
func (k *SymmetricKey) Equal(other *SymmetricKey) bool {
	if k == nil || other == nil {
		return k == other
	}
	return k.Type == other.Type && subtle.ConstantTimeCompare(k.key, other.key) == 1
}

// Wipe zeroes the key material.
func (k *SymmetricKey) Wipe() {
	ZeroBytes(k.key)
}
