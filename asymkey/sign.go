package asymkey

import (
	"github.com/opd-ai/envelope/crypto"
	"github.com/opd-ai/envelope/cryptoerr"
)

// Sign signs the bytes e streams.
func (k *Key) Sign(e crypto.Entry) ([]byte, error) {
	k.mu.Lock()
	if k.destroyed {
		k.mu.Unlock()
		return nil, errDestroyed()
	}
	if !k.pair.HasPrivate() {
		k.mu.Unlock()
		return nil, cryptoerr.ErrPublicOnly
	}
	private := append([]byte(nil), k.pair.Private...)
	k.mu.Unlock()
	defer crypto.ZeroBytes(private)

	scheme, err := k.provider.Signature(k.mode.KeyType)
	if err != nil {
		return nil, err
	}
	return crypto.SignEntry(scheme, private, k.cfg.RandReader(), e)
}

// Verify checks a signature over the bytes e streams. A mismatch returns
// false with a nil error.
func (k *Key) Verify(e crypto.Entry, signature []byte) (bool, error) {
	scheme, err := k.provider.Signature(k.mode.KeyType)
	if err != nil {
		return false, err
	}
	return crypto.VerifyEntry(scheme, k.pair.Public, e, signature)
}
