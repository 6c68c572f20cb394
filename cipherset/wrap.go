package cipherset

import (
	"github.com/opd-ai/envelope/catalog"
	"github.com/opd-ai/envelope/crypto"
	"github.com/opd-ai/envelope/cryptoerr"
	"github.com/opd-ai/envelope/haystack"
	"github.com/opd-ai/envelope/limits"
	"github.com/opd-ai/envelope/mode"
)

// SecureSymmetricKey wraps key under the cascade and tags it with the key type.
// The wrapped form is cached per key, so repeated calls return the same bytes.
func (cs *CipherSet) SecureSymmetricKey(key *crypto.SymmetricKey) ([]byte, error) {
	if key == nil {
		return nil, cryptoerr.Logicf("cannot wrap nil key")
	}

	cs.mu.Lock()
	if wrapped, ok := cs.wrapped[key]; ok {
		cs.mu.Unlock()
		return append([]byte(nil), wrapped...), nil
	}
	cs.mu.Unlock()

	raw := key.Bytes()
	defer crypto.ZeroBytes(raw)
	ct, err := cs.EncryptBytes(raw)
	if err != nil {
		return nil, err
	}
	wrapped, err := haystack.Hide([]byte{key.Type.ID()}, ct)
	if err != nil {
		return nil, err
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	// A concurrent caller may have won; keep the first form.
	if existing, ok := cs.wrapped[key]; ok {
		return append([]byte(nil), existing...), nil
	}
	cs.wrapped[key] = wrapped
	return append([]byte(nil), wrapped...), nil
}

// DeriveSymmetricKey unwraps a key produced by SecureSymmetricKey.
func (cs *CipherSet) DeriveSymmetricKey(wrapped []byte) (*crypto.SymmetricKey, error) {
	tag, ct, err := haystack.Unhide(wrapped)
	if err != nil {
		return nil, err
	}
	if len(tag) != 1 {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "symmetric key tag of %d bytes", len(tag))
	}
	t, err := catalog.SymmetricKeyTypeFromID(tag[0])
	if err != nil {
		return nil, err
	}
	raw, err := cs.DecryptBytes(ct)
	if err != nil {
		return nil, err
	}
	defer crypto.ZeroBytes(raw)
	return crypto.NewSymmetricKey(t, raw)
}

// SecurePrivateKey wraps the private half of kp and tags it with m.
func (cs *CipherSet) SecurePrivateKey(kp *crypto.KeyPair, m mode.AsymKeyMode) ([]byte, error) {
	if !kp.HasPrivate() {
		return nil, cryptoerr.ErrPublicOnly
	}
	if kp.Type != m.KeyType {
		return nil, cryptoerr.Logicf("%s key with %s mode", kp.Type, m.KeyType)
	}
	ct, err := cs.EncryptBytes(kp.Private)
	if err != nil {
		return nil, err
	}
	wrapped, err := haystack.Hide(m.Encode(), ct)
	if err != nil {
		return nil, err
	}
	if err := limits.ValidateWrappedPrivateKey(wrapped); err != nil {
		return nil, err
	}
	return wrapped, nil
}

// DeriveAsymmetricKey unwraps a private key produced by SecurePrivateKey and
// rebuilds the full key pair.
func (cs *CipherSet) DeriveAsymmetricKey(wrapped []byte) (*crypto.KeyPair, mode.AsymKeyMode, error) {
	if err := limits.ValidateWrappedPrivateKey(wrapped); err != nil {
		return nil, mode.AsymKeyMode{}, err
	}
	tag, ct, err := haystack.Unhide(wrapped)
	if err != nil {
		return nil, mode.AsymKeyMode{}, err
	}
	m, err := mode.DecodeAsymKeyMode(tag)
	if err != nil {
		return nil, mode.AsymKeyMode{}, err
	}
	private, err := cs.DecryptBytes(ct)
	if err != nil {
		return nil, mode.AsymKeyMode{}, err
	}
	defer crypto.ZeroBytes(private)

	kp, err := cs.provider.DeriveKeyPair(m.KeyType, private, nil)
	if err != nil {
		return nil, mode.AsymKeyMode{}, err
	}
	return kp, m, nil
}
