package asymkey

import (
	"encoding/base64"

	"github.com/opd-ai/envelope/catalog"
	"github.com/opd-ai/envelope/crypto"
	"github.com/opd-ai/envelope/cryptoerr"
	"github.com/opd-ai/envelope/haystack"
	"github.com/opd-ai/envelope/limits"
	"github.com/opd-ai/envelope/mode"
)

// EncryptFor encrypts plaintext so that only partner can read it.
func (k *Key) EncryptFor(partner *Key, plaintext []byte) ([]byte, error) {
	if k.mode.KeyType.Elliptic() {
		cs, err := k.CipherSetFor(partner)
		if err != nil {
			return nil, err
		}
		return cs.EncryptBytes(plaintext)
	}
	if err := k.checkPartner(partner); err != nil {
		return nil, err
	}
	return k.blockEncrypt(partner, plaintext)
}

// DecryptFrom decrypts a blob that partner encrypted for this key.
func (k *Key) DecryptFrom(partner *Key, blob []byte) ([]byte, error) {
	if k.mode.KeyType.Elliptic() {
		cs, err := k.CipherSetFor(partner)
		if err != nil {
			return nil, err
		}
		return cs.DecryptBytes(blob)
	}
	if err := k.checkPartner(partner); err != nil {
		return nil, err
	}
	return k.blockDecrypt(blob)
}

// EncryptString encrypts s for partner and returns it base64 encoded.
func (k *Key) EncryptString(partner *Key, s string) (string, error) {
	ct, err := k.EncryptFor(partner, []byte(s))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ct), nil
}

// DecryptString reverses EncryptString.
func (k *Key) DecryptString(partner *Key, s string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "base64: %v", err)
	}
	pt, err := k.DecryptFrom(partner, blob)
	if err != nil {
		return "", err
	}
	defer crypto.ZeroBytes(pt)
	return string(pt), nil
}

// blockEncrypt encrypts with the partner's public key in OAEP blocks.
func (k *Key) blockEncrypt(partner *Key, plaintext []byte) ([]byte, error) {
	if err := limits.ValidateProcessingBuffer(plaintext); err != nil {
		return nil, err
	}
	bc, err := k.provider.BlockCipher(k.mode.KeyType)
	if err != nil {
		return nil, err
	}
	encrypt, err := bc.NewEncrypter(partner.pair.Public, k.cfg.RandReader())
	if err != nil {
		return nil, err
	}

	size := bc.PlainBlockSize()
	out := make([]byte, 0, (len(plaintext)/size+1)*bc.CipherBlockSize())
	for off := 0; off < len(plaintext); off += size {
		end := off + size
		if end > len(plaintext) {
			end = len(plaintext)
		}
		block, err := encrypt(plaintext[off:end])
		if err != nil {
			return nil, err
		}
		out = append(out, block...)
	}
	return out, nil
}

// blockDecrypt decrypts with the own private key in OAEP blocks.
func (k *Key) blockDecrypt(blob []byte) ([]byte, error) {
	if err := limits.ValidateProcessingBuffer(blob); err != nil {
		return nil, err
	}
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

	bc, err := k.provider.BlockCipher(k.mode.KeyType)
	if err != nil {
		return nil, err
	}
	size := bc.CipherBlockSize()
	if len(blob)%size != 0 {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "ciphertext of %d bytes is not a multiple of %d", len(blob), size)
	}
	decrypt, err := bc.NewDecrypter(private)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(blob)/size*bc.PlainBlockSize())
	for off := 0; off < len(blob); off += size {
		block, err := decrypt(blob[off : off+size])
		if err != nil {
			crypto.ZeroBytes(out)
			return nil, err
		}
		out = append(out, block...)
		crypto.ZeroBytes(block)
	}
	return out, nil
}

// SecureSymmetricKeyFor wraps key for partner. Repeated calls with the same
// key and partner return the same bytes.
func (k *Key) SecureSymmetricKeyFor(partner *Key, key *crypto.SymmetricKey) ([]byte, error) {
	if k.mode.KeyType.Elliptic() {
		cs, err := k.CipherSetFor(partner)
		if err != nil {
			return nil, err
		}
		return cs.SecureSymmetricKey(key)
	}
	if err := k.checkPartner(partner); err != nil {
		return nil, err
	}
	if key == nil {
		return nil, cryptoerr.Logicf("cannot wrap nil key")
	}

	id := wrapID{partner: partner.identity(), key: key}
	k.mu.Lock()
	if w, ok := k.wrapped[id]; ok {
		k.mu.Unlock()
		return append([]byte(nil), w...), nil
	}
	k.mu.Unlock()

	raw := key.Bytes()
	defer crypto.ZeroBytes(raw)
	ct, err := k.blockEncrypt(partner, raw)
	if err != nil {
		return nil, err
	}
	wrapped, err := haystack.Hide([]byte{key.Type.ID()}, ct)
	if err != nil {
		return nil, err
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if w, ok := k.wrapped[id]; ok {
		return append([]byte(nil), w...), nil
	}
	k.wrapped[id] = wrapped
	return append([]byte(nil), wrapped...), nil
}

// DeriveSymmetricKeyFrom unwraps a key that partner wrapped for this key.
func (k *Key) DeriveSymmetricKeyFrom(partner *Key, wrapped []byte) (*crypto.SymmetricKey, error) {
	if k.mode.KeyType.Elliptic() {
		cs, err := k.CipherSetFor(partner)
		if err != nil {
			return nil, err
		}
		return cs.DeriveSymmetricKey(wrapped)
	}
	if err := k.checkPartner(partner); err != nil {
		return nil, err
	}
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
	raw, err := k.blockDecrypt(ct)
	if err != nil {
		return nil, err
	}
	defer crypto.ZeroBytes(raw)
	return crypto.NewSymmetricKey(t, raw)
}

// SecurePrivateKeyFor wraps the private half of kp for partner.
func (k *Key) SecurePrivateKeyFor(partner *Key, kp *crypto.KeyPair, m mode.AsymKeyMode) ([]byte, error) {
	if k.mode.KeyType.Elliptic() {
		cs, err := k.CipherSetFor(partner)
		if err != nil {
			return nil, err
		}
		return cs.SecurePrivateKey(kp, m)
	}
	if err := k.checkPartner(partner); err != nil {
		return nil, err
	}
	if !kp.HasPrivate() {
		return nil, cryptoerr.ErrPublicOnly
	}
	if kp.Type != m.KeyType {
		return nil, cryptoerr.Logicf("%s key with %s mode", kp.Type, m.KeyType)
	}
	ct, err := k.blockEncrypt(partner, kp.Private)
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

// DeriveAsymmetricKeyFrom unwraps a private key that partner wrapped for this
// key.
func (k *Key) DeriveAsymmetricKeyFrom(partner *Key, wrapped []byte) (*Key, error) {
	if k.mode.KeyType.Elliptic() {
		cs, err := k.CipherSetFor(partner)
		if err != nil {
			return nil, err
		}
		return FromWrapped(k.provider, k.cfg, cs, wrapped)
	}
	if err := k.checkPartner(partner); err != nil {
		return nil, err
	}
	if err := limits.ValidateWrappedPrivateKey(wrapped); err != nil {
		return nil, err
	}
	tag, ct, err := haystack.Unhide(wrapped)
	if err != nil {
		return nil, err
	}
	m, err := mode.DecodeAsymKeyMode(tag)
	if err != nil {
		return nil, err
	}
	private, err := k.blockDecrypt(ct)
	if err != nil {
		return nil, err
	}
	defer crypto.ZeroBytes(private)
	pair, err := k.provider.DeriveKeyPair(m.KeyType, private, nil)
	if err != nil {
		return nil, err
	}
	return newKey(k.provider, k.cfg, m, pair), nil
}

// SecureSymmetricKey wraps key for this key itself.
func (k *Key) SecureSymmetricKey(key *crypto.SymmetricKey) ([]byte, error) {
	return k.SecureSymmetricKeyFor(k, key)
}

// DeriveSymmetricKey unwraps a key wrapped by SecureSymmetricKey.
func (k *Key) DeriveSymmetricKey(wrapped []byte) (*crypto.SymmetricKey, error) {
	return k.DeriveSymmetricKeyFrom(k, wrapped)
}

// SecurePrivateKey wraps the private half of kp for this key itself.
func (k *Key) SecurePrivateKey(kp *crypto.KeyPair, m mode.AsymKeyMode) ([]byte, error) {
	return k.SecurePrivateKeyFor(k, kp, m)
}

// DeriveAsymmetricKey unwraps a key wrapped by SecurePrivateKey.
func (k *Key) DeriveAsymmetricKey(wrapped []byte) (*Key, error) {
	return k.DeriveAsymmetricKeyFrom(k, wrapped)
}
